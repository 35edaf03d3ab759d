// Package extract pulls candidate codes out of free text and pasted lists.
package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// codePattern matches 2 to 8 digit runs that stand alone as words, so
// "0101" in "is 0101 valid?" matches but digits inside "INV20240101" or a
// 10-digit phone number do not.
var codePattern = regexp.MustCompile(`\b\d{2,8}\b`)

// Codes returns candidate codes found in text, in order of appearance.
// Repeats are kept; use Dedupe to drop them.
func Codes(text string) []string {
	return codePattern.FindAllString(text, -1)
}

// ParseList splits a pasted list on newlines, commas, semicolons and tabs.
// Items are trimmed and blanks dropped. Items are not otherwise cleaned, so
// malformed entries still reach validation.
func ParseList(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '\n', '\r', ',', ';', '\t':
			return true
		}
		return false
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Dedupe removes repeats, keeping the first occurrence of each code.
func Dedupe(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Candidates decides how to read user input. Input made only of single-token
// items ("0101", "12a4") is a list and every item is kept, malformed or not.
// Anything containing prose is searched for codes instead. If prose holds no
// codes the raw items are returned so the user still gets a verdict.
func Candidates(text string) []string {
	items := ParseList(text)
	for _, item := range items {
		if strings.ContainsFunc(item, unicode.IsSpace) {
			if codes := Codes(text); len(codes) > 0 {
				return codes
			}
			return items
		}
	}
	return items
}
