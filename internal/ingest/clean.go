package ingest

import (
	"strings"
	"unicode"

	"github.com/JonMunkholm/hsncheck/internal/core"
)

// HeaderIndex maps lowercased, cleaned header names to column positions.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a header row. The first
// occurrence of a repeated name wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace, an Excel formula wrapper (="..."), a leading
// text-marker apostrophe, and surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.TrimPrefix(s, "'")
	s = strings.Trim(s, `"`)

	return strings.TrimSpace(s)
}

// CleanCode keeps only the ASCII digits of a code cell, so "0101.21" and
// "0101 21" both become "010121". Spreadsheets that stored a code as a
// number with a trailing ".0" lose it first.
func CleanCode(s string) string {
	s = CleanCell(s)
	s = strings.TrimSuffix(s, ".0")

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// CleanDescription trims and collapses internal whitespace. An empty result
// becomes core.NoDescription.
func CleanDescription(s string) string {
	s = strings.Join(strings.Fields(CleanCell(s)), " ")
	if s == "" {
		return core.NoDescription
	}
	return s
}

// SplitCombined splits a single-column "CODE Description" cell into its
// leading digit run and the remaining text.
func SplitCombined(s string) (code, desc string) {
	s = CleanCell(s)
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	rest := strings.TrimLeftFunc(s[i:], func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == ':' || r == '|'
	})
	return s[:i], rest
}

// isCodeLike reports whether a cell looks like a code after cleaning:
// digits with optional dots or spaces, and nothing else.
func isCodeLike(s string) bool {
	s = CleanCell(s)
	if s == "" {
		return false
	}
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == ' ':
		default:
			return false
		}
	}
	return digits > 0
}
