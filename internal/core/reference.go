package core

// reference.go holds the immutable lookup table every validation runs against.
//
// A ReferenceTable is built once from ingested entries and never mutated
// afterwards, so a single *ReferenceTable can be shared by any number of
// goroutines without locking. Reloading master data means building a new
// table and publishing it (see Service.Publish), never editing this one.

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// NoDescription is the description stored for codes whose source row had none.
const NoDescription = "No description available"

// ReferenceEntry is one code/description pair handed over by ingestion.
type ReferenceEntry struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// InvalidEntryError reports a reference entry that breaks the table invariants.
type InvalidEntryError struct {
	Index  int    // Position in the entries slice
	Code   string // Offending code (may be empty)
	Reason string
}

func (e *InvalidEntryError) Error() string {
	return fmt.Sprintf("invalid reference entry %d (%q): %s", e.Index, e.Code, e.Reason)
}

// ReferenceTable maps known codes to their descriptions.
type ReferenceTable struct {
	entries  map[string]string
	lengths  []int // sorted, distinct
	source   string
	loadedAt time.Time
}

// NewReferenceTable builds a table from entries. Later duplicates overwrite
// earlier ones. Every code must be a non-empty run of ASCII digits and every
// description must be non-empty; ingestion is expected to have cleaned and
// defaulted them already (see NoDescription).
func NewReferenceTable(source string, entries []ReferenceEntry) (*ReferenceTable, error) {
	t := &ReferenceTable{
		entries:  make(map[string]string, len(entries)),
		source:   source,
		loadedAt: time.Now(),
	}

	seen := make(map[int]struct{})
	for i, e := range entries {
		if e.Code == "" {
			return nil, &InvalidEntryError{Index: i, Reason: "empty code"}
		}
		if !IsDigits(e.Code) {
			return nil, &InvalidEntryError{Index: i, Code: e.Code, Reason: "code must contain only digits"}
		}
		if strings.TrimSpace(e.Description) == "" {
			return nil, &InvalidEntryError{Index: i, Code: e.Code, Reason: "empty description"}
		}

		t.entries[e.Code] = e.Description
		seen[len(e.Code)] = struct{}{}
	}

	t.lengths = make([]int, 0, len(seen))
	for n := range seen {
		t.lengths = append(t.lengths, n)
	}
	sort.Ints(t.lengths)

	return t, nil
}

// Lookup returns the description for an exact code match.
func (t *ReferenceTable) Lookup(code string) (string, bool) {
	desc, ok := t.entries[code]
	return desc, ok
}

// ValidLengths returns the distinct code lengths present in the table, ascending.
// The returned slice is a copy.
func (t *ReferenceTable) ValidLengths() []int {
	out := make([]int, len(t.lengths))
	copy(out, t.lengths)
	return out
}

// hasLength reports whether n is one of the table's code lengths.
func (t *ReferenceTable) hasLength(n int) bool {
	i := sort.SearchInts(t.lengths, n)
	return i < len(t.lengths) && t.lengths[i] == n
}

// Len returns the number of distinct codes.
func (t *ReferenceTable) Len() int {
	return len(t.entries)
}

// Source describes where the table was loaded from.
func (t *ReferenceTable) Source() string {
	return t.source
}

// LoadedAt is when the table was built.
func (t *ReferenceTable) LoadedAt() time.Time {
	return t.loadedAt
}

// Codes returns every code in the table, sorted.
func (t *ReferenceTable) Codes() []string {
	codes := make([]string, 0, len(t.entries))
	for c := range t.entries {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Children returns the entries directly below prefix: codes that start with
// prefix and are exactly two digits longer. Sorted by code.
func (t *ReferenceTable) Children(prefix string) []ReferenceEntry {
	var out []ReferenceEntry
	for code, desc := range t.entries {
		if len(code) == len(prefix)+2 && strings.HasPrefix(code, prefix) {
			out = append(out, ReferenceEntry{Code: code, Description: desc})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Sample returns up to n entries in code order, for previews.
func (t *ReferenceTable) Sample(n int) []ReferenceEntry {
	codes := t.Codes()
	n = max(0, min(n, len(codes)))
	out := make([]ReferenceEntry, 0, n)
	for _, c := range codes[:n] {
		out = append(out, ReferenceEntry{Code: c, Description: t.entries[c]})
	}
	return out
}

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
