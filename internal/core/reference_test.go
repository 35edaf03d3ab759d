package core

import (
	"errors"
	"reflect"
	"testing"
)

// ============================================================================
// Test fixtures
// ============================================================================

func sampleEntries() []ReferenceEntry {
	return []ReferenceEntry{
		{Code: "01", Description: "Live animals"},
		{Code: "0101", Description: "Live horses, asses, mules and hinnies"},
		{Code: "010121", Description: "Pure-bred breeding animals"},
	}
}

func sampleTable(t *testing.T) *ReferenceTable {
	t.Helper()
	table, err := NewReferenceTable("test", sampleEntries())
	if err != nil {
		t.Fatalf("NewReferenceTable: %v", err)
	}
	return table
}

// ============================================================================
// Construction
// ============================================================================

func TestNewReferenceTable_RejectsBadEntries(t *testing.T) {
	tests := []struct {
		name   string
		entry  ReferenceEntry
		reason string
	}{
		{"empty code", ReferenceEntry{Code: "", Description: "x"}, "empty code"},
		{"letters", ReferenceEntry{Code: "01a", Description: "x"}, "code must contain only digits"},
		{"spaces", ReferenceEntry{Code: "01 01", Description: "x"}, "code must contain only digits"},
		{"blank description", ReferenceEntry{Code: "01", Description: "  "}, "empty description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := append(sampleEntries(), tt.entry)
			_, err := NewReferenceTable("test", entries)

			var entryErr *InvalidEntryError
			if !errors.As(err, &entryErr) {
				t.Fatalf("expected *InvalidEntryError, got %v", err)
			}
			if entryErr.Index != 3 {
				t.Errorf("expected index 3, got %d", entryErr.Index)
			}
			if entryErr.Reason != tt.reason {
				t.Errorf("expected reason %q, got %q", tt.reason, entryErr.Reason)
			}
		})
	}
}

func TestNewReferenceTable_LastWriteWins(t *testing.T) {
	table, err := NewReferenceTable("test", []ReferenceEntry{
		{Code: "01", Description: "first"},
		{Code: "01", Description: "second"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if table.Len() != 1 {
		t.Errorf("expected 1 code, got %d", table.Len())
	}
	if desc, _ := table.Lookup("01"); desc != "second" {
		t.Errorf("expected later entry to win, got %q", desc)
	}
}

func TestNewReferenceTable_Empty(t *testing.T) {
	table, err := NewReferenceTable("empty", nil)
	if err != nil {
		t.Fatal(err)
	}
	if table.Len() != 0 {
		t.Errorf("expected empty table, got %d codes", table.Len())
	}
	if got := table.ValidLengths(); len(got) != 0 {
		t.Errorf("expected no lengths, got %v", got)
	}
}

// ============================================================================
// Queries
// ============================================================================

func TestReferenceTable_Lookup(t *testing.T) {
	table := sampleTable(t)

	if desc, ok := table.Lookup("0101"); !ok || desc != "Live horses, asses, mules and hinnies" {
		t.Errorf("Lookup(0101) = %q, %v", desc, ok)
	}
	if _, ok := table.Lookup(" 0101"); ok {
		t.Error("Lookup must not normalize its input")
	}
	if _, ok := table.Lookup("0102"); ok {
		t.Error("Lookup(0102) should miss")
	}
}

func TestReferenceTable_ValidLengths(t *testing.T) {
	table := sampleTable(t)

	got := table.ValidLengths()
	if !reflect.DeepEqual(got, []int{2, 4, 6}) {
		t.Fatalf("expected [2 4 6], got %v", got)
	}

	got[0] = 99
	if table.ValidLengths()[0] != 2 {
		t.Error("ValidLengths must return a copy")
	}
}

func TestReferenceTable_CodesSorted(t *testing.T) {
	table := sampleTable(t)

	want := []string{"01", "0101", "010121"}
	if got := table.Codes(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestReferenceTable_Children(t *testing.T) {
	table, err := NewReferenceTable("test", []ReferenceEntry{
		{Code: "01", Description: "Live animals"},
		{Code: "0102", Description: "Bovine"},
		{Code: "0101", Description: "Horses"},
		{Code: "010121", Description: "Pure-bred"},
		{Code: "02", Description: "Meat"},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []ReferenceEntry{
		{Code: "0101", Description: "Horses"},
		{Code: "0102", Description: "Bovine"},
	}
	if got := table.Children("01"); !reflect.DeepEqual(got, want) {
		t.Errorf("Children(01) = %v, want %v", got, want)
	}

	if got := table.Children("99"); len(got) != 0 {
		t.Errorf("expected no children for 99, got %v", got)
	}

	if got := table.Children(""); len(got) != 2 {
		t.Errorf("expected 2 chapter codes, got %v", got)
	}
}

func TestReferenceTable_Sample(t *testing.T) {
	table := sampleTable(t)

	if got := table.Sample(2); len(got) != 2 || got[0].Code != "01" {
		t.Errorf("unexpected sample %v", got)
	}
	if got := table.Sample(50); len(got) != 3 {
		t.Errorf("expected sample capped at 3, got %d", len(got))
	}
	if got := table.Sample(-1); len(got) != 0 {
		t.Errorf("expected empty sample for negative n, got %v", got)
	}
}

func TestIsDigits(t *testing.T) {
	tests := map[string]bool{
		"":         false,
		"0":        true,
		"01012100": true,
		"12a4":     false,
		"12 4":     false,
		"١٢":       false, // Arabic-Indic digits are not ASCII
		"-12":      false,
	}
	for in, want := range tests {
		if got := IsDigits(in); got != want {
			t.Errorf("IsDigits(%q) = %v, want %v", in, got, want)
		}
	}
}
