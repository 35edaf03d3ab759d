package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCodes(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"plain question", "Is 0101 a valid HSN code?", []string{"0101"}},
		{"several", "Check 01, 010121 and 8471.30 please", []string{"01", "010121", "8471", "30"}},
		{"too short", "Code 7 is not a code", nil},
		{"too long", "Call 9876543210 now", nil},
		{"embedded in word", "invoice INV20240101 for HSN0101", nil},
		{"eight digits", "tariff 01012100", []string{"01012100"}},
		{"repeats kept", "0101 or 0101?", []string{"0101", "0101"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Codes(tt.text)); diff != "" {
				t.Errorf("Codes(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestParseList(t *testing.T) {
	text := "0101\r\n 12a4 ;010121,,\n\t\n  9999  "
	want := []string{"0101", "12a4", "010121", "9999"}

	if diff := cmp.Diff(want, ParseList(text)); diff != "" {
		t.Errorf("ParseList mismatch (-want +got):\n%s", diff)
	}

	if got := ParseList("  \n ; "); len(got) != 0 {
		t.Errorf("expected no items, got %v", got)
	}
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"02", "01", "02", "03", "01"})
	want := []string{"02", "01", "03"}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Dedupe mismatch (-want +got):\n%s", diff)
	}
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"list keeps malformed", "0101\n12a4", []string{"0101", "12a4"}},
		{"comma list", "01, 0101 ,010121", []string{"01", "0101", "010121"}},
		{"prose extracts", "Is 0101 valid? Also check 8471.", []string{"0101", "8471"}},
		{"prose without codes", "no codes here", []string{"no codes here"}},
		{"blank", "  \n ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Candidates(tt.text)); diff != "" {
				t.Errorf("Candidates(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}
