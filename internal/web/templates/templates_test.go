package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/hsncheck/internal/core"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestResult_EscapesInput(t *testing.T) {
	r := core.ValidationResult{
		Code:      "<script>",
		Hierarchy: []core.ParentCheck{},
		Messages:  []string{core.MsgNotDigits},
	}

	out := render(t, Result(r))
	if strings.Contains(out, "<script>") {
		t.Errorf("code not escaped: %s", out)
	}
	if !strings.Contains(out, "Invalid HSN code") {
		t.Errorf("missing verdict: %s", out)
	}
}

func TestResult_Hierarchy(t *testing.T) {
	r := core.ValidationResult{
		Code:        "010121",
		IsValid:     true,
		Description: "Pure-bred breeding animals",
		Hierarchy: []core.ParentCheck{
			{ParentCode: "01", Exists: true, Description: "Live animals"},
			{ParentCode: "0101", Exists: false},
		},
		Messages: []string{core.MsgFormatValid, core.MsgExists},
	}

	out := render(t, Result(r))
	for _, want := range []string{"Valid HSN code", "Pure-bred breeding animals", "<code>01</code>", "<code>0101</code>", "Live animals"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestBulk_Counts(t *testing.T) {
	report := core.NewBulkReport([]core.ValidationResult{
		{Code: "01", IsValid: true, Description: "Live animals"},
		{Code: "99", Messages: []string{core.MsgNotFound}},
	})

	out := render(t, Bulk(report))
	if !strings.Contains(out, "2 codes checked") {
		t.Errorf("missing total: %s", out)
	}
	if !strings.Contains(out, "1 valid") || !strings.Contains(out, "1 invalid") {
		t.Errorf("missing counts: %s", out)
	}
}

func TestIndex_StatusAndInput(t *testing.T) {
	status := core.ReferenceStatus{Loaded: true, Source: "hsn.csv", Codes: 3, ValidLengths: []int{2, 4, 6}, LengthPolicy: "advisory"}

	out := render(t, Index(status, "0101 & more", nil))
	if !strings.Contains(out, "3 codes loaded from hsn.csv") {
		t.Errorf("missing status: %s", out)
	}
	if !strings.Contains(out, "2, 4, 6") {
		t.Errorf("missing lengths: %s", out)
	}
	if !strings.Contains(out, "0101 &amp; more") {
		t.Errorf("input not escaped: %s", out)
	}
	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Errorf("missing layout")
	}
}

func TestStatusLine_NotLoaded(t *testing.T) {
	out := render(t, StatusLine(core.ReferenceStatus{LastError: "fetch failed"}))
	if !strings.Contains(out, "not loaded") || !strings.Contains(out, "fetch failed") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestErrorAlert(t *testing.T) {
	out := render(t, ErrorAlert("Reference data not loaded", "Try again shortly", "REF001"))
	for _, want := range []string{"Reference data not loaded", "Try again shortly", "REF001"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
