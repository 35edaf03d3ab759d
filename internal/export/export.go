// Package export writes validation results as CSV, JSON or XLSX downloads.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/hsncheck/internal/core"
)

// Header is the column layout shared by the CSV and XLSX exports.
var Header = []string{"HSN Code", "Valid", "Format Valid", "Exists in Database", "Description", "Messages"}

// Format is an export file type.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	XLSX Format = "xlsx"
)

// ParseFormat accepts "csv", "json" or "xlsx". Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", CSV:
		return CSV, nil
	case JSON:
		return JSON, nil
	case XLSX:
		return XLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType is the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case JSON:
		return "application/json"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename is the default download name for f.
func (f Format) Filename() string {
	return "hsn_validation_results." + string(f)
}

// Row renders one result as export cells.
func Row(r core.ValidationResult) []string {
	desc := r.Description
	if desc == "" {
		desc = "N/A"
	}
	return []string{
		safeCell(r.Code),
		yesNo(r.IsValid),
		yesNo(r.FormatValid),
		yesNo(r.Exists),
		safeCell(desc),
		safeCell(strings.Join(r.Messages, "; ")),
	}
}

// safeCell quotes text that a spreadsheet would otherwise evaluate as a
// formula. Codes are echoed from user input, so they can start with "=".
func safeCell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

// WriteCSV writes a header row followed by one row per result.
func WriteCSV(w io.Writer, results []core.ValidationResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write(Row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the full report, hierarchy included.
func WriteJSON(w io.Writer, report *core.BulkReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WriteXLSX writes the same table as WriteCSV into a single-sheet workbook.
func WriteXLSX(w io.Writer, results []core.ValidationResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	if err := sw.SetRow("A1", toCells(Header)); err != nil {
		return err
	}
	for i, r := range results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toCells(Row(r))); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

// Write dispatches on format.
func Write(w io.Writer, format Format, report *core.BulkReport) error {
	switch format {
	case JSON:
		return WriteJSON(w, report)
	case XLSX:
		return WriteXLSX(w, report.Results)
	default:
		return WriteCSV(w, report.Results)
	}
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
