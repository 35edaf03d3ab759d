package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/hsncheck/internal/core"
)

// DefaultSampleSize is how many data rows InferColumns sees.
const DefaultSampleSize = 20

// Source fetches reference rows from somewhere.
type Source interface {
	// Fetch returns the parsed rows. Implementations honour ctx cancellation.
	Fetch(ctx context.Context) (*Dataset, error)
	// String describes the source for logs and status output.
	String() string
}

// Options controls Build and Load.
type Options struct {
	Override   *MappingOverride
	SampleSize int
}

// LoadReport describes what happened to the rows of one load.
type LoadReport struct {
	Source     string           `json:"source"`
	Format     Format           `json:"format"`
	Encoding   string           `json:"encoding"`
	HasHeader  bool             `json:"has_header"`
	Assignment ColumnAssignment `json:"assignment"`
	Rows       int              `json:"rows"`       // data rows read
	Kept       int              `json:"kept"`       // rows that produced an entry
	Skipped    int              `json:"skipped"`    // rows without a usable code
	Duplicates int              `json:"duplicates"` // rows whose code was already seen
	Codes      int              `json:"codes"`      // distinct codes in the table
	Duration   time.Duration    `json:"duration_ns"`
}

// Load fetches src and builds a reference table from it.
func Load(ctx context.Context, src Source, opts Options) (*core.ReferenceTable, LoadReport, error) {
	start := time.Now()

	ds, err := src.Fetch(ctx)
	if err != nil {
		return nil, LoadReport{Source: src.String()}, fmt.Errorf("fetch %s: %w", src, err)
	}
	if ds.Origin == "" {
		ds.Origin = src.String()
	}

	table, report, err := Build(ds, opts)
	report.Duration = time.Since(start)
	if err != nil {
		return nil, report, fmt.Errorf("load %s: %w", src, err)
	}

	slog.Info("reference data loaded",
		"source", report.Source,
		"format", report.Format,
		"encoding", report.Encoding,
		"assignment", report.Assignment.String(),
		"rows", report.Rows,
		"codes", report.Codes,
		"skipped", report.Skipped,
		"duplicates", report.Duplicates,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return table, report, nil
}

// Loader adapts Load to core.Loader.
func Loader(src Source, opts Options) core.Loader {
	return func(ctx context.Context) (*core.ReferenceTable, error) {
		table, _, err := Load(ctx, src, opts)
		return table, err
	}
}

// Build turns parsed rows into a reference table. It never fetches.
func Build(ds *Dataset, opts Options) (*core.ReferenceTable, LoadReport, error) {
	report := LoadReport{
		Source:   ds.Origin,
		Format:   ds.Format,
		Encoding: ds.Encoding,
	}

	header, data, assignment, err := splitAndAssign(ds, opts)
	if err != nil {
		return nil, report, err
	}
	report.HasHeader = header != nil
	report.Assignment = assignment
	report.Rows = len(data)

	entries := make([]core.ReferenceEntry, 0, len(data))
	seen := make(map[string]struct{}, len(data))

	for _, row := range data {
		code, desc := extractEntry(row, assignment)
		if code == "" {
			report.Skipped++
			continue
		}
		if _, dup := seen[code]; dup {
			report.Duplicates++
		}
		seen[code] = struct{}{}
		entries = append(entries, core.ReferenceEntry{Code: code, Description: desc})
	}
	report.Kept = len(entries)

	if len(entries) == 0 {
		return nil, report, fmt.Errorf("%w: %d rows read, none had a code", ErrNoUsableRows, report.Rows)
	}

	table, err := core.NewReferenceTable(ds.Origin, entries)
	if err != nil {
		return nil, report, err
	}
	report.Codes = table.Len()
	return table, report, nil
}

// CodesFromDataset returns the trimmed, non-blank cells of the inferred code
// column, in file order and without cleaning, so malformed codes still reach
// validation. Used for bulk uploads.
func CodesFromDataset(ds *Dataset, opts Options) ([]string, ColumnAssignment, error) {
	_, data, a, err := splitAndAssign(ds, opts)
	if err != nil {
		return nil, a, err
	}

	codes := make([]string, 0, len(data))
	for _, row := range data {
		var cell string
		if a.IsCombined() {
			cell, _ = SplitCombined(row[0])
		} else if a.Code < len(row) {
			cell = CleanCell(row[a.Code])
		}
		if cell != "" {
			codes = append(codes, cell)
		}
	}
	return codes, a, nil
}

// splitAndAssign separates the header from data rows and picks columns.
// header is nil for header-less input.
func splitAndAssign(ds *Dataset, opts Options) ([]string, [][]string, ColumnAssignment, error) {
	rows := ds.Rows
	if len(rows) == 0 {
		return nil, nil, ColumnAssignment{}, ErrEmptyFile
	}
	if ds.Assignment != nil && opts.Override == nil {
		return rows[0], rows[1:], *ds.Assignment, nil
	}

	hasHeader := looksLikeHeader(rows[0])
	if opts.Override != nil && opts.Override.HasHeader != nil {
		hasHeader = *opts.Override.HasHeader
	}

	var header []string
	data := rows
	if hasHeader {
		header, data = rows[0], rows[1:]
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	if header == nil {
		header = syntheticHeader(width)
	}

	var (
		a   ColumnAssignment
		err error
	)
	if opts.Override != nil {
		a, err = opts.Override.Assign(header, width)
	} else {
		n := opts.SampleSize
		if n <= 0 {
			n = DefaultSampleSize
		}
		a, err = InferColumns(header, data[:min(n, len(data))])
	}
	if err != nil {
		return nil, nil, a, err
	}

	if !hasHeader {
		header = nil
	}
	return header, data, a, nil
}

// looksLikeHeader reports whether the first row is a header. A row holding
// any code-like cell, or a single "CODE text" cell, is data.
func looksLikeHeader(row []string) bool {
	nonEmpty := 0
	for _, c := range row {
		if strings.TrimSpace(c) == "" {
			continue
		}
		nonEmpty++
		if isCodeLike(c) {
			return false
		}
	}
	if nonEmpty == 1 {
		for _, c := range row {
			if code, _ := SplitCombined(c); code != "" {
				return false
			}
		}
	}
	return true
}

func syntheticHeader(width int) []string {
	h := make([]string, width)
	for i := range h {
		h[i] = "Column" + strconv.Itoa(i+1)
	}
	return h
}

func extractEntry(row []string, a ColumnAssignment) (string, string) {
	if a.IsCombined() {
		if len(row) == 0 {
			return "", ""
		}
		code, desc := SplitCombined(row[a.Code])
		return CleanCode(code), CleanDescription(desc)
	}

	var code, desc string
	if a.Code < len(row) {
		code = CleanCode(row[a.Code])
	}
	if a.Description != NoColumn && a.Description < len(row) {
		desc = row[a.Description]
	}
	return code, CleanDescription(desc)
}
