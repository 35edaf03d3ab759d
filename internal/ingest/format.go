// Package ingest turns reference files and databases into a core.ReferenceTable.
//
// Ingestion runs in three steps:
//  1. A Source fetches raw rows (file, HTTP, S3, SQL, or an uploaded reader)
//  2. InferColumns decides which column holds codes and which descriptions
//  3. Rows are cleaned and handed to core.NewReferenceTable
//
// Column inference is a pure function of the header and a few sample rows,
// so its decision is reported in LoadReport and can be overridden with a
// MappingOverride.
package ingest

import (
	"errors"
	"path"
	"strings"
)

// Sentinel errors. Their messages are matched by core.MapError.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .csv, .tsv or .xlsx")
	ErrEmptyFile         = errors.New("file is empty")
	ErrFileTooLarge      = errors.New("file too large")
	ErrNoCodeColumn      = errors.New("no code column found")
	ErrNoUsableRows      = errors.New("no usable rows")
	ErrSourceUnavailable = errors.New("source unavailable")
)

// Format identifies how raw bytes are parsed into rows.
type Format string

const (
	FormatUnknown Format = ""
	FormatCSV     Format = "csv"
	FormatTSV     Format = "tsv"
	FormatXLSX    Format = "xlsx"
	FormatSQL     Format = "sql"
)

// ParseFormat accepts a format name ("csv", "tsv", "xlsx", "excel") or an
// empty string for auto-detection.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatUnknown, nil
	case "csv", "txt":
		return FormatCSV, nil
	case "tsv", "tab":
		return FormatTSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return FormatUnknown, ErrUnsupportedFormat
	}
}

// FormatFromName guesses the format from a file name or URL path.
func FormatFromName(name string) Format {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV
	case ".tsv", ".tab":
		return FormatTSV
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatUnknown
	}
}

// hasForeignExt reports whether name carries an alphabetic extension that
// FormatFromName does not recognise, such as ".pdf" or ".xls". Names without
// an extension are left to content sniffing.
func hasForeignExt(name string) bool {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if ext == "" || FormatFromName(name) != FormatUnknown {
		return false
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// formatFromContentType maps a MIME type to a format, for HTTP sources.
func formatFromContentType(ct string) Format {
	ct = strings.ToLower(ct)
	switch {
	case strings.Contains(ct, "spreadsheetml"):
		return FormatXLSX
	case strings.Contains(ct, "tab-separated"):
		return FormatTSV
	case strings.Contains(ct, "csv"), strings.HasPrefix(ct, "text/plain"):
		return FormatCSV
	default:
		return FormatUnknown
	}
}

// zipMagic starts every XLSX file.
var zipMagic = []byte("PK\x03\x04")
