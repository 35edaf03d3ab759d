package ingest

// decode.go turns raw bytes into rows.
//
// Text input has its UTF-8 BOM removed. Input that is not valid UTF-8 is
// decoded as ISO-8859-1, which maps every byte to a rune and so never fails.
// The delimiter of text input is sniffed from the first non-empty line.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// Encodings reported in Dataset.Encoding.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "iso-8859-1"
	EncodingXLSX   = "xlsx"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Dataset is a parsed grid of cells, header row included if the file has one.
type Dataset struct {
	Origin   string
	Format   Format
	Encoding string
	Rows     [][]string

	// Assignment, when set, fixes the columns and marks Rows[0] as a header.
	// Sources with a known schema set it; files leave it nil.
	Assignment *ColumnAssignment
}

// ParseOptions controls Parse.
type ParseOptions struct {
	Format Format // FormatUnknown detects from name and content
	Sheet  string // XLSX sheet; empty selects the first sheet
}

// Parse decodes data into a Dataset. name is used for format detection
// and reporting only.
func Parse(name string, data []byte, opts ParseOptions) (*Dataset, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	format := opts.Format
	if format == FormatUnknown {
		format = FormatFromName(name)
	}
	if bytes.HasPrefix(data, zipMagic) {
		format = FormatXLSX
	} else if format == FormatUnknown && hasForeignExt(name) {
		return nil, ErrUnsupportedFormat
	}

	var (
		ds  *Dataset
		err error
	)
	switch format {
	case FormatXLSX:
		ds, err = parseXLSX(data, opts.Sheet)
	case FormatCSV, FormatTSV, FormatUnknown:
		ds, err = parseDelimited(data, format)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	ds.Origin = name
	ds.Rows = dropBlankRows(ds.Rows)
	if len(ds.Rows) == 0 {
		return nil, ErrEmptyFile
	}
	return ds, nil
}

// decodeText strips a BOM and falls back to ISO-8859-1 for invalid UTF-8.
func decodeText(data []byte) (string, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), EncodingUTF8, nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", fmt.Errorf("encoding error: %w", err)
	}
	return string(out), EncodingLatin1, nil
}

func parseDelimited(data []byte, format Format) (*Dataset, error) {
	text, enc, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	comma := ','
	switch format {
	case FormatTSV:
		comma = '\t'
	case FormatUnknown, FormatCSV:
		comma = sniffDelimiter(text)
	}
	if comma == '\t' {
		format = FormatTSV
	} else {
		format = FormatCSV
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		rows = append(rows, rec)
	}

	return &Dataset{Format: format, Encoding: enc, Rows: rows}, nil
}

// sniffDelimiter picks tab, semicolon, or comma by counting occurrences in
// the first non-empty line.
func sniffDelimiter(text string) rune {
	line := text
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			line = l
			break
		}
	}

	best, bestCount := ',', strings.Count(line, ",")
	for _, c := range []rune{'\t', ';'} {
		if n := strings.Count(line, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

func parseXLSX(data []byte, sheet string) (*Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrUnsupportedFormat, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyFile
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return &Dataset{Format: FormatXLSX, Encoding: EncodingXLSX, Rows: rows}, nil
}

func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
