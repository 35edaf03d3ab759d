package ingest

import (
	"fmt"
	"strings"
)

// Method records how a column was chosen.
type Method string

const (
	ByName     Method = "name"
	ByContent  Method = "content"
	ByPosition Method = "position"
	Combined   Method = "combined"
	Override   Method = "override"
	NotFound   Method = "none"
)

// NoColumn marks an assignment without a description column.
const NoColumn = -1

// contentThreshold is the share of non-empty samples that must look like
// codes for a column to be picked by content.
const contentThreshold = 0.8

// ColumnAssignment says which columns hold codes and descriptions.
type ColumnAssignment struct {
	Code              int    `json:"code_column"`
	CodeName          string `json:"code_name,omitempty"`
	CodeMethod        Method `json:"code_method"`
	Description       int    `json:"description_column"`
	DescriptionName   string `json:"description_name,omitempty"`
	DescriptionMethod Method `json:"description_method"`
}

// IsCombined reports whether codes and descriptions share one column.
func (a ColumnAssignment) IsCombined() bool {
	return a.CodeMethod == Combined
}

func (a ColumnAssignment) String() string {
	if a.IsCombined() {
		return fmt.Sprintf("code+description=%d (combined)", a.Code)
	}
	return fmt.Sprintf("code=%d (%s), description=%d (%s)", a.Code, a.CodeMethod, a.Description, a.DescriptionMethod)
}

var (
	codeKeywords       = []string{"hsn", "sac", "code"}
	descStrongKeywords = []string{"desc"}
	descWeakKeywords   = []string{"name", "product", "item", "goods"}
)

// InferColumns picks the code and description columns from a header row and
// a few sample data rows. It does not read any other state.
//
// Resolution order for the code column: a header containing "hsn", "sac" or
// "code" (and not "desc"); else the first column whose samples are mostly
// code-like; else column 0 when there are no samples to judge. Descriptions
// use a header containing "desc", then "name"/"product"/"item"/"goods", then
// the first other column holding mostly text, then the first other column.
// A one-column file is treated as combined "CODE Description" cells.
func InferColumns(header []string, samples [][]string) (ColumnAssignment, error) {
	width := len(header)
	for _, row := range samples {
		width = max(width, len(row))
	}
	if width == 0 {
		return ColumnAssignment{}, ErrNoCodeColumn
	}

	if width == 1 {
		return ColumnAssignment{
			Code:              0,
			CodeName:          headerName(header, 0),
			CodeMethod:        Combined,
			Description:       0,
			DescriptionName:   headerName(header, 0),
			DescriptionMethod: Combined,
		}, nil
	}

	a := ColumnAssignment{Code: NoColumn, Description: NoColumn, DescriptionMethod: NotFound}

	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.ToLower(CleanCell(h))
	}

	for i, n := range names {
		if containsAny(n, codeKeywords) && !containsAny(n, descStrongKeywords) {
			a.Code, a.CodeMethod = i, ByName
			break
		}
	}

	if a.Code == NoColumn {
		for col := 0; col < width; col++ {
			if codeShare(samples, col) >= contentThreshold {
				a.Code, a.CodeMethod = col, ByContent
				break
			}
		}
	}

	if a.Code == NoColumn {
		if hasSampleData(samples) {
			return ColumnAssignment{}, fmt.Errorf("%w among %d columns", ErrNoCodeColumn, width)
		}
		a.Code, a.CodeMethod = 0, ByPosition
	}

	for _, keywords := range [][]string{descStrongKeywords, descWeakKeywords} {
		for i, n := range names {
			if i != a.Code && containsAny(n, keywords) {
				a.Description, a.DescriptionMethod = i, ByName
				break
			}
		}
		if a.Description != NoColumn {
			break
		}
	}

	if a.Description == NoColumn && hasSampleData(samples) {
		for col := 0; col < width; col++ {
			if col != a.Code && textShare(samples, col) >= contentThreshold {
				a.Description, a.DescriptionMethod = col, ByContent
				break
			}
		}
	}

	if a.Description == NoColumn {
		for col := 0; col < width; col++ {
			if col != a.Code {
				a.Description, a.DescriptionMethod = col, ByPosition
				break
			}
		}
	}

	a.CodeName = headerName(header, a.Code)
	a.DescriptionName = headerName(header, a.Description)
	return a, nil
}

func headerName(header []string, i int) string {
	if i < 0 || i >= len(header) {
		return ""
	}
	return CleanCell(header[i])
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func hasSampleData(samples [][]string) bool {
	for _, row := range samples {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				return true
			}
		}
	}
	return false
}

// codeShare is the fraction of non-empty cells in col that look like codes.
func codeShare(samples [][]string, col int) float64 {
	return share(samples, col, isCodeLike)
}

// textShare is the fraction of non-empty cells in col that contain a letter.
func textShare(samples [][]string, col int) float64 {
	return share(samples, col, func(s string) bool {
		return strings.IndexFunc(s, isLetter) >= 0
	})
}

func share(samples [][]string, col int, pred func(string) bool) float64 {
	var total, hits int
	for _, row := range samples {
		if col >= len(row) || strings.TrimSpace(row[col]) == "" {
			continue
		}
		total++
		if pred(row[col]) {
			hits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 0x7F
}
