package ingest

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MappingOverride pins column choices instead of inferring them. Columns are
// named by header text (case-insensitive) or by zero-based index.
//
//	code_column: "HSN Code"
//	description_column: "Item Description"
//	has_header: true
//	sheet: "Master"
type MappingOverride struct {
	CodeColumn        string `yaml:"code_column"`
	CodeIndex         *int   `yaml:"code_index"`
	DescriptionColumn string `yaml:"description_column"`
	DescriptionIndex  *int   `yaml:"description_index"`
	HasHeader         *bool  `yaml:"has_header"`
	Sheet             string `yaml:"sheet"`
}

// LoadMappingOverride reads a YAML override file.
func LoadMappingOverride(path string) (*MappingOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping file: %w", err)
	}
	return ParseMappingOverride(data)
}

// ParseMappingOverride decodes YAML override content.
func ParseMappingOverride(data []byte) (*MappingOverride, error) {
	var m MappingOverride
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mapping file: %w", err)
	}
	if m.CodeColumn == "" && m.CodeIndex == nil {
		return nil, errors.New("mapping file must set code_column or code_index")
	}
	return &m, nil
}

// Assign resolves the override against header. width is the widest row seen.
// Without a description the assignment records NoColumn.
func (m *MappingOverride) Assign(header []string, width int) (ColumnAssignment, error) {
	idx := MakeHeaderIndex(header)

	code, err := m.resolve(idx, m.CodeColumn, m.CodeIndex, width)
	if err != nil {
		return ColumnAssignment{}, fmt.Errorf("%w: %v", ErrNoCodeColumn, err)
	}

	a := ColumnAssignment{
		Code:              code,
		CodeName:          headerName(header, code),
		CodeMethod:        Override,
		Description:       NoColumn,
		DescriptionMethod: NotFound,
	}

	if m.DescriptionColumn != "" || m.DescriptionIndex != nil {
		desc, err := m.resolve(idx, m.DescriptionColumn, m.DescriptionIndex, width)
		if err != nil {
			return ColumnAssignment{}, fmt.Errorf("description column: %w", err)
		}
		a.Description = desc
		a.DescriptionName = headerName(header, desc)
		a.DescriptionMethod = Override
	}

	return a, nil
}

func (m *MappingOverride) resolve(idx HeaderIndex, name string, index *int, width int) (int, error) {
	if index != nil {
		if *index < 0 || *index >= width {
			return 0, fmt.Errorf("column index %d out of range (file has %d columns)", *index, width)
		}
		return *index, nil
	}
	pos, ok := idx[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("column %q not in header", name)
	}
	return pos, nil
}
