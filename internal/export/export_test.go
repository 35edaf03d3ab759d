package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/hsncheck/internal/core"
)

func sampleResults(t *testing.T) []core.ValidationResult {
	t.Helper()
	table, err := core.NewReferenceTable("test", []core.ReferenceEntry{
		{Code: "01", Description: "Live animals"},
		{Code: "0101", Description: "Live horses"},
	})
	require.NoError(t, err)
	eng, err := core.NewEngine(table)
	require.NoError(t, err)
	return eng.ValidateMany([]string{"0101", "12a4", "0199"})
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResults(t)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, Header, records[0])
	assert.Equal(t, []string{"0101", "Yes", "Yes", "Yes", "Live horses", "Format is valid; HSN code exists in master data"}, records[1])
	assert.Equal(t, []string{"12a4", "No", "No", "No", "N/A", "HSN code must contain only digits"}, records[2])
	assert.Equal(t, []string{"0199", "No", "Yes", "No", "N/A", "Format is valid; HSN code not found in master data"}, records[3])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "HSN Code,Valid,Format Valid,Exists in Database,Description,Messages\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	report := core.NewBulkReport(sampleResults(t))

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, report))

	var decoded core.BulkReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.ID, decoded.ID)
	assert.Equal(t, 1, decoded.Valid)
	assert.Equal(t, 2, decoded.Invalid)
	assert.Equal(t, "01", decoded.Results[2].Hierarchy[0].ParentCode)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleResults(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "12a4", rows[2][0])
	assert.Equal(t, "N/A", rows[2][4])
}

func TestRow_NeutralisesFormulas(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{`=HYPERLINK("http://evil.example","x")`, `'=HYPERLINK("http://evil.example","x")`},
		{"+0101", "'+0101"},
		{"-12", "'-12"},
		{"@SUM(A1)", "'@SUM(A1)"},
		{"0101", "0101"},
		{"12=4", "12=4"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := Row(core.ValidationResult{Code: tt.code})
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestWriteXLSX_FormulaStoredAsText(t *testing.T) {
	results := []core.ValidationResult{{Code: "=1+1", Messages: []string{core.MsgNotDigits}}}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, results))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	formula, err := f.GetCellFormula("Results", "A2")
	require.NoError(t, err)
	assert.Empty(t, formula)

	value, err := f.GetCellValue("Results", "A2")
	require.NoError(t, err)
	assert.Equal(t, "'=1+1", value)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": CSV, "CSV": CSV, "json": JSON, " xlsx ": XLSX} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("pdf")
	assert.Error(t, err)

	assert.Equal(t, "hsn_validation_results.xlsx", XLSX.Filename())
	assert.Equal(t, "application/json", JSON.ContentType())
}
