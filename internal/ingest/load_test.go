package ingest

import (
	"context"
	"testing"

	"github.com/JonMunkholm/hsncheck/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFrom(t *testing.T, csv string, opts Options) (*core.ReferenceTable, LoadReport, error) {
	t.Helper()
	ds, err := Parse("ref.csv", []byte(csv), ParseOptions{})
	require.NoError(t, err)
	return Build(ds, opts)
}

func TestBuild_CleansRows(t *testing.T) {
	csv := "HSN Code,Description\n" +
		"01,Live animals\n" +
		"\"0101.21\",  Pure-bred   breeding animals \n" +
		"=\"0102\",\n" +
		"n/a,Unknown\n" +
		"01,Live animals (revised)\n"

	table, report, err := buildFrom(t, csv, Options{})
	require.NoError(t, err)

	assert.True(t, report.HasHeader)
	assert.Equal(t, 5, report.Rows)
	assert.Equal(t, 4, report.Kept)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, 3, report.Codes)
	assert.Equal(t, ByName, report.Assignment.CodeMethod)

	desc, ok := table.Lookup("010121")
	require.True(t, ok)
	assert.Equal(t, "Pure-bred breeding animals", desc)

	desc, _ = table.Lookup("0102")
	assert.Equal(t, core.NoDescription, desc)

	desc, _ = table.Lookup("01")
	assert.Equal(t, "Live animals (revised)", desc, "last write wins")
}

func TestBuild_HeaderlessFile(t *testing.T) {
	table, report, err := buildFrom(t, "01,Live animals\n0101,Live horses\n", Options{})
	require.NoError(t, err)

	assert.False(t, report.HasHeader)
	assert.Equal(t, 2, report.Rows)
	assert.Equal(t, []string{"01", "0101"}, table.Codes())
}

func TestBuild_CombinedColumn(t *testing.T) {
	csv := "HSNCodeDescription\n0101 Live horses\n010121 - Pure-bred\n"

	table, report, err := buildFrom(t, csv, Options{})
	require.NoError(t, err)

	assert.True(t, report.Assignment.IsCombined())
	desc, ok := table.Lookup("010121")
	require.True(t, ok)
	assert.Equal(t, "Pure-bred", desc)
}

func TestBuild_CombinedHeaderless(t *testing.T) {
	table, report, err := buildFrom(t, "01 Live animals\n02 Meat\n", Options{})
	require.NoError(t, err)

	assert.False(t, report.HasHeader)
	assert.Equal(t, 2, table.Len())
}

func TestBuild_NoUsableRows(t *testing.T) {
	_, report, err := buildFrom(t, "HSN Code,Description\n-,Nothing\nn/a,Still nothing\n", Options{})
	assert.ErrorIs(t, err, ErrNoUsableRows)
	assert.Equal(t, 2, report.Skipped)
}

func TestBuild_Override(t *testing.T) {
	codeIdx := 2
	hasHeader := true
	opts := Options{Override: &MappingOverride{
		CodeIndex:         &codeIdx,
		DescriptionColumn: "Label",
		HasHeader:         &hasHeader,
	}}

	csv := "Label,Rate,Identifier\nLive animals,0,01\nLive horses,5,0101\n"
	table, report, err := buildFrom(t, csv, opts)
	require.NoError(t, err)

	assert.Equal(t, Override, report.Assignment.CodeMethod)
	assert.Equal(t, Override, report.Assignment.DescriptionMethod)
	desc, _ := table.Lookup("0101")
	assert.Equal(t, "Live horses", desc)
}

func TestBuild_FixedAssignment(t *testing.T) {
	ds := &Dataset{
		Origin: "sql",
		Rows:   [][]string{{"tariff_item", "label"}, {"01", "Live animals"}},
		Assignment: &ColumnAssignment{
			Code: 0, CodeMethod: ByName, Description: 1, DescriptionMethod: ByName,
		},
	}

	table, report, err := Build(ds, Options{})
	require.NoError(t, err)
	assert.True(t, report.HasHeader)
	assert.Equal(t, 1, table.Len())
}

func TestCodesFromDataset(t *testing.T) {
	ds, err := Parse("bulk.csv", []byte("Invoice,HSN\nINV-1, 0101 \nINV-2,12a4\nINV-3,\n"), ParseOptions{})
	require.NoError(t, err)

	codes, a, err := CodesFromDataset(ds, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, a.Code)
	assert.Equal(t, []string{"0101", "12a4"}, codes, "codes are not cleaned so bad ones still get validated")
}

func TestLoad_WrapsSourceErrors(t *testing.T) {
	src := &FileSource{Path: t.TempDir() + "/missing.csv"}

	_, report, err := Load(context.Background(), src, Options{})
	require.Error(t, err)
	assert.Equal(t, src.String(), report.Source)
	assert.Equal(t, "SRC002", core.MapError(err).Code)
}

func TestLoader(t *testing.T) {
	src := &BytesSource{Name: "inline.csv", Data: []byte("code,description\n01,Live animals\n")}

	table, err := Loader(src, Options{})(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "inline.csv", table.Source())
}
