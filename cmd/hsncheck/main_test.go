package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/hsncheck/internal/core"
)

const referenceCSV = `HSN Code,Description
01,Live animals
0101,"Live horses, asses, mules and hinnies"
010121,Pure-bred breeding animals
0102,Live bovine animals
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the CLI with args and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCmd(t *testing.T) {
	ref := writeFile(t, "hsn.csv", referenceCSV)

	out, err := run(t, "", "--reference", ref, "validate", "010121")
	require.NoError(t, err)
	assert.Contains(t, out, "010121")
	assert.Contains(t, out, "Pure-bred breeding animals")

	out, err = run(t, "", "--reference", ref, "validate", "0101", "0199")
	assert.ErrorIs(t, err, errInvalidCodes)
	assert.Contains(t, out, core.MsgNotFound)
}

func TestValidateCmd_JSON(t *testing.T) {
	ref := writeFile(t, "hsn.csv", referenceCSV)

	out, err := run(t, "", "--reference", ref, "--json", "validate", "12ab", "0102")
	assert.ErrorIs(t, err, errInvalidCodes)

	var results []core.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, core.MsgNotDigits, results[0].FormatMessage)
	assert.True(t, results[1].IsValid)
}

func TestValidateCmd_StrictLength(t *testing.T) {
	ref := writeFile(t, "hsn.csv", referenceCSV)

	out, err := run(t, "", "--reference", ref, "--strict-length", "--json", "validate", "01012")
	assert.ErrorIs(t, err, errInvalidCodes)

	var results []core.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.False(t, results[0].FormatValid)
	assert.Equal(t, "Invalid length. HSN codes should be 2, 4, 6 digits long.", results[0].FormatMessage)
}

func TestValidateCmd_NoReference(t *testing.T) {
	t.Setenv("REFERENCE_LOCATION", "")
	_, err := run(t, "", "validate", "0101")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--reference")
}

func TestBulkCmd(t *testing.T) {
	ref := writeFile(t, "hsn.csv", referenceCSV)
	codes := writeFile(t, "codes.csv", "Item,HSN\nHorse,0101\nCow,0102\nHorse,0101\n")

	out, err := run(t, "", "--reference", ref, "bulk", "--dedupe", codes)
	require.NoError(t, err)
	assert.Contains(t, out, "2 codes: 2 valid, 0 invalid")
}

func TestBulkCmd_Stdin(t *testing.T) {
	ref := writeFile(t, "hsn.csv", referenceCSV)

	out, err := run(t, "0101\n9999\n", "--reference", ref, "--json", "bulk", "-")
	require.NoError(t, err, "JSON output reports failures in the body")

	var report core.BulkReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Invalid)
}

func TestExtractCmd(t *testing.T) {
	ref := writeFile(t, "hsn.csv", referenceCSV)

	out, err := run(t, "", "--reference", ref, "extract", "Invoice", "for", "0101", "and", "0102")
	require.NoError(t, err)
	assert.Contains(t, out, "Live horses")
	assert.Contains(t, out, "Live bovine animals")

	out, err = run(t, "nothing to see", "--reference", ref, "extract")
	require.NoError(t, err)
	assert.Contains(t, out, "No codes found")
}

func TestExportCmd(t *testing.T) {
	ref := writeFile(t, "hsn.csv", referenceCSV)
	codes := writeFile(t, "codes.txt", "0101\n0199\n")
	output := filepath.Join(t.TempDir(), "out.csv")

	_, err := run(t, "", "--reference", ref, "export", codes, "-o", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "HSN Code,Valid,Format Valid,Exists in Database,Description,Messages", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "0199,No,Yes,No,N/A,"))
}

func TestExportCmd_BadFormat(t *testing.T) {
	ref := writeFile(t, "hsn.csv", referenceCSV)
	codes := writeFile(t, "codes.txt", "0101\n")

	_, err := run(t, "", "--reference", ref, "export", codes, "-o", filepath.Join(t.TempDir(), "out.pdf"))
	assert.Error(t, err)
}

func TestLengthsCmd(t *testing.T) {
	ref := writeFile(t, "hsn.csv", referenceCSV)

	out, err := run(t, "", "--reference", ref, "lengths")
	require.NoError(t, err)
	assert.Contains(t, out, "Known lengths: 2, 4, 6")
	assert.Contains(t, out, "4 codes")
}

func TestChildrenCmd(t *testing.T) {
	ref := writeFile(t, "hsn.csv", referenceCSV)

	out, err := run(t, "", "--reference", ref, "children", "01")
	require.NoError(t, err)
	assert.Equal(t, "0101  Live horses, asses, mules and hinnies\n0102  Live bovine animals\n", out)

	_, err = run(t, "", "--reference", ref, "children", "0x")
	assert.Error(t, err)
}

func TestMappingFlag(t *testing.T) {
	ref := writeFile(t, "odd.csv", "Tariff,Text\n0101,Horses\n")
	mapping := writeFile(t, "mapping.yaml", "code_column: Tariff\ndescription_column: Text\n")

	out, err := run(t, "", "--reference", ref, "--mapping", mapping, "validate", "0101")
	require.NoError(t, err)
	assert.Contains(t, out, "Horses")
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t,
		"Too many bulk validations in progress (Code: BLK001). Please wait a moment and try again",
		userMessage(core.ErrTooManyBulkJobs))

	_, err := run(t, "", "--reference", filepath.Join(t.TempDir(), "missing.csv"), "validate", "0101")
	require.Error(t, err)
	assert.Contains(t, userMessage(err), "(Code: SRC002)")

	assert.Equal(t, "no reference data: pass --reference or set REFERENCE_LOCATION",
		userMessage(errors.New("no reference data: pass --reference or set REFERENCE_LOCATION")))
}
