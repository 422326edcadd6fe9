package emit

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgw-tools/coursemapper/internal/types"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestTablesWriteContractColumns(t *testing.T) {
	dir := t.TempDir()
	tables, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, tables.Program(&types.ProgramRecord{
		Institution: "QNS", RequirementID: "RA000001", BlockType: "MAJOR",
		BlockValue: "BIO", Title: "Biology", TotalCredits: "[]", MaxTransfer: "[]",
		MinResidency: "[]", MinGrade: "[]", MinGPA: "[]", Other: "{}",
		GeneratedDate: "2026-08-23",
	}))
	require.NoError(t, tables.Requirement(&types.RequirementRecord{
		Institution: "QNS01", PlanName: "BIO", PlanType: "MAJ",
		RequirementIDs: "RA000001", RequirementKey: 1, ProgramName: "Biology",
		Context: "[]", GeneratedDate: "2026-08-23",
	}))
	require.NoError(t, tables.Mapping(&types.MappingRecord{
		RequirementKey: 1, CourseID: "000101:1", Career: "UGRD",
		Course: "BIO 101: General Biology I", WithClause: `""`,
		GeneratedDate: "2026-08-23",
	}))
	tables.Close()

	programs := readCSV(t, filepath.Join(dir, ProgramsFile))
	require.Len(t, programs, 2)
	assert.Equal(t, ProgramsHeader, programs[0])
	assert.Equal(t, "QNS", programs[1][0])
	assert.Equal(t, "RA000001", programs[1][1])

	requirements := readCSV(t, filepath.Join(dir, RequirementsFile))
	require.Len(t, requirements, 2)
	assert.Equal(t, RequirementsHeader, requirements[0])
	assert.Equal(t, "1", requirements[1][6])

	mappings := readCSV(t, filepath.Join(dir, MappingsFile))
	require.Len(t, mappings, 2)
	assert.Equal(t, MappingsHeader, mappings[0])
	assert.Equal(t, []string{"1", "000101:1", "UGRD",
		"BIO 101: General Biology I", `""`, "2026-08-23"}, mappings[1])
}

func TestRowsSurviveWithoutClose(t *testing.T) {
	// Rows are flushed as written, so partial output survives an abort.
	dir := t.TempDir()
	tables, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, tables.Mapping(&types.MappingRecord{
		RequirementKey: 7, CourseID: "000102:1", GeneratedDate: "2026-08-23",
	}))

	mappings := readCSV(t, filepath.Join(dir, MappingsFile))
	require.Len(t, mappings, 2)
	assert.Equal(t, "7", mappings[1][0])
	tables.Close()
}
