package quarantine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgw-tools/coursemapper/internal/types"
)

func TestReadSkipsHeaderAndBlankRows(t *testing.T) {
	set, err := Read(strings.NewReader(
		"Institution,Requirement ID,Explanation\n" +
			"QNS01,RA000001,parser hangs\n" +
			"LEH01,RA002200\n" +
			",,\n"))
	require.NoError(t, err)

	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains(types.BlockKey{Institution: "QNS01", RequirementID: "RA000001"}))
	assert.True(t, set.Contains(types.BlockKey{Institution: "LEH01", RequirementID: "RA002200"}))
	assert.Equal(t, "parser hangs", set.Reason(types.BlockKey{Institution: "QNS01", RequirementID: "RA000001"}))
	assert.False(t, set.Contains(types.BlockKey{Institution: "QNS01", RequirementID: "RA999999"}))
}

func TestReadWithoutHeader(t *testing.T) {
	set, err := Read(strings.NewReader("QNS01,RA000001,too big\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	set, err := Load("no-such-file.csv")
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())

	set, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestNilSetIsEmpty(t *testing.T) {
	var set *Set
	assert.False(t, set.Contains(types.BlockKey{Institution: "QNS01", RequirementID: "RA000001"}))
	assert.Equal(t, 0, set.Len())
}
