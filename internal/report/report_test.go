package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferChannelsAreIndependent(t *testing.T) {
	r, dump := NewBuffer()
	r.Log("QNS01", "RA000001", "Body class_credit")
	r.Fail("QNS01", "RA000002", "Parse failed: %v", "boom")
	r.Condition("QNS01", "RA000001", "MAJ == BIO")

	assert.Equal(t, "QNS01 RA000001 Body class_credit\n", dump(ChannelLog))
	assert.Equal(t, "QNS01 RA000002 Parse failed: boom\n", dump(ChannelFail))
	assert.Contains(t, dump(ChannelConditions), "MAJ == BIO")
	assert.Empty(t, dump(ChannelTodo))
	assert.Empty(t, dump("no-such-channel"))
}

func TestNilReporterDiscards(t *testing.T) {
	var r *Reporter
	r.Log("QNS01", "RA000001", "ignored")
	r.Fail("QNS01", "RA000001", "ignored")
	r.Close()
}

func TestOpenCreatesOneFilePerChannel(t *testing.T) {
	dir := t.TempDir()
	r, err := Open(dir, "test-run")
	require.NoError(t, err)
	r.Subplan("QNS01", "RA000001", "Subplan BIO-EC not referenced; 12 enrolled")
	r.Close()

	for _, channel := range Channels() {
		data, err := os.ReadFile(filepath.Join(dir, channel+".txt"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "# run test-run started "),
			"channel %s missing run stamp", channel)
	}
	data, err := os.ReadFile(filepath.Join(dir, ChannelSubplans+".txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "not referenced; 12 enrolled")
}
