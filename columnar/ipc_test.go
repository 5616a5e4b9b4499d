package columnar

import (
	"bufio"
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyIPCFileRoundTrip(t *testing.T) {
	rows := []LegacyRow{{Name: "sample-1", Label: "car", Group: "train"}}
	table, err := BuildLegacyTable(rows)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "legacy.ef1")
	require.NoError(t, WriteLegacyIPCFile(path, table))

	got, err := ReadLegacyIPCFile(path)
	require.NoError(t, err)
	assert.Equal(t, table, got)
}

func TestReadIPCFileRejectsLegacyMagic(t *testing.T) {
	rows := []LegacyRow{{Name: "s", Label: "car", Group: "train"}}
	table, err := BuildLegacyTable(rows)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "legacy.ef1")
	require.NoError(t, WriteLegacyIPCFile(path, table))

	_, err = ReadIPCFile(path)
	var ufe *UnsupportedFormatError
	assert.ErrorAs(t, err, &ufe)
}

func TestReadIPCFileRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.ef1")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := bufio.NewWriter(f)
	_, err = w.WriteString(magic)
	require.NoError(t, err)
	enc := gob.NewEncoder(w)
	require.NoError(t, enc.Encode(uint32(99)))
	require.NoError(t, w.Flush())
	require.NoError(t, f.Close())

	_, err = ReadIPCFile(path)
	var ufe *UnsupportedFormatError
	assert.ErrorAs(t, err, &ufe)
}

func TestReadIPCFileRejectsTruncatedHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.ef1")
	require.NoError(t, os.WriteFile(path, []byte("EF1"), 0o600))
	_, err := ReadIPCFile(path)
	var ufe *UnsupportedFormatError
	assert.ErrorAs(t, err, &ufe)
}
