package seginfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamePathRoundTrip(t *testing.T) {
	assert.Equal(t, "42.log", Name(42))
	assert.Equal(t, filepath.Join("/data", "42.log"), Path("/data", 42))

	id, ok := ParseID(Name(42))
	require.True(t, ok)
	assert.Equal(t, uint64(42), id)
}

func TestParseIDRejectsNonSegmentNames(t *testing.T) {
	cases := []string{"compacted.log", "01.log", "abc.log", ".log", "42.txt", ""}
	for _, name := range cases {
		_, ok := ParseID(name)
		assert.Falsef(t, ok, "expected %q to be rejected", name)
	}
}

func TestParseIDAcceptsZero(t *testing.T) {
	id, ok := ParseID("0.log")
	require.True(t, ok)
	assert.Zero(t, id)
}

func TestListAndLatest(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"3.log", "1.log", "2.log", "compacted.log", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	ids, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, ids)

	latest, ok, err := Latest(dir)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(3), latest)
}

func TestLatestEmptyDir(t *testing.T) {
	dir := t.TempDir()

	_, ok, err := Latest(dir)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompactedPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/data", "compacted.log"), CompactedPath("/data"))
}
