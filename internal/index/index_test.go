package index

import (
	"testing"

	"github.com/ignitedb/ignitedb/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := New(&Config{DataDir: t.TempDir(), Logger: logger.New("index-test")})
	require.NoError(t, err)
	return idx
}

func TestInsertLookupRemove(t *testing.T) {
	idx := newTestIndex(t)

	_, ok := idx.Lookup("missing")
	assert.False(t, ok)

	idx.Insert("k1", RecordPointer{Offset: 10, EntrySize: 20, SegmentID: 1})
	ptr, ok := idx.Lookup("k1")
	require.True(t, ok)
	assert.Equal(t, int64(10), ptr.Offset)
	assert.Equal(t, uint32(20), ptr.EntrySize)
	assert.Equal(t, uint32(1), ptr.SegmentID)
	assert.Equal(t, 1, idx.Len())

	removed := idx.Remove("k1")
	assert.True(t, removed)
	_, ok = idx.Lookup("k1")
	assert.False(t, ok)
	assert.Zero(t, idx.Len())

	assert.False(t, idx.Remove("k1"))
}

func TestInsertOverwritesExisting(t *testing.T) {
	idx := newTestIndex(t)

	idx.Insert("k", RecordPointer{Offset: 1})
	idx.Insert("k", RecordPointer{Offset: 2})

	ptr, ok := idx.Lookup("k")
	require.True(t, ok)
	assert.Equal(t, int64(2), ptr.Offset)
	assert.Equal(t, 1, idx.Len())
}

func TestIterateVisitsAllAndRespectsEarlyStop(t *testing.T) {
	idx := newTestIndex(t)
	idx.Insert("a", RecordPointer{})
	idx.Insert("b", RecordPointer{})
	idx.Insert("c", RecordPointer{})

	seen := make(map[string]bool)
	idx.Iterate(func(key string, _ RecordPointer) bool {
		seen[key] = true
		return true
	})
	assert.Len(t, seen, 3)

	count := 0
	idx.Iterate(func(_ string, _ RecordPointer) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}

func TestCloseIsIdempotent(t *testing.T) {
	idx := newTestIndex(t)
	idx.Insert("k", RecordPointer{})

	require.NoError(t, idx.Close())
	assert.ErrorIs(t, idx.Close(), ErrIndexClosed)
}
