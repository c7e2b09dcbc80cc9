package compaction

import (
	"sync"
	"testing"

	"github.com/ignitedb/ignitedb/internal/index"
	"github.com/ignitedb/ignitedb/internal/record"
	"github.com/ignitedb/ignitedb/internal/storage"
	"github.com/ignitedb/ignitedb/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRig struct {
	dir   string
	store *storage.Storage
	idx   *index.Index
	mu    sync.Mutex
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	dir := t.TempDir()
	log := logger.New("compaction-test")

	store, err := storage.New(&storage.Config{Dir: dir, Logger: log})
	require.NoError(t, err)
	require.NoError(t, store.OpenActive(0))
	t.Cleanup(func() { _ = store.Close() })

	idx, err := index.New(&index.Config{DataDir: dir, Logger: log})
	require.NoError(t, err)

	return &testRig{dir: dir, store: store, idx: idx}
}

// writeRecord appends rec to the rig's storage and inserts a matching
// pointer into the index, as the engine would on a live write.
func (r *testRig) writeRecord(t *testing.T, rec record.Record) {
	t.Helper()

	buf := record.Encode(rec)
	offset, err := r.store.Append(buf, false)
	require.NoError(t, err)

	switch rec.Type {
	case record.Put:
		r.idx.Insert(string(rec.Key), index.RecordPointer{
			Timestamp: rec.Timestamp,
			Offset:    offset,
			EntrySize: uint32(len(buf)),
			ValueSize: uint32(len(rec.Value)),
			Key:       string(rec.Key),
			SegmentID: uint32(r.store.ActiveID()),
		})
	case record.Delete:
		r.idx.Remove(string(rec.Key))
	}
}

func (r *testRig) compactor(t *testing.T) *Compactor {
	t.Helper()
	c, err := New(Config{
		Dir:     r.dir,
		Storage: r.store,
		Index:   r.idx,
		Mu:      &r.mu,
		Logger:  logger.New("compaction-test"),
	})
	require.NoError(t, err)
	return c
}

func TestRunNoopWhenNoSealedSegments(t *testing.T) {
	r := newTestRig(t)
	r.writeRecord(t, record.Record{Type: record.Put, Timestamp: 1, Key: []byte("k"), Value: []byte("v")})

	c := r.compactor(t)
	require.NoError(t, c.Run())

	ids, err := r.store.ListSegmentIDs()
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, ids)
}

func TestRunRewritesLiveKeysIntoSmallestSealedSegment(t *testing.T) {
	r := newTestRig(t)

	r.writeRecord(t, record.Record{Type: record.Put, Timestamp: 1, Key: []byte("a"), Value: []byte("old")})
	r.writeRecord(t, record.Record{Type: record.Put, Timestamp: 2, Key: []byte("b"), Value: []byte("stays")})

	_, err := r.store.Rotate()
	require.NoError(t, err)

	r.writeRecord(t, record.Record{Type: record.Put, Timestamp: 3, Key: []byte("a"), Value: []byte("new")})

	c := r.compactor(t)
	require.NoError(t, c.Run())

	ptrB, ok := r.idx.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, uint32(0), ptrB.SegmentID)

	ptrA, ok := r.idx.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, uint32(1), ptrA.SegmentID)

	buf, err := r.store.ReadAt(uint64(ptrB.SegmentID), ptrB.Offset, ptrB.EntrySize)
	require.NoError(t, err)
	header, err := record.DecodeHeader(buf[:record.HeaderSize])
	require.NoError(t, err)
	value := buf[record.HeaderSize+header.KeyLen:]
	assert.Equal(t, "stays", string(value))
}

func TestRunClearsSealedSegmentsWithNoLiveKeys(t *testing.T) {
	r := newTestRig(t)

	r.writeRecord(t, record.Record{Type: record.Put, Timestamp: 1, Key: []byte("a"), Value: []byte("v")})
	_, err := r.store.Rotate()
	require.NoError(t, err)
	r.writeRecord(t, record.Record{Type: record.Delete, Timestamp: 2, Key: []byte("a")})

	c := r.compactor(t)
	require.NoError(t, c.Run())

	ids, err := r.store.ListSegmentIDs()
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, ids)

	_, ok := r.idx.Lookup("a")
	assert.False(t, ok)
}

func TestSignalCoalesces(t *testing.T) {
	r := newTestRig(t)
	c := r.compactor(t)

	c.Signal()
	c.Signal()
	c.Signal()

	select {
	case <-c.signal:
	default:
		t.Fatal("expected a coalesced signal to be pending")
	}
	select {
	case <-c.signal:
		t.Fatal("expected only one coalesced signal")
	default:
	}
}
