package index

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// RecordPointer contains the minimum metadata required to locate and
// retrieve an entry from disk without scanning: which segment it lives in,
// where it starts, and how large it is.
type RecordPointer struct {
	// Timestamp is the Unix timestamp, in seconds, recorded on the entry
	// when it was written. It is informational: recovery decides which of
	// two writes to the same key is newer by replay order (segment id, then
	// offset), not by comparing timestamps.
	Timestamp int64

	// Offset is the byte position within the segment file where the entry's
	// header begins.
	Offset int64

	// EntrySize is the total on-disk size of the entry (header, key and
	// value, and checksum trailer when enabled), letting a read fetch the
	// whole entry in a single call.
	EntrySize uint32

	// ValueSize is the byte length of the value alone, letting a caller
	// slice the value out of a fetched entry without re-parsing the header.
	ValueSize uint32

	// Key is stored alongside the map key so recovery and iteration don't
	// need to retain a separate reverse index.
	Key string

	// SegmentID identifies which segment file holds this entry. Widened to
	// 32 bits: nothing bounds how many segments a long-lived instance may
	// accumulate, and a 16-bit ceiling would eventually be reachable.
	SegmentID uint32
}

// Index is the in-memory hash table mapping keys to their on-disk location.
// All keys live in memory; values stay on disk. A single RWMutex guards the
// map, matching the rest of the engine's simple single-lock concurrency
// model.
type Index struct {
	dataDir       string
	log           *zap.SugaredLogger
	recordPointer map[string]*RecordPointer
	mu            sync.RWMutex
	closed        atomic.Bool
}

// Config carries the parameters needed to construct an Index.
type Config struct {
	DataDir string
	Logger  *zap.SugaredLogger
}
