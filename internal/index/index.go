// Package index implements the in-memory key directory: a hash table
// mapping every live key to the segment, offset and length of its most
// recent value on disk. It is rebuilt from the segment log on every open
// and never itself touches disk after that.
package index

import (
	stdErrors "errors"

	"github.com/ignitedb/ignitedb/pkg/errors"
)

// ErrIndexClosed is returned by any operation attempted after Close.
var ErrIndexClosed = stdErrors.New("index: operation failed, index is closed")

// New creates an empty Index ready for Insert/Lookup/Remove, or for
// Recovery to populate by replaying segments.
func New(config *Config) (*Index, error) {
	if config == nil || config.DataDir == "" || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "index configuration is required",
		).WithField("config").WithRule("required")
	}

	return &Index{
		log:           config.Logger,
		dataDir:       config.DataDir,
		recordPointer: make(map[string]*RecordPointer, 1024),
	}, nil
}

// Lookup returns the current pointer for key and true, or (nil, false) if
// key has no live entry.
func (idx *Index) Lookup(key string) (*RecordPointer, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	ptr, ok := idx.recordPointer[key]
	return ptr, ok
}

// Insert records or overwrites key's pointer. Callers are responsible for
// ordering: it unconditionally replaces any existing entry, matching the
// "last write wins" rule applied at append time.
func (idx *Index) Insert(key string, ptr RecordPointer) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.recordPointer[key] = &ptr
}

// Remove deletes key's entry, if present. Returns whether a live entry
// existed to remove.
func (idx *Index) Remove(key string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.recordPointer[key]; !ok {
		return false
	}
	delete(idx.recordPointer, key)
	return true
}

// Len reports the number of live keys currently tracked.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.recordPointer)
}

// Iterate calls fn once for every live key/pointer pair, in unspecified
// order. Iteration stops early if fn returns false. fn must not call back
// into the Index: Iterate holds the read lock for its duration.
func (idx *Index) Iterate(fn func(key string, ptr RecordPointer) bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for key, ptr := range idx.recordPointer {
		if !fn(key, *ptr) {
			return
		}
	}
}

// Close releases the index's memory. It is idempotent: a second Close
// returns ErrIndexClosed rather than panicking on a nil map.
func (idx *Index) Close() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return ErrIndexClosed
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	clear(idx.recordPointer)
	idx.recordPointer = nil

	idx.log.Infow("index closed")
	return nil
}
