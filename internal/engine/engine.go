// Package engine provides the core database engine: the coordinator that
// owns the index, the segment manager and the compactor, and exposes the
// Put/Get/Delete/Close operations the rest of the system is built on.
//
// A single mutex serializes every public operation. This is the simple,
// obviously-correct baseline: Get, Put and Delete all need a consistent
// view of the index relative to the segment files, and the working set of
// an embedded store rarely makes single-writer/single-reader-at-a-time
// contention the bottleneck. A reader/writer split is a reasonable future
// refinement but is not needed to satisfy the current correctness
// requirements.
package engine

import (
	stdErrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"os"

	"github.com/ignitedb/ignitedb/internal/compaction"
	"github.com/ignitedb/ignitedb/internal/index"
	"github.com/ignitedb/ignitedb/internal/record"
	"github.com/ignitedb/ignitedb/internal/storage"
	"github.com/ignitedb/ignitedb/pkg/errors"
	"github.com/ignitedb/ignitedb/pkg/metrics"
	"github.com/ignitedb/ignitedb/pkg/options"
	"github.com/ignitedb/ignitedb/pkg/seginfo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrEngineClosed is returned by any operation attempted after Close.
var ErrEngineClosed = stdErrors.New("engine: operation failed, engine is closed")

// Engine coordinates the index, segment manager and compactor behind a
// single lock, and is the only type that understands how a Put or Delete
// call turns into a record on disk plus an index update.
type Engine struct {
	mu sync.Mutex

	opts *options.Options
	log  *zap.SugaredLogger

	closed atomic.Bool

	index   *index.Index
	storage *storage.Storage
	comp    *compaction.Compactor
	metrics *metrics.Recorder

	reclaimable uint64
}

// Config carries the parameters needed to open an Engine. Metrics is
// optional; a nil Recorder disables instrumentation.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
	Metrics *metrics.Recorder
}

// Open constructs an Engine rooted at Options.DataDir, replays every
// segment on disk to rebuild the index, and starts the background
// compactor. The returned Engine is ready for concurrent Put/Get/Delete.
func Open(config *Config) (*Engine, error) {
	if config == nil || config.Options == nil || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "engine configuration is required",
		).WithField("config").WithRule("required")
	}

	opts := config.Options
	log := config.Logger

	idx, err := index.New(&index.Config{DataDir: opts.DataDir, Logger: log})
	if err != nil {
		return nil, err
	}

	store, err := storage.New(&storage.Config{Dir: opts.DataDir, Logger: log})
	if err != nil {
		return nil, err
	}

	e := &Engine{opts: opts, log: log, index: idx, storage: store, metrics: config.Metrics}

	if err := e.recover(); err != nil {
		return nil, err
	}

	comp, err := compaction.New(compaction.Config{
		Dir:              opts.DataDir,
		Storage:          store,
		Index:            idx,
		Mu:               &e.mu,
		Logger:           log,
		Interval:         opts.CompactInterval,
		ChecksumEnabled:  opts.ChecksumEnabled,
		ResetReclaimable: e.resetReclaimable,
		Metrics:          config.Metrics,
	})
	if err != nil {
		return nil, err
	}
	e.comp = comp
	e.comp.Start()

	log.Infow("engine opened", "data_dir", opts.DataDir, "keys", idx.Len())
	return e, nil
}

// recover rebuilds the index by replaying every segment on disk in
// ascending id order, so a later write to the same key always supersedes
// an earlier one. It also positions the segment manager on the newest
// segment as active.
func (e *Engine) recover() error {
	if err := e.removeStrayCompactedFile(); err != nil {
		return err
	}

	ids, err := e.storage.ListSegmentIDs()
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		return e.storage.OpenActive(0)
	}

	for _, id := range ids {
		if err := e.replaySegment(id); err != nil {
			return err
		}
	}

	activeID := ids[len(ids)-1]
	return e.storage.OpenActive(activeID)
}

// removeStrayCompactedFile deletes a leftover compacted.log, the sign of a
// compaction cycle that crashed after writing its staging file but before
// renaming it into place. The staged records never reached the index, so
// the file is discarded rather than resumed.
func (e *Engine) removeStrayCompactedFile() error {
	path := seginfo.CompactedPath(e.opts.DataDir)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to remove stray compacted.log").WithPath(path)
	}
	return nil
}

// replaySegment reads every record in segment id front to back, applying
// Put/Delete to the index in the order they were written. A short read
// that lands exactly at a record boundary (the file simply ends there) is
// normal end-of-segment; a short read mid-record, or a header with an
// impossible length, stops replay of that segment at the first
// unreadable record rather than discarding the valid prefix already
// applied.
func (e *Engine) replaySegment(id uint64) error {
	size, err := e.storage.SegmentSize(id)
	if err != nil {
		return err
	}

	var offset int64
	for offset < size {
		remaining := size - offset
		if remaining < record.HeaderSize {
			e.log.Warnw("truncated record header at end of segment, stopping replay", "segment", id, "offset", offset)
			break
		}

		headerBuf, err := e.storage.ReadAt(id, offset, record.HeaderSize)
		if err != nil {
			return err
		}

		header, err := record.DecodeHeader(headerBuf)
		if err != nil {
			e.log.Warnw("corrupt record header during replay, stopping replay of segment", "segment", id, "offset", offset, "error", err)
			break
		}

		total := int64(header.TotalSize())
		trailer := int64(0)
		if e.opts.ChecksumEnabled {
			trailer = record.ChecksumSize
		}

		if offset+total+trailer > size {
			e.log.Warnw("truncated record payload at end of segment, stopping replay", "segment", id, "offset", offset)
			break
		}

		keyBuf, err := e.storage.ReadAt(id, offset+record.HeaderSize, header.KeyLen)
		if err != nil {
			return err
		}
		key := string(keyBuf)

		entrySize := uint32(total + trailer)

		old, hadOld := e.index.Lookup(key)

		switch header.Type {
		case record.Put:
			if hadOld {
				e.reclaimable += uint64(old.EntrySize)
			}
			e.index.Insert(key, index.RecordPointer{
				Timestamp: header.Timestamp,
				Offset:    offset,
				EntrySize: entrySize,
				ValueSize: header.ValueLen,
				Key:       key,
				SegmentID: uint32(id),
			})
		case record.Delete:
			if hadOld {
				e.reclaimable += uint64(old.EntrySize) + uint64(entrySize)
			}
			e.index.Remove(key)
		}

		offset += total + trailer
	}

	return nil
}

// Put writes key/value as a new record to the active segment and updates
// the index to point at it, superseding any previous entry for key.
func (e *Engine) Put(key, value []byte) error {
	return e.append(record.Put, key, value)
}

// Delete appends a tombstone record for key and removes it from the
// index. Deleting a key with no live entry is a no-op: nothing is
// appended, matching the idempotent semantics of the underlying log
// (see _examples/original_source/src/store.rs's early return for an
// absent key).
func (e *Engine) Delete(key []byte) error {
	return e.append(record.Delete, key, nil)
}

func (e *Engine) append(typ record.Type, key, value []byte) (err error) {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	started := time.Now()
	opName := "Put"
	if typ == record.Delete {
		opName = "Delete"
	}
	defer func() { e.metrics.ObserveOperation(opName, err, time.Since(started)) }()

	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.recoverPoison(&err)

	if typ == record.Delete {
		if _, ok := e.index.Lookup(string(key)); !ok {
			return nil
		}
	}

	if e.storage.ShouldRotate(e.opts.MaxSegmentBytes) {
		if _, rerr := e.storage.Rotate(); rerr != nil {
			return rerr
		}
	}

	rec := record.Record{Type: typ, Timestamp: time.Now().Unix(), Key: key, Value: value}
	buf := record.Encode(rec)
	if e.opts.ChecksumEnabled {
		buf = record.EncodeChecksummed(rec)
	}

	offset, err := e.storage.Append(buf, e.opts.FsyncOnWrite)
	if err != nil {
		return err
	}

	keyStr := string(key)
	segmentID := e.storage.ActiveID()
	entrySize := uint32(len(buf))

	if old, ok := e.index.Lookup(keyStr); ok {
		e.reclaimable += uint64(old.EntrySize)
	}

	switch typ {
	case record.Put:
		e.index.Insert(keyStr, index.RecordPointer{
			Timestamp: rec.Timestamp,
			Offset:    offset,
			EntrySize: entrySize,
			ValueSize: uint32(len(value)),
			Key:       keyStr,
			SegmentID: uint32(segmentID),
		})
	case record.Delete:
		e.reclaimable += uint64(entrySize)
		e.index.Remove(keyStr)
	}

	e.metrics.SetKeysTracked(e.index.Len())
	e.metrics.SetReclaimableBytes(e.reclaimable)

	if e.reclaimable > e.opts.MaxReclaimableBytes {
		e.comp.Signal()
	}

	return nil
}

// Get returns the current value for key. A missing or deleted key is not
// an error: found is false and err is nil. err is reserved for genuine
// read failures (a closed engine, a storage I/O error, a checksum
// mismatch).
//
// The index never holds a pointer to a Delete-type record — append
// removes the index entry instead of inserting one — so the payload
// read here is always a Put. A defensive check against header.Type ==
// record.Delete would be unreachable dead code.
func (e *Engine) Get(key []byte) (value []byte, found bool, err error) {
	if e.closed.Load() {
		return nil, false, ErrEngineClosed
	}

	started := time.Now()
	defer func() { e.metrics.ObserveOperation("Get", err, time.Since(started)) }()

	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.recoverPoison(&err)

	keyStr := string(key)
	ptr, ok := e.index.Lookup(keyStr)
	if !ok {
		return nil, false, nil
	}

	buf, err := e.storage.ReadAt(uint64(ptr.SegmentID), ptr.Offset, ptr.EntrySize)
	if err != nil {
		return nil, false, err
	}

	payload := buf
	if e.opts.ChecksumEnabled {
		if len(buf) < record.ChecksumSize {
			return nil, false, errors.NewIndexCorruptionError("Get", e.index.Len(), record.ErrCorrupt).WithKey(keyStr)
		}
		payload = buf[:len(buf)-record.ChecksumSize]
		trailer := buf[len(buf)-record.ChecksumSize:]
		if !record.VerifyChecksum(payload, trailer) {
			return nil, false, errors.NewIndexCorruptionError("Get", e.index.Len(), record.ErrCorrupt).WithKey(keyStr)
		}
	}

	header, err := record.DecodeHeader(payload[:record.HeaderSize])
	if err != nil {
		return nil, false, err
	}

	start := record.HeaderSize + header.KeyLen
	end := start + header.ValueLen
	out := make([]byte, header.ValueLen)
	copy(out, payload[start:end])
	return out, true, nil
}

// Compact runs one compaction cycle synchronously, instead of waiting for
// the reclaimable-byte threshold or the periodic safety net to trigger
// one. Intended for operator-driven use (e.g. a CLI command).
func (e *Engine) Compact() error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	err := e.comp.Run()
	e.metrics.ObserveCompaction(err)
	return err
}

// resetReclaimable zeroes the reclaimable-byte counter. Called by the
// compactor, under e.mu, after it commits a cycle.
func (e *Engine) resetReclaimable() {
	e.reclaimable = 0
}

// recoverPoison converts a panic during a locked operation into an
// internal-inconsistency error returned to that operation's caller. No
// poisoned state is kept: once the lock is released, later operations run
// as usual and are not refused.
func (e *Engine) recoverPoison(errp *error) {
	if r := recover(); r != nil {
		e.log.Errorw("engine operation panicked, lock released", "panic", r)
		*errp = errors.NewStorageError(
			fmt.Errorf("panic: %v", r), errors.ErrorCodeInternal, "internal inconsistency detected during engine operation",
		)
	}
}

// Close stops the compactor and closes the index and segment manager. It
// is idempotent: a second Close returns ErrEngineClosed.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	if e.comp != nil {
		e.comp.Stop()
	}

	var err error
	err = multierr.Append(err, e.index.Close())
	err = multierr.Append(err, e.storage.Close())

	e.log.Infow("engine closed")
	return err
}
