// Package compaction implements the background worker that reclaims space
// occupied by superseded and deleted records. It runs on its own goroutine,
// woken either by an explicit Signal from the storage engine or by a
// periodic safety-net tick, and rewrites every sealed segment's still-live
// records into a single fresh segment.
package compaction

import (
	"os"
	"sync"
	"time"

	"github.com/ignitedb/ignitedb/internal/index"
	"github.com/ignitedb/ignitedb/internal/record"
	"github.com/ignitedb/ignitedb/internal/storage"
	"github.com/ignitedb/ignitedb/pkg/errors"
	"github.com/ignitedb/ignitedb/pkg/metrics"
	"github.com/ignitedb/ignitedb/pkg/seginfo"
	"go.uber.org/zap"
)

// Config carries everything the compactor needs to do its work. Mu is the
// engine's own lock: the compactor takes it only for the brief commit step
// that swaps the index over to the new segment, never while it is reading
// and rewriting the (much larger) bulk of live data.
type Config struct {
	Dir             string
	Storage         *storage.Storage
	Index           *index.Index
	Mu              *sync.Mutex
	Logger          *zap.SugaredLogger
	Interval        time.Duration
	ChecksumEnabled bool
	// ResetReclaimable is called, under Mu, once a cycle successfully
	// commits, to zero the engine's reclaimable-byte counter.
	ResetReclaimable func()
	Metrics          *metrics.Recorder
}

// Compactor owns the coalescing signal channel and the worker goroutine.
type Compactor struct {
	cfg    Config
	log    *zap.SugaredLogger
	signal chan struct{}
	stop   chan struct{}
	done   chan struct{}
}

// New constructs a Compactor. Start must be called to begin the background
// worker.
func New(cfg Config) (*Compactor, error) {
	if cfg.Storage == nil || cfg.Index == nil || cfg.Mu == nil || cfg.Logger == nil || cfg.Dir == "" {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "compactor configuration is required",
		).WithField("config").WithRule("required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour * 5
	}

	return &Compactor{
		cfg:    cfg,
		log:    cfg.Logger,
		signal: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// Start launches the background worker goroutine. Safe to call once.
func (c *Compactor) Start() {
	go c.loop()
}

// Signal requests a compaction cycle. It never blocks: if a cycle is
// already pending the request coalesces into the one already queued.
func (c *Compactor) Signal() {
	select {
	case c.signal <- struct{}{}:
	default:
	}
}

// Stop halts the worker goroutine and waits for any in-flight cycle to
// finish.
func (c *Compactor) Stop() {
	close(c.stop)
	<-c.done
}

func (c *Compactor) loop() {
	defer close(c.done)

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-c.signal:
			c.runCycle()
		case <-ticker.C:
			c.runCycle()
		}
	}
}

func (c *Compactor) runCycle() {
	err := c.Run()
	c.cfg.Metrics.ObserveCompaction(err)
	if err != nil {
		c.log.Errorw("compaction cycle failed", "error", err)
	}
}

// liveEntry is a snapshot of one index entry taken before the rewrite pass,
// used to read the record back for rewriting. Concurrent mutation is
// detected at commit by checking whether the key's current entry still
// points into a compacted segment.
type liveEntry struct {
	key string
	ptr index.RecordPointer
}

// Run executes one compaction cycle synchronously. It is exported so tests
// and a manual trigger (e.g. a CLI command) can run a cycle without going
// through the signal channel.
func (c *Compactor) Run() error {
	sealed, activeID, err := c.sealedSegments()
	if err != nil {
		return err
	}
	if len(sealed) == 0 {
		return nil
	}

	sealedSet := make(map[uint64]struct{}, len(sealed))
	for _, id := range sealed {
		sealedSet[id] = struct{}{}
	}

	var toRewrite []liveEntry
	c.cfg.Index.Iterate(func(key string, ptr index.RecordPointer) bool {
		if _, ok := sealedSet[uint64(ptr.SegmentID)]; ok {
			toRewrite = append(toRewrite, liveEntry{key: key, ptr: ptr})
		}
		return true
	})

	if len(toRewrite) == 0 {
		// Every live key already points at the active segment; the sealed
		// segments hold only superseded or deleted entries. Clear them.
		return c.commit(nil, sealed, activeID)
	}

	targetID := sealed[0]
	compactedPath := seginfo.CompactedPath(c.cfg.Dir)

	file, err := os.Create(compactedPath)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create compaction target file").
			WithPath(compactedPath)
	}

	newPointers := make(map[string]index.RecordPointer, len(toRewrite))
	var offset int64

	for _, entry := range toRewrite {
		rec, err := c.readRecord(entry.ptr)
		if err != nil {
			c.log.Warnw("skipping unreadable record during compaction", "key", entry.key, "error", err)
			continue
		}

		buf := record.Encode(rec)
		if c.cfg.ChecksumEnabled {
			buf = record.EncodeChecksummed(rec)
		}

		n, err := file.Write(buf)
		if err != nil {
			_ = file.Close()
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write compacted record").
				WithPath(compactedPath)
		}

		newPointers[entry.key] = index.RecordPointer{
			Timestamp: rec.Timestamp,
			Offset:    offset,
			EntrySize: uint32(n),
			ValueSize: uint32(len(rec.Value)),
			Key:       entry.key,
			SegmentID: uint32(targetID),
		}
		offset += int64(n)
	}

	if err := file.Sync(); err != nil {
		_ = file.Close()
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to fsync compacted segment").
			WithPath(compactedPath)
	}
	if err := file.Close(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close compacted segment").
			WithPath(compactedPath)
	}

	return c.commit(newPointers, sealed, activeID)
}

// commit takes the engine lock and atomically swaps the index over to the
// rewritten segment, renames compacted.log into place, and removes every
// other sealed segment file.
func (c *Compactor) commit(newPointers map[string]index.RecordPointer, sealed []uint64, activeID uint64) error {
	c.cfg.Mu.Lock()
	defer c.cfg.Mu.Unlock()

	targetID := sealed[0]
	compactedPath := seginfo.CompactedPath(c.cfg.Dir)

	if len(newPointers) > 0 {
		if err := os.Rename(compactedPath, seginfo.Path(c.cfg.Dir, targetID)); err != nil {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to finalize compacted segment").
				WithPath(compactedPath).WithSegmentID(int(targetID))
		}

		for key, ptr := range newPointers {
			current, ok := c.cfg.Index.Lookup(key)
			if !ok {
				continue
			}
			// A concurrent write after our snapshot moved the key off the
			// segments we compacted (to the active segment, or deleted it
			// entirely); the newer entry must win over our rewritten copy.
			if _, stillSealed := indexOf(sealed, uint64(current.SegmentID)); !stillSealed {
				continue
			}
			c.cfg.Index.Insert(key, ptr)
		}
	}

	for _, id := range sealed {
		if id == targetID && len(newPointers) > 0 {
			continue
		}
		if id == activeID {
			continue
		}
		if err := c.cfg.Storage.DeleteSegment(id); err != nil {
			c.log.Warnw("failed to remove compacted-away segment", "segment", id, "error", err)
		}
	}

	if c.cfg.ResetReclaimable != nil {
		c.cfg.ResetReclaimable()
	}

	if ids, err := c.cfg.Storage.ListSegmentIDs(); err == nil {
		c.cfg.Metrics.SetSegmentCount(len(ids))
	}

	c.log.Infow("compaction cycle committed", "target_segment", targetID, "segments_reclaimed", len(sealed), "keys_rewritten", len(newPointers))
	return nil
}

func (c *Compactor) sealedSegments() ([]uint64, uint64, error) {
	ids, err := c.cfg.Storage.ListSegmentIDs()
	if err != nil {
		return nil, 0, err
	}

	activeID := c.cfg.Storage.ActiveID()
	sealed := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id != activeID {
			sealed = append(sealed, id)
		}
	}
	return sealed, activeID, nil
}

func (c *Compactor) readRecord(ptr index.RecordPointer) (record.Record, error) {
	buf, err := c.cfg.Storage.ReadAt(uint64(ptr.SegmentID), ptr.Offset, ptr.EntrySize)
	if err != nil {
		return record.Record{}, err
	}

	payload := buf
	var trailer []byte
	if c.cfg.ChecksumEnabled {
		if len(buf) < record.ChecksumSize {
			return record.Record{}, record.ErrCorrupt
		}
		payload = buf[:len(buf)-record.ChecksumSize]
		trailer = buf[len(buf)-record.ChecksumSize:]
		if !record.VerifyChecksum(payload, trailer) {
			return record.Record{}, record.ErrCorrupt
		}
	}

	header, err := record.DecodeHeader(payload[:record.HeaderSize])
	if err != nil {
		return record.Record{}, err
	}

	key := payload[record.HeaderSize : record.HeaderSize+header.KeyLen]
	value := payload[record.HeaderSize+header.KeyLen : record.HeaderSize+header.KeyLen+header.ValueLen]

	return record.Record{
		Type:      header.Type,
		Timestamp: header.Timestamp,
		Key:       append([]byte(nil), key...),
		Value:     append([]byte(nil), value...),
	}, nil
}

func indexOf(ids []uint64, target uint64) (int, bool) {
	for i, id := range ids {
		if id == target {
			return i, true
		}
	}
	return -1, false
}
