// Package storage implements the segment manager: it owns the set of
// on-disk segment files under a data directory, decides when the active
// segment should be rotated, and provides the append and positioned-read
// primitives the storage engine and compactor build on. It has no notion
// of keys or the index — that belongs to the engine.
//
// Segment files are named "<id>.log" (pkg/seginfo); exactly one id, the
// largest on disk, is active and accepts appends, every other id is
// sealed and immutable.
package storage

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ignitedb/ignitedb/pkg/errors"
	"github.com/ignitedb/ignitedb/pkg/filesys"
	"github.com/ignitedb/ignitedb/pkg/seginfo"
	"go.uber.org/zap"
)

// Storage owns the active segment file handle and the directory segment
// files live under. All mutation of activeID/activeFile/size happens under
// mu; ReadAt against a sealed id needs no lock since sealed files are
// immutable, but it still takes a read lock to safely observe activeID
// (to decide whether to read through the cached active handle).
type Storage struct {
	mu sync.RWMutex

	dir    string
	log    *zap.SugaredLogger
	active *os.File
	// activeID is the id of the currently open active segment.
	activeID uint64
	// size is the current byte length of the active segment.
	size int64
}

// Config carries the parameters needed to construct a Storage.
type Config struct {
	Dir    string
	Logger *zap.SugaredLogger
}

// New creates the data directory if missing and returns an unopened
// Storage. Call OpenActive to position it at a segment before Append/ReadAt
// are used.
func New(config *Config) (*Storage, error) {
	if config == nil || config.Dir == "" || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "storage configuration is required",
		).WithField("config").WithRule("required")
	}

	if err := filesys.CreateDir(config.Dir, 0755, true); err != nil {
		if err == filesys.ErrIsNotDir {
			return nil, errors.NewStorageError(err, errors.ErrorCodeInvalidDir, "data directory path exists and is not a directory").
				WithPath(config.Dir)
		}
		return nil, errors.ClassifyDirectoryCreationError(err, config.Dir)
	}

	return &Storage{dir: config.Dir, log: config.Logger}, nil
}

// Dir returns the data directory this storage manages.
func (s *Storage) Dir() string {
	return s.dir
}

// ListSegmentIDs lists every segment id currently on disk, ascending.
func (s *Storage) ListSegmentIDs() ([]uint64, error) {
	ids, err := seginfo.List(s.dir)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to list segment files").
			WithPath(s.dir)
	}
	return ids, nil
}

// PathOf returns the filesystem path of segment id.
func (s *Storage) PathOf(id uint64) string {
	return seginfo.Path(s.dir, id)
}

// OpenActive opens (creating if necessary) segment id for append and makes
// it the active segment, positioned at end-of-file.
func (s *Storage) OpenActive(id uint64) error {
	path := seginfo.Path(s.dir, id)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return errors.ClassifyFileOpenError(err, path, filepath.Base(path))
	}

	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		_ = file.Close()
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek to end of active segment").
			WithPath(path).WithFileName(filepath.Base(path))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		_ = s.active.Close()
	}
	s.active = file
	s.activeID = id
	s.size = size

	s.log.Infow("opened active segment", "path", path, "size", size)
	return nil
}

// ActiveID returns the id of the currently active segment.
func (s *Storage) ActiveID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Size returns the current byte length of the active segment.
func (s *Storage) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// ShouldRotate reports whether the active segment's size strictly exceeds
// maxBytes. The engine checks this before each append, so a record larger
// than maxBytes still lands, in full, in a freshly rotated segment.
func (s *Storage) ShouldRotate(maxBytes uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(s.size) > maxBytes
}

// Rotate seals the active segment by opening the next id (activeID+1) and
// making it active. A single increment always suffices: the new segment is
// empty at birth, so it is never itself already over the rotation
// threshold.
func (s *Storage) Rotate() (uint64, error) {
	s.mu.RLock()
	nextID := s.activeID + 1
	s.mu.RUnlock()

	if err := s.OpenActive(nextID); err != nil {
		return 0, err
	}
	return nextID, nil
}

// Append writes buf to the active segment and returns the byte offset it
// was written at. When fsync is true the write is flushed to stable
// storage before returning, so an acknowledged append survives a crash.
func (s *Storage) Append(buf []byte, fsync bool) (offset int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return 0, errors.NewStorageError(nil, errors.ErrorCodeInternal, "append attempted before a segment was opened")
	}

	offset = s.size

	n, err := s.active.Write(buf)
	if err != nil {
		return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to append record to active segment").
			WithSegmentID(int(s.activeID)).WithOffset(int(offset))
	}

	if fsync {
		if err := s.active.Sync(); err != nil {
			return 0, errors.ClassifySyncError(err, seginfo.Name(s.activeID), s.PathOf(s.activeID), int(offset))
		}
	}

	s.size += int64(n)
	return offset, nil
}

// ReadAt reads length bytes at offset from segment id. If id is the active
// segment it reads through the shared handle; otherwise it opens a
// short-lived read-only handle, which is safe because sealed segments are
// never mutated.
func (s *Storage) ReadAt(id uint64, offset int64, length uint32) ([]byte, error) {
	s.mu.RLock()
	isActive := id == s.activeID
	active := s.active
	s.mu.RUnlock()

	buf := make([]byte, length)

	if isActive && active != nil {
		if _, err := active.ReadAt(buf, offset); err != nil {
			return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read record from active segment").
				WithSegmentID(int(id)).WithOffset(int(offset))
		}
		return buf, nil
	}

	path := seginfo.Path(s.dir, id)
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, path, seginfo.Name(id))
	}
	defer file.Close()

	if _, err := file.ReadAt(buf, offset); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read record from sealed segment").
			WithSegmentID(int(id)).WithOffset(int(offset)).WithPath(path)
	}
	return buf, nil
}

// SegmentSize stats segment id's current size on disk.
func (s *Storage) SegmentSize(id uint64) (int64, error) {
	path := seginfo.Path(s.dir, id)
	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat segment file").
			WithSegmentID(int(id)).WithPath(path)
	}
	return info.Size(), nil
}

// DeleteSegment removes a sealed segment file from disk. Never call this
// for the active segment id.
func (s *Storage) DeleteSegment(id uint64) error {
	path := seginfo.Path(s.dir, id)
	if err := os.Remove(path); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to delete sealed segment").
			WithSegmentID(int(id)).WithPath(path)
	}
	return nil
}

// Close releases the active segment file handle.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return nil
	}
	err := s.active.Close()
	s.active = nil
	return err
}
