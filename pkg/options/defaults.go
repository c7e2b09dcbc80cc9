package options

import "time"

const (
	// DefaultDataDir is the base directory IgniteDB stores segment files in
	// when no other directory is configured.
	DefaultDataDir = "/var/lib/ignitedb"

	// DefaultMaxSegmentBytes is the size threshold at which the active
	// segment is sealed and a new one opened.
	DefaultMaxSegmentBytes uint64 = 64 * 1024 * 1024

	// DefaultMaxReclaimableBytes is the reclaimable-byte threshold above
	// which the compactor is signalled.
	DefaultMaxReclaimableBytes uint64 = 128 * 1024 * 1024

	// DefaultFsyncOnWrite controls whether every append is followed by an
	// fsync before acknowledgement. Disabling it is an explicit opt-out,
	// trading crash durability for throughput.
	DefaultFsyncOnWrite = true

	// DefaultCompactInterval is the period of the periodic safety-net
	// compaction check that runs alongside the event-driven signal.
	DefaultCompactInterval = time.Hour * 5

	// MinSegmentBytes is the smallest segment size accepted by
	// WithMaxSegmentBytes, chosen so a maximum-size header (17 bytes)
	// always fits with room to spare.
	MinSegmentBytes uint64 = 64

	// MaxSegmentBytesLimit is the largest segment size accepted by
	// WithMaxSegmentBytes.
	MaxSegmentBytesLimit uint64 = 4 * 1024 * 1024 * 1024
)

// defaultOptions holds the baseline configuration for an IgniteDB instance.
var defaultOptions = Options{
	DataDir:             DefaultDataDir,
	MaxSegmentBytes:     DefaultMaxSegmentBytes,
	MaxReclaimableBytes: DefaultMaxReclaimableBytes,
	FsyncOnWrite:        DefaultFsyncOnWrite,
	CompactInterval:     DefaultCompactInterval,
	ChecksumEnabled:     false,
}

// NewDefaultOptions returns a copy of the default configuration.
func NewDefaultOptions() Options {
	return defaultOptions
}
