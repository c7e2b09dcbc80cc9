// Package ignite provides a high-performance, embeddable key/value data
// store designed for fast read and write operations, inspired by Bitcask.
// It combines an in-memory hash table (the index) with an append-only log
// structure on disk to achieve high throughput. It is designed for
// applications requiring fast read and write operations, such as caching,
// session management, and real-time data processing, aiming to provide a
// simple, efficient, and reliable solution for in-memory data storage in
// Go applications.
package ignite

import (
	"github.com/ignitedb/ignitedb/internal/engine"
	"github.com/ignitedb/ignitedb/pkg/logger"
	"github.com/ignitedb/ignitedb/pkg/metrics"
	"github.com/ignitedb/ignitedb/pkg/options"
)

// Instance represents an open Ignite key/value data store. It encapsulates
// the core engine responsible for data handling and the configuration
// options for this specific database instance.
//
// Instance is the primary entry point for interacting with the Ignite
// store, providing methods for setting, getting, and deleting key-value
// pairs.
type Instance struct {
	engine  *engine.Engine
	options *options.Options
}

// Open creates and initializes a new Ignite DB instance, recovering any
// existing data found under the configured data directory.
func Open(service string, opts ...options.OptionFunc) (*Instance, error) {
	return OpenWithRecorder(service, nil, opts...)
}

// OpenWithRecorder is Open with Prometheus instrumentation: every
// Put/Get/Delete and compaction cycle reports against rec. Pass nil to
// get the same uninstrumented behavior as Open.
func OpenWithRecorder(service string, rec *metrics.Recorder, opts ...options.OptionFunc) (*Instance, error) {
	log := logger.New(service)

	resolved := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&resolved)
	}

	eng, err := engine.Open(&engine.Config{Logger: log, Options: &resolved, Metrics: rec})
	if err != nil {
		return nil, err
	}

	return &Instance{engine: eng, options: &resolved}, nil
}

// Set stores a key-value pair in the database. If the key already exists,
// its value is updated. The write is durable once Set returns (subject to
// options.FsyncOnWrite).
func (i *Instance) Set(key string, value []byte) error {
	return i.engine.Put([]byte(key), value)
}

// Get retrieves the value associated with the given key. A missing or
// deleted key is reported by a false found, not an error.
func (i *Instance) Get(key string) (value []byte, found bool, err error) {
	return i.engine.Get([]byte(key))
}

// Delete removes a key-value pair from the database. The key is marked
// deleted immediately; the space it occupied on disk is reclaimed by a
// later compaction cycle.
func (i *Instance) Delete(key string) error {
	return i.engine.Delete([]byte(key))
}

// Compact runs one compaction cycle synchronously rather than waiting for
// the reclaimable-byte threshold or the periodic safety net.
func (i *Instance) Compact() error {
	return i.engine.Compact()
}

// Close gracefully shuts down the Ignite DB instance: it stops the
// background compactor and releases all open file handles.
func (i *Instance) Close() error {
	return i.engine.Close()
}
