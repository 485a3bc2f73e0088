package storage

import (
	"errors"
	"time"
)

// Common errors
var (
	// ErrIncompatibleFormat is returned when the payload store directory
	// holds data written by an incompatible on-disk format version.
	ErrIncompatibleFormat = errors.New("storage: incompatible payload store format")
)

// Bucket is the durable key→blob store for one shard of the payload ID
// keyspace.
//
// Implementation requirements:
//   - Thread-safe: concurrent reads and writes must be safe
//   - Durable: a committed Put must survive a process crash
//   - Atomic: a crash mid-Put must never expose a partial blob
//
// Absence is not an error: Get returns (nil, nil) for an ID that was
// never written or was removed, and Remove on a missing ID is a no-op.
type Bucket interface {
	// Put writes or overwrites the payload for id in one durable transaction.
	Put(id uint64, payload []byte) error

	// Get returns the payload for id, or (nil, nil) if absent.
	Get(id uint64) ([]byte, error)

	// Remove deletes the payload for id. Removing an absent id is a no-op.
	Remove(id uint64) error

	// AllIDs returns a snapshot of the live IDs in this bucket.
	// No ordering guarantee; mutations racing with the scan may or may
	// not be reflected, per the engine's read-view semantics.
	AllIDs() ([]uint64, error)

	// MaxID returns the largest live ID, or ok=false if the bucket is empty.
	// Used only during startup reconciliation.
	MaxID() (id uint64, ok bool, err error)

	// Close flushes and releases the bucket's resources. It may fail with
	// a transient error while the engine finishes background work; the
	// caller is expected to retry.
	Close() error
}

// BucketConfig contains per-bucket Badger tuning parameters.
type BucketConfig struct {
	// Dir is the bucket's storage directory, owned exclusively by one
	// bucket instance for the process lifetime.
	Dir string

	// SyncWrites enables fsync after each write.
	// Default: true. Payloads are the only copy of a message's bytes, so
	// an unsynced commit is a data-loss window.
	SyncWrites bool

	// GCInterval is the interval between value log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes. A single
	// payload must fit in one value log file, so this bounds the largest
	// storable blob.
	// Default: 1GB
	ValueLogFileSize int64

	// NumMemtables is the number of memtables.
	// Default: 2
	NumMemtables int

	// NumLevelZeroTables is the number of Level 0 tables before compaction.
	// Default: 5
	NumLevelZeroTables int

	// NumLevelZeroTablesStall is the number of Level 0 tables that
	// triggers a write stall.
	// Default: 10
	NumLevelZeroTablesStall int
}

// DefaultBucketConfig returns the default bucket configuration.
func DefaultBucketConfig(dir string) BucketConfig {
	return BucketConfig{
		Dir:                     dir,
		SyncWrites:              true,
		GCInterval:              10 * time.Minute,
		GCThreshold:             0.5,
		CacheSize:               64 << 20, // 64MB
		ValueLogFileSize:        1 << 30,  // 1GB
		NumMemtables:            2,
		NumLevelZeroTables:      5,
		NumLevelZeroTablesStall: 10,
	}
}
