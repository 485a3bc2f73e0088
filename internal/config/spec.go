// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for petrelmq-server.
type ServerConfig struct {
	// NodeID identifies this broker node in logs and metrics.
	// If empty, a ULID is generated at startup.
	NodeID string `koanf:"node_id"`

	Storage StorageSection `koanf:"storage"`
	Metrics MetricsSection `koanf:"metrics"`
	Log     LogSection     `koanf:"log"`
}

// StorageSection configures the payload persistence engine.
type StorageSection struct {
	// DataDir is the base directory for payload storage.
	DataDir string `koanf:"data_dir"`

	// BucketCount is the number of independent payload shards. Must not
	// change across restarts of an existing data dir without a migration.
	BucketCount int `koanf:"bucket_count"`

	// CloseRetryCount is the maximum close attempts per bucket beyond
	// the first during shutdown.
	CloseRetryCount int `koanf:"close_retry_count"`

	// CloseRetryInterval is the delay between close attempts.
	CloseRetryInterval time.Duration `koanf:"close_retry_interval"`

	// SyncWrites enables fsync after each payload write.
	SyncWrites bool `koanf:"sync_writes"`

	Badger BadgerSection `koanf:"badger"`
}

// BadgerSection contains per-bucket Badger tuning parameters.
type BadgerSection struct {
	// GCInterval is the interval between value log GC runs per bucket.
	GCInterval time.Duration `koanf:"gc_interval"`

	// GCThreshold is the GC discard ratio threshold (0.0-1.0].
	GCThreshold float64 `koanf:"gc_threshold"`

	// CacheSize is the block cache size in bytes per bucket.
	CacheSize int64 `koanf:"cache_size"`

	// ValueLogFileSize is the max value log file size in bytes; it also
	// bounds the largest storable payload.
	ValueLogFileSize int64 `koanf:"value_log_file_size"`

	// NumMemtables is the number of memtables per bucket.
	NumMemtables int `koanf:"num_memtables"`

	// NumLevelZeroTables is the Level 0 table count before compaction.
	NumLevelZeroTables int `koanf:"num_level_zero_tables"`

	// NumLevelZeroTablesStall is the Level 0 table count that stalls writes.
	NumLevelZeroTablesStall int `koanf:"num_level_zero_tables_stall"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
