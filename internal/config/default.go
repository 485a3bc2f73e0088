// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultDataDir = "/var/lib/petrelmq/data"

	DefaultBucketCount        = 64
	DefaultCloseRetryCount    = 500
	DefaultCloseRetryInterval = 100 * time.Millisecond

	DefaultMetricsAddr = "127.0.0.1:9090"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Storage: StorageSection{
			DataDir:            DefaultDataDir,
			BucketCount:        DefaultBucketCount,
			CloseRetryCount:    DefaultCloseRetryCount,
			CloseRetryInterval: DefaultCloseRetryInterval,
			SyncWrites:         true,
			Badger: BadgerSection{
				GCInterval:              10 * time.Minute,
				GCThreshold:             0.5,
				CacheSize:               64 << 20, // 64MB
				ValueLogFileSize:        1 << 30,  // 1GB
				NumMemtables:            2,
				NumLevelZeroTables:      5,
				NumLevelZeroTablesStall: 10,
			},
		},
		Metrics: MetricsSection{
			Enabled: false,
			Addr:    DefaultMetricsAddr,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
