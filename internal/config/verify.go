// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
	"os"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifyMetrics(&cfg.Metrics); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return fmt.Errorf("cannot create data directory: %w", err)
	}

	if cfg.BucketCount < 1 {
		return errors.New("storage.bucket_count must be at least 1")
	}
	if cfg.CloseRetryCount < 0 {
		return errors.New("storage.close_retry_count must not be negative")
	}
	if cfg.CloseRetryInterval < 0 {
		return errors.New("storage.close_retry_interval must not be negative")
	}
	if cfg.Badger.GCThreshold <= 0 || cfg.Badger.GCThreshold > 1 {
		return errors.New("storage.badger.gc_threshold must be in (0, 1]")
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if cfg.Enabled && cfg.Addr == "" {
		return errors.New("metrics.addr is required when metrics are enabled")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch cfg.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
	return nil
}
