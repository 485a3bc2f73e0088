package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/petrelmq/petrelmq/internal/config"
	"github.com/petrelmq/petrelmq/internal/confloader"
	"github.com/petrelmq/petrelmq/internal/infra/buildinfo"
	"github.com/petrelmq/petrelmq/internal/infra/shutdown"
	"github.com/petrelmq/petrelmq/internal/payload"
	"github.com/petrelmq/petrelmq/internal/storage"
	"github.com/petrelmq/petrelmq/internal/telemetry/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("petrelmq-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.NodeID == "" {
		cfg.NodeID = ulid.Make().String()
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	}).With("node_id", cfg.NodeID)

	log.Info("starting petrelmq-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", *configFile)

	engine, err := newEngine(cfg, log)
	if err != nil {
		return fmt.Errorf("init payload engine: %w", err)
	}

	registry := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		engine.RegisterMetrics(registry)
	}

	if err := engine.Start(context.Background()); err != nil {
		return fmt.Errorf("start payload engine: %w", err)
	}

	// Shutdown must outlast the engine's full close retry window across
	// all buckets, plus slack for the metrics listener.
	retryBudget := time.Duration(cfg.Storage.CloseRetryCount) * cfg.Storage.CloseRetryInterval
	shutdownHandler := shutdown.NewHandler(retryBudget + 30*time.Second)

	if cfg.Metrics.Enabled {
		metricsServer := &http.Server{
			Addr:    cfg.Metrics.Addr,
			Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}

		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down metrics server")
			return metricsServer.Shutdown(ctx)
		})

		go func() {
			log.Info("metrics server listening", "addr", cfg.Metrics.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server error", "error", err)
			}
		}()
	}

	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down payload engine")
		return engine.Stop()
	})

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newEngine maps the server configuration onto the payload engine.
func newEngine(cfg *config.ServerConfig, log *slog.Logger) (*payload.Engine, error) {
	engineCfg := payload.Config{
		DataDir:            cfg.Storage.DataDir,
		BucketCount:        cfg.Storage.BucketCount,
		CloseRetryCount:    cfg.Storage.CloseRetryCount,
		CloseRetryInterval: cfg.Storage.CloseRetryInterval,
		Bucket: storage.BucketConfig{
			SyncWrites:              cfg.Storage.SyncWrites,
			GCInterval:              cfg.Storage.Badger.GCInterval,
			GCThreshold:             cfg.Storage.Badger.GCThreshold,
			CacheSize:               cfg.Storage.Badger.CacheSize,
			ValueLogFileSize:        cfg.Storage.Badger.ValueLogFileSize,
			NumMemtables:            cfg.Storage.Badger.NumMemtables,
			NumLevelZeroTables:      cfg.Storage.Badger.NumLevelZeroTables,
			NumLevelZeroTablesStall: cfg.Storage.Badger.NumLevelZeroTablesStall,
		},
		Logger: log,
	}

	return payload.New(engineCfg)
}
