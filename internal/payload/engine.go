package payload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/petrelmq/petrelmq/internal/storage"
)

// Default configuration values.
const (
	DefaultBucketCount        = 64
	DefaultCloseRetryCount    = 500
	DefaultCloseRetryInterval = 100 * time.Millisecond
)

// Config configures the payload engine.
type Config struct {
	// DataDir is the base directory for all payload storage files.
	DataDir string

	// BucketCount is the number of independent shards. Fixed at startup;
	// changing it across restarts without migrating data invalidates the
	// bucket assignment of existing payloads.
	BucketCount int

	// CloseRetryCount is the number of close attempts per bucket beyond
	// the first.
	CloseRetryCount int

	// CloseRetryInterval is the delay between close attempts.
	CloseRetryInterval time.Duration

	// Bucket is the tuning template applied to every bucket. Its Dir is
	// ignored; the engine assigns one directory per bucket under DataDir.
	Bucket storage.BucketConfig

	// Logger is the structured logger.
	Logger *slog.Logger
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:            dataDir,
		BucketCount:        DefaultBucketCount,
		CloseRetryCount:    DefaultCloseRetryCount,
		CloseRetryInterval: DefaultCloseRetryInterval,
		Bucket:             storage.DefaultBucketConfig(""),
		Logger:             slog.Default(),
	}
}

// bucketState tracks the shutdown state machine of one bucket. There is
// no transition back to open once closing begins.
type bucketState int

const (
	bucketOpen bucketState = iota
	bucketClosing
	bucketClosed
	bucketCloseFailed
)

// Engine is the durable, sharded payload store.
//
// Put, Get, Remove and AllIDs route through a stable hash to one of the
// engine's buckets; operations on different buckets proceed fully in
// parallel. All operations require a completed Start and reject with a
// precondition error once Stop has begun.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	buckets   []storage.Bucket
	states    []bucketState
	allocator *Allocator

	// readyCh is the startup barrier, closed when all buckets are open
	// and the allocator is reconciled.
	readyCh chan struct{}
	started atomic.Bool
	closed  atomic.Bool

	metrics *engineMetrics

	// openBucket is swapped out in tests to inject fake buckets.
	openBucket func(cfg storage.BucketConfig, index int, logger *slog.Logger) (storage.Bucket, error)
}

// New creates a payload engine. Call Start before using it.
func New(cfg Config) (*Engine, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("payload: data_dir is required")
	}
	if cfg.BucketCount <= 0 {
		return nil, fmt.Errorf("payload: bucket_count must be positive, got %d", cfg.BucketCount)
	}
	if cfg.CloseRetryCount < 0 {
		return nil, fmt.Errorf("payload: close_retry_count must not be negative, got %d", cfg.CloseRetryCount)
	}
	if cfg.CloseRetryInterval < 0 {
		return nil, fmt.Errorf("payload: close_retry_interval must not be negative, got %s", cfg.CloseRetryInterval)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Engine{
		cfg:        cfg,
		logger:     cfg.Logger,
		buckets:    make([]storage.Bucket, cfg.BucketCount),
		states:     make([]bucketState, cfg.BucketCount),
		allocator:  NewAllocator(),
		readyCh:    make(chan struct{}),
		openBucket: storage.OpenBucket,
	}, nil
}

// Start opens all buckets concurrently, reconciles the ID allocator
// against the highest payload ID found on disk, and signals the
// readiness barrier.
//
// A bucket that cannot be opened fails the whole startup: running with a
// partial keyspace would silently lose payloads. Start must be called at
// most once.
func (e *Engine) Start(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	startTime := time.Now()
	e.logger.Info("payload engine starting", "buckets", e.cfg.BucketCount, "data_dir", e.cfg.DataDir)

	root, err := storage.EnsureFormat(e.cfg.DataDir)
	if err != nil {
		return err
	}

	var (
		wg     sync.WaitGroup
		maxIDs = make([]uint64, e.cfg.BucketCount)
		found  = make([]bool, e.cfg.BucketCount)
		errs   = make([]error, e.cfg.BucketCount)
	)

	// Buckets share no state, so recovery scans run in parallel.
	for i := 0; i < e.cfg.BucketCount; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			cfg := e.cfg.Bucket
			cfg.Dir = storage.BucketDir(root, i)

			bucket, err := e.openBucket(cfg, i, e.logger)
			if err != nil {
				errs[i] = err
				return
			}
			e.buckets[i] = bucket

			maxIDs[i], found[i], errs[i] = bucket.MaxID()
		}(i)
	}
	wg.Wait()

	var openErr error
	for i, err := range errs {
		if err != nil {
			openErr = fmt.Errorf("payload: start bucket %d: %w", i, err)
			break
		}
	}
	if openErr == nil {
		openErr = ctx.Err()
	}
	if openErr != nil {
		e.abortStart()
		return openErr
	}

	var highWaterMark uint64
	var any bool
	for i := range maxIDs {
		if found[i] && maxIDs[i] > highWaterMark {
			highWaterMark = maxIDs[i]
			any = true
		}
	}
	if any {
		e.allocator.Reconcile(highWaterMark)
	}

	close(e.readyCh)

	elapsed := time.Since(startTime)
	e.logger.Info("payload engine started",
		"high_water_mark", highWaterMark,
		"elapsed", elapsed)
	if e.metrics != nil {
		e.metrics.startupSeconds.Set(elapsed.Seconds())
		e.metrics.highWaterMark.Set(float64(highWaterMark))
	}

	return nil
}

// abortStart closes whatever buckets a failed Start managed to open.
func (e *Engine) abortStart() {
	e.closed.Store(true)
	for i, bucket := range e.buckets {
		if bucket == nil {
			continue
		}
		if err := bucket.Close(); err != nil {
			e.logger.Warn("close bucket after failed start", "bucket", i, "error", err)
		}
	}
}

// Ready returns the startup barrier. It is closed once all buckets are
// recovered and the allocator is reconciled; consumers must not mint IDs
// or accept writes before then.
func (e *Engine) Ready() <-chan struct{} {
	return e.readyCh
}

// ensureReady rejects operations outside the started-and-not-closed
// window.
func (e *Engine) ensureReady() error {
	if e.closed.Load() {
		return ErrClosed
	}
	select {
	case <-e.readyCh:
		return nil
	default:
		return ErrNotStarted
	}
}

// NextID issues a new payload ID.
//
// Calling it before Start has signaled readiness is a precondition
// violation: the allocator may not be reconciled yet and the ID could
// collide with a payload from a previous process lifetime.
func (e *Engine) NextID() (uint64, error) {
	if err := e.ensureReady(); err != nil {
		return 0, err
	}
	return e.allocator.Next(), nil
}

// Put writes the payload for id, blocking until the durable write
// commits.
func (e *Engine) Put(id uint64, payload []byte) error {
	if err := e.ensureReady(); err != nil {
		return err
	}

	bucket := e.buckets[BucketIndex(id, e.cfg.BucketCount)]
	if err := bucket.Put(id, payload); err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.putsTotal.Inc()
		e.metrics.bytesWritten.Add(float64(len(payload)))
	}
	return nil
}

// Get returns the payload for id, or (nil, nil) if it was never written
// or has been removed. The two cases are indistinguishable.
func (e *Engine) Get(id uint64) ([]byte, error) {
	if err := e.ensureReady(); err != nil {
		return nil, err
	}

	bucket := e.buckets[BucketIndex(id, e.cfg.BucketCount)]
	payload, err := bucket.Get(id)
	if err != nil {
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.getsTotal.Inc()
		e.metrics.bytesRead.Add(float64(len(payload)))
	}
	return payload, nil
}

// Remove deletes the payload for id. Removing an absent ID is a no-op.
func (e *Engine) Remove(id uint64) error {
	if err := e.ensureReady(); err != nil {
		return err
	}

	bucket := e.buckets[BucketIndex(id, e.cfg.BucketCount)]
	if err := bucket.Remove(id); err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.removesTotal.Inc()
	}
	return nil
}

// AllIDs returns the union of every bucket's live-ID snapshot. The
// per-bucket snapshots are consistent individually, not globally.
func (e *Engine) AllIDs() ([]uint64, error) {
	if err := e.ensureReady(); err != nil {
		return nil, err
	}

	var ids []uint64
	for _, bucket := range e.buckets {
		bucketIDs, err := bucket.AllIDs()
		if err != nil {
			return nil, err
		}
		ids = append(ids, bucketIDs...)
	}
	return ids, nil
}

// Stop closes every bucket, retrying transient close failures up to the
// configured budget per bucket.
//
// Shutdown is best-effort across buckets: exhausting the retry budget on
// one bucket is reported but does not stop the siblings from closing.
// Stop blocks for up to (retries × interval) per failing bucket.
func (e *Engine) Stop() error {
	if !e.started.Load() {
		return ErrNotStarted
	}
	if !e.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	e.logger.Info("payload engine stopping")

	var result *multierror.Error
	for i, bucket := range e.buckets {
		if bucket == nil {
			continue
		}
		e.states[i] = bucketClosing

		if err := e.closeBucket(i, bucket); err != nil {
			e.states[i] = bucketCloseFailed
			e.logger.Error("bucket close failed permanently", "bucket", i, "error", err)
			result = multierror.Append(result, err)
			continue
		}
		e.states[i] = bucketClosed
	}

	if err := result.ErrorOrNil(); err != nil {
		return err
	}

	e.logger.Info("payload engine stopped")
	return nil
}

// closeBucket runs the bounded retry loop for one bucket: the first
// attempt plus CloseRetryCount retries, sleeping CloseRetryInterval
// between attempts.
func (e *Engine) closeBucket(index int, bucket storage.Bucket) error {
	attempts := e.cfg.CloseRetryCount + 1

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = bucket.Close()
		if err == nil {
			if attempt > 1 {
				e.logger.Info("bucket closed after retry", "bucket", index, "attempts", attempt)
			}
			return nil
		}

		if attempt < attempts {
			e.logger.Warn("bucket close failed, retrying",
				"bucket", index,
				"attempt", attempt,
				"error", err)
			if e.metrics != nil {
				e.metrics.closeRetries.Inc()
			}
			time.Sleep(e.cfg.CloseRetryInterval)
		}
	}

	return fmt.Errorf("payload: bucket %d not closed after %d attempts: %w", index, attempts, err)
}
