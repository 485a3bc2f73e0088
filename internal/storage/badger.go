package storage

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// badgerBucket implements Bucket using Badger v3.
type badgerBucket struct {
	db     *badger.DB
	index  int
	cfg    BucketConfig
	logger *slog.Logger

	// Shutdown of the GC loop. stopOnce guards stopCh so a retried
	// Close never closes the channel twice.
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// OpenBucket opens the Badger database for one bucket.
//
// The directory is owned exclusively by the returned bucket until Close.
// Opening scans Badger's manifest and value log, so it can take time
// proportional to the stored data volume.
func OpenBucket(cfg BucketConfig, index int, logger *slog.Logger) (Bucket, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("storage: bucket %d: dir is required", index)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("bucket", index)

	opts := badger.DefaultOptions(cfg.Dir)
	opts.Logger = &badgerLogger{logger: logger}
	opts.BlockCacheSize = cfg.CacheSize
	opts.ValueLogFileSize = cfg.ValueLogFileSize
	opts.NumMemtables = cfg.NumMemtables
	opts.NumLevelZeroTables = cfg.NumLevelZeroTables
	opts.NumLevelZeroTablesStall = cfg.NumLevelZeroTablesStall
	opts.SyncWrites = cfg.SyncWrites
	// Callers never contend on the same key transactionally; the engine
	// serializes same-ID writes per bucket.
	opts.DetectConflicts = false

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: bucket %d: open db: %w", index, err)
	}

	b := &badgerBucket{
		db:     db,
		index:  index,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go b.gcLoop()

	logger.Debug("bucket opened", "dir", cfg.Dir, "sync_writes", cfg.SyncWrites)
	return b, nil
}

// payloadKey encodes a payload ID as a big-endian key, so Badger's key
// order matches numeric ID order and MaxID is a single reverse seek.
func payloadKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

// Put writes the payload in one transaction. Badger commits are atomic;
// a crash mid-write leaves the previous value visible on recovery.
func (b *badgerBucket) Put(id uint64, payload []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(payloadKey(id), payload)
	})
	if err != nil {
		return fmt.Errorf("storage: bucket %d: put %d: %w", b.index, id, err)
	}
	return nil
}

// Get returns the payload for id, or (nil, nil) if absent.
//
// The value is copied out of the transaction exactly once.
func (b *badgerBucket) Get(id uint64) ([]byte, error) {
	var payload []byte

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(payloadKey(id))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: bucket %d: get %d: %w", b.index, id, err)
	}

	return payload, nil
}

// Remove deletes the payload for id. Deleting a missing key is a no-op
// in Badger, which matches the contract.
func (b *badgerBucket) Remove(id uint64) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(payloadKey(id))
	})
	if err != nil {
		return fmt.Errorf("storage: bucket %d: remove %d: %w", b.index, id, err)
	}
	return nil
}

// AllIDs returns the live IDs in this bucket as one read-view snapshot.
func (b *badgerBucket) AllIDs() ([]uint64, error) {
	var ids []uint64

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // keys only
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			if len(key) != 8 {
				continue
			}
			ids = append(ids, binary.BigEndian.Uint64(key))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: bucket %d: scan ids: %w", b.index, err)
	}

	return ids, nil
}

// MaxID returns the largest live ID via a single reverse seek.
func (b *badgerBucket) MaxID() (uint64, bool, error) {
	var (
		max   uint64
		found bool
	)

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			if len(key) != 8 {
				continue
			}
			max = binary.BigEndian.Uint64(key)
			found = true
			return nil
		}
		return nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("storage: bucket %d: max id: %w", b.index, err)
	}

	return max, found, nil
}

// Close stops the GC loop and closes the database.
//
// Badger can refuse to close while compactions are in flight; the
// lifecycle coordinator retries on failure, so Close must be safe to
// call more than once.
func (b *badgerBucket) Close() error {
	b.stopOnce.Do(func() {
		close(b.stopCh)
		<-b.doneCh
	})

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("storage: bucket %d: close: %w", b.index, err)
	}

	b.logger.Debug("bucket closed")
	return nil
}

// gcLoop runs periodic value log garbage collection. Removed payloads
// only free disk space once their value log entries are rewritten.
func (b *badgerBucket) gcLoop() {
	defer close(b.doneCh)

	if b.cfg.GCInterval <= 0 {
		return
	}

	ticker := time.NewTicker(b.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for {
				err := b.db.RunValueLogGC(b.cfg.GCThreshold)
				if err != nil {
					if err != badger.ErrNoRewrite {
						b.logger.Error("value log gc failed", "error", err)
					}
					break
				}
			}

		case <-b.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
