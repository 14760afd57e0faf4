package forecast

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Cache stores forecast results in BadgerDB, keyed by model, date, hour and
// the store fingerprint at forecast time. Because a forecast is deterministic
// given the same inputs, any data-input write changes the fingerprint and
// naturally invalidates stale entries; a TTL bounds disk growth on top.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// CacheConfig holds cache configuration.
type CacheConfig struct {
	// Path to store database files.
	Path string

	// InMemory mode (for testing).
	InMemory bool

	// TTL after which entries expire regardless of fingerprint.
	TTL time.Duration
}

// NewCache opens the cache backend.
func NewCache(cfg CacheConfig) (*Cache, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}

	// The cache holds at most a few thousand small JSON entries; keep the
	// LSM footprint minimal.
	opts = opts.
		WithCompression(options.Snappy).
		WithNumVersionsToKeep(1).
		WithMemTableSize(8 << 20).
		WithNumMemtables(2).
		WithBlockCacheSize(4 << 20).
		WithIndexCacheSize(2 << 20).
		WithMaxLevels(3).
		WithNumCompactors(2).
		WithValueLogFileSize(16 << 20).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open forecast cache: %w", err)
	}
	return &Cache{db: db, ttl: cfg.TTL}, nil
}

// Get looks up a cached result.
func (c *Cache) Get(key string) (Result, bool) {
	var res Result
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(hashKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &res)
		})
	})
	if err != nil {
		return Result{}, false
	}
	return res, true
}

// Put stores a result. Cache failures are logged, never surfaced: a forecast
// that cannot be cached is still a forecast.
func (c *Cache) Put(key string, res Result) {
	value, err := json.Marshal(res)
	if err != nil {
		log.Printf("Failed to encode cached forecast: %v", err)
		return
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(hashKey(key), value)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		log.Printf("Failed to cache forecast result: %v", err)
	}
}

// Close shuts the cache down cleanly.
func (c *Cache) Close() error {
	return c.db.Close()
}

// hashKey maps the composite cache key to a fixed 8-byte badger key.
func hashKey(key string) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, xxhash.Sum64String(key))
	return out
}
