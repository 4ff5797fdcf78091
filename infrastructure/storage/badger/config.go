// Package badger provides a BadgerDB-backed plan cache store.
package badger

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/felixgeelhaar/shrdlu/domain/cache"
)

// Config configures BadgerDB storage.
type Config struct {
	// Dir is the data directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data in memory (useful for testing).
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// GCDiscardRatio is the value log discard ratio used by GC.
	GCDiscardRatio float64

	// GCInterval is the interval between value log GC runs. Zero disables GC.
	GCInterval time.Duration

	// KeyPrefix is added to all keys.
	KeyPrefix string
}

// Option configures BadgerDB storage.
type Option func(*Config)

// WithDir sets the data directory.
func WithDir(dir string) Option {
	return func(c *Config) {
		c.Dir = dir
	}
}

// WithInMemory enables in-memory storage.
func WithInMemory() Option {
	return func(c *Config) {
		c.InMemory = true
	}
}

// WithGCInterval sets the GC interval.
func WithGCInterval(d time.Duration) Option {
	return func(c *Config) {
		c.GCInterval = d
	}
}

// WithKeyPrefix sets the key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *Config) {
		c.KeyPrefix = prefix
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		GCDiscardRatio: 0.5,
		GCInterval:     5 * time.Minute,
		KeyPrefix:      "shrdlu:",
	}
}

func openDB(cfg Config) (*badger.DB, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, fmt.Errorf("%w: badger dir is required", cache.ErrConnectionFailed)
	}

	opts := badger.DefaultOptions(cfg.Dir).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Join(cache.ErrConnectionFailed, err)
	}
	return db, nil
}
