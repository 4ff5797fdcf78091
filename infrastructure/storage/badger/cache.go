package badger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/felixgeelhaar/shrdlu/domain/cache"
)

const namespace = "plans:"

// Cache stores encoded plans in BadgerDB. Expiry uses Badger's native TTL.
type Cache struct {
	db        *badger.DB
	prefix    []byte
	ownsDB    bool
	hits      atomic.Int64
	misses    atomic.Int64
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewCache opens a database and returns a cache over it.
func NewCache(cfg Config, opts ...Option) (*Cache, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		db:     db,
		prefix: []byte(cfg.KeyPrefix + namespace),
		ownsDB: true,
		stop:   make(chan struct{}),
	}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		c.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return c, nil
}

// NewCacheFromDB returns a cache over an existing database. Close does not
// close db.
func NewCacheFromDB(db *badger.DB, keyPrefix string) *Cache {
	return &Cache{
		db:     db,
		prefix: []byte(keyPrefix + namespace),
		stop:   make(chan struct{}),
	}
}

func (c *Cache) runGC(interval time.Duration, ratio float64) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				for c.db.RunValueLogGC(ratio) == nil {
				}
			}
		}
	}()
}

func (c *Cache) key(k string) []byte {
	return append(append([]byte(nil), c.prefix...), k...)
}

// Get returns the stored value.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	c.hits.Add(1)
	return value, true, nil
}

// Set stores a value with an optional TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return cache.ErrInvalidKey
	}

	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(c.key(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

// Delete removes an entry.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(c.key(key))
	})
}

// Clear drops every plan entry under the prefix.
func (c *Cache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.DropPrefix(c.prefix)
}

// Stats counts live entries under the prefix.
func (c *Cache) Stats() cache.Stats {
	var size int64
	_ = c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = c.prefix

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			size++
		}
		return nil
	})

	return cache.Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   size,
	}
}

// Close stops GC and closes the database if the cache opened it.
func (c *Cache) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stop)
		c.wg.Wait()
		if c.ownsDB {
			err = c.db.Close()
		}
	})
	return err
}

var (
	_ cache.Store         = (*Cache)(nil)
	_ cache.StatsProvider = (*Cache)(nil)
)
