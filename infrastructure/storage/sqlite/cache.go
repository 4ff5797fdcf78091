package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/shrdlu/domain/cache"
)

const cacheSchema = `
	CREATE TABLE IF NOT EXISTS plan_cache (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at INTEGER,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_plan_cache_expires_at ON plan_cache(expires_at);
`

// Cache is a SQLite-backed plan cache store, for a cache that outlives
// the process without running a server.
type Cache struct {
	db     *sql.DB
	prefix string
	now    func() time.Time
	hits   atomic.Int64
	misses atomic.Int64
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCacheClock replaces time.Now for expiry checks.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache opens the database and, if configured, creates the schema.
func NewCache(cfg Config, opts ...Option) (*Cache, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	c := &Cache{db: db, prefix: cfg.KeyPrefix, now: time.Now}
	if cfg.AutoMigrate {
		if err := c.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return c, nil
}

// Configure applies options after construction.
func (c *Cache) Configure(opts ...CacheOption) *Cache {
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) migrate() error {
	if _, err := c.db.Exec(cacheSchema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// Get returns the stored value. Expired entries are removed and reported
// as misses.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var (
		value     []byte
		expiresAt sql.NullInt64
	)
	err := c.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM plan_cache WHERE key = ?", c.prefix+key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if expiresAt.Valid && expiresAt.Int64 <= c.now().UnixNano() {
		_, _ = c.db.ExecContext(ctx, "DELETE FROM plan_cache WHERE key = ?", c.prefix+key)
		c.misses.Add(1)
		return nil, false, nil
	}

	c.hits.Add(1)
	return value, true, nil
}

// Set stores a value; a zero ttl keeps it until deleted.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return cache.ErrInvalidKey
	}

	now := c.now()
	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: now.Add(ttl).UnixNano(), Valid: true}
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO plan_cache (key, value, expires_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   value = excluded.value,
		   expires_at = excluded.expires_at,
		   updated_at = excluded.updated_at`,
		c.prefix+key, value, expiresAt, now.UnixNano(),
	)
	return err
}

// Delete removes an entry.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.db.ExecContext(ctx, "DELETE FROM plan_cache WHERE key = ?", c.prefix+key)
	return err
}

// Clear removes every entry under the key prefix.
func (c *Cache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.db.ExecContext(ctx,
		"DELETE FROM plan_cache WHERE substr(key, 1, ?) = ?", len(c.prefix), c.prefix)
	return err
}

// Cleanup removes expired entries and returns how many were dropped.
func (c *Cache) Cleanup(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	res, err := c.db.ExecContext(ctx,
		"DELETE FROM plan_cache WHERE expires_at IS NOT NULL AND expires_at <= ?",
		c.now().UnixNano(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Stats reports hits, misses and the number of stored entries.
func (c *Cache) Stats() cache.Stats {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var size int64
	_ = c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM plan_cache WHERE substr(key, 1, ?) = ?", len(c.prefix), c.prefix,
	).Scan(&size)

	return cache.Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   size,
	}
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

var (
	_ cache.Store         = (*Cache)(nil)
	_ cache.StatsProvider = (*Cache)(nil)
)
