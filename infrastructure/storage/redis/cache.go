package redis

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/shrdlu/domain/cache"
)

const (
	namespace = "plans:"
	scanBatch = 100
)

// Cache stores encoded plans in Redis.
type Cache struct {
	client *redis.Client
	prefix string
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache connects to Redis and verifies the connection with PING.
func NewCache(cfg Config, opts ...ConfigOption) (*Cache, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(cache.ErrConnectionFailed, err)
	}

	return NewCacheFromClient(client, cfg.KeyPrefix), nil
}

// NewCacheFromClient creates a cache over an existing client.
func NewCacheFromClient(client *redis.Client, keyPrefix string) *Cache {
	return &Cache{client: client, prefix: keyPrefix + namespace}
}

// Key returns the Redis key used for a plan cache key.
func (c *Cache) Key(key string) string {
	return c.prefix + key
}

// Get returns the stored value.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	value, err := c.client.Get(ctx, c.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrapError(err)
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
	return wrapError(c.client.Set(ctx, c.Key(key), value, ttl).Err())
}

// Delete removes an entry.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return wrapError(c.client.Del(ctx, c.Key(key)).Err())
}

// Clear removes every key under the plan prefix using SCAN.
func (c *Cache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	iter := c.client.Scan(ctx, 0, c.prefix+"*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := c.client.Del(ctx, batch...).Err()
		batch = batch[:0]
		return wrapError(err)
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return wrapError(err)
	}
	return flush()
}

// Stats reports hits and misses. Size is not tracked.
func (c *Cache) Stats() cache.Stats {
	return cache.Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

// Close closes the client.
func (c *Cache) Close() error {
	return c.client.Close()
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(cache.ErrOperationTimeout, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Join(cache.ErrOperationTimeout, err)
	}
	return err
}

var (
	_ cache.Store         = (*Cache)(nil)
	_ cache.StatsProvider = (*Cache)(nil)
)
