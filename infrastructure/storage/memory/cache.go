package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/shrdlu/domain/cache"
)

type cacheEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// Cache is an in-memory plan cache store with TTL expiry and LRU eviction.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front is most recently used
	maxSize int
	now     func() time.Time
	hits    int64
	misses  int64
}

// CacheOption configures the cache.
type CacheOption func(*Cache)

// WithMaxSize sets the maximum number of entries. Non-positive values are ignored.
func WithMaxSize(size int) CacheOption {
	return func(c *Cache) {
		if size > 0 {
			c.maxSize = size
		}
	}
}

// WithCacheClock replaces the time source used for expiry.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates an in-memory cache holding at most 1000 plans by default.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		maxSize: 1000,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the stored value.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false, nil
	}
	e := el.Value.(*cacheEntry)
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		c.remove(el)
		c.misses++
		return nil, false, nil
	}

	c.order.MoveToFront(el)
	c.hits++
	return append([]byte(nil), e.value...), true, nil
}

// Set stores a copy of value, evicting the least recently used entry when full.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return cache.ErrInvalidKey
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e := &cacheEntry{key: key, value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}

	if el, ok := c.entries[key]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return nil
	}
	if c.order.Len() >= c.maxSize {
		c.remove(c.order.Back())
	}
	c.entries[key] = c.order.PushFront(e)
	return nil
}

// Delete removes an entry. Deleting a missing key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
	return nil
}

// Clear removes all entries.
func (c *Cache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
	return nil
}

// Stats returns hit, miss and size counters.
func (c *Cache) Stats() cache.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return cache.Stats{
		Hits:   c.hits,
		Misses: c.misses,
		Size:   int64(c.order.Len()),
	}
}

// remove must be called with the lock held.
func (c *Cache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.entries, el.Value.(*cacheEntry).key)
}

var (
	_ cache.Store         = (*Cache)(nil)
	_ cache.StatsProvider = (*Cache)(nil)
)
