// Package cache provides the plan cache: computed plans keyed by the start
// state, the goal formula and the search settings that produced them.
package cache

import (
	"context"
	"time"
)

// Store is the byte-level backend of the plan cache.
// Implementations may be in-memory, BadgerDB, Redis, or any other backend.
type Store interface {
	// Get retrieves a value by key. Returns the value, whether it was
	// found, and any error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes an entry.
	Delete(ctx context.Context, key string) error

	// Clear removes every plan entry.
	Clear(ctx context.Context) error
}

// Stats provides cache statistics.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int64
}

// StatsProvider is an optional interface for stores that report statistics.
type StatsProvider interface {
	Stats() Stats
}
