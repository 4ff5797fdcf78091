package resilience

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"

	"github.com/felixgeelhaar/shrdlu/domain/cache"
)

// BreakerConfig configures GuardedStore.
type BreakerConfig struct {
	// Threshold is the number of consecutive failures before opening.
	Threshold int

	// Timeout is how long the circuit stays open.
	Timeout time.Duration
}

// DefaultBreakerConfig returns the defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{Threshold: 5, Timeout: 30 * time.Second}
}

type getResult struct {
	value []byte
	found bool
}

// GuardedStore wraps a remote cache store with a circuit breaker so an
// unavailable backend fails fast instead of stalling every plan.
type GuardedStore struct {
	store  cache.Store
	reads  circuitbreaker.CircuitBreaker[getResult]
	writes circuitbreaker.CircuitBreaker[struct{}]
}

// NewGuardedStore wraps store.
func NewGuardedStore(store cache.Store, config BreakerConfig) *GuardedStore {
	threshold := config.Threshold
	if threshold <= 0 {
		threshold = 5
	}
	trip := func(counts circuitbreaker.Counts) bool {
		return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounds checked above
	}
	return &GuardedStore{
		store: store,
		reads: circuitbreaker.New[getResult](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    config.Timeout,
			Timeout:     config.Timeout,
			ReadyToTrip: trip,
		}),
		writes: circuitbreaker.New[struct{}](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    config.Timeout,
			Timeout:     config.Timeout,
			ReadyToTrip: trip,
		}),
	}
}

// Get reads through the breaker.
func (g *GuardedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	r, err := g.reads.Execute(ctx, func(ctx context.Context) (getResult, error) {
		v, ok, err := g.store.Get(ctx, key)
		return getResult{value: v, found: ok}, err
	})
	if err != nil {
		return nil, false, err
	}
	return r.value, r.found, nil
}

// Set writes through the breaker.
func (g *GuardedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := g.writes.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.store.Set(ctx, key, value, ttl)
	})
	return err
}

// Delete writes through the breaker.
func (g *GuardedStore) Delete(ctx context.Context, key string) error {
	_, err := g.writes.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.store.Delete(ctx, key)
	})
	return err
}

// Clear bypasses the breaker.
func (g *GuardedStore) Clear(ctx context.Context) error {
	return g.store.Clear(ctx)
}

// Stats forwards to the wrapped store when it reports stats.
func (g *GuardedStore) Stats() cache.Stats {
	if sp, ok := g.store.(cache.StatsProvider); ok {
		return sp.Stats()
	}
	return cache.Stats{}
}

// State returns the read breaker state.
func (g *GuardedStore) State() circuitbreaker.State {
	return g.reads.State()
}

var _ cache.Store = (*GuardedStore)(nil)
