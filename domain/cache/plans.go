package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/felixgeelhaar/shrdlu/domain/goal"
	"github.com/felixgeelhaar/shrdlu/domain/plan"
	"github.com/felixgeelhaar/shrdlu/domain/world"
)

// Key derives the cache key of a planning request. Requests with equal
// start states, equal formulas and equal settings share a key.
func Key(start *world.State, f goal.Formula, settings string) string {
	d := xxhash.New()
	_, _ = d.WriteString(start.Key())
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(f.String())
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(settings)
	return "plan:" + strconv.FormatUint(d.Sum64(), 16)
}

// Plans stores encoded plans in a Store.
type Plans struct {
	store Store
	ttl   time.Duration
}

// NewPlans wraps a store. Entries expire after ttl; zero keeps them.
func NewPlans(store Store, ttl time.Duration) *Plans {
	return &Plans{store: store, ttl: ttl}
}

// Lookup returns the cached plan for key. The returned plan is marked as
// served from cache.
func (p *Plans) Lookup(ctx context.Context, key string) (*plan.Plan, bool, error) {
	data, ok, err := p.store.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	var out plan.Plan
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	out.Cached = true
	return &out, true, nil
}

// Save stores a plan under key.
func (p *Plans) Save(ctx context.Context, key string, pl *plan.Plan) error {
	data, err := json.Marshal(pl)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	return p.store.Set(ctx, key, data, p.ttl)
}

// Stats returns store statistics when the store reports them.
func (p *Plans) Stats() (Stats, bool) {
	sp, ok := p.store.(StatsProvider)
	if !ok {
		return Stats{}, false
	}
	return sp.Stats(), true
}
