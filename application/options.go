package application

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/shrdlu/domain/cache"
	"github.com/felixgeelhaar/shrdlu/domain/config"
	"github.com/felixgeelhaar/shrdlu/domain/history"
	"github.com/felixgeelhaar/shrdlu/infrastructure/resilience"
	"github.com/felixgeelhaar/shrdlu/infrastructure/telemetry"
)

// Option configures the planner.
type Option func(*PlannerConfig)

// WithSearch replaces the search settings.
func WithSearch(s config.SearchConfig) Option {
	return func(c *PlannerConfig) {
		c.Search = s
	}
}

// WithTimeout sets the search budget. Zero means none.
func WithTimeout(d time.Duration) Option {
	return func(c *PlannerConfig) {
		c.Search.Timeout = config.Duration(d)
	}
}

// WithHeuristic selects the heuristic mode, domain or zero.
func WithHeuristic(mode string) Option {
	return func(c *PlannerConfig) {
		c.Search.Heuristic = mode
	}
}

// WithCombiner selects how literal estimates are folded, sum or max.
func WithCombiner(combiner string) Option {
	return func(c *PlannerConfig) {
		c.Search.Combiner = combiner
	}
}

// WithPhysicsPruning drops goal conjunctions no physical arrangement can
// satisfy before searching.
func WithPhysicsPruning(enabled bool) Option {
	return func(c *PlannerConfig) {
		c.Search.PhysicsPruning = enabled
	}
}

// WithCommentary toggles the per-step sentences.
func WithCommentary(enabled bool) Option {
	return func(c *PlannerConfig) {
		c.Search.Commentary = enabled
	}
}

// WithCache sets the plan cache.
func WithCache(p *cache.Plans) Option {
	return func(c *PlannerConfig) {
		c.Cache = p
	}
}

// WithHistory sets the plan history store.
func WithHistory(s history.Store) Option {
	return func(c *PlannerConfig) {
		c.History = s
	}
}

// WithMetrics sets the metrics provider.
func WithMetrics(m *telemetry.MetricsProvider) Option {
	return func(c *PlannerConfig) {
		c.Metrics = m
	}
}

// WithTracer sets the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *PlannerConfig) {
		c.Tracer = t
	}
}

// WithExecutor sets the executor used by PlanBatch.
func WithExecutor(e *resilience.Executor) Option {
	return func(c *PlannerConfig) {
		c.Executor = e
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(c *PlannerConfig) {
		c.Clock = clock
	}
}

// NewPlannerWithOptions creates a planner from the default search settings
// and opts.
func NewPlannerWithOptions(opts ...Option) (*Planner, error) {
	cfg := PlannerConfig{Search: config.DefaultConfig().Search}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewPlanner(cfg)
}
