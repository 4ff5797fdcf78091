// Package telemetry records planner metrics with OpenTelemetry.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/felixgeelhaar/shrdlu/domain/plan"
)

// Metric names.
const (
	MetricPlans         = "shrdlu.plans"
	MetricPlanDuration  = "shrdlu.plan.duration"
	MetricPlanCost      = "shrdlu.plan.cost"
	MetricNodesExpanded = "shrdlu.search.expanded"
	MetricCacheHits     = "shrdlu.cache.hits"
	MetricCacheMisses   = "shrdlu.cache.misses"
	MetricPrunedGoals   = "shrdlu.goal.pruned"
	MetricInFlight      = "shrdlu.plans.inflight"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter
	attrs []attribute.KeyValue

	// Counters
	plans       metric.Int64Counter
	expanded    metric.Int64Counter
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
	pruned      metric.Int64Counter

	// Histograms
	duration metric.Float64Histogram
	cost     metric.Float64Histogram

	inFlight metric.Int64UpDownCounter

	initOnce sync.Once
	initErr  error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter.
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// Provider overrides the global meter provider.
	Provider metric.MeterProvider
	// Attributes are attached to every measurement.
	Attributes []attribute.KeyValue
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/shrdlu",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a metrics provider. Instrument creation errors
// are reported by Error.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config.MeterName = DefaultMetricsConfig().MeterName
	}
	provider := config.Provider
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	mp := &MetricsProvider{
		meter: provider.Meter(
			config.MeterName,
			metric.WithInstrumentationVersion(config.MeterVersion),
		),
		attrs: config.Attributes,
	}
	mp.initOnce.Do(func() {
		mp.initErr = mp.initInstruments()
	})
	return mp
}

func (mp *MetricsProvider) initInstruments() error {
	var err error

	if mp.plans, err = mp.meter.Int64Counter(MetricPlans,
		metric.WithDescription("Planning requests by outcome"),
		metric.WithUnit("{plan}"),
	); err != nil {
		return err
	}
	if mp.expanded, err = mp.meter.Int64Counter(MetricNodesExpanded,
		metric.WithDescription("Search nodes expanded"),
		metric.WithUnit("{node}"),
	); err != nil {
		return err
	}
	if mp.cacheHits, err = mp.meter.Int64Counter(MetricCacheHits,
		metric.WithDescription("Plan cache hits"),
		metric.WithUnit("{hit}"),
	); err != nil {
		return err
	}
	if mp.cacheMisses, err = mp.meter.Int64Counter(MetricCacheMisses,
		metric.WithDescription("Plan cache misses"),
		metric.WithUnit("{miss}"),
	); err != nil {
		return err
	}
	if mp.pruned, err = mp.meter.Int64Counter(MetricPrunedGoals,
		metric.WithDescription("Goal conjunctions dropped during validation"),
		metric.WithUnit("{conjunction}"),
	); err != nil {
		return err
	}
	if mp.duration, err = mp.meter.Float64Histogram(MetricPlanDuration,
		metric.WithDescription("Planning duration"),
		metric.WithUnit("ms"),
	); err != nil {
		return err
	}
	if mp.cost, err = mp.meter.Float64Histogram(MetricPlanCost,
		metric.WithDescription("Cost of returned plans"),
		metric.WithUnit("{action}"),
	); err != nil {
		return err
	}
	mp.inFlight, err = mp.meter.Int64UpDownCounter(MetricInFlight,
		metric.WithDescription("Planning requests in progress"),
		metric.WithUnit("{plan}"),
	)
	return err
}

// Error returns any instrument initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

func (mp *MetricsProvider) options(extra ...attribute.KeyValue) metric.MeasurementOption {
	attrs := make([]attribute.KeyValue, 0, len(mp.attrs)+len(extra))
	attrs = append(attrs, mp.attrs...)
	attrs = append(attrs, extra...)
	return metric.WithAttributes(attrs...)
}

// PlanStarted marks a request in progress. Call the returned func when it ends.
func (mp *MetricsProvider) PlanStarted(ctx context.Context) func() {
	if mp.initErr != nil {
		return func() {}
	}
	mp.inFlight.Add(ctx, 1, mp.options())
	return func() { mp.inFlight.Add(ctx, -1, mp.options()) }
}

// RecordPlan records one finished planning request.
func (mp *MetricsProvider) RecordPlan(ctx context.Context, outcome plan.Outcome, heuristic string, cost float64, expanded int, d time.Duration) {
	if mp.initErr != nil {
		return
	}
	opts := mp.options(
		attribute.String("outcome", string(outcome)),
		attribute.String("heuristic", heuristic),
	)
	mp.plans.Add(ctx, 1, opts)
	mp.duration.Record(ctx, float64(d.Microseconds())/1000.0, opts)
	if expanded > 0 {
		mp.expanded.Add(ctx, int64(expanded), opts)
	}
	if !outcome.IsFailure() {
		mp.cost.Record(ctx, cost, opts)
	}
}

// RecordCache records a plan cache lookup.
func (mp *MetricsProvider) RecordCache(ctx context.Context, hit bool) {
	if mp.initErr != nil {
		return
	}
	if hit {
		mp.cacheHits.Add(ctx, 1, mp.options())
		return
	}
	mp.cacheMisses.Add(ctx, 1, mp.options())
}

// RecordPruned records goal conjunctions dropped as unsatisfiable.
func (mp *MetricsProvider) RecordPruned(ctx context.Context, n int) {
	if mp.initErr != nil || n <= 0 {
		return
	}
	mp.pruned.Add(ctx, int64(n), mp.options())
}
