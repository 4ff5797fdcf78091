package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/felixgeelhaar/shrdlu/domain/plan"
)

func setupTestMetrics(t *testing.T) (*metric.ManualReader, *MetricsProvider) {
	t.Helper()
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	config := DefaultMetricsConfig()
	config.Provider = provider
	config.Attributes = []attribute.KeyValue{attribute.String("service", "test")}
	mp := NewMetricsProvider(config)
	if mp.Error() != nil {
		t.Fatalf("NewMetricsProvider() error = %v", mp.Error())
	}
	return reader, mp
}

func collect(t *testing.T, reader *metric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumInt(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64], got %T", m.Name, m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewMetricsProvider_Defaults(t *testing.T) {
	t.Parallel()

	mp := NewMetricsProvider(MetricsConfig{})
	if mp.Error() != nil {
		t.Errorf("Error() = %v", mp.Error())
	}
}

func TestMetricsProvider_RecordPlan(t *testing.T) {
	t.Parallel()
	reader, mp := setupTestMetrics(t)
	ctx := context.Background()

	mp.RecordPlan(ctx, plan.OutcomePlanned, "domain/sum", 4, 12, 20*time.Millisecond)
	mp.RecordPlan(ctx, plan.OutcomePlanned, "domain/sum", 2, 3, 5*time.Millisecond)
	mp.RecordPlan(ctx, plan.OutcomeExhausted, "domain/sum", 0, 40, time.Second)

	metrics := collect(t, reader)

	plans, ok := metrics[MetricPlans]
	if !ok {
		t.Fatalf("%s not found", MetricPlans)
	}
	if got := sumInt(t, plans); got != 3 {
		t.Errorf("plans = %d, want 3", got)
	}
	byOutcome := make(map[string]int64)
	for _, dp := range plans.Data.(metricdata.Sum[int64]).DataPoints {
		v, _ := dp.Attributes.Value("outcome")
		byOutcome[v.AsString()] += dp.Value
		if s, _ := dp.Attributes.Value("service"); s.AsString() != "test" {
			t.Errorf("missing default attribute: %v", dp.Attributes)
		}
	}
	if byOutcome["planned"] != 2 || byOutcome["exhausted"] != 1 {
		t.Errorf("plans by outcome = %v", byOutcome)
	}

	if got := sumInt(t, metrics[MetricNodesExpanded]); got != 55 {
		t.Errorf("expanded = %d, want 55", got)
	}

	cost, ok := metrics[MetricPlanCost].Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("cost: got %T", metrics[MetricPlanCost].Data)
	}
	var count uint64
	for _, dp := range cost.DataPoints {
		count += dp.Count
	}
	if count != 2 {
		t.Errorf("cost samples = %d, want 2 (failures excluded)", count)
	}

	if _, ok := metrics[MetricPlanDuration].Data.(metricdata.Histogram[float64]); !ok {
		t.Errorf("duration: got %T", metrics[MetricPlanDuration].Data)
	}
}

func TestMetricsProvider_RecordCache(t *testing.T) {
	t.Parallel()
	reader, mp := setupTestMetrics(t)
	ctx := context.Background()

	mp.RecordCache(ctx, true)
	mp.RecordCache(ctx, false)
	mp.RecordCache(ctx, false)

	metrics := collect(t, reader)
	if got := sumInt(t, metrics[MetricCacheHits]); got != 1 {
		t.Errorf("hits = %d, want 1", got)
	}
	if got := sumInt(t, metrics[MetricCacheMisses]); got != 2 {
		t.Errorf("misses = %d, want 2", got)
	}
}

func TestMetricsProvider_PrunedAndInFlight(t *testing.T) {
	t.Parallel()
	reader, mp := setupTestMetrics(t)
	ctx := context.Background()

	mp.RecordPruned(ctx, 2)
	mp.RecordPruned(ctx, 0)

	done := mp.PlanStarted(ctx)
	metrics := collect(t, reader)
	if got := sumInt(t, metrics[MetricPrunedGoals]); got != 2 {
		t.Errorf("pruned = %d, want 2", got)
	}
	if got := sumInt(t, metrics[MetricInFlight]); got != 1 {
		t.Errorf("in flight = %d, want 1", got)
	}

	done()
	metrics = collect(t, reader)
	if got := sumInt(t, metrics[MetricInFlight]); got != 0 {
		t.Errorf("in flight after done = %d, want 0", got)
	}
}
