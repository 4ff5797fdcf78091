package observability

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// TracerName is the instrumentation name of planner spans.
const TracerName = "github.com/felixgeelhaar/shrdlu"

// ErrUnknownExporter is returned for an unsupported exporter type.
var ErrUnknownExporter = errors.New("unknown trace exporter type")

// Provider owns the tracer and meter providers.
type Provider struct {
	config         Config
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	reader         *sdkmetric.ManualReader
	shutdownFuncs  []func(context.Context) error
}

// New creates a provider. Nothing is installed globally until Install.
func New(opts ...Option) (*Provider, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Provider{
		config:         cfg,
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}

	if err := p.setupTracing(); err != nil {
		return nil, err
	}
	if cfg.Metrics {
		p.reader = sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(p.reader),
			sdkmetric.WithResource(p.resource()),
		)
		p.meterProvider = mp
		p.shutdownFuncs = append(p.shutdownFuncs, mp.Shutdown)
	}
	return p, nil
}

func (p *Provider) resource() *resource.Resource {
	// Not merged with resource.Default() to avoid schema URL conflicts.
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(p.config.ServiceName),
		semconv.ServiceVersion(p.config.ServiceVersion),
	)
}

func (p *Provider) setupTracing() error {
	var exporter sdktrace.SpanExporter

	switch p.config.Tracing.Exporter {
	case ExporterNone, "":
		return nil

	case ExporterOTLP:
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(p.config.Tracing.Endpoint),
		}
		if p.config.Tracing.Insecure {
			opts = append(opts,
				otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
				otlptracegrpc.WithInsecure(),
			)
		}
		exp, err := otlptracegrpc.New(context.Background(), opts...)
		if err != nil {
			return fmt.Errorf("otlp exporter: %w", err)
		}
		exporter = exp

	case ExporterStdout:
		w := p.config.Tracing.Writer
		if w == nil {
			w = os.Stdout
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("stdout exporter: %w", err)
		}
		exporter = exp

	default:
		return fmt.Errorf("%w: %s", ErrUnknownExporter, p.config.Tracing.Exporter)
	}

	var sampler sdktrace.Sampler
	switch rate := p.config.Tracing.SampleRate; {
	case rate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case rate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(rate)
	}

	var processor sdktrace.TracerProviderOption
	if p.config.Tracing.Sync {
		processor = sdktrace.WithSyncer(exporter)
	} else {
		processor = sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(p.config.Tracing.BatchTimeout))
	}

	tp := sdktrace.NewTracerProvider(
		processor,
		sdktrace.WithResource(p.resource()),
		sdktrace.WithSampler(sampler),
	)
	p.tracerProvider = tp
	p.shutdownFuncs = append(p.shutdownFuncs, tp.Shutdown)
	return nil
}

// Install sets the providers as the otel globals.
func (p *Provider) Install() {
	otel.SetTracerProvider(p.tracerProvider)
	otel.SetMeterProvider(p.meterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// Tracer returns the planner tracer.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracerProvider.Tracer(TracerName)
}

// MeterProvider returns the meter provider.
func (p *Provider) MeterProvider() metric.MeterProvider {
	return p.meterProvider
}

// Collect reads the current metrics. It returns false when metrics are
// disabled.
func (p *Provider) Collect(ctx context.Context) (metricdata.ResourceMetrics, bool, error) {
	var rm metricdata.ResourceMetrics
	if p.reader == nil {
		return rm, false, nil
	}
	err := p.reader.Collect(ctx, &rm)
	return rm, true, err
}

// Shutdown flushes and stops the providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range p.shutdownFuncs {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
