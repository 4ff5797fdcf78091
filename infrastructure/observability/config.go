// Package observability sets up OpenTelemetry tracing and metric providers
// for the planner.
package observability

import (
	"io"
	"time"
)

// Config configures the observability infrastructure.
type Config struct {
	// ServiceName is the name of the service for telemetry.
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// Tracing configures tracing.
	Tracing TracingConfig

	// Metrics enables the SDK meter provider.
	Metrics bool
}

// TracingConfig configures tracing.
type TracingConfig struct {
	// Exporter specifies the trace exporter type.
	Exporter ExporterType

	// Endpoint is the OTLP endpoint (e.g., "localhost:4317").
	Endpoint string

	// Insecure disables TLS for the exporter connection.
	Insecure bool

	// Writer receives stdout spans. Defaults to os.Stdout.
	Writer io.Writer

	// SampleRate is the sampling rate (0.0-1.0).
	SampleRate float64

	// Sync exports spans as they end instead of batching.
	Sync bool

	// BatchTimeout is the batch export timeout.
	BatchTimeout time.Duration
}

// ExporterType specifies the trace exporter.
type ExporterType string

const (
	// ExporterNone disables tracing.
	ExporterNone ExporterType = "none"

	// ExporterStdout exports to a writer (useful for development).
	ExporterStdout ExporterType = "stdout"

	// ExporterOTLP exports to an OTLP gRPC endpoint.
	ExporterOTLP ExporterType = "otlp"
)

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "shrdlu",
		ServiceVersion: "dev",
		Tracing: TracingConfig{
			Exporter:     ExporterNone,
			Endpoint:     "localhost:4317",
			SampleRate:   1.0,
			BatchTimeout: 5 * time.Second,
		},
	}
}

// Option configures the observability infrastructure.
type Option func(*Config)

// WithServiceName sets the service name.
func WithServiceName(name string) Option {
	return func(c *Config) {
		c.ServiceName = name
	}
}

// WithServiceVersion sets the service version.
func WithServiceVersion(version string) Option {
	return func(c *Config) {
		c.ServiceVersion = version
	}
}

// WithOTLP enables OTLP trace export.
func WithOTLP(endpoint string, insecure bool) Option {
	return func(c *Config) {
		c.Tracing.Exporter = ExporterOTLP
		if endpoint != "" {
			c.Tracing.Endpoint = endpoint
		}
		c.Tracing.Insecure = insecure
	}
}

// WithStdoutTracing enables tracing to w.
func WithStdoutTracing(w io.Writer) Option {
	return func(c *Config) {
		c.Tracing.Exporter = ExporterStdout
		c.Tracing.Writer = w
	}
}

// WithSyncExport exports spans as they end.
func WithSyncExport() Option {
	return func(c *Config) {
		c.Tracing.Sync = true
	}
}

// WithSampleRate sets the trace sampling rate.
func WithSampleRate(rate float64) Option {
	return func(c *Config) {
		c.Tracing.SampleRate = rate
	}
}

// WithMetrics enables the SDK meter provider.
func WithMetrics() Option {
	return func(c *Config) {
		c.Metrics = true
	}
}
