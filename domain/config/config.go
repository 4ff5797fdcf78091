// Package config provides the configuration documents of the planner: the
// planner settings and the planning problem.
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Heuristic modes.
const (
	HeuristicDomain = "domain"
	HeuristicZero   = "zero"
)

// Combiners.
const (
	CombinerSum = "sum"
	CombinerMax = "max"
)

// Backends.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Tracing exporters.
const (
	TracingNone   = "none"
	TracingStdout = "stdout"
	TracingOTLP   = "otlp"
)

// PlannerConfig represents the complete planner configuration.
type PlannerConfig struct {
	// Name is a human-readable name for this configuration.
	Name string `json:"name" yaml:"name"`
	// Version is the configuration schema version.
	Version string `json:"version" yaml:"version"`
	// Description describes the deployment.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Search    SearchConfig    `json:"search,omitempty" yaml:"search,omitempty"`
	Cache     CacheConfig     `json:"cache,omitempty" yaml:"cache,omitempty"`
	History   HistoryConfig   `json:"history,omitempty" yaml:"history,omitempty"`
	Logging   LoggingConfig   `json:"logging,omitempty" yaml:"logging,omitempty"`
	Telemetry TelemetryConfig `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`
	Batch     BatchConfig     `json:"batch,omitempty" yaml:"batch,omitempty"`
}

// SearchConfig controls one planning call.
type SearchConfig struct {
	// Timeout bounds the wall-clock time of a search. Zero means no limit.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Heuristic is domain or zero.
	Heuristic string `json:"heuristic,omitempty" yaml:"heuristic,omitempty"`
	// Combiner folds literal estimates: sum or max.
	Combiner string `json:"combiner,omitempty" yaml:"combiner,omitempty"`
	// PhysicsPruning drops conjunctions that violate physical rules before searching.
	PhysicsPruning bool `json:"physics_pruning,omitempty" yaml:"physics_pruning,omitempty"`
	// Commentary attaches a sentence to every rendered action.
	Commentary bool `json:"commentary,omitempty" yaml:"commentary,omitempty"`
}

// CacheConfig selects the plan cache backend.
type CacheConfig struct {
	Backend    string   `json:"backend,omitempty" yaml:"backend,omitempty"`
	TTL        Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	MaxEntries int      `json:"max_entries,omitempty" yaml:"max_entries,omitempty"`
	// Dir is the badger data directory.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
	// Path is the sqlite database file.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// Address is the redis address.
	Address   string `json:"address,omitempty" yaml:"address,omitempty"`
	Password  string `json:"password,omitempty" yaml:"password,omitempty"`
	DB        int    `json:"db,omitempty" yaml:"db,omitempty"`
	KeyPrefix string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
}

// HistoryConfig selects the plan history backend.
type HistoryConfig struct {
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// Path is the sqlite database file.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// TelemetryConfig configures tracing and metrics.
type TelemetryConfig struct {
	Tracing     string `json:"tracing,omitempty" yaml:"tracing,omitempty"`
	Endpoint    string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Insecure    bool   `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	ServiceName string `json:"service_name,omitempty" yaml:"service_name,omitempty"`
	Metrics     bool   `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// BatchConfig controls batch planning.
type BatchConfig struct {
	// MaxConcurrent bounds parallel planning calls.
	MaxConcurrent int `json:"max_concurrent,omitempty" yaml:"max_concurrent,omitempty"`
	// Attempts is the number of tries per problem; timeouts are retried.
	Attempts int `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	// TimeoutGrowth multiplies the search timeout on every retry.
	TimeoutGrowth float64 `json:"timeout_growth,omitempty" yaml:"timeout_growth,omitempty"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() PlannerConfig {
	return PlannerConfig{
		Name:    "shrdlu",
		Version: "1.0",
		Search: SearchConfig{
			Timeout:    Duration(10 * time.Second),
			Heuristic:  HeuristicDomain,
			Combiner:   CombinerSum,
			Commentary: true,
		},
		Cache:     CacheConfig{Backend: BackendNone},
		History:   HistoryConfig{Backend: BackendNone},
		Logging:   LoggingConfig{Level: "info", Format: "console"},
		Telemetry: TelemetryConfig{Tracing: TracingNone, ServiceName: "shrdlu"},
		Batch:     BatchConfig{MaxConcurrent: 4, Attempts: 1, TimeoutGrowth: 2},
	}
}

// Mode names the heuristic settings, such as "domain/sum". It is part of
// the plan cache key.
func (s SearchConfig) Mode() string {
	h := s.Heuristic
	if h == "" {
		h = HeuristicDomain
	}
	c := s.Combiner
	if c == "" {
		c = CombinerSum
	}
	mode := h + "/" + c
	if s.PhysicsPruning {
		mode += "/physics"
	}
	return mode
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts "1.5s" strings or integer nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		*d = Duration(time.Duration(x))
		return nil
	case string:
		return d.parse(x)
	default:
		return fmt.Errorf("invalid duration %s", strings.TrimSpace(string(b)))
	}
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
