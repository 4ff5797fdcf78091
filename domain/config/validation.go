package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the dotted path to the invalid field.
	Path    string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return "no validation errors"
	case 1:
		return e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration documents.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) addError(path, format string, args ...any) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *Validator) oneOf(path, value string, allowed ...string) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.addError(path, "invalid value %q (want one of %s)", value, strings.Join(allowed, ", "))
}

// Validate validates a planner configuration.
func (v *Validator) Validate(cfg *PlannerConfig) ValidationErrors {
	v.errors = nil

	if cfg.Name == "" {
		v.addError("name", "name is required")
	}
	if cfg.Version == "" {
		v.addError("version", "version is required")
	}

	if cfg.Search.Timeout < 0 {
		v.addError("search.timeout", "timeout must be non-negative")
	}
	v.oneOf("search.heuristic", cfg.Search.Heuristic, HeuristicDomain, HeuristicZero)
	v.oneOf("search.combiner", cfg.Search.Combiner, CombinerSum, CombinerMax)

	v.oneOf("cache.backend", cfg.Cache.Backend, BackendNone, BackendMemory, BackendBadger, BackendRedis, BackendSQLite)
	if cfg.Cache.TTL < 0 {
		v.addError("cache.ttl", "ttl must be non-negative")
	}
	if cfg.Cache.MaxEntries < 0 {
		v.addError("cache.max_entries", "max_entries must be non-negative")
	}
	if cfg.Cache.Backend == BackendBadger && cfg.Cache.Dir == "" {
		v.addError("cache.dir", "dir is required for the badger backend")
	}
	if cfg.Cache.Backend == BackendSQLite && cfg.Cache.Path == "" {
		v.addError("cache.path", "path is required for the sqlite backend")
	}
	if cfg.Cache.Backend == BackendRedis && cfg.Cache.Address == "" {
		v.addError("cache.address", "address is required for the redis backend")
	}

	v.oneOf("history.backend", cfg.History.Backend, BackendNone, BackendMemory, BackendSQLite)
	if cfg.History.Backend == BackendSQLite && cfg.History.Path == "" {
		v.addError("history.path", "path is required for the sqlite backend")
	}

	v.oneOf("logging.level", strings.ToLower(cfg.Logging.Level), "trace", "debug", "info", "warn", "error")
	v.oneOf("logging.format", cfg.Logging.Format, "console", "json")

	v.oneOf("telemetry.tracing", cfg.Telemetry.Tracing, TracingNone, TracingStdout, TracingOTLP)
	if cfg.Telemetry.Tracing == TracingOTLP && cfg.Telemetry.Endpoint == "" {
		v.addError("telemetry.endpoint", "endpoint is required for otlp tracing")
	}

	if cfg.Batch.MaxConcurrent < 0 {
		v.addError("batch.max_concurrent", "max_concurrent must be non-negative")
	}
	if cfg.Batch.Attempts < 0 {
		v.addError("batch.attempts", "attempts must be non-negative")
	}
	if cfg.Batch.TimeoutGrowth != 0 && cfg.Batch.TimeoutGrowth < 1 {
		v.addError("batch.timeout_growth", "timeout_growth must be at least 1")
	}

	return v.errors
}

// ValidateProblem checks that the problem builds a consistent world and a
// goal that parses. Goal satisfiability is checked by the planner.
func (v *Validator) ValidateProblem(p *Problem) ValidationErrors {
	v.errors = nil

	if len(p.World.Stacks) == 0 {
		v.addError("world.stacks", "at least one column is required")
	}
	for id, obj := range p.World.Objects {
		if err := obj.Validate(); err != nil {
			v.addError("world.objects."+id, "%v", err)
		}
	}
	if len(v.errors) == 0 {
		if _, err := p.State(); err != nil {
			v.addError("world", "%v", err)
		}
	}
	if _, err := p.Formula(); err != nil {
		path := "goal"
		if p.Goal == "" {
			path = "dnf"
		}
		v.addError(path, "%v", err)
	}

	return v.errors
}
