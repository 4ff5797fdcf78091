// Package config loads planner configuration and problem documents from
// YAML or JSON files, and builds the planner's backends from them.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	domainconfig "github.com/felixgeelhaar/shrdlu/domain/config"
)

// Format represents a configuration file format.
type Format string

// Formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", domainconfig.ErrUnsupportedFormat, ext)
	}
}

// Loader loads configuration documents.
type Loader struct {
	// ExpandEnv enables environment variable expansion.
	ExpandEnv bool
	// StrictEnv fails if referenced env vars are missing.
	StrictEnv bool
	// Validate enables document validation.
	Validate bool

	lookup func(string) (string, bool)
}

// LoaderOption configures the loader.
type LoaderOption func(*Loader)

// WithEnvExpansion enables or disables environment variable expansion.
func WithEnvExpansion(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.ExpandEnv = enabled
	}
}

// WithStrictEnv enables strict environment variable checking.
func WithStrictEnv(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.StrictEnv = enabled
	}
}

// WithValidation enables or disables validation.
func WithValidation(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.Validate = enabled
	}
}

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(lookup func(string) (string, bool)) LoaderOption {
	return func(l *Loader) {
		l.lookup = lookup
	}
}

// NewLoader creates a loader that expands env references and validates.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		ExpandEnv: true,
		Validate:  true,
		lookup:    os.LookupEnv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadConfigFile loads a planner configuration. Unset fields take their
// values from DefaultConfig.
func (l *Loader) LoadConfigFile(path string) (*domainconfig.PlannerConfig, error) {
	f, format, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return l.LoadConfig(f, format)
}

// LoadConfig loads a planner configuration from a reader.
func (l *Loader) LoadConfig(r io.Reader, format Format) (*domainconfig.PlannerConfig, error) {
	cfg := domainconfig.DefaultConfig()
	if err := l.decode(r, format, &cfg); err != nil {
		return nil, err
	}
	if l.Validate {
		if errs := domainconfig.NewValidator().Validate(&cfg); errs.HasErrors() {
			return nil, fmt.Errorf("%w: %v", domainconfig.ErrValidationFailed, errs)
		}
	}
	return &cfg, nil
}

// LoadProblemFile loads a planning problem.
func (l *Loader) LoadProblemFile(path string) (*domainconfig.Problem, error) {
	f, format, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := l.LoadProblem(f, format)
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// LoadProblem loads a planning problem from a reader.
func (l *Loader) LoadProblem(r io.Reader, format Format) (*domainconfig.Problem, error) {
	var p domainconfig.Problem
	if err := l.decode(r, format, &p); err != nil {
		return nil, err
	}
	if l.Validate {
		if errs := domainconfig.NewValidator().ValidateProblem(&p); errs.HasErrors() {
			return nil, fmt.Errorf("%w: %v", domainconfig.ErrValidationFailed, errs)
		}
	}
	return &p, nil
}

func (l *Loader) decode(r io.Reader, format Format, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	if l.ExpandEnv {
		expanded, err := expandEnv(string(data), l.lookup, l.StrictEnv)
		if err != nil {
			return err
		}
		data = []byte(expanded)
	}

	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, v)
	case FormatJSON:
		err = json.Unmarshal(data, v)
	default:
		return fmt.Errorf("%w: %s", domainconfig.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", domainconfig.ErrInvalidFormat, err)
	}
	return nil
}

func open(path string) (*os.File, Format, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%w: %s", domainconfig.ErrConfigNotFound, path)
		}
		return nil, "", fmt.Errorf("access config file: %w", err)
	}
	if info.IsDir() {
		return nil, "", fmt.Errorf("%w: %s is a directory", domainconfig.ErrInvalidFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open config file: %w", err)
	}
	return f, format, nil
}
