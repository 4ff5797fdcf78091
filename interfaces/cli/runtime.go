package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/shrdlu/application"
	domainconfig "github.com/felixgeelhaar/shrdlu/domain/config"
	"github.com/felixgeelhaar/shrdlu/domain/goal"
	"github.com/felixgeelhaar/shrdlu/domain/world"
	infraconfig "github.com/felixgeelhaar/shrdlu/infrastructure/config"
	"github.com/felixgeelhaar/shrdlu/infrastructure/observability"
	"github.com/felixgeelhaar/shrdlu/infrastructure/resilience"
	"github.com/felixgeelhaar/shrdlu/infrastructure/telemetry"
)

const shutdownTimeout = 5 * time.Second

// runtime is a configured planner with the backends it owns.
type runtime struct {
	config  *domainconfig.PlannerConfig
	planner *application.Planner
	build   *infraconfig.BuildResult
	obs     *observability.Provider
}

// loadConfig reads --config, or returns the defaults when it is unset.
func (a *App) loadConfig() (*domainconfig.PlannerConfig, error) {
	if a.configPath == "" {
		cfg := domainconfig.DefaultConfig()
		return &cfg, nil
	}
	cfg, err := infraconfig.NewLoader().LoadConfigFile(a.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newRuntime wires storage, telemetry and the planner from cfg.
func (a *App) newRuntime(cfg *domainconfig.PlannerConfig) (*runtime, error) {
	obs, err := observability.New(a.observabilityOptions(cfg.Telemetry)...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	obs.Install()

	build, err := infraconfig.NewBuilder(cfg).Build()
	if err != nil {
		_ = obs.Shutdown(context.Background())
		return nil, err
	}

	var metrics *telemetry.MetricsProvider
	if cfg.Telemetry.Metrics {
		mc := telemetry.DefaultMetricsConfig()
		mc.MeterVersion = Version
		mc.Provider = obs.MeterProvider()
		metrics = telemetry.NewMetricsProvider(mc)
		if err := metrics.Error(); err != nil {
			_ = build.Close()
			_ = obs.Shutdown(context.Background())
			return nil, fmt.Errorf("metrics: %w", err)
		}
	}

	executor := resilience.NewExecutorWithOptions(
		resilience.WithMaxConcurrent(cfg.Batch.MaxConcurrent),
		resilience.WithAttempts(cfg.Batch.Attempts),
		resilience.WithTimeout(cfg.Search.Timeout.Duration()),
		resilience.WithTimeoutGrowth(cfg.Batch.TimeoutGrowth),
	)

	planner, err := application.NewPlannerWithOptions(
		application.WithSearch(cfg.Search),
		application.WithCache(build.Cache),
		application.WithHistory(build.History),
		application.WithMetrics(metrics),
		application.WithTracer(obs.Tracer()),
		application.WithExecutor(executor),
	)
	if err != nil {
		_ = build.Close()
		_ = obs.Shutdown(context.Background())
		return nil, err
	}

	return &runtime{config: cfg, planner: planner, build: build, obs: obs}, nil
}

func (a *App) observabilityOptions(tc domainconfig.TelemetryConfig) []observability.Option {
	opts := []observability.Option{observability.WithServiceVersion(Version)}
	if tc.ServiceName != "" {
		opts = append(opts, observability.WithServiceName(tc.ServiceName))
	}
	switch tc.Tracing {
	case domainconfig.TracingStdout:
		opts = append(opts, observability.WithStdoutTracing(a.stderr), observability.WithSyncExport())
	case domainconfig.TracingOTLP:
		opts = append(opts, observability.WithOTLP(tc.Endpoint, tc.Insecure))
	}
	if tc.Metrics {
		opts = append(opts, observability.WithMetrics())
	}
	return opts
}

// Close flushes telemetry and closes storage backends.
func (r *runtime) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(r.build.Close(), r.obs.Shutdown(ctx))
}

// loadedProblem is a validated problem file.
type loadedProblem struct {
	problem *domainconfig.Problem
	start   *world.State
	formula goal.Formula
}

// loadProblem reads a problem file. A non-empty goalText replaces the
// file's goal. When needGoal is false a missing goal is allowed.
func loadProblem(path, goalText string, needGoal bool) (*loadedProblem, error) {
	if path == "" {
		return nil, errors.New("problem file path is required (-p flag)")
	}
	prob, err := infraconfig.NewLoader(infraconfig.WithValidation(false)).LoadProblemFile(path)
	if err != nil {
		return nil, fmt.Errorf("load problem: %w", err)
	}
	if goalText != "" {
		prob.Goal = goalText
		prob.DNF = nil
	}

	errs := domainconfig.NewValidator().ValidateProblem(prob)
	if !needGoal && prob.Goal == "" && len(prob.DNF) == 0 {
		errs = worldErrors(errs)
	}
	if errs.HasErrors() {
		return nil, fmt.Errorf("%s: %w", path, errs)
	}

	lp := &loadedProblem{problem: prob}
	if lp.start, err = prob.State(); err != nil {
		return nil, err
	}
	if prob.Goal != "" || len(prob.DNF) > 0 {
		if lp.formula, err = prob.Formula(); err != nil {
			return nil, err
		}
	}
	return lp, nil
}

func worldErrors(errs domainconfig.ValidationErrors) domainconfig.ValidationErrors {
	var out domainconfig.ValidationErrors
	for _, e := range errs {
		if e.Path != "goal" && e.Path != "dnf" {
			out = append(out, e)
		}
	}
	return out
}
