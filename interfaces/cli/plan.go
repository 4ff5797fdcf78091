package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/felixgeelhaar/shrdlu/application"
	domainconfig "github.com/felixgeelhaar/shrdlu/domain/config"
	"github.com/felixgeelhaar/shrdlu/domain/plan"
	"github.com/felixgeelhaar/shrdlu/infrastructure/logging"
	"github.com/felixgeelhaar/shrdlu/infrastructure/watch"
)

// planOptions holds options for the plan command.
type planOptions struct {
	problemPath string
	goal        string
	timeout     time.Duration
	json        bool
	watch       bool
	noCache     bool
	metrics     bool
}

// newPlanCmd creates the plan command.
func (a *App) newPlanCmd() *cobra.Command {
	opts := &planOptions{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute a plan for a problem file",
		Long: `Compute the cheapest arm action sequence that makes the goal true.

The problem file holds the start world and the goal, either as goal text
such as "ontop(a, floor) or inside(a, b)" or as an explicit DNF.

Examples:
  # Plan with the default configuration
  shrdlu plan -p problem.yaml

  # Override the goal and print JSON
  shrdlu plan -p problem.yaml --goal "holding(a)" --json

  # Re-plan whenever the problem or config file changes
  shrdlu plan -c config.yaml -p problem.yaml --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPlan(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.problemPath, "problem", "p", "", "Path to problem file")
	cmd.Flags().StringVar(&opts.goal, "goal", "", "Goal text overriding the problem file")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Search timeout (default from config)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Re-plan when the problem or config file changes")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "Bypass the plan cache")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Print collected metrics after planning")

	return cmd
}

func (a *App) planConfig(opts *planOptions) (*domainconfig.PlannerConfig, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	if opts.timeout > 0 {
		cfg.Search.Timeout = domainconfig.Duration(opts.timeout)
	}
	if opts.metrics {
		cfg.Telemetry.Metrics = true
	}
	return cfg, nil
}

// runPlan executes the plan command.
func (a *App) runPlan(ctx context.Context, opts *planOptions) error {
	cfg, err := a.planConfig(opts)
	if err != nil {
		return err
	}
	rt, err := a.newRuntime(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	err = a.planOnce(ctx, rt, opts)
	if !opts.watch {
		return err
	}

	files := []string{opts.problemPath}
	if a.configPath != "" {
		files = append(files, a.configPath)
	}
	w, err := watch.New(files, watch.DefaultOptions())
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stderr, "Watching %d file(s), press Ctrl+C to stop\n", len(files))

	err = w.Run(ctx, func(ctx context.Context, changed []string) {
		if a.configChanged(changed) {
			next, err := a.reloadRuntime(opts)
			if err != nil {
				fmt.Fprintln(a.stderr, renderFailure(err))
				return
			}
			_ = rt.Close()
			rt = next
		}
		_ = a.planOnce(ctx, rt, opts)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) configChanged(changed []string) bool {
	if a.configPath == "" {
		return false
	}
	abs, err := filepath.Abs(a.configPath)
	if err != nil {
		return false
	}
	for _, c := range changed {
		if c == abs {
			return true
		}
	}
	return false
}

func (a *App) reloadRuntime(opts *planOptions) (*runtime, error) {
	cfg, err := a.planConfig(opts)
	if err != nil {
		return nil, err
	}
	logging.Info().Add(logging.Str("config", a.configPath), logging.Heuristic(cfg.Search.Mode())).Msg("configuration reloaded")
	return a.newRuntime(cfg)
}

// planOnce loads the problem, plans it and prints the outcome.
func (a *App) planOnce(ctx context.Context, rt *runtime, opts *planOptions) error {
	lp, err := loadProblem(opts.problemPath, opts.goal, true)
	if err != nil {
		return a.printPlanResult(nil, err, opts.json)
	}

	p, err := rt.planner.Plan(ctx, application.Request{
		Start:   lp.start,
		Goal:    lp.formula,
		NoCache: opts.noCache,
	})
	if perr := a.printPlanResult(p, err, opts.json); perr != nil {
		return perr
	}
	if opts.metrics {
		return a.printMetrics(ctx, rt)
	}
	return nil
}

// failureOutput is the JSON shape of a failed planning call.
type failureOutput struct {
	Outcome plan.Outcome `json:"outcome"`
	Error   string       `json:"error"`
}

// planOutput is the JSON shape of a plan.
type planOutput struct {
	*plan.Plan
	Actions string `json:"actions"`
}

// printPlanResult prints p or err and returns err so the exit status
// reflects a failed call.
func (a *App) printPlanResult(p *plan.Plan, err error, asJSON bool) error {
	if asJSON {
		var v any
		if err != nil {
			v = failureOutput{Outcome: plan.Classify(err), Error: err.Error()}
		} else {
			v = planOutput{Plan: p, Actions: p.Tokens()}
		}
		data, merr := json.MarshalIndent(v, "", "  ")
		if merr != nil {
			return merr
		}
		fmt.Fprintln(a.stdout, string(data))
		return err
	}

	if err != nil {
		fmt.Fprintln(a.stderr, renderFailure(err))
		return err
	}
	fmt.Fprintln(a.stdout, renderPlan(p))
	return nil
}

// printMetrics prints one line per collected instrument.
func (a *App) printMetrics(ctx context.Context, rt *runtime) error {
	rm, ok, err := rt.obs.Collect(ctx)
	if err != nil || !ok {
		return err
	}

	fmt.Fprintln(a.stdout, styles.Title.Render("Metrics"))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch d := m.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range d.DataPoints {
					total += dp.Value
				}
				fmt.Fprintf(a.stdout, "  %-24s %d\n", m.Name, total)
			case metricdata.Histogram[float64]:
				var (
					count uint64
					sum   float64
				)
				for _, dp := range d.DataPoints {
					count += dp.Count
					sum += dp.Sum
				}
				fmt.Fprintf(a.stdout, "  %-24s count=%d sum=%g\n", m.Name, count, sum)
			}
		}
	}
	return nil
}
