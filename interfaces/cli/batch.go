package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/shrdlu/application"
	"github.com/felixgeelhaar/shrdlu/domain/plan"
)

type batchOptions struct {
	json bool
}

func (a *App) newBatchCmd() *cobra.Command {
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch PROBLEM...",
		Short: "Plan several problem files concurrently",
		Long: `Plan every problem file concurrently.

Concurrency, retry attempts and timeout growth come from the batch section
of the configuration. A problem that fails does not stop the others; the
command fails if any problem fails.

Examples:
  shrdlu batch -c config.yaml problems/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd.Context(), args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "Print results as JSON")

	return cmd
}

type batchLine struct {
	Problem  string       `json:"problem"`
	Outcome  plan.Outcome `json:"outcome"`
	Actions  string       `json:"actions,omitempty"`
	Cost     float64      `json:"cost"`
	Attempts int          `json:"attempts"`
	Error    string       `json:"error,omitempty"`
}

func (a *App) runBatch(ctx context.Context, paths []string, opts *batchOptions) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	rt, err := a.newRuntime(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	lines := make([]batchLine, len(paths))
	var (
		reqs  []application.Request
		index []int
	)
	for i, path := range paths {
		lines[i].Problem = filepath.Base(path)
		lp, err := loadProblem(path, "", true)
		if err != nil {
			lines[i].Outcome = plan.Classify(err)
			lines[i].Error = err.Error()
			continue
		}
		reqs = append(reqs, application.Request{Start: lp.start, Goal: lp.formula})
		index = append(index, i)
	}

	for _, r := range rt.planner.PlanBatch(ctx, reqs) {
		l := &lines[index[r.Index]]
		l.Outcome = r.Outcome
		l.Attempts = r.Attempts
		if r.Err != nil {
			l.Error = r.Err.Error()
			continue
		}
		l.Actions = r.Plan.Tokens()
		l.Cost = r.Plan.Cost
	}

	failed := 0
	for _, l := range lines {
		if l.Outcome.IsFailure() {
			failed++
		}
	}

	if opts.json {
		data, err := json.MarshalIndent(lines, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, string(data))
	} else {
		a.printBatch(lines)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d problems failed", failed, len(lines))
	}
	return nil
}

func (a *App) printBatch(lines []batchLine) {
	for _, l := range lines {
		mark := styles.Success.Render("✓")
		detail := fmt.Sprintf("%s (cost %g)", l.Actions, l.Cost)
		switch {
		case l.Outcome.IsFailure():
			mark = styles.Error.Render("✗")
			detail = l.Error
		case l.Outcome == plan.OutcomeAlreadyTrue:
			detail = "already true"
		}
		fmt.Fprintf(a.stdout, "%s %-24s %-12s %s\n", mark, l.Problem, l.Outcome, detail)
	}
}
