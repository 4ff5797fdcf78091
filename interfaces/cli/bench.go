package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/shrdlu/application"
	"github.com/felixgeelhaar/shrdlu/domain/grid"
)

var benchHeuristics = map[string]grid.Heuristic{
	"zero":       grid.Zero,
	"admissible": grid.Admissible,
	"manhattan":  grid.Manhattan,
	"chebyshev":  grid.Chebyshev,
	"octile":     grid.Octile,
}

type benchOptions struct {
	size        int
	heuristics  []string
	concurrency int
	timeout     time.Duration
}

func (a *App) newBenchCmd() *cobra.Command {
	opts := &benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the search engine against the grid regression corpus",
		Long: `Solve every case of the built-in grid corpus under each heuristic and
compare the cost found with the known optimum.

Heuristics: zero, admissible, manhattan, chebyshev, octile. Manhattan is
not admissible on grids with diagonal moves, so it may report failures
there.

Examples:
  shrdlu bench
  shrdlu bench --size 40 --heuristic zero,octile`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBench(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.size, "size", 10, "Side length of the generated grids")
	cmd.Flags().StringSliceVar(&opts.heuristics, "heuristic", []string{"zero", "admissible"}, "Heuristics to compare")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 4, "Cases solved in parallel")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Per-case search timeout")

	return cmd
}

func (a *App) runBench(ctx context.Context, opts *benchOptions) error {
	hs := make([]application.NamedHeuristic, 0, len(opts.heuristics))
	for _, name := range opts.heuristics {
		h, ok := benchHeuristics[name]
		if !ok {
			return fmt.Errorf("unknown heuristic %q", name)
		}
		hs = append(hs, application.NamedHeuristic{Name: name, New: h})
	}

	harness := application.NewHarness(
		application.WithHeuristics(hs...),
		application.WithConcurrency(opts.concurrency),
		application.WithCaseTimeout(opts.timeout),
	)
	report := harness.Run(ctx, grid.Corpus(opts.size))

	for _, r := range report.Results {
		mark := styles.Success.Render("✓")
		detail := fmt.Sprintf("cost %g  expanded %d  %s", r.Cost, r.Expanded, r.Elapsed.Round(time.Microsecond))
		if !r.Passed {
			mark = styles.Error.Render("✗")
			detail = r.Reason
		}
		fmt.Fprintf(a.stdout, "%s %-20s %-11s %s\n", mark, r.Case, r.Heuristic, detail)
	}
	fmt.Fprintf(a.stdout, "\n%d passed, %d failed\n", report.Passed, report.Failed)

	if !report.OK() {
		return fmt.Errorf("%d bench cases failed", report.Failed)
	}
	return nil
}
