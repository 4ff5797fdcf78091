package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/shrdlu/domain/history"
	"github.com/felixgeelhaar/shrdlu/domain/plan"
)

// ErrNoHistory is returned when the configuration has no history backend.
var ErrNoHistory = errors.New("history backend is not configured")

type historyOptions struct {
	outcomes []string
	goal     string
	since    time.Duration
	limit    int
	summary  bool
	json     bool
}

func (a *App) newHistoryCmd() *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past planning calls",
		Long: `List planning calls recorded by the configured history backend.

Examples:
  shrdlu history -c config.yaml --limit 20
  shrdlu history -c config.yaml --outcome timeout,exhausted --since 24h
  shrdlu history -c config.yaml --summary`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistory(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.outcomes, "outcome", nil, "Only these outcomes")
	cmd.Flags().StringVar(&opts.goal, "goal", "", "Only goals containing this text")
	cmd.Flags().DurationVar(&opts.since, "since", 0, "Only calls newer than this age")
	cmd.Flags().IntVar(&opts.limit, "limit", 50, "Maximum records to list (0 for all)")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "Print aggregate counts instead of records")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print as JSON")

	return cmd
}

func (a *App) runHistory(ctx context.Context, opts *historyOptions) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	rt, err := a.newRuntime(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	if rt.build.History == nil {
		return ErrNoHistory
	}

	f := history.Filter{GoalContains: opts.goal, Limit: opts.limit}
	for _, o := range opts.outcomes {
		f.Outcomes = append(f.Outcomes, plan.Outcome(o))
	}
	if opts.since > 0 {
		f.Since = time.Now().Add(-opts.since)
	}

	if opts.summary {
		s, err := rt.build.History.Summary(ctx, f)
		if err != nil {
			return err
		}
		if opts.json {
			return a.printJSON(s)
		}
		fmt.Fprintf(a.stdout, "Total:        %d\n", s.Total)
		fmt.Fprintf(a.stdout, "Planned:      %d\n", s.Planned)
		fmt.Fprintf(a.stdout, "Already true: %d\n", s.AlreadyTrue)
		fmt.Fprintf(a.stdout, "Failed:       %d\n", s.Failed)
		fmt.Fprintf(a.stdout, "Cache hits:   %d\n", s.CacheHits)
		fmt.Fprintf(a.stdout, "Avg cost:     %.2f\n", s.AverageCost)
		fmt.Fprintf(a.stdout, "Avg duration: %s\n", s.AverageDuration.Round(time.Microsecond))
		return nil
	}

	records, err := rt.build.History.List(ctx, f)
	if err != nil {
		return err
	}
	if opts.json {
		return a.printJSON(records)
	}
	if len(records) == 0 {
		fmt.Fprintln(a.stdout, styles.Muted.Render("No planning calls recorded."))
		return nil
	}
	for _, r := range records {
		detail := r.Actions
		if r.Error != "" {
			detail = r.Error
		}
		fmt.Fprintf(a.stdout, "%s  %-14s %-30s %s\n",
			r.CreatedAt.Format(time.RFC3339), r.Outcome, r.Goal, detail)
	}
	return nil
}

func (a *App) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, string(data))
	return nil
}
