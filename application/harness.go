package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/shrdlu/domain/grid"
	"github.com/felixgeelhaar/shrdlu/domain/search"
	"github.com/felixgeelhaar/shrdlu/infrastructure/logging"
)

// NamedHeuristic is a grid heuristic under test.
type NamedHeuristic struct {
	Name string
	New  grid.Heuristic
}

// DefaultHeuristics compares uniform-cost search with the admissible
// estimate.
func DefaultHeuristics() []NamedHeuristic {
	return []NamedHeuristic{
		{Name: "zero", New: grid.Zero},
		{Name: "admissible", New: grid.Admissible},
	}
}

// CaseResult is one case solved under one heuristic.
type CaseResult struct {
	Case      string
	Heuristic string
	Cost      float64
	WantCost  float64
	Expanded  int
	PathLen   int
	Elapsed   time.Duration
	Passed    bool
	Reason    string
}

// Report summarizes a harness run.
type Report struct {
	Results []CaseResult
	Passed  int
	Failed  int
}

// OK reports whether every case passed.
func (r Report) OK() bool {
	return r.Failed == 0
}

// Harness runs the search engine headlessly against grid regression cases.
type Harness struct {
	heuristics  []NamedHeuristic
	concurrency int
	timeout     time.Duration
}

// HarnessOption configures the harness.
type HarnessOption func(*Harness)

// WithHeuristics replaces the heuristics under test.
func WithHeuristics(hs ...NamedHeuristic) HarnessOption {
	return func(h *Harness) {
		h.heuristics = hs
	}
}

// WithConcurrency bounds parallel case execution.
func WithConcurrency(n int) HarnessOption {
	return func(h *Harness) {
		h.concurrency = n
	}
}

// WithCaseTimeout bounds each search.
func WithCaseTimeout(d time.Duration) HarnessOption {
	return func(h *Harness) {
		h.timeout = d
	}
}

// NewHarness creates a harness.
func NewHarness(opts ...HarnessOption) *Harness {
	h := &Harness{heuristics: DefaultHeuristics(), concurrency: 4, timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(h)
	}
	if h.concurrency <= 0 {
		h.concurrency = 1
	}
	return h
}

// Run solves every case under every heuristic. A case passes when the cost
// matches the expected optimum (or the search exhausts for unreachable
// goals) and, when an exact path is given, the path matches it.
func (h *Harness) Run(ctx context.Context, cases []grid.Case) Report {
	results := make([]CaseResult, len(cases)*len(h.heuristics))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for i, c := range cases {
		for j, nh := range h.heuristics {
			g.Go(func() error {
				results[i*len(h.heuristics)+j] = h.solve(gctx, c, nh)
				return nil
			})
		}
	}
	_ = g.Wait()

	report := Report{Results: results}
	for _, r := range results {
		if r.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
	}
	logging.Info().
		Add(logging.Str("passed", fmt.Sprint(report.Passed)), logging.Str("failed", fmt.Sprint(report.Failed))).
		Msg("harness finished")
	return report
}

func (h *Harness) solve(ctx context.Context, c grid.Case, nh NamedHeuristic) CaseResult {
	res, err := search.Search[grid.Point](ctx, c.Grid, c.Start, func(p grid.Point) bool { return p == c.Goal },
		nh.New(c.Grid, c.Goal), search.WithTimeout(h.timeout))

	out := CaseResult{
		Case:      c.Name,
		Heuristic: nh.Name,
		Cost:      res.Cost,
		WantCost:  c.WantCost,
		Expanded:  res.Stats.Expanded,
		PathLen:   len(res.Path),
		Elapsed:   res.Stats.Elapsed,
	}

	switch {
	case c.WantCost == grid.Unreachable:
		out.Cost = grid.Unreachable
		out.Passed = errors.Is(err, search.ErrExhausted)
		if !out.Passed {
			out.Reason = fmt.Sprintf("want exhausted, got %v", err)
		}
	case err != nil:
		out.Reason = err.Error()
	case res.Cost != c.WantCost:
		out.Reason = fmt.Sprintf("cost %v, want %v", res.Cost, c.WantCost)
	case c.WantPath != nil && nh.Name != "zero" && !slices.Equal(res.Path, c.WantPath):
		out.Reason = fmt.Sprintf("path %v, want %v", res.Path, c.WantPath)
	default:
		out.Passed = true
	}
	return out
}
