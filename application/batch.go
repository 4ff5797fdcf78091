package application

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/shrdlu/domain/plan"
)

// BatchResult is the outcome of one request in a batch.
type BatchResult struct {
	Index    int
	Plan     *plan.Plan
	Err      error
	Outcome  plan.Outcome
	Attempts int
	Timeout  time.Duration
}

// PlanBatch plans every request concurrently under the executor's bulkhead.
// Requests that time out are retried with a longer budget when the
// executor allows several attempts. Results keep the request order; a
// failing request never cancels the others.
func (p *Planner) PlanBatch(ctx context.Context, reqs []Request) []BatchResult {
	results := make([]BatchResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.executor.MaxConcurrent())
	for i, req := range reqs {
		g.Go(func() error {
			out := p.executor.Execute(gctx, func(ctx context.Context, timeout time.Duration) (*plan.Plan, error) {
				r := req
				if timeout > 0 {
					r.Timeout = timeout
				}
				return p.Plan(ctx, r)
			})
			outcome := plan.Classify(out.Err)
			if out.Err == nil && out.Plan != nil {
				outcome = out.Plan.Outcome
			}
			results[i] = BatchResult{
				Index:    i,
				Plan:     out.Plan,
				Err:      out.Err,
				Outcome:  outcome,
				Attempts: out.Attempts,
				Timeout:  out.Timeout,
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
