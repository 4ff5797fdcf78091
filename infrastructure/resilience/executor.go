// Package resilience bounds and retries planning work using fortify.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/felixgeelhaar/shrdlu/domain/plan"
	"github.com/felixgeelhaar/shrdlu/domain/search"
)

// Attempt runs one planning attempt under the given search timeout.
type Attempt func(ctx context.Context, timeout time.Duration) (*plan.Plan, error)

// Outcome describes how a job finished.
type Outcome struct {
	Plan     *plan.Plan
	Err      error
	Attempts int
	Timeout  time.Duration
	Duration time.Duration
}

// attemptResult carries non-retryable failures through the retrier as
// successful values so only timeouts are retried.
type attemptResult struct {
	plan *plan.Plan
	err  error
}

// Executor runs planning jobs with a concurrency bound and retries
// searches that time out with a longer budget.
type Executor struct {
	bulkhead bulkhead.Bulkhead[attemptResult]
	retry    retry.Retry[attemptResult]
	config   ExecutorConfig
}

// ExecutorConfig configures the executor.
type ExecutorConfig struct {
	// MaxConcurrent limits concurrent jobs.
	MaxConcurrent int

	// Attempts is the number of tries per job; only timeouts are retried.
	Attempts int

	// RetryDelay is the initial delay between attempts.
	RetryDelay time.Duration

	// Timeout is the search budget of the first attempt. Zero means none.
	Timeout time.Duration

	// TimeoutGrowth multiplies the budget after every timed-out attempt.
	TimeoutGrowth float64
}

// DefaultExecutorConfig returns the defaults.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxConcurrent: 4,
		Attempts:      1,
		RetryDelay:    10 * time.Millisecond,
		Timeout:       10 * time.Second,
		TimeoutGrowth: 2.0,
	}
}

// NewExecutor creates an executor.
func NewExecutor(config ExecutorConfig) *Executor {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 4
	}
	if config.Attempts <= 0 {
		config.Attempts = 1
	}
	if config.TimeoutGrowth < 1 {
		config.TimeoutGrowth = 1
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Millisecond
	}

	return &Executor{
		bulkhead: bulkhead.New[attemptResult](bulkhead.Config{
			MaxConcurrent: config.MaxConcurrent,
		}),
		retry: retry.New[attemptResult](retry.Config{
			MaxAttempts:   config.Attempts,
			InitialDelay:  config.RetryDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    2.0,
		}),
		config: config,
	}
}

// NewDefaultExecutor creates an executor with the default configuration.
func NewDefaultExecutor() *Executor {
	return NewExecutor(DefaultExecutorConfig())
}

// MaxConcurrent returns the concurrency bound.
func (e *Executor) MaxConcurrent() int {
	return e.config.MaxConcurrent
}

// TimeoutFor returns the search budget of the given 1-based attempt.
func (e *Executor) TimeoutFor(attempt int) time.Duration {
	if e.config.Timeout <= 0 {
		return 0
	}
	d := float64(e.config.Timeout)
	for i := 1; i < attempt; i++ {
		d *= e.config.TimeoutGrowth
	}
	return time.Duration(d)
}

// Execute runs fn under the bulkhead. Attempts that fail with
// search.ErrTimeout are retried with a grown budget; any other result
// ends the job.
func (e *Executor) Execute(ctx context.Context, fn Attempt) Outcome {
	start := time.Now()
	var out Outcome

	_, err := e.bulkhead.Execute(ctx, func(ctx context.Context) (attemptResult, error) {
		return e.retry.Do(ctx, func(ctx context.Context) (attemptResult, error) {
			out.Attempts++
			out.Timeout = e.TimeoutFor(out.Attempts)

			p, err := fn(ctx, out.Timeout)
			out.Plan, out.Err = p, err
			if errors.Is(err, search.ErrTimeout) {
				return attemptResult{}, err
			}
			return attemptResult{plan: p, err: err}, nil
		})
	})

	// The bulkhead or retrier may fail before fn records a result, for
	// example when ctx is canceled while waiting.
	if err != nil && out.Err == nil {
		out.Err = err
	}
	out.Duration = time.Since(start)
	return out
}
