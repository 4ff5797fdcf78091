package resilience

import "time"

// Option configures the executor.
type Option func(*ExecutorConfig)

// WithMaxConcurrent sets the maximum concurrent jobs.
func WithMaxConcurrent(n int) Option {
	return func(c *ExecutorConfig) {
		c.MaxConcurrent = n
	}
}

// WithAttempts sets the number of tries per job.
func WithAttempts(n int) Option {
	return func(c *ExecutorConfig) {
		c.Attempts = n
	}
}

// WithRetryDelay sets the initial delay between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *ExecutorConfig) {
		c.RetryDelay = d
	}
}

// WithTimeout sets the first attempt's search budget.
func WithTimeout(d time.Duration) Option {
	return func(c *ExecutorConfig) {
		c.Timeout = d
	}
}

// WithTimeoutGrowth sets the budget multiplier between attempts.
func WithTimeoutGrowth(f float64) Option {
	return func(c *ExecutorConfig) {
		c.TimeoutGrowth = f
	}
}

// NewExecutorWithOptions creates an executor from the defaults and opts.
func NewExecutorWithOptions(opts ...Option) *Executor {
	config := DefaultExecutorConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return NewExecutor(config)
}
