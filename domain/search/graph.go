// Package search provides a graph-agnostic A* search engine.
//
// The engine is written once against the Graph capability interface and is
// instantiated both for the blocks-world state space and for synthetic
// validation graphs such as grids.
package search

import (
	"errors"
	"time"
)

// Search outcomes other than success.
var (
	// ErrExhausted indicates the frontier emptied before a goal was found.
	ErrExhausted = errors.New("search exhausted")

	// ErrTimeout indicates the wall-clock budget elapsed before a goal was found.
	ErrTimeout = errors.New("search timeout")

	// ErrNegativeCost indicates an edge or heuristic value below zero.
	ErrNegativeCost = errors.New("negative cost")
)

// Edge is an outgoing transition from a node.
type Edge[N any] struct {
	To    N
	Cost  float64
	Label string
}

// Graph is the capability an implicit graph exposes to the engine.
// Expand must not mutate its argument. Equal is value equality.
type Graph[N any] interface {
	Expand(n N) []Edge[N]
	Equal(a, b N) bool
}

// Hasher is optionally implemented by graphs whose nodes can be hashed.
// Hash must agree with Equal: equal nodes have equal hashes. Without it the
// engine falls back to linear scans over visited nodes.
type Hasher[N any] interface {
	Hash(n N) uint64
}

// GoalFunc reports whether a node satisfies the goal.
type GoalFunc[N any] func(n N) bool

// HeuristicFunc estimates the remaining cost from a node. It must be
// non-negative. Admissible heuristics keep the result cost-optimal.
type HeuristicFunc[N any] func(n N) float64

// Zero is the heuristic that turns A* into uniform-cost search.
func Zero[N any](N) float64 {
	return 0
}

// Stats describes the work a search performed.
type Stats struct {
	Expanded  int           // nodes popped and expanded
	Generated int           // edges relaxed
	Reopened  int           // closed nodes reopened after a cheaper path
	Elapsed   time.Duration // wall time
}

// Result is a successful search outcome.
type Result[N any] struct {
	Path  []N
	Cost  float64
	Stats Stats
}

// Options configures a search.
type Options struct {
	// Timeout bounds the wall time of the search. Zero means no bound.
	Timeout time.Duration

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Option configures a search.
type Option func(*Options)

// WithTimeout sets the wall-clock budget.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(o *Options) {
		o.Clock = clock
	}
}
