// Package heuristic estimates the number of arm actions left before a goal
// formula holds.
//
// Every per-relation estimate is a lower bound on the actions needed to make
// that single literal true, and is zero only when the literal already holds.
// Counted actions are disjoint: arm travel before the first pick, carry
// moves, and one pick plus one drop for every object that must be moved.
package heuristic

import (
	"github.com/felixgeelhaar/shrdlu/domain/goal"
	"github.com/felixgeelhaar/shrdlu/domain/relation"
	"github.com/felixgeelhaar/shrdlu/domain/world"
)

// Combiner folds the literal estimates of one conjunction.
type Combiner string

// Combiners.
const (
	// Sum adds literal estimates. Literals that share actions make the
	// total overestimate, so optimality is not guaranteed.
	Sum Combiner = "sum"

	// Max takes the largest literal estimate and stays admissible.
	Max Combiner = "max"
)

// IsValid returns true if the combiner is known.
func (c Combiner) IsValid() bool {
	return c == Sum || c == Max
}

// Estimator computes formula estimates.
type Estimator struct {
	combiner Combiner
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithCombiner selects how literal estimates are folded. Unknown values
// fall back to Sum.
func WithCombiner(c Combiner) Option {
	return func(e *Estimator) {
		if c.IsValid() {
			e.combiner = c
		}
	}
}

// New creates an estimator. The default combiner is Sum.
func New(opts ...Option) *Estimator {
	e := &Estimator{combiner: Sum}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Combiner returns the configured combiner.
func (e *Estimator) Combiner() Combiner {
	return e.combiner
}

// Estimate returns the minimum over conjunctions of the combined literal
// estimates. An empty formula estimates to 0.
func (e *Estimator) Estimate(s *world.State, f goal.Formula) int {
	best := -1
	for _, c := range f {
		v := e.Conjunction(s, c)
		if best < 0 || v < best {
			best = v
		}
		if best == 0 {
			break
		}
	}
	return max(best, 0)
}

// Conjunction returns the combined estimate of one conjunction.
func (e *Estimator) Conjunction(s *world.State, c goal.Conjunction) int {
	total := 0
	for _, l := range c {
		v := Literal(s, l)
		if e.combiner == Max {
			total = max(total, v)
		} else {
			total += v
		}
	}
	return total
}

// Literal estimates a single literal. A violated negative literal needs at
// least one action.
func Literal(s *world.State, l goal.Literal) int {
	if !l.Positive {
		if relation.Holds(s, l) {
			return 0
		}
		return 1
	}
	x, y := l.Arg(0), l.Arg(1)
	switch l.Relation {
	case goal.Holding:
		return Holding(s, x)
	case goal.OnTop, goal.Inside:
		if relation.Holds(s, l) {
			return 0
		}
		return OnTop(s, x, y)
	case goal.Above:
		if relation.Holds(s, l) {
			return 0
		}
		return Above(s, x, y)
	case goal.Under:
		if relation.Holds(s, l) {
			return 0
		}
		return Above(s, y, x)
	case goal.LeftOf:
		return LeftOf(s, x, y)
	case goal.RightOf:
		return LeftOf(s, y, x)
	case goal.Beside:
		return Beside(s, x, y)
	default:
		return 0
	}
}
