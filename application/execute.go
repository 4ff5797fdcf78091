package application

import (
	"errors"

	"github.com/felixgeelhaar/shrdlu/domain/goal"
	"github.com/felixgeelhaar/shrdlu/domain/relation"
	"github.com/felixgeelhaar/shrdlu/domain/statespace"
	"github.com/felixgeelhaar/shrdlu/domain/world"
)

// Execution is the result of replaying actions against a start state.
type Execution struct {
	// States holds the start state followed by one state per applied action.
	States []*world.State
	// Applied counts the actions that succeeded.
	Applied int
	// Err is the first illegal step, if any.
	Err error
	// GoalMet reports whether the final state satisfies the goal. It is
	// false when no goal was given.
	GoalMet bool
}

// Final returns the last reached state.
func (e Execution) Final() *world.State {
	return e.States[len(e.States)-1]
}

// Execute re-validates and applies actions one by one, stopping at the
// first illegal step. It is the execution layer for plans produced here or
// elsewhere.
func Execute(start *world.State, actions []world.Action, f goal.Formula) Execution {
	states, err := statespace.Replay(start, actions)
	if len(states) == 0 {
		states = []*world.State{start}
	}
	ex := Execution{States: states, Applied: len(states) - 1, Err: err}
	if len(f) > 0 {
		ex.GoalMet = relation.SatisfiedAny(ex.Final(), f)
	}
	return ex
}

// IsIllegal reports whether the execution stopped at an illegal move.
func (e Execution) IsIllegal() bool {
	return errors.Is(e.Err, world.ErrIllegalMove) || errors.Is(e.Err, world.ErrUnknownAction)
}
