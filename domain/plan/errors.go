package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/shrdlu/domain/goal"
	"github.com/felixgeelhaar/shrdlu/domain/search"
)

// Domain errors for planning.
var (
	// ErrMalformedGoal indicates a goal with no satisfiable conjunction.
	ErrMalformedGoal = goal.ErrMalformedGoal

	// ErrIllegalAction indicates a found path that no graph edge explains.
	// It signals a broken state-space graph and is never expected.
	ErrIllegalAction = errors.New("illegal action synthesis")

	// ErrInvalidRequest indicates a request without a start state.
	ErrInvalidRequest = errors.New("invalid plan request")
)

// Error is a typed planning failure naming the phase that failed.
type Error struct {
	Op   string // intake, search, render
	Goal string
	Err  error
}

func (e *Error) Error() string {
	if e.Goal == "" {
		return fmt.Sprintf("plan %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("plan %s %q: %v", e.Op, e.Goal, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Outcome classifies how a planning call ended.
type Outcome string

// Outcomes.
const (
	OutcomePlanned     Outcome = "planned"
	OutcomeAlreadyTrue Outcome = "already_true"
	OutcomeMalformed   Outcome = "malformed_goal"
	OutcomeExhausted   Outcome = "exhausted"
	OutcomeTimeout     Outcome = "timeout"
	OutcomeIllegal     Outcome = "illegal_action"
	OutcomeCanceled    Outcome = "canceled"
	OutcomeError       Outcome = "error"
)

// IsFailure returns true for outcomes that produced no plan.
func (o Outcome) IsFailure() bool {
	return o != OutcomePlanned && o != OutcomeAlreadyTrue
}

// Classify maps an error returned by a planner to its outcome. A nil error
// is OutcomePlanned; callers distinguish OutcomeAlreadyTrue from the plan.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomePlanned
	case errors.Is(err, ErrMalformedGoal), errors.Is(err, ErrInvalidRequest):
		return OutcomeMalformed
	case errors.Is(err, search.ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, search.ErrExhausted):
		return OutcomeExhausted
	case errors.Is(err, ErrIllegalAction):
		return OutcomeIllegal
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}
