package plan

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/felixgeelhaar/shrdlu/domain/search"
	"github.com/felixgeelhaar/shrdlu/domain/world"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil", nil, OutcomePlanned},
		{"malformed", &Error{Op: "intake", Err: ErrMalformedGoal}, OutcomeMalformed},
		{"request", ErrInvalidRequest, OutcomeMalformed},
		{"timeout", &Error{Op: "search", Err: fmt.Errorf("%w after 1s", search.ErrTimeout)}, OutcomeTimeout},
		{"exhausted", &Error{Op: "search", Err: search.ErrExhausted}, OutcomeExhausted},
		{"illegal", &Error{Op: "render", Err: ErrIllegalAction}, OutcomeIllegal},
		{"canceled", &Error{Op: "search", Err: fmt.Errorf("search canceled: %w", context.Canceled)}, OutcomeCanceled},
		{"other", errors.New("boom"), OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOutcome_IsFailure(t *testing.T) {
	t.Parallel()

	if OutcomePlanned.IsFailure() || OutcomeAlreadyTrue.IsFailure() {
		t.Error("successful outcomes reported as failures")
	}
	if !OutcomeTimeout.IsFailure() || !OutcomeExhausted.IsFailure() {
		t.Error("failure outcomes not reported as failures")
	}
}

func TestError_Message(t *testing.T) {
	t.Parallel()

	err := &Error{Op: "search", Goal: "holding(a)", Err: search.ErrExhausted}
	if got, want := err.Error(), `plan search "holding(a)": search exhausted`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, search.ErrExhausted) {
		t.Error("Error should unwrap to its cause")
	}
}

func TestPlan_Accessors(t *testing.T) {
	t.Parallel()

	p := &Plan{
		ID:      NewID(),
		Outcome: OutcomePlanned,
		Steps: []Step{
			{Action: world.ActionPick, Comment: "pick up the small white brick"},
			{Action: world.ActionRight},
			{Action: world.ActionDrop, Comment: "drop it into the large red box"},
		},
	}
	if p.ID == "" {
		t.Error("NewID() returned empty id")
	}
	if got := p.Tokens(); got != "prd" {
		t.Errorf("Tokens() = %q, want prd", got)
	}
	if got := len(p.Comments()); got != 2 {
		t.Errorf("len(Comments()) = %d, want 2", got)
	}
	if p.AlreadyTrue() {
		t.Error("AlreadyTrue() = true for a planned result")
	}

	empty := &Plan{Outcome: OutcomeAlreadyTrue}
	if empty.Summary() != "already true" {
		t.Errorf("Summary() = %q, want already true", empty.Summary())
	}
}

func TestState(t *testing.T) {
	t.Parallel()

	for _, s := range AllStates() {
		if !s.IsValid() {
			t.Errorf("%s.IsValid() = false", s)
		}
	}
	if !StateDone.IsTerminal() || !StateFailed.IsTerminal() || StateSearch.IsTerminal() {
		t.Error("IsTerminal() mismatch")
	}
	if State("bogus").IsValid() {
		t.Error("unknown state reported valid")
	}
}

func TestState_CanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIntake, StateSearch, true},
		{StateIntake, StateDone, true},
		{StateIntake, StateRender, false},
		{StateSearch, StateRender, true},
		{StateSearch, StateDone, false},
		{StateRender, StateDone, true},
		{StateRender, StateFailed, true},
		{StateDone, StateFailed, false},
		{StateFailed, StateIntake, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s.CanTransition(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
