// Package statemachine runs the planning lifecycle as a statekit statechart:
// intake, search, render, then done or failed.
package statemachine

import (
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/shrdlu/domain/plan"
)

// Transition is one recorded lifecycle step.
type Transition struct {
	From   plan.State
	To     plan.State
	Reason string
	At     time.Time
}

// Context carries one planning call through the machine.
type Context struct {
	PlanID      string
	Goal        string
	State       plan.State
	Transitions []Transition

	now func() time.Time
}

// NewContext creates a machine context for a planning call.
func NewContext(planID, goal string) *Context {
	return &Context{PlanID: planID, Goal: goal, State: plan.StateIntake, now: time.Now}
}

// TransitionPayload carries the target and reason of a transition event.
type TransitionPayload struct {
	ToState plan.State
	Reason  string
}

const (
	stateIntake = statekit.StateID(plan.StateIntake)
	stateSearch = statekit.StateID(plan.StateSearch)
	stateRender = statekit.StateID(plan.StateRender)
	stateDone   = statekit.StateID(plan.StateDone)
	stateFailed = statekit.StateID(plan.StateFailed)
)

// Events.
const (
	EventSearch statekit.EventType = "SEARCH"
	EventRender statekit.EventType = "RENDER"
	EventDone   statekit.EventType = "DONE"
	EventFail   statekit.EventType = "FAIL"
)

// NewPlanningMachine creates the planning lifecycle statechart.
func NewPlanningMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("planning").
		WithInitial(stateIntake).
		WithContext(&Context{}).
		WithAction("enter", enterState).
		WithAction("record", recordTransition).
		WithGuard("hasGoal", guardHasGoal).
		State(stateIntake).
			OnEntry("enter").
			On(EventSearch).Target(stateSearch).Guard("hasGoal").Do("record").
			On(EventDone).Target(stateDone).Do("record").
			On(EventFail).Target(stateFailed).Do("record").
			Done().
		State(stateSearch).
			OnEntry("enter").
			On(EventRender).Target(stateRender).Do("record").
			On(EventFail).Target(stateFailed).Do("record").
			Done().
		State(stateRender).
			OnEntry("enter").
			On(EventDone).Target(stateDone).Do("record").
			On(EventFail).Target(stateFailed).Do("record").
			Done().
		State(stateDone).
			Final().
			OnEntry("enter").
			Done().
		State(stateFailed).
			Final().
			OnEntry("enter").
			Done().
		Build()
}

// EventFor returns the event that moves the machine to a state.
func EventFor(to plan.State) statekit.EventType {
	switch to {
	case plan.StateSearch:
		return EventSearch
	case plan.StateRender:
		return EventRender
	case plan.StateDone:
		return EventDone
	case plan.StateFailed:
		return EventFail
	default:
		return statekit.EventType(to)
	}
}

func stateFor(event statekit.Event) plan.State {
	if p, ok := event.Payload.(TransitionPayload); ok {
		return p.ToState
	}
	switch event.Type {
	case EventSearch:
		return plan.StateSearch
	case EventRender:
		return plan.StateRender
	case EventDone:
		return plan.StateDone
	case EventFail:
		return plan.StateFailed
	default:
		return ""
	}
}

// Actions receive **Context because the machine context type is *Context.

func enterState(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	if s := stateFor(event); s != "" {
		(*ctx).State = s
	}
}

func recordTransition(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	c := *ctx
	t := Transition{From: c.State, To: stateFor(event)}
	if p, ok := event.Payload.(TransitionPayload); ok {
		t.Reason = p.Reason
	}
	if c.now != nil {
		t.At = c.now()
	}
	c.Transitions = append(c.Transitions, t)
}

func guardHasGoal(ctx *Context, _ statekit.Event) bool {
	return ctx != nil && ctx.Goal != ""
}
