package statemachine

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/shrdlu/domain/plan"
)

// Interpreter drives one planning call through the lifecycle.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates an interpreter bound to ctx.
func NewInterpreter(machine *statekit.MachineConfig[*Context], ctx *Context) *Interpreter {
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	return &Interpreter{interp: interp, ctx: ctx}
}

// Start enters the initial state.
func (i *Interpreter) Start() {
	i.interp.Start()
	i.ctx.State = plan.State(i.interp.State().Value)
}

// Stop stops the interpreter.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// State returns the current lifecycle state.
func (i *Interpreter) State() plan.State {
	return plan.State(i.interp.State().Value)
}

// Transition moves to the target state. It fails when the lifecycle does
// not allow the move or a guard rejects it.
func (i *Interpreter) Transition(to plan.State, reason string) error {
	from := i.State()
	if !from.CanTransition(to) {
		return fmt.Errorf("transition from %s to %s not allowed", from, to)
	}

	i.interp.Send(statekit.Event{
		Type:    EventFor(to),
		Payload: TransitionPayload{ToState: to, Reason: reason},
	})

	if got := i.State(); got != to {
		return fmt.Errorf("transition from %s to %s rejected", from, to)
	}
	i.ctx.State = to
	return nil
}

// Fail moves to failed unless the machine is already terminal.
func (i *Interpreter) Fail(reason string) {
	if i.IsTerminal() {
		return
	}
	_ = i.Transition(plan.StateFailed, reason)
}

// IsTerminal returns true in done or failed.
func (i *Interpreter) IsTerminal() bool {
	return i.interp.Done()
}

// Context returns the interpreter context.
func (i *Interpreter) Context() *Context {
	return i.ctx
}

// Lifecycle owns the machine definition and starts one interpreter per call.
type Lifecycle struct {
	machine *statekit.MachineConfig[*Context]
}

// NewLifecycle builds the planning machine.
func NewLifecycle() (*Lifecycle, error) {
	m, err := NewPlanningMachine()
	if err != nil {
		return nil, fmt.Errorf("build planning machine: %w", err)
	}
	return &Lifecycle{machine: m}, nil
}

// Begin starts a lifecycle for one planning call.
func (l *Lifecycle) Begin(planID, goal string) *Interpreter {
	i := NewInterpreter(l.machine, NewContext(planID, goal))
	i.Start()
	return i
}
