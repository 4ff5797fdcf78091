package plan

// State is a phase of the planning lifecycle.
type State string

// Lifecycle states.
const (
	StateIntake State = "intake" // Validate and prune the goal
	StateSearch State = "search" // Run A* over the state space
	StateRender State = "render" // Turn the path into actions
	StateDone   State = "done"   // Terminal success
	StateFailed State = "failed" // Terminal failure
)

// IsTerminal returns true if this is a terminal state (done or failed).
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// IsValid returns true if the state is a recognized lifecycle state.
func (s State) IsValid() bool {
	switch s {
	case StateIntake, StateSearch, StateRender, StateDone, StateFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// AllStates returns all lifecycle states in order.
func AllStates() []State {
	return []State{StateIntake, StateSearch, StateRender, StateDone, StateFailed}
}

var transitions = map[State][]State{
	StateIntake: {StateSearch, StateDone, StateFailed},
	StateSearch: {StateRender, StateFailed},
	StateRender: {StateDone, StateFailed},
}

// CanTransition reports whether the lifecycle allows moving from s to to.
// Intake goes straight to done when the goal already holds or the plan is
// served from cache.
func (s State) CanTransition(to State) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}
