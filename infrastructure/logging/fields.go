package logging

import (
	"strconv"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/shrdlu/domain/plan"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// PlanID adds the plan ID.
func PlanID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("plan_id", id)
	}
}

// Goal adds the goal formula.
func Goal(goal string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("goal", goal)
	}
}

// Cost adds the plan cost.
func Cost(c float64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("cost", strconv.FormatFloat(c, 'g', -1, 64))
	}
}

// Expanded adds the number of expanded search nodes.
func Expanded(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("expanded", n)
	}
}

// Actions adds the action tokens.
func Actions(tokens string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("actions", tokens)
	}
}

// Duration adds a duration in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ErrorField adds an error. A nil error adds nothing.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Outcome adds how a planning call ended.
func Outcome(o plan.Outcome) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("outcome", string(o))
	}
}

// Heuristic adds the heuristic mode.
func Heuristic(mode string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("heuristic", mode)
	}
}

// Lifecycle adds the planning lifecycle state.
func Lifecycle(s plan.State) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("lifecycle", string(s))
	}
}

// Pruned adds the number of conjunctions dropped before search.
func Pruned(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("pruned", n)
	}
}

// Cached marks a result served from the plan cache.
func Cached(cached bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("cached", cached)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
