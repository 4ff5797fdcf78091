package world

import (
	"fmt"
	"strings"
	"unicode"
)

// Action is a single-character arm command token.
type Action string

// Arm actions.
const (
	ActionLeft  Action = "l" // move one column left
	ActionRight Action = "r" // move one column right
	ActionPick  Action = "p" // pick up the top object of the current column
	ActionDrop  Action = "d" // put the held object down on the current column
)

// IsValid returns true if the action is one of l, r, p, d.
func (a Action) IsValid() bool {
	switch a {
	case ActionLeft, ActionRight, ActionPick, ActionDrop:
		return true
	default:
		return false
	}
}

// Name returns the long name of the action.
func (a Action) Name() string {
	switch a {
	case ActionLeft:
		return "move-left"
	case ActionRight:
		return "move-right"
	case ActionPick:
		return "pick-up"
	case ActionDrop:
		return "put-down"
	default:
		return "unknown"
	}
}

// String returns the token.
func (a Action) String() string {
	return string(a)
}

// ParseActions parses a token sequence such as "prd" or "p r d".
// Whitespace and commas between tokens are ignored.
func ParseActions(s string) ([]Action, error) {
	var out []Action
	for i, r := range s {
		if unicode.IsSpace(r) || r == ',' {
			continue
		}
		a := Action(strings.ToLower(string(r)))
		if !a.IsValid() {
			return nil, fmt.Errorf("%w: %q at offset %d", ErrUnknownAction, r, i)
		}
		out = append(out, a)
	}
	return out, nil
}

// FormatActions joins actions into a compact token string.
func FormatActions(actions []Action) string {
	var b strings.Builder
	for _, a := range actions {
		b.WriteString(string(a))
	}
	return b.String()
}
