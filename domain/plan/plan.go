// Package plan provides the planning result model: the rendered action
// sequence, its cost and the lifecycle of a planning call.
package plan

import (
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/shrdlu/domain/search"
	"github.com/felixgeelhaar/shrdlu/domain/world"
)

// Step is one arm action with optional commentary.
type Step struct {
	Action  world.Action `json:"action"`
	Comment string       `json:"comment,omitempty"`
}

// Plan is a successful planning result.
type Plan struct {
	ID        string        `json:"id"`
	Goal      string        `json:"goal"`
	Steps     []Step        `json:"steps"`
	Cost      float64       `json:"cost"`
	Outcome   Outcome       `json:"outcome"`
	Heuristic string        `json:"heuristic"`
	Stats     search.Stats  `json:"stats"`
	Duration  time.Duration `json:"duration"`
	Cached    bool          `json:"cached,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewID returns a fresh plan identifier.
func NewID() string {
	return uuid.New().String()
}

// AlreadyTrue reports whether the goal held in the start state.
func (p *Plan) AlreadyTrue() bool {
	return p.Outcome == OutcomeAlreadyTrue
}

// Actions returns the bare action tokens.
func (p *Plan) Actions() []world.Action {
	out := make([]world.Action, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Action
	}
	return out
}

// Tokens returns the actions as a compact string such as "prd".
func (p *Plan) Tokens() string {
	return world.FormatActions(p.Actions())
}

// Comments returns the non-empty step comments in order.
func (p *Plan) Comments() []string {
	var out []string
	for _, s := range p.Steps {
		if s.Comment != "" {
			out = append(out, s.Comment)
		}
	}
	return out
}

// Summary is a one-line description for logs and terminals.
func (p *Plan) Summary() string {
	if p.AlreadyTrue() {
		return "already true"
	}
	return p.Tokens()
}
