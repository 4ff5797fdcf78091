package config

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/shrdlu/domain/goal"
	"github.com/felixgeelhaar/shrdlu/domain/world"
)

// Problem is one planning problem: a start world and a goal, given either
// as text or as an explicit DNF.
type Problem struct {
	Name  string          `json:"name,omitempty" yaml:"name,omitempty"`
	World WorldSpec       `json:"world" yaml:"world"`
	Goal  string          `json:"goal,omitempty" yaml:"goal,omitempty"`
	DNF   [][]LiteralSpec `json:"dnf,omitempty" yaml:"dnf,omitempty"`
}

// WorldSpec describes a world state.
type WorldSpec struct {
	Arm     int           `json:"arm" yaml:"arm"`
	Holding string        `json:"holding,omitempty" yaml:"holding,omitempty"`
	Stacks  [][]string    `json:"stacks" yaml:"stacks"`
	Objects world.Objects `json:"objects" yaml:"objects"`
}

// LiteralSpec is one literal of an explicit DNF goal.
type LiteralSpec struct {
	Relation string   `json:"relation" yaml:"relation"`
	Args     []string `json:"args" yaml:"args"`
	Negated  bool     `json:"negated,omitempty" yaml:"negated,omitempty"`
}

// State builds the start state.
func (p *Problem) State() (*world.State, error) {
	return world.NewState(p.World.Stacks, p.World.Arm, p.World.Holding, p.World.Objects)
}

// Formula returns the goal. Goal text is parsed; otherwise the DNF is
// converted literal by literal. The result is not validated against objects.
func (p *Problem) Formula() (goal.Formula, error) {
	switch {
	case p.Goal != "" && len(p.DNF) > 0:
		return nil, fmt.Errorf("%w: both goal and dnf are set", goal.ErrMalformedGoal)
	case p.Goal != "":
		return goal.Parse(p.Goal)
	case len(p.DNF) == 0:
		return nil, fmt.Errorf("%w: no goal", goal.ErrMalformedGoal)
	}

	f := make(goal.Formula, 0, len(p.DNF))
	for i, conj := range p.DNF {
		c := make(goal.Conjunction, 0, len(conj))
		for j, ls := range conj {
			l, err := ls.Literal()
			if err != nil {
				return nil, fmt.Errorf("dnf[%d][%d]: %w", i, j, err)
			}
			c = append(c, l)
		}
		f = append(f, c)
	}
	return f, nil
}

// Literal converts the document form to a goal literal.
func (ls LiteralSpec) Literal() (goal.Literal, error) {
	rel := goal.Relation(strings.ToLower(ls.Relation))
	if !rel.IsValid() {
		return goal.Literal{}, fmt.Errorf("%w: unknown relation %q", goal.ErrMalformedGoal, ls.Relation)
	}
	if len(ls.Args) != rel.Arity() {
		return goal.Literal{}, fmt.Errorf("%w: %s takes %d arguments, got %d",
			goal.ErrMalformedGoal, rel, rel.Arity(), len(ls.Args))
	}
	if ls.Negated {
		return goal.Neg(rel, ls.Args...), nil
	}
	return goal.Pos(rel, ls.Args...), nil
}
