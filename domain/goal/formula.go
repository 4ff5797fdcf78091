// Package goal provides the disjunctive-normal-form goal formula over
// spatial relations, its validation and a textual syntax.
package goal

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/felixgeelhaar/shrdlu/domain/world"
)

// Floor is the sentinel argument that denotes the ground.
const Floor = world.Floor

// ErrMalformedGoal indicates a formula that cannot describe any reachable
// goal: no conjunctions, an unknown relation, a wrong arity, or only
// conjunctions that can never be satisfied.
var ErrMalformedGoal = errors.New("malformed goal")

// Relation names a spatial relation.
type Relation string

// Known relations.
const (
	Holding Relation = "holding"
	OnTop   Relation = "ontop"
	Inside  Relation = "inside"
	Above   Relation = "above"
	Under   Relation = "under"
	LeftOf  Relation = "leftof"
	RightOf Relation = "rightof"
	Beside  Relation = "beside"
)

// AllRelations returns every known relation.
func AllRelations() []Relation {
	return []Relation{Holding, OnTop, Inside, Above, Under, LeftOf, RightOf, Beside}
}

// Arity returns the argument count of the relation, or 0 if unknown.
func (r Relation) Arity() int {
	switch r {
	case Holding:
		return 1
	case OnTop, Inside, Above, Under, LeftOf, RightOf, Beside:
		return 2
	default:
		return 0
	}
}

// IsValid returns true if the relation is known.
func (r Relation) IsValid() bool {
	return r.Arity() > 0
}

// Literal is a possibly negated relation over object identifiers.
type Literal struct {
	Positive bool
	Relation Relation
	Args     []string
}

// Pos builds a positive literal.
func Pos(rel Relation, args ...string) Literal {
	return Literal{Positive: true, Relation: rel, Args: args}
}

// Neg builds a negative literal.
func Neg(rel Relation, args ...string) Literal {
	return Literal{Positive: false, Relation: rel, Args: args}
}

// Arg returns the i-th argument or "".
func (l Literal) Arg(i int) string {
	if i < len(l.Args) {
		return l.Args[i]
	}
	return ""
}

// Negate flips the polarity.
func (l Literal) Negate() Literal {
	l.Positive = !l.Positive
	return l
}

// Equal compares polarity, relation and arguments.
func (l Literal) Equal(o Literal) bool {
	return l.Positive == o.Positive && l.Relation == o.Relation && slices.Equal(l.Args, o.Args)
}

// String renders the literal, e.g. "not inside(a, b)".
func (l Literal) String() string {
	s := fmt.Sprintf("%s(%s)", l.Relation, strings.Join(l.Args, ", "))
	if !l.Positive {
		return "not " + s
	}
	return s
}

// Conjunction is satisfied when every literal holds.
type Conjunction []Literal

// String renders the literals joined by "and".
func (c Conjunction) String() string {
	parts := make([]string, len(c))
	for i, l := range c {
		parts[i] = l.String()
	}
	return strings.Join(parts, " and ")
}

// Formula is satisfied when at least one conjunction is.
type Formula []Conjunction

// String renders the conjunctions joined by "or".
func (f Formula) String() string {
	parts := make([]string, len(f))
	for i, c := range f {
		parts[i] = c.String()
	}
	return strings.Join(parts, " or ")
}

// Objects returns the distinct non-floor identifiers the formula mentions.
func (f Formula) Objects() []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range f {
		for _, l := range c {
			for _, a := range l.Args {
				if a != Floor && !seen[a] {
					seen[a] = true
					out = append(out, a)
				}
			}
		}
	}
	slices.Sort(out)
	return out
}
