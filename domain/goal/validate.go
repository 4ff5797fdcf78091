package goal

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/shrdlu/domain/world"
)

// Pruned describes a conjunction dropped during validation.
type Pruned struct {
	Index       int
	Conjunction Conjunction
	Reason      string
}

// Validate checks the formula against the declared objects and drops the
// conjunctions that can never be satisfied. It fails with ErrMalformedGoal
// when the formula is structurally broken or nothing satisfiable remains.
func (f Formula) Validate(objects world.Objects) (Formula, []Pruned, error) {
	if len(f) == 0 {
		return nil, nil, fmt.Errorf("%w: no conjunctions", ErrMalformedGoal)
	}

	var kept Formula
	var pruned []Pruned
	for i, c := range f {
		if len(c) == 0 {
			return nil, nil, fmt.Errorf("%w: conjunction %d is empty", ErrMalformedGoal, i)
		}
		for _, l := range c {
			if !l.Relation.IsValid() {
				return nil, nil, fmt.Errorf("%w: unknown relation %q", ErrMalformedGoal, l.Relation)
			}
			if len(l.Args) != l.Relation.Arity() {
				return nil, nil, fmt.Errorf("%w: %s takes %d argument(s), got %d",
					ErrMalformedGoal, l.Relation, l.Relation.Arity(), len(l.Args))
			}
		}
		if reason := unsatisfiable(c, objects); reason != "" {
			pruned = append(pruned, Pruned{Index: i, Conjunction: c, Reason: reason})
			continue
		}
		kept = append(kept, c)
	}

	if len(kept) == 0 {
		reasons := make([]string, len(pruned))
		for i, p := range pruned {
			reasons[i] = p.Reason
		}
		return nil, pruned, fmt.Errorf("%w: no satisfiable conjunction (%s)", ErrMalformedGoal, strings.Join(reasons, "; "))
	}
	return kept, pruned, nil
}

func unsatisfiable(c Conjunction, objects world.Objects) string {
	held := ""
	for i, l := range c {
		for _, a := range l.Args {
			if _, ok := objects[a]; !ok && a != Floor {
				return fmt.Sprintf("%s: unknown object %q", l, a)
			}
		}
		for _, o := range c[i+1:] {
			if o.Equal(l.Negate()) {
				return fmt.Sprintf("%s contradicts %s", l, o)
			}
		}
		if !l.Positive {
			continue
		}
		if reason := impossible(l); reason != "" {
			return fmt.Sprintf("%s: %s", l, reason)
		}
		if l.Relation == Holding {
			if held != "" && held != l.Arg(0) {
				return fmt.Sprintf("cannot hold both %q and %q", held, l.Arg(0))
			}
			held = l.Arg(0)
		}
	}
	return ""
}

// impossible reports why a positive literal can never hold, independent
// of object attributes.
func impossible(l Literal) string {
	x, y := l.Arg(0), l.Arg(1)
	switch l.Relation {
	case Holding:
		if x == Floor {
			return "the floor cannot be held"
		}
		return ""
	case OnTop, Inside, Above:
		if x == Floor {
			return "the floor cannot be moved"
		}
		if l.Relation == Inside && y == Floor {
			return "the floor is not a box"
		}
	case Under:
		if y == Floor {
			return "nothing is under the floor"
		}
	case LeftOf, RightOf, Beside:
		if x == Floor || y == Floor {
			return "the floor has no column"
		}
	}
	if x == y {
		return "an object cannot relate to itself"
	}
	return ""
}
