package relation

import (
	"slices"

	"github.com/felixgeelhaar/shrdlu/domain/goal"
	"github.com/felixgeelhaar/shrdlu/domain/world"
)

// Query returns the sorted identifiers x for which rel(x, t) currently
// holds for at least one t in targets. Targets may include world.Floor.
// An empty match set yields an empty result.
//
// The floor appears in results only for Under: it is under every stacked
// object.
func Query(s *world.State, rel goal.Relation, targets []string) []string {
	switch rel {
	case goal.Holding:
		if h := s.Holding(); h != "" && slices.Contains(targets, h) {
			return []string{h}
		}
		return nil
	case goal.LeftOf:
		return LeftOf(s, targets)
	case goal.RightOf:
		return RightOf(s, targets)
	case goal.Inside:
		return Inside(s, targets)
	case goal.OnTop:
		return OnTop(s, targets)
	case goal.Above:
		return AboveOf(s, targets)
	case goal.Under:
		return UnderOf(s, targets)
	case goal.Beside:
		return Beside(s, targets)
	default:
		return nil
	}
}

// Holds evaluates a literal against the state. holding is checked against
// the held object directly; every other relation rel(x, y) holds iff x is
// in Query(s, rel, {y}).
func Holds(s *world.State, l goal.Literal) bool {
	var ok bool
	if l.Relation == goal.Holding {
		ok = s.Holding() != "" && s.Holding() == l.Arg(0)
	} else {
		ok = slices.Contains(Query(s, l.Relation, []string{l.Arg(1)}), l.Arg(0))
	}
	return ok == l.Positive
}

// Satisfied reports whether every literal of the conjunction holds.
func Satisfied(s *world.State, c goal.Conjunction) bool {
	for _, l := range c {
		if !Holds(s, l) {
			return false
		}
	}
	return true
}

// SatisfiedAny reports whether at least one conjunction holds.
func SatisfiedAny(s *world.State, f goal.Formula) bool {
	for _, c := range f {
		if Satisfied(s, c) {
			return true
		}
	}
	return false
}

// columns returns the sorted, distinct columns holding a target.
func columns(s *world.State, targets []string) []int {
	var cols []int
	for _, t := range targets {
		if pos, ok := s.Locate(t); ok && !slices.Contains(cols, pos.Column) {
			cols = append(cols, pos.Column)
		}
	}
	slices.Sort(cols)
	return cols
}

func collect(s *world.State, keep func(col int) bool) []string {
	var out []string
	for col := 0; col < s.Columns(); col++ {
		if keep(col) {
			out = append(out, s.Stack(col)...)
		}
	}
	slices.Sort(out)
	return out
}

// LeftOf returns objects in columns strictly left of the rightmost column
// holding a target.
func LeftOf(s *world.State, targets []string) []string {
	cols := columns(s, targets)
	if len(cols) == 0 {
		return nil
	}
	bound := cols[len(cols)-1]
	return collect(s, func(col int) bool { return col < bound })
}

// RightOf returns objects in columns strictly right of the leftmost column
// holding a target.
func RightOf(s *world.State, targets []string) []string {
	cols := columns(s, targets)
	if len(cols) == 0 {
		return nil
	}
	bound := cols[0]
	return collect(s, func(col int) bool { return col > bound })
}

// Beside returns objects in the columns immediately left and right of any
// column holding a target.
func Beside(s *world.State, targets []string) []string {
	cols := columns(s, targets)
	if len(cols) == 0 {
		return nil
	}
	return collect(s, func(col int) bool {
		return slices.Contains(cols, col-1) || slices.Contains(cols, col+1)
	})
}

// Inside returns objects resting directly in a target box.
func Inside(s *world.State, targets []string) []string {
	var out []string
	for _, t := range targets {
		obj, ok := s.Object(t)
		if !ok || obj.Form != world.FormBox {
			continue
		}
		if next, ok := successor(s, t); ok {
			out = append(out, next)
		}
	}
	return sortedSet(out)
}

// OnTop returns objects resting directly on a target that is not a box,
// or the bottom object of every stack when the target is the floor.
func OnTop(s *world.State, targets []string) []string {
	var out []string
	for _, t := range targets {
		if t == world.Floor {
			for col := 0; col < s.Columns(); col++ {
				if stack := s.Stack(col); len(stack) > 0 {
					out = append(out, stack[0])
				}
			}
			continue
		}
		obj, ok := s.Object(t)
		if !ok || obj.Form == world.FormBox {
			continue
		}
		if next, ok := successor(s, t); ok {
			out = append(out, next)
		}
	}
	return sortedSet(out)
}

// AboveOf returns every object stacked anywhere above a target. Every
// stacked object is above the floor.
func AboveOf(s *world.State, targets []string) []string {
	var out []string
	for _, t := range targets {
		if t == world.Floor {
			out = append(out, collect(s, func(int) bool { return true })...)
			continue
		}
		if pos, ok := s.Locate(t); ok {
			out = append(out, s.Stack(pos.Column)[pos.Height+1:]...)
		}
	}
	return sortedSet(out)
}

// UnderOf returns every object stacked anywhere below a target, plus the
// floor when any target is stacked.
func UnderOf(s *world.State, targets []string) []string {
	var out []string
	for _, t := range targets {
		if pos, ok := s.Locate(t); ok {
			out = append(out, s.Stack(pos.Column)[:pos.Height]...)
			out = append(out, world.Floor)
		}
	}
	return sortedSet(out)
}

func successor(s *world.State, id string) (string, bool) {
	pos, ok := s.Locate(id)
	if !ok {
		return "", false
	}
	stack := s.Stack(pos.Column)
	if pos.Height+1 >= len(stack) {
		return "", false
	}
	return stack[pos.Height+1], true
}

func sortedSet(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}
