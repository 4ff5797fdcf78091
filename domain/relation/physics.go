// Package relation is the relation oracle: pure physical-validity
// predicates and spatial queries over world states.
package relation

import (
	"github.com/felixgeelhaar/shrdlu/domain/goal"
	"github.com/felixgeelhaar/shrdlu/domain/world"
)

// CanRest reports whether object x may be placed directly on y, where y is
// another object or world.Floor. Placing on a box means placing inside it.
//
// The rules:
//   - anything may rest on the floor
//   - a ball rests only on the floor or in a box, and nothing rests on a ball
//   - a large object never rests on a small one
//   - a box never contains a pyramid, plank or box of its own size
//   - a small box is not supported by a small brick or small pyramid
//   - a large box is not supported by a large pyramid
func CanRest(objects world.Objects, x, y string) bool {
	if x == world.Floor || x == y {
		return false
	}
	ox, ok := objects[x]
	if !ok {
		return false
	}
	if y == world.Floor {
		return true
	}
	oy, ok := objects[y]
	if !ok {
		return false
	}

	if oy.Form == world.FormBall {
		return false
	}
	if ox.Form == world.FormBall && oy.Form != world.FormBox {
		return false
	}
	if ox.Size == world.SizeLarge && oy.Size == world.SizeSmall {
		return false
	}
	if oy.Form == world.FormBox && ox.Size == oy.Size {
		switch ox.Form {
		case world.FormPyramid, world.FormPlank, world.FormBox:
			return false
		}
	}
	if ox.Form == world.FormBox {
		if ox.Size == world.SizeSmall && oy.Size == world.SizeSmall &&
			(oy.Form == world.FormBrick || oy.Form == world.FormPyramid) {
			return false
		}
		if ox.Size == world.SizeLarge && oy.Size == world.SizeLarge && oy.Form == world.FormPyramid {
			return false
		}
	}
	return true
}

// Valid reports whether rel(x, y) is physically admissible for the given
// objects, independent of where they currently are. For holding, y is
// ignored.
func Valid(objects world.Objects, rel goal.Relation, x, y string) bool {
	known := func(id string) bool {
		_, ok := objects[id]
		return ok
	}

	switch rel {
	case goal.Holding:
		return known(x)

	case goal.OnTop:
		if y != world.Floor && objects[y].Form == world.FormBox {
			return false
		}
		return CanRest(objects, x, y)

	case goal.Inside:
		if y == world.Floor || objects[y].Form != world.FormBox {
			return false
		}
		return CanRest(objects, x, y)

	case goal.Above:
		if x == world.Floor || x == y || !known(x) {
			return false
		}
		if y == world.Floor {
			return true
		}
		if !known(y) {
			return false
		}
		ox, oy := objects[x], objects[y]
		if oy.Form == world.FormBall {
			return false
		}
		return !(ox.Size == world.SizeLarge && oy.Size == world.SizeSmall)

	case goal.Under:
		return Valid(objects, goal.Above, y, x)

	case goal.LeftOf, goal.RightOf, goal.Beside:
		return x != y && x != world.Floor && y != world.Floor && known(x) && known(y)

	default:
		return false
	}
}

// LiteralValid reports whether a positive literal is physically admissible.
// Negative literals are always admissible.
func LiteralValid(objects world.Objects, l goal.Literal) bool {
	if !l.Positive {
		return true
	}
	return Valid(objects, l.Relation, l.Arg(0), l.Arg(1))
}

// Feasible drops conjunctions containing a physically inadmissible
// positive literal and returns what remains together with the dropped
// conjunctions.
func Feasible(objects world.Objects, f goal.Formula) (goal.Formula, []goal.Pruned) {
	var kept goal.Formula
	var pruned []goal.Pruned
outer:
	for i, c := range f {
		for _, l := range c {
			if !LiteralValid(objects, l) {
				pruned = append(pruned, goal.Pruned{Index: i, Conjunction: c, Reason: l.String() + ": physically impossible"})
				continue outer
			}
		}
		kept = append(kept, c)
	}
	return kept, pruned
}
