package heuristic

import "github.com/felixgeelhaar/shrdlu/domain/world"

// place is where an object currently is.
type place struct {
	held    bool
	stacked bool
	col     int
	height  int
	above   int
}

func locate(s *world.State, id string) place {
	if id != "" && s.Holding() == id {
		return place{held: true}
	}
	pos, ok := s.Locate(id)
	if !ok {
		return place{}
	}
	return place{stacked: true, col: pos.Column, height: pos.Height, above: s.Above(id)}
}

// heldOther is 1 when the arm holds something other than the operands and
// must drop it before any pick.
func heldOther(s *world.State, operands ...string) int {
	h := s.Holding()
	if h == "" {
		return 0
	}
	for _, o := range operands {
		if o == h {
			return 0
		}
	}
	return 1
}

func dist(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// tour is the shortest arm walk from a that visits both p and q.
func tour(a, p, q int) int {
	return min(dist(a, p)+dist(p, q), dist(a, q)+dist(q, p))
}

// Holding estimates holding(x): drop whatever else is held, travel to x,
// clear the objects above it and pick it.
func Holding(s *world.State, x string) int {
	if s.Holding() == x {
		return 0
	}
	lx := locate(s, x)
	if !lx.stacked {
		return 1
	}
	return heldOther(s, x) + dist(s.Arm(), lx.col) + 2*lx.above + 1
}

// OnTop estimates ontop(x, y) and inside(x, y) for a relation that does not
// hold yet: every object above x or above y is moved away, x is picked
// unless held, and dropped on y.
func OnTop(s *world.State, x, y string) int {
	a := s.Arm()
	lx := locate(s, x)
	floor := y == world.Floor
	var ly place
	if !floor {
		ly = locate(s, y)
	}

	var travel, moved int
	switch {
	case lx.held:
		if ly.stacked {
			travel = dist(a, ly.col)
			moved = ly.above
		}
		return travel + 2*moved + 1

	case lx.stacked:
		if floor || !ly.stacked {
			travel = dist(a, lx.col)
			moved = lx.above
			break
		}
		travel = tour(a, lx.col, ly.col)
		if lx.col == ly.col {
			top := len(s.Stack(lx.col))
			moved = top - min(lx.height, ly.height) - 1
			if lx.height > ly.height {
				moved-- // x itself is above y
			}
		} else {
			moved = lx.above + ly.above
		}

	default:
		return 1
	}

	return travel + 2*moved + 2 + heldOther(s, x, y)
}

// Above estimates above(x, y) for a relation that does not hold yet: x has
// to be cleared, picked and dropped somewhere in y's stack.
func Above(s *world.State, x, y string) int {
	a := s.Arm()
	lx := locate(s, x)
	var ly place
	if y != world.Floor {
		ly = locate(s, y)
	}

	switch {
	case lx.held:
		if ly.stacked {
			return dist(a, ly.col) + 1
		}
		return 1

	case lx.stacked:
		travel := dist(a, lx.col)
		if ly.stacked {
			travel = tour(a, lx.col, ly.col)
		}
		return travel + 2*lx.above + 2 + heldOther(s, x, y)

	default:
		return 1
	}
}

// LeftOf estimates leftof(x, y). With both stacked, one of them is carried
// across the other; with one held, it is carried to the correct side and
// dropped.
func LeftOf(s *world.State, x, y string) int {
	a := s.Arm()
	lx, ly := locate(s, x), locate(s, y)

	switch {
	case lx.stacked && ly.stacked:
		if lx.col < ly.col {
			return 0
		}
		reach := min(dist(a, lx.col), dist(a, ly.col))
		carry := lx.col - ly.col + 1
		clear := 2 * min(lx.above, ly.above)
		return reach + carry + 2 + clear + heldOther(s, x, y)

	case lx.held && ly.stacked:
		return 1 + max(0, a-ly.col+1)

	case ly.held && lx.stacked:
		return 1 + max(0, lx.col-a+1)

	default:
		return 1
	}
}

// Beside estimates beside(x, y): one operand is carried next to the other.
func Beside(s *world.State, x, y string) int {
	a := s.Arm()
	lx, ly := locate(s, x), locate(s, y)

	switch {
	case lx.stacked && ly.stacked:
		gap := dist(lx.col, ly.col)
		if gap == 1 {
			return 0
		}
		reach := min(dist(a, lx.col), dist(a, ly.col))
		carry := max(1, gap-1)
		clear := 2 * min(lx.above, ly.above)
		return reach + carry + 2 + clear + heldOther(s, x, y)

	case lx.held && ly.stacked:
		return 1 + nextTo(a, ly.col)

	case ly.held && lx.stacked:
		return 1 + nextTo(a, lx.col)

	default:
		return 1
	}
}

// nextTo is the fewest moves from a to a column adjacent to c.
func nextTo(a, c int) int {
	if a == c {
		return 1
	}
	return dist(a, c) - 1
}
