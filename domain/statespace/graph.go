// Package statespace exposes the blocks world as an implicit search graph
// and re-validates arm actions for execution and replay.
package statespace

import (
	"fmt"

	"github.com/felixgeelhaar/shrdlu/domain/relation"
	"github.com/felixgeelhaar/shrdlu/domain/search"
	"github.com/felixgeelhaar/shrdlu/domain/world"
)

// Graph is the blocks-world transition system. Every action costs 1.
type Graph struct{}

var (
	_ search.Graph[*world.State]  = Graph{}
	_ search.Hasher[*world.State] = Graph{}
)

// Expand returns one edge per legal action, in the order left, right,
// drop, pick. Put-downs the relation oracle rejects are not generated.
func (Graph) Expand(s *world.State) []search.Edge[*world.State] {
	edges := make([]search.Edge[*world.State], 0, 3)
	for _, a := range []world.Action{world.ActionLeft, world.ActionRight, world.ActionDrop, world.ActionPick} {
		if next, err := Step(s, a); err == nil {
			edges = append(edges, search.Edge[*world.State]{To: next, Cost: 1, Label: string(a)})
		}
	}
	return edges
}

// Equal compares stacks, arm and held object.
func (Graph) Equal(a, b *world.State) bool {
	return a.Equal(b)
}

// Hash delegates to the state digest.
func (Graph) Hash(s *world.State) uint64 {
	return s.Hash()
}

// ActionBetween returns the label of the edge leading from one state to the
// other, if any.
func (g Graph) ActionBetween(from, to *world.State) (world.Action, bool) {
	for _, e := range g.Expand(from) {
		if e.To.Equal(to) {
			return world.Action(e.Label), true
		}
	}
	return "", false
}

// Step applies one action, enforcing both the arm preconditions and the
// physical placement rules. Failures wrap world.ErrIllegalMove.
func Step(s *world.State, a world.Action) (*world.State, error) {
	switch a {
	case world.ActionLeft:
		return s.Move(-1)
	case world.ActionRight:
		return s.Move(1)
	case world.ActionPick:
		return s.PickUp()
	case world.ActionDrop:
		held := s.Holding()
		if held == "" {
			return s.PutDown()
		}
		support, ok := s.Top(s.Arm())
		if !ok {
			support = world.Floor
		}
		if !relation.CanRest(s.Objects(), held, support) {
			return nil, fmt.Errorf("%w: %q cannot rest on %q", world.ErrIllegalMove, held, support)
		}
		return s.PutDown()
	default:
		return nil, fmt.Errorf("%w: %q", world.ErrUnknownAction, a)
	}
}

// Replay applies actions in order and returns every visited state, the
// start included. The first illegal action aborts the replay with an error
// naming its position.
func Replay(s *world.State, actions []world.Action) ([]*world.State, error) {
	states := make([]*world.State, 0, len(actions)+1)
	states = append(states, s)
	cur := s
	for i, a := range actions {
		next, err := Step(cur, a)
		if err != nil {
			return states, fmt.Errorf("action %d (%s): %w", i+1, a.Name(), err)
		}
		states = append(states, next)
		cur = next
	}
	return states, nil
}
