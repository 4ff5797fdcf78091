package application

import (
	"fmt"

	"github.com/felixgeelhaar/shrdlu/domain/plan"
	"github.com/felixgeelhaar/shrdlu/domain/world"
)

// render turns a state path into steps. Consecutive states must be joined
// by a graph edge; otherwise the path is rejected with plan.ErrIllegalAction.
func (p *Planner) render(path []*world.State) ([]plan.Step, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty path", plan.ErrIllegalAction)
	}
	steps := make([]plan.Step, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		a, ok := p.graph.ActionBetween(path[i-1], path[i])
		if !ok {
			return nil, fmt.Errorf("%w: no action leads from step %d to %d", plan.ErrIllegalAction, i-1, i)
		}
		step := plan.Step{Action: a}
		if p.search.Commentary {
			step.Comment = Describe(path[i-1], path[i], a)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// Describe returns a sentence for the action taking from to to, such as
// "pick up the small white brick".
func Describe(from, to *world.State, a world.Action) string {
	switch a {
	case world.ActionLeft:
		return fmt.Sprintf("move left to column %d", to.Arm())
	case world.ActionRight:
		return fmt.Sprintf("move right to column %d", to.Arm())
	case world.ActionPick:
		return "pick up the " + describeObject(to, to.Holding())
	case world.ActionDrop:
		held := from.Holding()
		support := world.Floor
		stack := to.Stack(to.Arm())
		if len(stack) > 1 {
			support = stack[len(stack)-2]
		}
		if support == world.Floor {
			return fmt.Sprintf("put the %s on the floor", describeObject(to, held))
		}
		rel := "on"
		if obj, ok := to.Object(support); ok && obj.Form == world.FormBox {
			rel = "in"
		}
		return fmt.Sprintf("put the %s %s the %s", describeObject(to, held), rel, describeObject(to, support))
	default:
		return a.Name()
	}
}

func describeObject(s *world.State, id string) string {
	obj, ok := s.Object(id)
	if !ok {
		return id
	}
	return obj.Describe()
}
