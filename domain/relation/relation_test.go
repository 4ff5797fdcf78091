package relation

import (
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/felixgeelhaar/shrdlu/domain/goal"
	"github.com/felixgeelhaar/shrdlu/domain/world"
)

// fixture objects cover every form and size pairing used below.
func fixture() world.Objects {
	return world.Objects{
		"sbrick":   {Form: world.FormBrick, Size: world.SizeSmall},
		"lbrick":   {Form: world.FormBrick, Size: world.SizeLarge},
		"sball":    {Form: world.FormBall, Size: world.SizeSmall},
		"lball":    {Form: world.FormBall, Size: world.SizeLarge},
		"sbox":     {Form: world.FormBox, Size: world.SizeSmall},
		"lbox":     {Form: world.FormBox, Size: world.SizeLarge},
		"spyramid": {Form: world.FormPyramid, Size: world.SizeSmall},
		"lpyramid": {Form: world.FormPyramid, Size: world.SizeLarge},
		"splank":   {Form: world.FormPlank, Size: world.SizeSmall},
		"lplank":   {Form: world.FormPlank, Size: world.SizeLarge},
		"ltable":   {Form: world.FormTable, Size: world.SizeLarge},
	}
}

func TestCanRest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		x, y string
		want bool
	}{
		{"sbrick", world.Floor, true},
		{"sball", world.Floor, true},
		{world.Floor, "lbrick", false},
		{"sbrick", "sbrick", false},
		{"sball", "lbox", true},
		{"sball", "sbox", true},
		{"sball", "lbrick", false},
		{"sbrick", "sball", false},
		{"lbrick", "sbrick", false},
		{"sbrick", "lbrick", true},
		{"spyramid", "sbox", false},
		{"spyramid", "lbox", true},
		{"splank", "sbox", false},
		{"lplank", "lbox", false},
		{"sbox", "lbox", true},
		{"lbox", "lbox", false},
		{"sbox", "sbrick", false},
		{"sbox", "spyramid", false},
		{"sbox", "lbrick", true},
		{"lbox", "lpyramid", false},
		{"lbox", "lbrick", true},
		{"lbox", "ltable", true},
		{"sbrick", "missing", false},
	}

	for _, tt := range tests {
		t.Run(tt.x+"/"+tt.y, func(t *testing.T) {
			t.Parallel()
			if got := CanRest(fixture(), tt.x, tt.y); got != tt.want {
				t.Errorf("CanRest(%s, %s) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rel  goal.Relation
		x, y string
		want bool
	}{
		{goal.OnTop, "sbrick", world.Floor, true},
		{goal.OnTop, "sbrick", "lbox", false},
		{goal.Inside, "sbrick", "lbox", true},
		{goal.Inside, "sbrick", "lbrick", false},
		{goal.Inside, "sbrick", world.Floor, false},
		{goal.Above, "sbrick", "sball", false},
		{goal.Above, "lbrick", "sbrick", false},
		{goal.Above, "sbrick", "lbrick", true},
		{goal.Above, "sbrick", world.Floor, true},
		{goal.Above, world.Floor, "sbrick", false},
		{goal.Under, "lbrick", "sbrick", true},
		{goal.Under, "sball", "sbrick", false},
		{goal.Under, world.Floor, "sbrick", true},
		{goal.LeftOf, "sbrick", "lbrick", true},
		{goal.LeftOf, "sbrick", "sbrick", false},
		{goal.Beside, "sbrick", world.Floor, false},
		{goal.RightOf, world.Floor, "sbrick", false},
		{goal.Holding, "sball", "", true},
		{goal.Holding, world.Floor, "", false},
	}

	for _, tt := range tests {
		name := string(tt.rel) + "(" + tt.x + "," + tt.y + ")"
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := Valid(fixture(), tt.rel, tt.x, tt.y); got != tt.want {
				t.Errorf("Valid(%s) = %v, want %v", name, got, tt.want)
			}
		})
	}
}

func TestValid_UnderMirrorsAbove(t *testing.T) {
	t.Parallel()

	objs := fixture()
	ids := append(slices.Collect(maps.Keys(objs)), world.Floor)

	for _, a := range ids {
		for _, b := range ids {
			if Valid(objs, goal.Under, a, b) != Valid(objs, goal.Above, b, a) {
				t.Errorf("Valid(under, %s, %s) != Valid(above, %s, %s)", a, b, b, a)
			}
		}
	}
}

func queryState() *world.State {
	objs := world.Objects{
		"a": {Form: world.FormBrick, Size: world.SizeLarge},
		"b": {Form: world.FormBox, Size: world.SizeLarge},
		"c": {Form: world.FormBall, Size: world.SizeSmall},
		"d": {Form: world.FormPlank, Size: world.SizeSmall},
		"e": {Form: world.FormPyramid, Size: world.SizeSmall},
		"f": {Form: world.FormBrick, Size: world.SizeSmall},
	}
	// 0: a d | 1: empty | 2: b c | 3: e | 4: f
	return world.MustState([][]string{{"a", "d"}, {}, {"b", "c"}, {"e"}, {"f"}}, 0, "", objs)
}

func TestQuery(t *testing.T) {
	t.Parallel()

	s := queryState()
	tests := []struct {
		rel     goal.Relation
		targets []string
		want    string
	}{
		{goal.LeftOf, []string{"b"}, "a,d"},
		{goal.LeftOf, []string{"a", "e"}, "a,b,c,d"},
		{goal.RightOf, []string{"e"}, "f"},
		{goal.RightOf, []string{"e", "a"}, "b,c,e,f"},
		{goal.Inside, []string{"b"}, "c"},
		{goal.Inside, []string{"a"}, ""},
		{goal.OnTop, []string{"a"}, "d"},
		{goal.OnTop, []string{"b"}, ""},
		{goal.OnTop, []string{world.Floor}, "a,b,e,f"},
		{goal.Above, []string{"a"}, "d"},
		{goal.Above, []string{world.Floor}, "a,b,c,d,e,f"},
		{goal.Under, []string{"c"}, "b,floor"},
		{goal.Under, []string{"e"}, "floor"},
		{goal.Under, []string{world.Floor}, ""},
		{goal.Beside, []string{"e"}, "b,c,f"},
		{goal.Beside, []string{"f"}, "e"},
		{goal.Beside, []string{"a"}, ""},
		{goal.LeftOf, []string{"missing"}, ""},
		{goal.Beside, nil, ""},
		{goal.Holding, []string{"a"}, ""},
	}

	for _, tt := range tests {
		name := string(tt.rel) + "/" + strings.Join(tt.targets, ",")
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := strings.Join(Query(s, tt.rel, tt.targets), ",")
			if got != tt.want {
				t.Errorf("Query(%s) = %q, want %q", name, got, tt.want)
			}
		})
	}
}

func TestQuery_DoesNotAliasStacks(t *testing.T) {
	t.Parallel()

	s := queryState()
	got := AboveOf(s, []string{world.Floor})
	got[0] = "zz"
	if s.Stack(0)[0] != "a" {
		t.Error("query result aliases a stack")
	}
}

func TestHolds(t *testing.T) {
	t.Parallel()

	s := queryState()
	held, err := s.Move(4)
	if err != nil {
		t.Fatal(err)
	}
	held, err = held.PickUp()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		state *world.State
		lit   goal.Literal
		want  bool
	}{
		{s, goal.Pos(goal.LeftOf, "a", "b"), true},
		{s, goal.Pos(goal.LeftOf, "b", "a"), false},
		{s, goal.Neg(goal.LeftOf, "b", "a"), true},
		{s, goal.Pos(goal.RightOf, "f", "a"), true},
		{s, goal.Pos(goal.Inside, "c", "b"), true},
		{s, goal.Pos(goal.OnTop, "d", "a"), true},
		{s, goal.Pos(goal.OnTop, "a", world.Floor), true},
		{s, goal.Pos(goal.OnTop, "d", world.Floor), false},
		{s, goal.Pos(goal.Above, "d", world.Floor), true},
		{s, goal.Pos(goal.Under, "a", "d"), true},
		{s, goal.Pos(goal.Under, world.Floor, "d"), true},
		{s, goal.Pos(goal.Beside, "e", "f"), true},
		{s, goal.Pos(goal.Beside, "a", "b"), false},
		{s, goal.Pos(goal.Holding, "f"), false},
		{held, goal.Pos(goal.Holding, "f"), true},
		{held, goal.Neg(goal.Holding, "f"), false},
		{held, goal.Pos(goal.Beside, "e", "f"), false},
		{held, goal.Pos(goal.Above, "f", world.Floor), false},
	}

	for _, tt := range tests {
		t.Run(tt.lit.String(), func(t *testing.T) {
			t.Parallel()
			if got := Holds(tt.state, tt.lit); got != tt.want {
				t.Errorf("Holds(%s) in %s = %v, want %v", tt.lit, tt.state, got, tt.want)
			}
		})
	}
}

func TestHolds_UnderIsAboveMirrored(t *testing.T) {
	t.Parallel()

	states := []*world.State{
		queryState(),
		world.MustState([][]string{{"a", "d", "f"}, {"b", "c"}, {"e"}}, 1, "", queryState().Objects()),
		world.MustState([][]string{{}, {"a", "e"}, {"b"}}, 2, "c", world.Objects{
			"a": {Form: world.FormBrick, Size: world.SizeLarge},
			"b": {Form: world.FormBox, Size: world.SizeLarge},
			"c": {Form: world.FormBall, Size: world.SizeSmall},
			"e": {Form: world.FormPyramid, Size: world.SizeSmall},
		}),
	}

	for _, s := range states {
		ids := append(s.IDs(), world.Floor)
		for _, a := range ids {
			for _, b := range ids {
				under := Holds(s, goal.Pos(goal.Under, a, b))
				above := Holds(s, goal.Pos(goal.Above, b, a))
				if under != above {
					t.Errorf("%s: under(%s,%s)=%v but above(%s,%s)=%v", s, a, b, under, b, a, above)
				}
			}
		}
	}
}

func TestSatisfiedAny(t *testing.T) {
	t.Parallel()

	s := queryState()
	f := goal.Formula{
		{goal.Pos(goal.Holding, "a")},
		{goal.Pos(goal.Inside, "c", "b"), goal.Pos(goal.LeftOf, "a", "e")},
	}
	if !SatisfiedAny(s, f) {
		t.Error("second conjunction should hold")
	}
	if SatisfiedAny(s, f[:1]) {
		t.Error("holding(a) should not hold")
	}
}

func TestFeasible(t *testing.T) {
	t.Parallel()

	f := goal.Formula{
		{goal.Pos(goal.OnTop, "sbrick", "sball")},
		{goal.Pos(goal.Inside, "sbrick", "lbox"), goal.Neg(goal.OnTop, "lbrick", "sbrick")},
	}
	kept, pruned := Feasible(fixture(), f)
	if len(kept) != 1 || len(pruned) != 1 || pruned[0].Index != 0 {
		t.Errorf("Feasible() kept %d pruned %+v", len(kept), pruned)
	}
}
