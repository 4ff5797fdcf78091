package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/shrdlu/application"
	"github.com/felixgeelhaar/shrdlu/domain/goal"
	"github.com/felixgeelhaar/shrdlu/domain/plan"
	"github.com/felixgeelhaar/shrdlu/domain/world"
)

func testWorld() *world.State {
	return world.MustState([][]string{{"a"}, {"b"}}, 0, "", world.Objects{
		"a": {Form: world.FormBrick, Size: world.SizeSmall, Color: "white"},
		"b": {Form: world.FormBox, Size: world.SizeLarge, Color: "red"},
	})
}

func testModel(t *testing.T) animateModel {
	t.Helper()
	p := &plan.Plan{
		Goal: "inside(a, b)",
		Steps: []plan.Step{
			{Action: world.ActionPick, Comment: "pick up the small white brick"},
			{Action: world.ActionRight, Comment: "move right to column 1"},
			{Action: world.ActionDrop, Comment: "put the small white brick in the large red box"},
		},
		Cost:    3,
		Outcome: plan.OutcomePlanned,
	}
	ex := application.Execute(testWorld(), p.Actions(), goal.MustParse("inside(a, b)"))
	if ex.Err != nil || !ex.GoalMet {
		t.Fatalf("replay failed: %v", ex.Err)
	}
	return newAnimateModel(p, ex.States, 10*time.Millisecond)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	case "home":
		return tea.KeyMsg{Type: tea.KeyHome}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m animateModel, msg tea.Msg) (animateModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	am, ok := next.(animateModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return am, cmd
}

func TestAnimateModel_Navigation(t *testing.T) {
	t.Parallel()

	m := testModel(t)
	if m.Init() != nil {
		t.Error("Init should not start autoplay")
	}

	steps := []struct {
		key  string
		want int
	}{
		{"left", 0},
		{"right", 1},
		{"n", 2},
		{"right", 3},
		{"right", 3},
		{"b", 2},
		{"home", 0},
		{"end", 3},
	}
	for _, s := range steps {
		m, _ = update(t, m, key(s.key))
		if m.index != s.want {
			t.Fatalf("after %q index = %d, want %d", s.key, m.index, s.want)
		}
	}
}

func TestAnimateModel_Autoplay(t *testing.T) {
	t.Parallel()

	m := testModel(t)
	m, cmd := update(t, m, key("a"))
	if !m.playing || cmd == nil {
		t.Fatal("a should start autoplay with a tick")
	}

	for want := 1; want <= 3; want++ {
		m, cmd = update(t, m, tickMsg{})
		if m.index != want || cmd == nil {
			t.Fatalf("tick %d: index = %d, cmd nil = %v", want, m.index, cmd == nil)
		}
	}
	m, cmd = update(t, m, tickMsg{})
	if m.playing || cmd != nil {
		t.Error("autoplay should stop on the last frame")
	}

	m, _ = update(t, m, key("a"))
	if !m.playing || m.index != 0 {
		t.Errorf("restarting autoplay at the end should rewind, index = %d", m.index)
	}
	m, _ = update(t, m, key("right"))
	if m.playing {
		t.Error("manual stepping should pause autoplay")
	}
}

func TestAnimateModel_Quit(t *testing.T) {
	t.Parallel()

	m := testModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	if m.width != 80 {
		t.Errorf("width = %d", m.width)
	}

	m, cmd := update(t, m, key("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if m.View() != "" {
		t.Error("View should be empty after quitting")
	}
}

func TestAnimateModel_View(t *testing.T) {
	t.Parallel()

	m := testModel(t)
	view := m.View()
	for _, want := range []string{"inside(a, b)", "step 0/3", "start", "q quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}

	m, _ = update(t, m, key("end"))
	view = m.View()
	for _, want := range []string{"step 3/3", "put-down", "put the small white brick in the large red box", "done in 3 actions"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}
