package application

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/shrdlu/domain/cache"
	"github.com/felixgeelhaar/shrdlu/domain/config"
	"github.com/felixgeelhaar/shrdlu/domain/goal"
	"github.com/felixgeelhaar/shrdlu/domain/history"
	"github.com/felixgeelhaar/shrdlu/domain/plan"
	"github.com/felixgeelhaar/shrdlu/domain/relation"
	"github.com/felixgeelhaar/shrdlu/domain/search"
	"github.com/felixgeelhaar/shrdlu/domain/statespace"
	"github.com/felixgeelhaar/shrdlu/domain/world"
	"github.com/felixgeelhaar/shrdlu/infrastructure/logging"
	"github.com/felixgeelhaar/shrdlu/infrastructure/storage/memory"
)

func newTestPlanner(t *testing.T, opts ...Option) *Planner {
	t.Helper()
	p, err := NewPlannerWithOptions(opts...)
	if err != nil {
		t.Fatalf("NewPlannerWithOptions() error = %v", err)
	}
	return p
}

func brickAndBox(brick, box world.Size) *world.State {
	return world.MustState([][]string{{"a"}, {"b"}}, 0, "", world.Objects{
		"a": {Form: world.FormBrick, Size: brick, Color: "white"},
		"b": {Form: world.FormBox, Size: box, Color: "red"},
	})
}

func TestNewPlanner_RejectsUnknownSettings(t *testing.T) {
	t.Parallel()

	if _, err := NewPlannerWithOptions(WithHeuristic("euclid")); err == nil {
		t.Error("unknown heuristic should fail")
	}
	if _, err := NewPlannerWithOptions(WithCombiner("product")); err == nil {
		t.Error("unknown combiner should fail")
	}
}

func TestPlanner_Mode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		opts []Option
		want string
	}{
		{nil, "domain/sum"},
		{[]Option{WithCombiner(config.CombinerMax)}, "domain/max"},
		{[]Option{WithHeuristic(config.HeuristicZero), WithPhysicsPruning(true)}, "zero/sum/physics"},
	}
	for _, tt := range tests {
		if got := newTestPlanner(t, tt.opts...).Mode(); got != tt.want {
			t.Errorf("Mode() = %s, want %s", got, tt.want)
		}
	}
}

func TestPlanner_PickSingleBrick(t *testing.T) {
	t.Parallel()

	start := world.MustState([][]string{{"a"}}, 0, "", world.Objects{
		"a": {Form: world.FormBrick, Size: world.SizeSmall, Color: "white"},
	})
	p := newTestPlanner(t)

	got, err := p.Plan(context.Background(), Request{Start: start, GoalText: "holding(a)"})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if got.Tokens() != "p" || got.Cost != 1 || got.Outcome != plan.OutcomePlanned {
		t.Errorf("Plan() = %q cost %v outcome %s, want p cost 1", got.Tokens(), got.Cost, got.Outcome)
	}
	if c := got.Comments(); len(c) != 1 || c[0] != "pick up the small white brick" {
		t.Errorf("Comments() = %v", c)
	}
	if got.ID == "" || got.Heuristic != "domain/sum" || got.Stats.Expanded == 0 {
		t.Errorf("plan metadata = %+v", got)
	}
}

func TestPlanner_BrickIntoBox(t *testing.T) {
	t.Parallel()

	t.Run("compatible", func(t *testing.T) {
		t.Parallel()
		p := newTestPlanner(t)
		got, err := p.Plan(context.Background(), Request{
			Start: brickAndBox(world.SizeSmall, world.SizeLarge),
			Goal:  goal.Formula{{goal.Pos(goal.Inside, "a", "b")}},
		})
		if err != nil {
			t.Fatalf("Plan() error = %v", err)
		}
		if got.Tokens() != "prd" || got.Cost != 3 {
			t.Errorf("Plan() = %q cost %v, want prd cost 3", got.Tokens(), got.Cost)
		}
		want := []string{
			"pick up the small white brick",
			"move right to column 1",
			"put the small white brick in the large red box",
		}
		comments := got.Comments()
		for i := range want {
			if i >= len(comments) || comments[i] != want[i] {
				t.Errorf("Comments() = %v, want %v", comments, want)
				break
			}
		}
	})

	t.Run("incompatible exhausts", func(t *testing.T) {
		t.Parallel()
		p := newTestPlanner(t)
		_, err := p.Plan(context.Background(), Request{
			Start:    brickAndBox(world.SizeLarge, world.SizeSmall),
			GoalText: "inside(a, b)",
		})
		if !errors.Is(err, search.ErrExhausted) {
			t.Fatalf("Plan() error = %v, want ErrExhausted", err)
		}
		var perr *plan.Error
		if !errors.As(err, &perr) || perr.Op != "search" {
			t.Errorf("error = %#v, want *plan.Error in search", err)
		}
	})

	t.Run("incompatible pruned by physics", func(t *testing.T) {
		t.Parallel()
		p := newTestPlanner(t, WithPhysicsPruning(true))
		_, err := p.Plan(context.Background(), Request{
			Start:    brickAndBox(world.SizeLarge, world.SizeSmall),
			GoalText: "inside(a, b)",
		})
		if !errors.Is(err, plan.ErrMalformedGoal) {
			t.Errorf("Plan() error = %v, want ErrMalformedGoal", err)
		}
	})
}

func TestPlanner_PrefersAlreadyTrueBranch(t *testing.T) {
	t.Parallel()

	p := newTestPlanner(t)
	got, err := p.Plan(context.Background(), Request{
		Start:    brickAndBox(world.SizeSmall, world.SizeLarge),
		GoalText: "inside(a, b) and holding(b) or ontop(a, floor)",
	})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if !got.AlreadyTrue() || len(got.Steps) != 0 || got.Cost != 0 {
		t.Errorf("Plan() = %+v, want an empty already-true plan", got)
	}
	if got.Summary() != "already true" {
		t.Errorf("Summary() = %q", got.Summary())
	}
}

func TestPlanner_Failures(t *testing.T) {
	t.Parallel()
	start := brickAndBox(world.SizeSmall, world.SizeLarge)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name    string
		ctx     context.Context
		req     Request
		wantErr error
		wantOp  string
	}{
		{"no start", context.Background(), Request{GoalText: "holding(a)"}, plan.ErrInvalidRequest, "intake"},
		{"no goal", context.Background(), Request{Start: start}, plan.ErrMalformedGoal, "intake"},
		{"bad syntax", context.Background(), Request{Start: start, GoalText: "holding("}, plan.ErrMalformedGoal, "intake"},
		{"unknown object", context.Background(), Request{Start: start, GoalText: "holding(z)"}, plan.ErrMalformedGoal, "intake"},
		{"floor operand", context.Background(), Request{Start: start, GoalText: "holding(floor)"}, plan.ErrMalformedGoal, "intake"},
		{"canceled", canceled, Request{Start: start, GoalText: "holding(a)"}, context.Canceled, "intake"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			hist := memory.NewHistoryStore()
			p := newTestPlanner(t, WithHistory(hist))

			_, err := p.Plan(tt.ctx, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Plan() error = %v, want %v", err, tt.wantErr)
			}
			var perr *plan.Error
			if !errors.As(err, &perr) || perr.Op != tt.wantOp {
				t.Errorf("error = %#v, want op %s", err, tt.wantOp)
			}

			records, _ := hist.List(context.Background(), history.Filter{})
			if len(records) != 1 || !records[0].Outcome.IsFailure() || records[0].Error == "" {
				t.Errorf("history = %+v, want one failure", records)
			}
		})
	}
}

// steppingClock advances one millisecond per reading.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Millisecond)
		return now
	}
}

func TestPlanner_Timeout(t *testing.T) {
	t.Parallel()

	p := newTestPlanner(t, WithClock(steppingClock()), WithTimeout(time.Millisecond))
	_, err := p.Plan(context.Background(), Request{
		Start:    brickAndBox(world.SizeSmall, world.SizeLarge),
		GoalText: "inside(a, b)",
	})
	if !errors.Is(err, search.ErrTimeout) {
		t.Errorf("Plan() error = %v, want ErrTimeout", err)
	}
	if plan.Classify(err) != plan.OutcomeTimeout {
		t.Errorf("Classify() = %s", plan.Classify(err))
	}
}

func TestPlanner_RequestTimeoutOverrides(t *testing.T) {
	t.Parallel()

	p := newTestPlanner(t, WithClock(steppingClock()), WithTimeout(time.Millisecond))
	got, err := p.Plan(context.Background(), Request{
		Start:    brickAndBox(world.SizeSmall, world.SizeLarge),
		GoalText: "inside(a, b)",
		Timeout:  time.Hour,
	})
	if err != nil || got.Tokens() != "prd" {
		t.Errorf("Plan() = %v, %v", got, err)
	}
}

func TestPlanner_CacheAndHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := memory.NewCache()
	hist := memory.NewHistoryStore()
	p := newTestPlanner(t, WithCache(cache.NewPlans(store, time.Hour)), WithHistory(hist))
	req := Request{Start: brickAndBox(world.SizeSmall, world.SizeLarge), GoalText: "inside(a, b)"}

	first, err := p.Plan(ctx, req)
	if err != nil {
		t.Fatalf("first Plan() error = %v", err)
	}
	second, err := p.Plan(ctx, req)
	if err != nil {
		t.Fatalf("second Plan() error = %v", err)
	}
	if first.Cached || !second.Cached {
		t.Errorf("Cached = %v / %v, want false / true", first.Cached, second.Cached)
	}
	if second.ID == first.ID || second.Tokens() != first.Tokens() {
		t.Errorf("cached plan = %+v, first = %+v", second, first)
	}

	third, err := p.Plan(ctx, Request{Start: req.Start, GoalText: req.GoalText, NoCache: true})
	if err != nil || third.Cached {
		t.Errorf("NoCache Plan() = %+v, %v", third, err)
	}

	if s := store.Stats(); s.Hits != 1 || s.Misses != 1 {
		t.Errorf("cache stats = %+v, want 1 hit and 1 miss", s)
	}
	sum, err := hist.Summary(ctx, history.Filter{})
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if sum.Total != 3 || sum.Planned != 3 || sum.CacheHits != 1 {
		t.Errorf("Summary() = %+v", sum)
	}
}

func TestPlanner_AdmissibleSearchIsOptimal(t *testing.T) {
	t.Parallel()

	objects := world.Objects{
		"a": {Form: world.FormBrick, Size: world.SizeSmall, Color: "white"},
		"b": {Form: world.FormBox, Size: world.SizeLarge, Color: "red"},
		"c": {Form: world.FormBall, Size: world.SizeSmall, Color: "black"},
		"e": {Form: world.FormPlank, Size: world.SizeLarge, Color: "green"},
	}
	start := world.MustState([][]string{{"e", "a"}, {"b"}, {}, {"c"}}, 1, "", objects)

	goals := []string{
		"holding(e)",
		"inside(c, b)",
		"leftof(c, e)",
		"beside(a, c)",
		"ontop(a, floor) and not beside(a, b)",
		"above(a, b) or rightof(e, c)",
	}

	ctx := context.Background()
	uniform := newTestPlanner(t, WithHeuristic(config.HeuristicZero), WithCommentary(false))
	guided := newTestPlanner(t, WithCombiner(config.CombinerMax), WithCommentary(false))

	for _, text := range goals {
		t.Run(text, func(t *testing.T) {
			t.Parallel()
			f := goal.MustParse(text)

			want, werr := uniform.Plan(ctx, Request{Start: start, Goal: f})
			got, gerr := guided.Plan(ctx, Request{Start: start, Goal: f})
			if werr != nil || gerr != nil {
				if !errors.Is(gerr, search.ErrExhausted) || !errors.Is(werr, search.ErrExhausted) {
					t.Fatalf("errors = %v / %v", werr, gerr)
				}
				return
			}
			if got.Cost != want.Cost {
				t.Errorf("cost = %v, want optimal %v", got.Cost, want.Cost)
			}
			for _, steps := range []string{got.Tokens(), want.Tokens()} {
				actions, _ := world.ParseActions(steps)
				states, err := statespace.Replay(start, actions)
				if err != nil {
					t.Fatalf("Replay(%s) error = %v", steps, err)
				}
				if !relation.SatisfiedAny(states[len(states)-1], f) {
					t.Errorf("Replay(%s) does not reach the goal", steps)
				}
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	s := brickAndBox(world.SizeSmall, world.SizeLarge)
	tests := []struct {
		action world.Action
		want   string
	}{
		{world.ActionRight, "move right to column 1"},
		{world.ActionPick, "pick up the small white brick"},
	}
	for _, tt := range tests {
		next, err := statespace.Step(s, tt.action)
		if err != nil {
			t.Fatalf("Step(%s) error = %v", tt.action, err)
		}
		if got := Describe(s, next, tt.action); got != tt.want {
			t.Errorf("Describe(%s) = %q, want %q", tt.action, got, tt.want)
		}
	}

	held, _ := statespace.Step(s, world.ActionPick)
	dropped, _ := statespace.Step(held, world.ActionDrop)
	if got := Describe(held, dropped, world.ActionDrop); got != "put the small white brick on the floor" {
		t.Errorf("Describe(drop) = %q", got)
	}
}

// Swaps the default logger, so it must not run in parallel.
func TestPlanner_AdvanceLogsRejectedTransition(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Get()
	logging.SetDefault(logging.New(logging.Config{Level: "warn", Format: "json", Output: &buf}))
	t.Cleanup(func() { logging.SetDefault(prev) })

	p := newTestPlanner(t)
	c := &call{id: "plan-1", goal: "holding(a)"}
	c.machine = p.lifecycle.Begin(c.id, c.goal)

	if p.advance(c, plan.StateRender, "skipping search") {
		t.Fatal("intake -> render should be rejected")
	}
	if got := c.machine.State(); got != plan.StateIntake {
		t.Errorf("state = %s, want intake", got)
	}
	out := buf.String()
	if !strings.Contains(out, "lifecycle transition rejected") || !strings.Contains(out, "plan-1") {
		t.Errorf("log output = %q", out)
	}

	buf.Reset()
	if !p.advance(c, plan.StateSearch, "goal validated") {
		t.Fatal("intake -> search should be allowed")
	}
	if buf.Len() != 0 {
		t.Errorf("accepted transition logged %q", buf.String())
	}
}
