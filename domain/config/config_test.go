package config

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/shrdlu/domain/goal"
	"github.com/felixgeelhaar/shrdlu/domain/world"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if errs := NewValidator().Validate(&cfg); errs.HasErrors() {
		t.Fatalf("DefaultConfig() invalid: %v", errs)
	}
	if cfg.Search.Mode() != "domain/sum" {
		t.Errorf("Mode() = %s, want domain/sum", cfg.Search.Mode())
	}
}

func TestSearchConfig_Mode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cfg  SearchConfig
		want string
	}{
		{SearchConfig{}, "domain/sum"},
		{SearchConfig{Heuristic: HeuristicZero}, "zero/sum"},
		{SearchConfig{Combiner: CombinerMax, PhysicsPruning: true}, "domain/max/physics"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := tt.cfg.Mode(); got != tt.want {
				t.Errorf("Mode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*PlannerConfig)
		path   string
	}{
		{"missing name", func(c *PlannerConfig) { c.Name = "" }, "name"},
		{"negative timeout", func(c *PlannerConfig) { c.Search.Timeout = Duration(-time.Second) }, "search.timeout"},
		{"bad heuristic", func(c *PlannerConfig) { c.Search.Heuristic = "greedy" }, "search.heuristic"},
		{"bad combiner", func(c *PlannerConfig) { c.Search.Combiner = "avg" }, "search.combiner"},
		{"badger without dir", func(c *PlannerConfig) { c.Cache.Backend = BackendBadger }, "cache.dir"},
		{"redis without address", func(c *PlannerConfig) { c.Cache.Backend = BackendRedis }, "cache.address"},
		{"sqlite cache without path", func(c *PlannerConfig) { c.Cache.Backend = BackendSQLite }, "cache.path"},
		{"sqlite history without path", func(c *PlannerConfig) { c.History.Backend = BackendSQLite }, "history.path"},
		{"bad log level", func(c *PlannerConfig) { c.Logging.Level = "loud" }, "logging.level"},
		{"otlp without endpoint", func(c *PlannerConfig) { c.Telemetry.Tracing = TracingOTLP }, "telemetry.endpoint"},
		{"shrinking timeout", func(c *PlannerConfig) { c.Batch.TimeoutGrowth = 0.5 }, "batch.timeout_growth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			errs := NewValidator().Validate(&cfg)
			if len(errs) != 1 || errs[0].Path != tt.path {
				t.Errorf("Validate() = %v, want one error at %s", errs, tt.path)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Parallel()

	errs := ValidationErrors{{Path: "a", Message: "x"}, {Message: "y"}}
	if got := errs.Error(); !strings.HasPrefix(got, "2 validation errors") || !strings.Contains(got, "a: x") {
		t.Errorf("Error() = %q", got)
	}
	if got := errs[:1].Error(); got != "a: x" {
		t.Errorf("Error() = %q", got)
	}
}

func TestDuration(t *testing.T) {
	t.Parallel()

	var holder struct {
		D Duration `json:"d" yaml:"d"`
	}
	if err := yaml.Unmarshal([]byte("d: 1m30s\n"), &holder); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if holder.D.Duration() != 90*time.Second {
		t.Errorf("yaml duration = %v", holder.D.Duration())
	}
	if err := json.Unmarshal([]byte(`{"d":"250ms"}`), &holder); err != nil {
		t.Fatalf("json: %v", err)
	}
	if holder.D.Duration() != 250*time.Millisecond {
		t.Errorf("json duration = %v", holder.D.Duration())
	}
	if err := json.Unmarshal([]byte(`{"d":1000}`), &holder); err != nil || holder.D.Duration() != time.Microsecond {
		t.Errorf("json nanoseconds = %v, %v", holder.D.Duration(), err)
	}
	if err := json.Unmarshal([]byte(`{"d":"soon"}`), &holder); err == nil {
		t.Error("expected error for bad duration")
	}
	out, _ := json.Marshal(Duration(2 * time.Second))
	if string(out) != `"2s"` {
		t.Errorf("MarshalJSON() = %s", out)
	}
}

func sampleProblem() Problem {
	return Problem{
		World: WorldSpec{
			Stacks: [][]string{{"a"}, {"b"}},
			Objects: world.Objects{
				"a": {Form: world.FormBrick, Size: world.SizeSmall, Color: "white"},
				"b": {Form: world.FormBox, Size: world.SizeLarge, Color: "red"},
			},
		},
		Goal: "inside(a, b)",
	}
}

func TestProblem(t *testing.T) {
	t.Parallel()

	t.Run("text goal", func(t *testing.T) {
		t.Parallel()
		p := sampleProblem()
		s, err := p.State()
		if err != nil {
			t.Fatalf("State() error = %v", err)
		}
		if s.Columns() != 2 {
			t.Errorf("Columns() = %d", s.Columns())
		}
		f, err := p.Formula()
		if err != nil || f.String() != "inside(a, b)" {
			t.Errorf("Formula() = %v, %v", f, err)
		}
	})

	t.Run("dnf goal", func(t *testing.T) {
		t.Parallel()
		p := sampleProblem()
		p.Goal = ""
		p.DNF = [][]LiteralSpec{
			{{Relation: "Inside", Args: []string{"a", "b"}}, {Relation: "holding", Args: []string{"b"}, Negated: true}},
			{{Relation: "holding", Args: []string{"a"}}},
		}
		f, err := p.Formula()
		if err != nil {
			t.Fatalf("Formula() error = %v", err)
		}
		if got := f.String(); got != "inside(a, b) and not holding(b) or holding(a)" {
			t.Errorf("Formula() = %s", got)
		}
	})

	t.Run("bad dnf", func(t *testing.T) {
		t.Parallel()
		p := sampleProblem()
		p.Goal = ""
		p.DNF = [][]LiteralSpec{{{Relation: "near", Args: []string{"a", "b"}}}}
		if _, err := p.Formula(); !errors.Is(err, goal.ErrMalformedGoal) {
			t.Errorf("Formula() error = %v", err)
		}
		p.DNF = [][]LiteralSpec{{{Relation: "holding", Args: []string{"a", "b"}}}}
		if _, err := p.Formula(); !errors.Is(err, goal.ErrMalformedGoal) {
			t.Errorf("Formula() arity error = %v", err)
		}
	})

	t.Run("no goal or both", func(t *testing.T) {
		t.Parallel()
		p := sampleProblem()
		p.DNF = [][]LiteralSpec{{{Relation: "holding", Args: []string{"a"}}}}
		if _, err := p.Formula(); !errors.Is(err, goal.ErrMalformedGoal) {
			t.Errorf("both: %v", err)
		}
		p.Goal, p.DNF = "", nil
		if _, err := p.Formula(); !errors.Is(err, goal.ErrMalformedGoal) {
			t.Errorf("none: %v", err)
		}
	})
}

func TestValidateProblem(t *testing.T) {
	t.Parallel()

	p := sampleProblem()
	if errs := NewValidator().ValidateProblem(&p); errs.HasErrors() {
		t.Fatalf("ValidateProblem() = %v", errs)
	}

	bad := sampleProblem()
	bad.World.Stacks = [][]string{{"a", "a"}, {"b"}}
	bad.Goal = "inside(a"
	errs := NewValidator().ValidateProblem(&bad)
	if len(errs) != 2 || errs[0].Path != "world" || errs[1].Path != "goal" {
		t.Errorf("ValidateProblem() = %v", errs)
	}

	empty := Problem{Goal: "holding(a)"}
	if errs := NewValidator().ValidateProblem(&empty); len(errs) != 1 || errs[0].Path != "world.stacks" {
		t.Errorf("ValidateProblem(empty) = %v", errs)
	}
}
