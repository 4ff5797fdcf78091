package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/shrdlu/domain/plan"
)

const brickAndBoxProblem = `
world:
  arm: 0
  stacks: [[a], [b]]
  objects:
    a: {form: brick, size: small, color: white}
    b: {form: box, size: large, color: red}
goal: "inside(a, b)"
`

const oversizedBrickProblem = `
world:
  arm: 0
  stacks: [[a], [b]]
  objects:
    a: {form: brick, size: large, color: white}
    b: {form: box, size: small, color: red}
goal: "inside(a, b)"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := New().WithOutput(&out, &errOut)
	err = app.ExecuteWithArgs(context.Background(), args)
	return out.String(), errOut.String(), err
}

func TestApp_Version(t *testing.T) {
	stdout, _, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(stdout, "shrdlu version") {
		t.Errorf("version output missing 'shrdlu version', got: %s", stdout)
	}
}

func TestApp_Help(t *testing.T) {
	stdout, _, err := runCLI(t, "--help")
	if err != nil {
		t.Fatalf("help command failed: %v", err)
	}
	for _, want := range []string{"blocks world", "plan", "execute", "animate", "batch", "bench", "validate", "export-schema"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help output missing %q, got: %s", want, stdout)
		}
	}
}

func TestApp_Plan(t *testing.T) {
	problem := writeFile(t, t.TempDir(), "problem.yaml", brickAndBoxProblem)

	stdout, _, err := runCLI(t, "plan", "-p", problem)
	if err != nil {
		t.Fatalf("plan command failed: %v", err)
	}
	for _, want := range []string{
		"pick up the small white brick",
		"move right to column 1",
		"put the small white brick in the large red box",
		"actions prd",
		"cost 3",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("plan output missing %q, got: %s", want, stdout)
		}
	}
}

func TestApp_PlanJSON(t *testing.T) {
	problem := writeFile(t, t.TempDir(), "problem.yaml", brickAndBoxProblem)

	stdout, _, err := runCLI(t, "plan", "-p", problem, "--json")
	if err != nil {
		t.Fatalf("plan command failed: %v", err)
	}

	var out struct {
		Actions string       `json:"actions"`
		Cost    float64      `json:"cost"`
		Outcome plan.Outcome `json:"outcome"`
		Steps   []plan.Step  `json:"steps"`
	}
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if out.Actions != "prd" || out.Cost != 3 || out.Outcome != plan.OutcomePlanned || len(out.Steps) != 3 {
		t.Errorf("plan JSON = %+v", out)
	}
}

func TestApp_PlanGoalOverride(t *testing.T) {
	problem := writeFile(t, t.TempDir(), "problem.yaml", brickAndBoxProblem)

	stdout, _, err := runCLI(t, "plan", "-p", problem, "--goal", "ontop(a, floor)", "--json")
	if err != nil {
		t.Fatalf("plan command failed: %v", err)
	}
	if !strings.Contains(stdout, `"outcome": "already_true"`) {
		t.Errorf("expected already_true outcome, got: %s", stdout)
	}
}

func TestApp_PlanFailures(t *testing.T) {
	dir := t.TempDir()
	oversized := writeFile(t, dir, "oversized.yaml", oversizedBrickProblem)
	good := writeFile(t, dir, "problem.yaml", brickAndBoxProblem)

	t.Run("exhausted", func(t *testing.T) {
		_, stderr, err := runCLI(t, "plan", "-p", oversized)
		if plan.Classify(err) != plan.OutcomeExhausted {
			t.Fatalf("plan error = %v, want exhausted", err)
		}
		if !strings.Contains(stderr, "exhausted") {
			t.Errorf("stderr missing outcome, got: %s", stderr)
		}
	})

	t.Run("malformed goal as JSON", func(t *testing.T) {
		stdout, _, err := runCLI(t, "plan", "-p", good, "--goal", "ontop(a, zz)", "--json")
		if err == nil {
			t.Fatal("expected an error for an unknown object")
		}
		if !strings.Contains(stdout, `"error"`) {
			t.Errorf("expected a JSON error, got: %s", stdout)
		}
	})

	t.Run("physics pruning", func(t *testing.T) {
		config := writeFile(t, dir, "config.yaml", `
name: test
version: "1.0"
search:
  physics_pruning: true
`)
		_, _, err := runCLI(t, "plan", "-c", config, "-p", oversized)
		if plan.Classify(err) != plan.OutcomeMalformed {
			t.Errorf("plan error = %v, want malformed goal", err)
		}
	})

	t.Run("missing problem", func(t *testing.T) {
		if _, _, err := runCLI(t, "plan"); err == nil {
			t.Error("expected an error without -p")
		}
	})
}

func TestApp_PlanMetrics(t *testing.T) {
	problem := writeFile(t, t.TempDir(), "problem.yaml", brickAndBoxProblem)

	stdout, _, err := runCLI(t, "plan", "-p", problem, "--metrics")
	if err != nil {
		t.Fatalf("plan command failed: %v", err)
	}
	for _, want := range []string{"Metrics", "shrdlu.plans", "shrdlu.search.expanded"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("metrics output missing %q, got: %s", want, stdout)
		}
	}
}

func TestApp_Execute(t *testing.T) {
	problem := writeFile(t, t.TempDir(), "problem.yaml", brickAndBoxProblem)

	t.Run("goal reached", func(t *testing.T) {
		stdout, _, err := runCLI(t, "execute", "-p", problem, "--actions", "prd")
		if err != nil {
			t.Fatalf("execute command failed: %v", err)
		}
		if !strings.Contains(stdout, "3 actions applied") || !strings.Contains(stdout, "goal holds") {
			t.Errorf("unexpected output: %s", stdout)
		}
	})

	t.Run("illegal move", func(t *testing.T) {
		stdout, _, err := runCLI(t, "execute", "-p", problem, "--actions", "rd", "--json")
		if err == nil {
			t.Fatal("expected an error for an illegal move")
		}
		var out executionOutput
		if err := json.Unmarshal([]byte(stdout), &out); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, stdout)
		}
		if out.Applied != 1 || out.Error == "" || out.GoalMet != nil {
			t.Errorf("execution JSON = %+v", out)
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		if _, _, err := runCLI(t, "execute", "-p", problem, "--actions", "px"); err == nil {
			t.Error("expected an error for an unknown action")
		}
	})
}

func TestApp_AnimateStatic(t *testing.T) {
	problem := writeFile(t, t.TempDir(), "problem.yaml", brickAndBoxProblem)

	stdout, _, err := runCLI(t, "animate", "-p", problem, "--static")
	if err != nil {
		t.Fatalf("animate command failed: %v", err)
	}
	for _, want := range []string{"step 0/3", "step 3/3", "move-right", "done in 3 actions"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("animate output missing %q, got: %s", want, stdout)
		}
	}
}

func TestApp_Batch(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", brickAndBoxProblem)
	oversized := writeFile(t, dir, "oversized.yaml", oversizedBrickProblem)
	broken := writeFile(t, dir, "broken.yaml", "world: {stacks: []}\n")

	stdout, _, err := runCLI(t, "batch", good, oversized, broken)
	if err == nil || !strings.Contains(err.Error(), "2 of 3 problems failed") {
		t.Fatalf("batch error = %v, want 2 of 3 failed", err)
	}
	for _, want := range []string{"good.yaml", "prd", "oversized.yaml", "exhausted", "broken.yaml"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("batch output missing %q, got: %s", want, stdout)
		}
	}

	stdout, _, err = runCLI(t, "batch", good, "--json")
	if err != nil {
		t.Fatalf("batch command failed: %v", err)
	}
	var lines []batchLine
	if err := json.Unmarshal([]byte(stdout), &lines); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if len(lines) != 1 || lines[0].Actions != "prd" || lines[0].Attempts != 1 {
		t.Errorf("batch JSON = %+v", lines)
	}
}

func TestApp_Bench(t *testing.T) {
	stdout, _, err := runCLI(t, "bench", "--size", "6")
	if err != nil {
		t.Fatalf("bench command failed: %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "0 failed") {
		t.Errorf("bench output missing summary, got: %s", stdout)
	}

	if _, _, err := runCLI(t, "bench", "--heuristic", "euclid"); err == nil {
		t.Error("expected an error for an unknown heuristic")
	}
}

func TestApp_History(t *testing.T) {
	dir := t.TempDir()
	problem := writeFile(t, dir, "problem.yaml", brickAndBoxProblem)
	config := writeFile(t, dir, "config.yaml", `
name: test
version: "1.0"
history:
  backend: sqlite
  path: `+filepath.Join(dir, "history.db")+`
`)

	for _, goal := range []string{"inside(a, b)", "holding(a)"} {
		if _, _, err := runCLI(t, "plan", "-c", config, "-p", problem, "--goal", goal); err != nil {
			t.Fatalf("plan %q failed: %v", goal, err)
		}
	}

	stdout, _, err := runCLI(t, "history", "-c", config, "--summary")
	if err != nil {
		t.Fatalf("history command failed: %v", err)
	}
	if !strings.Contains(stdout, "Total:        2") || !strings.Contains(stdout, "Planned:      2") {
		t.Errorf("unexpected summary: %s", stdout)
	}

	stdout, _, err = runCLI(t, "history", "-c", config, "--goal", "holding", "--json")
	if err != nil {
		t.Fatalf("history command failed: %v", err)
	}
	var records []struct {
		Goal    string `json:"goal"`
		Actions string `json:"actions"`
	}
	if err := json.Unmarshal([]byte(stdout), &records); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if len(records) != 1 || records[0].Actions != "p" {
		t.Errorf("history records = %+v", records)
	}
}

func TestApp_HistoryNotConfigured(t *testing.T) {
	_, _, err := runCLI(t, "history")
	if !errors.Is(err, ErrNoHistory) {
		t.Errorf("history error = %v, want ErrNoHistory", err)
	}
}

func TestApp_Validate(t *testing.T) {
	dir := t.TempDir()
	config := writeFile(t, dir, "config.yaml", `
name: test-planner
version: "1.0"
search:
  heuristic: domain
  combiner: max
cache:
  backend: memory
`)
	problem := writeFile(t, dir, "problem.yaml", brickAndBoxProblem)

	stdout, _, err := runCLI(t, "validate", "-c", config, "-p", problem, "--build")
	if err != nil {
		t.Fatalf("validate command failed: %v", err)
	}
	for _, want := range []string{
		"Configuration is valid",
		"Name: test-planner",
		"Search: domain/max",
		"Cache: memory",
		"Problem is valid",
		"Name: problem",
		"Goal: inside(a, b)",
		"small white brick",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("validate output missing %q, got: %s", want, stdout)
		}
	}
}

func TestApp_ValidateInvalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
	}{
		{"no files", []string{"validate"}},
		{"bad heuristic", []string{"validate", "-c", writeFile(t, dir, "bad.yaml", "name: x\nversion: \"1\"\nsearch:\n  heuristic: euclid\n")}},
		{"unknown goal object", []string{"validate", "-p", writeFile(t, dir, "p.yaml", strings.Replace(brickAndBoxProblem, "inside(a, b)", "inside(a, zz)", 1))}},
		{"missing file", []string{"validate", "-p", filepath.Join(dir, "missing.yaml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := runCLI(t, tt.args...); err == nil {
				t.Error("expected validation to fail")
			}
		})
	}
}

func TestApp_ExportSchema(t *testing.T) {
	stdout, _, err := runCLI(t, "export-schema")
	if err != nil {
		t.Fatalf("export-schema command failed: %v", err)
	}
	if !strings.Contains(stdout, `"properties"`) || !strings.Contains(stdout, `"search"`) {
		t.Errorf("unexpected config schema: %s", stdout)
	}

	out := filepath.Join(t.TempDir(), "problem.schema.json")
	if _, _, err := runCLI(t, "export-schema", "--kind", "problem", "-o", out); err != nil {
		t.Fatalf("export-schema command failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("schema file not written: %v", err)
	}
	if !strings.Contains(string(data), `"world"`) {
		t.Errorf("unexpected problem schema: %s", data)
	}

	if _, _, err := runCLI(t, "export-schema", "--kind", "grid"); err == nil {
		t.Error("expected an error for an unknown schema kind")
	}
}
