package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/shrdlu/application"
	"github.com/felixgeelhaar/shrdlu/domain/plan"
	"github.com/felixgeelhaar/shrdlu/domain/world"
)

var (
	colorAccent  = lipgloss.Color("#5FAFD7")
	colorSuccess = lipgloss.Color("#5FD787")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#6C7A89")
)

// objectColors maps world object colors to terminal colors.
var objectColors = map[string]lipgloss.Color{
	"red":    lipgloss.Color("#E74C3C"),
	"green":  lipgloss.Color("#2ECC71"),
	"blue":   lipgloss.Color("#3498DB"),
	"yellow": lipgloss.Color("#F1C40F"),
	"white":  lipgloss.Color("#ECF0F1"),
	"black":  lipgloss.Color("#7F8C8D"),
}

var styles = struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Action  lipgloss.Style
	Box     lipgloss.Style
	Current lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	Bold:    lipgloss.NewStyle().Bold(true),
	Success: lipgloss.NewStyle().Foreground(colorSuccess),
	Warning: lipgloss.NewStyle().Foreground(colorWarning),
	Error:   lipgloss.NewStyle().Foreground(colorError),
	Action:  lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorMuted).
		Padding(0, 1),
	Current: lipgloss.NewStyle().Bold(true).Foreground(colorSuccess),
}

// renderWorld draws the columns bottom-up with the arm above them.
func renderWorld(s *world.State) string {
	width := 3
	for _, id := range s.IDs() {
		width = max(width, len(id)+2)
	}
	height := 0
	for c := 0; c < s.Columns(); c++ {
		height = max(height, len(s.Stack(c)))
	}

	cell := func(text string, style *lipgloss.Style) string {
		pad := width - len(text)
		left := pad / 2
		out := text
		if style != nil {
			out = style.Render(text)
		}
		return strings.Repeat(" ", left) + out + strings.Repeat(" ", pad-left)
	}

	var b strings.Builder
	for c := 0; c < s.Columns(); c++ {
		switch {
		case c != s.Arm():
			b.WriteString(cell("", nil))
		case s.Holding() != "":
			st := objectStyle(s, s.Holding())
			b.WriteString(cell("["+s.Holding()+"]", &st))
		default:
			b.WriteString(cell("V", &styles.Muted))
		}
	}
	b.WriteString("\n")

	for row := height - 1; row >= 0; row-- {
		for c := 0; c < s.Columns(); c++ {
			stack := s.Stack(c)
			if row >= len(stack) {
				b.WriteString(cell("", nil))
				continue
			}
			st := objectStyle(s, stack[row])
			b.WriteString(cell(stack[row], &st))
		}
		b.WriteString("\n")
	}

	for c := 0; c < s.Columns(); c++ {
		b.WriteString(" " + strings.Repeat("-", width-2) + " ")
	}
	b.WriteString("\n")
	for c := 0; c < s.Columns(); c++ {
		b.WriteString(cell(fmt.Sprint(c), &styles.Muted))
	}
	return strings.TrimRight(b.String(), " ")
}

func objectStyle(s *world.State, id string) lipgloss.Style {
	obj, _ := s.Object(id)
	if c, ok := objectColors[obj.Color]; ok {
		return lipgloss.NewStyle().Bold(true).Foreground(c)
	}
	return styles.Bold
}

// renderLegend lists every object with its description.
func renderLegend(s *world.State) string {
	ids := s.IDs()
	sort.Strings(ids)
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		obj, _ := s.Object(id)
		lines = append(lines, fmt.Sprintf("%s  %s", objectStyle(s, id).Render(id), obj.Describe()))
	}
	return strings.Join(lines, "\n")
}

// renderPlan draws the numbered steps and a one-line footer.
func renderPlan(p *plan.Plan) string {
	var b strings.Builder
	b.WriteString(styles.Title.Render("Plan") + " " + styles.Muted.Render(p.Goal) + "\n")

	if p.AlreadyTrue() {
		b.WriteString(styles.Success.Render("The goal is already true.") + "\n")
	} else {
		lines := make([]string, len(p.Steps))
		for i, s := range p.Steps {
			line := fmt.Sprintf("%2d. %s", i+1, styles.Action.Render(string(s.Action)))
			if s.Comment != "" {
				line += "  " + s.Comment
			}
			lines[i] = line
		}
		b.WriteString(styles.Box.Render(strings.Join(lines, "\n")) + "\n")
	}

	footer := fmt.Sprintf("actions %s  cost %g  expanded %d  heuristic %s  took %s",
		p.Summary(), p.Cost, p.Stats.Expanded, p.Heuristic, p.Duration.Round(time.Microsecond))
	if p.Cached {
		footer += "  (cached)"
	}
	b.WriteString(styles.Muted.Render(footer))
	return b.String()
}

// renderFailure explains why planning failed.
func renderFailure(err error) string {
	outcome := plan.Classify(err)
	return styles.Error.Render(fmt.Sprintf("✗ %s", outcome)) + " " + err.Error()
}

// renderExecution reports a replayed action sequence. The goal line is
// printed only when a goal was checked.
func renderExecution(e application.Execution, checked bool) string {
	var b strings.Builder
	b.WriteString(renderWorld(e.Final()) + "\n")
	switch {
	case e.IsIllegal():
		b.WriteString(styles.Error.Render(fmt.Sprintf("✗ action %d is illegal: %v", e.Applied+1, e.Err)))
	case e.Err != nil:
		b.WriteString(styles.Error.Render("✗ " + e.Err.Error()))
	default:
		b.WriteString(styles.Success.Render(fmt.Sprintf("✓ %d actions applied", e.Applied)))
	}
	if e.Err == nil && checked {
		if e.GoalMet {
			b.WriteString("\n" + styles.Success.Render("✓ goal holds"))
		} else {
			b.WriteString("\n" + styles.Warning.Render("⚠ goal does not hold"))
		}
	}
	return b.String()
}
