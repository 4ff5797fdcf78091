package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/shrdlu/application"
	"github.com/felixgeelhaar/shrdlu/domain/plan"
	"github.com/felixgeelhaar/shrdlu/domain/world"
)

const defaultFrameInterval = 600 * time.Millisecond

type animateOptions struct {
	problemPath string
	goal        string
	interval    time.Duration
	static      bool
}

func (a *App) newAnimateCmd() *cobra.Command {
	opts := &animateOptions{}

	cmd := &cobra.Command{
		Use:   "animate",
		Short: "Plan a problem and step through the arm's moves",
		Long: `Plan a problem, then show the world after every action.

Keys: right/n/space next, left/b previous, a toggle autoplay, home/end
jump, q quit. With --static every frame is printed once instead.

Examples:
  shrdlu animate -p problem.yaml
  shrdlu animate -p problem.yaml --static`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAnimate(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.problemPath, "problem", "p", "", "Path to problem file")
	cmd.Flags().StringVar(&opts.goal, "goal", "", "Goal text overriding the problem file")
	cmd.Flags().DurationVar(&opts.interval, "interval", defaultFrameInterval, "Autoplay frame interval")
	cmd.Flags().BoolVar(&opts.static, "static", false, "Print every frame instead of starting the viewer")

	return cmd
}

func (a *App) runAnimate(ctx context.Context, opts *animateOptions) error {
	lp, err := loadProblem(opts.problemPath, opts.goal, true)
	if err != nil {
		return err
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	rt, err := a.newRuntime(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	p, err := rt.planner.Plan(ctx, application.Request{Start: lp.start, Goal: lp.formula})
	if err != nil {
		fmt.Fprintln(a.stderr, renderFailure(err))
		return err
	}
	ex := application.Execute(lp.start, p.Actions(), lp.formula)
	if ex.Err != nil {
		return fmt.Errorf("replay plan: %w", ex.Err)
	}

	m := newAnimateModel(p, ex.States, opts.interval)
	if opts.static {
		for i := range ex.States {
			m.index = i
			fmt.Fprintln(a.stdout, m.frame())
		}
		return nil
	}

	_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(a.stdout), tea.WithAltScreen()).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// tickMsg advances autoplay by one frame.
type tickMsg struct{}

// animateModel is a bubbletea model that steps through the states a plan
// passes through. Frame 0 is the start world; frame i is the world after
// step i.
type animateModel struct {
	plan     *plan.Plan
	states   []*world.State
	index    int
	playing  bool
	interval time.Duration
	width    int
	quitting bool
}

func newAnimateModel(p *plan.Plan, states []*world.State, interval time.Duration) animateModel {
	if interval <= 0 {
		interval = defaultFrameInterval
	}
	return animateModel{plan: p, states: states, interval: interval}
}

func (m animateModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m animateModel) last() int {
	return len(m.states) - 1
}

// Init implements tea.Model.
func (m animateModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m animateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		if !m.playing {
			return m, nil
		}
		if m.index >= m.last() {
			m.playing = false
			return m, nil
		}
		m.index++
		return m, m.tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "right", "n", " ", "l":
			m.playing = false
			m.index = min(m.index+1, m.last())
		case "left", "b", "h":
			m.playing = false
			m.index = max(m.index-1, 0)
		case "home", "g":
			m.playing = false
			m.index = 0
		case "end", "G":
			m.playing = false
			m.index = m.last()
		case "a":
			m.playing = !m.playing
			if m.playing {
				if m.index >= m.last() {
					m.index = 0
				}
				return m, m.tick()
			}
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m animateModel) View() string {
	if m.quitting {
		return ""
	}
	help := styles.Muted.Render("←/→ step  a autoplay  home/end jump  q quit")
	return m.frame() + "\n\n" + help + "\n"
}

// frame renders the current world and the step that produced it.
func (m animateModel) frame() string {
	var b strings.Builder
	status := fmt.Sprintf("step %d/%d", m.index, m.last())
	if m.playing {
		status += "  ▶"
	}
	b.WriteString(styles.Title.Render("Goal") + " " + m.plan.Goal + "  " + styles.Muted.Render(status) + "\n\n")

	switch {
	case m.plan.AlreadyTrue():
		b.WriteString(styles.Success.Render("The goal is already true.") + "\n")
	case m.index == 0:
		b.WriteString(styles.Muted.Render("start") + "\n")
	default:
		s := m.plan.Steps[m.index-1]
		line := styles.Current.Render(s.Action.Name())
		if s.Comment != "" {
			line += "  " + s.Comment
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + renderWorld(m.states[m.index]))
	if m.index == m.last() && !m.plan.AlreadyTrue() {
		b.WriteString("\n\n" + styles.Success.Render(fmt.Sprintf("✓ done in %g actions", m.plan.Cost)))
	}
	return b.String()
}
