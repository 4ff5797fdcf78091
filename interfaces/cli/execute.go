package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/shrdlu/application"
	"github.com/felixgeelhaar/shrdlu/domain/world"
)

type executeOptions struct {
	problemPath string
	actions     string
	json        bool
}

func (a *App) newExecuteCmd() *cobra.Command {
	opts := &executeOptions{}

	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Replay an action sequence against a problem's start world",
		Long: `Apply actions one by one to the start world, re-checking each move.

Execution stops at the first illegal action. When the problem has a goal,
the command also reports whether the final world satisfies it.

Examples:
  shrdlu execute -p problem.yaml --actions prd`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExecute(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.problemPath, "problem", "p", "", "Path to problem file")
	cmd.Flags().StringVarP(&opts.actions, "actions", "a", "", "Actions to apply, e.g. prld")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the result as JSON")

	return cmd
}

type executionOutput struct {
	Applied int    `json:"applied"`
	Final   string `json:"final"`
	GoalMet *bool  `json:"goal_met,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (a *App) runExecute(opts *executeOptions) error {
	lp, err := loadProblem(opts.problemPath, "", false)
	if err != nil {
		return err
	}
	actions, err := world.ParseActions(opts.actions)
	if err != nil {
		return err
	}

	ex := application.Execute(lp.start, actions, lp.formula)
	checked := len(lp.formula) > 0

	if opts.json {
		out := executionOutput{Applied: ex.Applied, Final: ex.Final().String()}
		if checked && ex.Err == nil {
			out.GoalMet = &ex.GoalMet
		}
		if ex.Err != nil {
			out.Error = ex.Err.Error()
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, string(data))
	} else {
		fmt.Fprintln(a.stdout, renderExecution(ex, checked))
	}
	return ex.Err
}
