// Package cli provides the shrdlu command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/shrdlu"
	"github.com/felixgeelhaar/shrdlu/infrastructure/logging"
)

// Version information set at build time.
var (
	Version   = shrdlu.Version
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App represents the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	logFormat  string
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "shrdlu",
		Short: "Blocks-world goal planner",
		Long: `shrdlu plans robot-arm action sequences in a blocks world.

Given a start world and a goal formula in disjunctive normal form, it
searches for the cheapest sequence of arm moves (l, r, p, d) that makes
the goal true and explains each step in plain English.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.initLogging()
		},
	}

	flags := app.root.PersistentFlags()
	flags.StringVarP(&app.configPath, "config", "c", "", "Planner configuration file (YAML or JSON)")
	flags.StringVar(&app.logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&app.logFormat, "log-format", "console", "Log format (console or json)")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newPlanCmd(),
		app.newExecuteCmd(),
		app.newAnimateCmd(),
		app.newBatchCmd(),
		app.newBenchCmd(),
		app.newHistoryCmd(),
		app.newValidateCmd(),
		app.newExportSchemaCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

func (a *App) initLogging() {
	logging.Init(logging.Config{
		Level:  a.logLevel,
		Format: a.logFormat,
		Output: a.stderr,
	})
}

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "shrdlu version %s\n", Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}
