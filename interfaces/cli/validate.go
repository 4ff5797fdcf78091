package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	infraconfig "github.com/felixgeelhaar/shrdlu/infrastructure/config"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	problemPath string
	strict      bool
	build       bool
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration or problem file",
		Long: `Validate a planner configuration file, a problem file, or both.

This command checks:
  - File format (YAML or JSON)
  - Search, cache, history and telemetry settings
  - World consistency (objects, stacks, arm position)
  - Goal syntax and object references
  - Environment variable references (in strict mode)

Examples:
  # Validate a configuration file
  shrdlu validate -c config.yaml

  # Validate a problem file
  shrdlu validate -p problem.yaml

  # Also open the configured storage backends
  shrdlu validate -c config.yaml --build`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validate(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.problemPath, "problem", "p", "", "Path to problem file")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Enable strict validation (fail on missing env vars)")
	cmd.Flags().BoolVar(&opts.build, "build", false, "Open the configured backends to check they are reachable")

	return cmd
}

func (a *App) validate(opts *validateOptions) error {
	if a.configPath == "" && opts.problemPath == "" {
		return errors.New("a configuration (-c) or problem (-p) file is required")
	}
	if a.configPath != "" {
		if err := a.validateConfig(opts); err != nil {
			return err
		}
	}
	if opts.problemPath != "" {
		return a.validateProblem(opts)
	}
	return nil
}

// validateConfig validates the configuration file.
func (a *App) validateConfig(opts *validateOptions) error {
	loader := infraconfig.NewLoader(infraconfig.WithStrictEnv(opts.strict))
	config, err := loader.LoadConfigFile(a.configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if opts.build {
		res, err := infraconfig.NewBuilder(config).Build()
		if err != nil {
			return fmt.Errorf("configuration build failed: %w", err)
		}
		_ = res.Close()
	}

	fmt.Fprintf(a.stdout, "✓ Configuration is valid\n")
	if config.Name != "" {
		fmt.Fprintf(a.stdout, "  Name: %s\n", config.Name)
	}
	if config.Version != "" {
		fmt.Fprintf(a.stdout, "  Version: %s\n", config.Version)
	}
	if config.Description != "" {
		fmt.Fprintf(a.stdout, "  Description: %s\n", config.Description)
	}

	fmt.Fprintf(a.stdout, "\nConfiguration summary:\n")
	fmt.Fprintf(a.stdout, "  Search: %s (timeout %s)\n", config.Search.Mode(), config.Search.Timeout.Duration())
	if config.Cache.Backend != "" {
		fmt.Fprintf(a.stdout, "  Cache: %s\n", config.Cache.Backend)
	}
	if config.History.Backend != "" {
		fmt.Fprintf(a.stdout, "  History: %s\n", config.History.Backend)
	}
	if config.Telemetry.Tracing != "" {
		fmt.Fprintf(a.stdout, "  Tracing: %s\n", config.Telemetry.Tracing)
	}
	if config.Batch.MaxConcurrent > 0 {
		fmt.Fprintf(a.stdout, "  Batch: %d concurrent, %d attempts\n", config.Batch.MaxConcurrent, config.Batch.Attempts)
	}
	return nil
}

func (a *App) validateProblem(opts *validateOptions) error {
	lp, err := loadProblem(opts.problemPath, "", true)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	_, pruned, err := lp.formula.Validate(lp.start.Objects())
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(a.stdout, "✓ Problem is valid\n")
	if lp.problem.Name != "" {
		fmt.Fprintf(a.stdout, "  Name: %s\n", lp.problem.Name)
	}
	fmt.Fprintf(a.stdout, "  Goal: %s\n", lp.formula)
	for _, p := range pruned {
		fmt.Fprintf(a.stdout, "  %s dropped: %s (%s)\n", styles.Warning.Render("⚠"), p.Conjunction, p.Reason)
	}
	fmt.Fprintf(a.stdout, "  Columns: %d, objects: %d\n\n", lp.start.Columns(), len(lp.start.IDs()))
	fmt.Fprintln(a.stdout, renderWorld(lp.start))
	fmt.Fprintln(a.stdout, renderLegend(lp.start))
	return nil
}
