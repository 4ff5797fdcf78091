package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	infraconfig "github.com/felixgeelhaar/shrdlu/infrastructure/config"
)

// exportSchemaOptions holds options for the export-schema command.
type exportSchemaOptions struct {
	kind       string
	outputPath string
}

// newExportSchemaCmd creates the export-schema command.
func (a *App) newExportSchemaCmd() *cobra.Command {
	opts := &exportSchemaOptions{}

	cmd := &cobra.Command{
		Use:   "export-schema",
		Short: "Export the configuration or problem JSON schema",
		Long: `Export the JSON Schema for planner configuration or problem files.

The exported schema can be used for IDE validation and autocompletion.

Examples:
  # Export the configuration schema to stdout
  shrdlu export-schema

  # Export the problem schema to a file
  shrdlu export-schema --kind problem -o problem.schema.json

  # Use with VS Code
  # Add to .vscode/settings.json:
  # "yaml.schemas": {
  #   "./problem.schema.json": ["problems/*.yaml"]
  # }`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.exportSchema(opts)
		},
	}

	cmd.Flags().StringVar(&opts.kind, "kind", infraconfig.SchemaConfig, "Schema to export (config or problem)")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Output file path (default: stdout)")

	return cmd
}

// exportSchema writes the selected JSON schema.
func (a *App) exportSchema(opts *exportSchemaOptions) error {
	schemaJSON, err := infraconfig.SchemaJSON(opts.kind)
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if opts.outputPath == "" {
		_, _ = fmt.Fprintln(a.stdout, schemaJSON)
		return nil
	}

	if err := os.WriteFile(opts.outputPath, []byte(schemaJSON), 0600); err != nil {
		return fmt.Errorf("failed to write schema file: %w", err)
	}

	_, _ = fmt.Fprintf(a.stdout, "Schema exported to %s\n", opts.outputPath)
	return nil
}
