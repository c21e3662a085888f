package main

import (
	"fmt"

	"github.com/aretw0/vignette/internal/cli"
	"github.com/aretw0/vignette/internal/presentation/graph"
	"github.com/aretw0/vignette/pkg/domain"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [dir]",
	Short: "Export entity scripts as a Mermaid diagram",
	Long:  `Inspects the content and outputs a Mermaid flowchart (graph TD) of every entity's pages and steps.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		host, err := cli.NewHost(cmd.Context(), cfg, newLogger(cmd, cfg))
		if err != nil {
			return err
		}
		defer host.Close()

		specs, err := host.Engine.Inspect()
		if err != nil {
			return fmt.Errorf("inspect: %w", err)
		}
		if only, _ := cmd.Flags().GetString("entity"); only != "" {
			specs = filterSpecs(specs, only)
			if len(specs) == 0 {
				return fmt.Errorf("entity %q not found", only)
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(specs, nil))
		return nil
	},
}

func filterSpecs(specs []domain.DefinitionSpec, id string) []domain.DefinitionSpec {
	for _, s := range specs {
		if s.ID == id {
			return []domain.DefinitionSpec{s}
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("entity", "", "Only draw this entity")
}
