package main

import (
	"fmt"

	"github.com/aretw0/vignette/internal/cli"
	"github.com/aretw0/vignette/internal/validator"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check authored content for consistency",
	Long: `Loads every entity and reports unknown triggers, step kinds and condition kinds,
missing start steps, dangling successors and unreachable steps.`,
	Args: cobra.MaximumNArgs(1),
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
			return fmt.Errorf("load content: %w", err)
		}
		report := validator.Validate(specs, nil)
		report.Render(cmd.OutOrStdout())
		return report.Err()
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
