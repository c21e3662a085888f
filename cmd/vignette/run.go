package main

import (
	"os"

	"github.com/aretw0/vignette/internal/cli"
	"github.com/aretw0/vignette/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Enter the scene and play it in the terminal",
	Long: `Enters the scene (an automatic activation for every entity, or only those
named with --entity) and plays it until nothing is running or queued.
Messages wait for Enter; menus take an option number or label.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		logger := newLogger(cmd, cfg)

		headless, _ := cmd.Flags().GetBool("headless")
		watch, _ := cmd.Flags().GetBool("watch")
		entities, _ := cmd.Flags().GetStringSlice("entity")
		debug, _ := cmd.Flags().GetBool("debug")
		interactive := !headless && tui.IsTerminal(os.Stdout)

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		return cli.Execute(sigCtx, cli.RunOptions{
			Config:   cfg,
			Entities: entities,
			Headless: headless,
			Watch:    watch,
			Debug:    debug,
			Banner:   interactive,
			Markdown: interactive,
			Input:    os.Stdin,
			Output:   os.Stdout,
		}, logger)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("headless", false, "Acknowledge messages and pick the first menu option automatically")
	runCmd.Flags().BoolP("watch", "w", false, "Replay the scene whenever content changes")
	runCmd.Flags().StringSlice("entity", nil, "Entities to enter the scene with (default all)")
}
