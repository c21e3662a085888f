package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/vignette/internal/cli"
	"github.com/aretw0/vignette/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vignette",
	Short: "Vignette runs scripted scene events",
	Long: `Vignette executes authored entity scripts: activation requests are queued,
each entity's active page is resolved from its conditions, and the page's step
chain runs one activation at a time.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default ./vignette.yaml)")
	pf.String("dir", ".", "Directory containing entity documents")
	pf.String("scene", "", "Single YAML scene file (overrides --dir)")
	pf.String("flags-backend", "memory", "Flag store backend: memory, redis or sqlite")
	pf.String("log-level", "info", "Log level: debug, info, warn or error")
	pf.Bool("debug", false, "Log engine lifecycle events")
}

// loadConfig resolves configuration: flags set on the command line win over
// VIGNETTE_ environment variables, which win over the config file.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	v, err := config.New(path)
	if err != nil {
		return nil, err
	}
	for key, flag := range map[string]string{
		"content.dir":   "dir",
		"content.scene": "scene",
		"flags.backend": "flags-backend",
		"log.level":     "log-level",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			v.Set(key, f.Value.String())
		}
	}
	// A positional argument names the content directory, as in "vignette run ./town".
	if len(args) > 0 && !cmd.Flags().Changed("dir") {
		v.Set("content.dir", args[0])
	}
	return config.Decode(v)
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.NewLogger(cfg.Log.Level, cfg.Log.Format, debug)
}
