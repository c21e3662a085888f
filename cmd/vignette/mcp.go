package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/aretw0/vignette"
	"github.com/aretw0/vignette/internal/cli"
	"github.com/aretw0/vignette/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [dir]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the engine as an MCP server so agents can queue activations, answer
presentations and read or write flags as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Logs go to stderr so they never corrupt JSON-RPC on stdout.
		log.SetOutput(os.Stderr)
		logger := newLogger(cmd, cfg)

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		transcript := mcp.NewTranscript(0)
		host, err := cli.NewHost(sigCtx, cfg, logger, vignette.WithPresenter(transcript))
		if err != nil {
			return err
		}
		defer host.Close()

		go cli.TickLoop(sigCtx, host.Engine, cfg.Engine.TickInterval)

		srv := mcp.NewServer(host.Engine, vignette.Version, mcp.WithTranscript(transcript), mcp.WithLogger(logger))
		switch transport {
		case "stdio":
			logger.Info("Starting vignette MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			if err := srv.ServeSSE(sigCtx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP server stopped gracefully")
			return nil
		}
		return fmt.Errorf("unknown transport %q (supported: stdio, sse)", transport)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
