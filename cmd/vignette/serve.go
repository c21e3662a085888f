package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/vignette"
	"github.com/aretw0/vignette/internal/cli"
	"github.com/aretw0/vignette/internal/telemetry"
	httpAdapter "github.com/aretw0/vignette/pkg/adapters/http"
	"github.com/aretw0/vignette/pkg/domain"
	"github.com/aretw0/vignette/pkg/observability"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Run the engine behind an HTTP API",
	Long: `Starts the engine with a background tick loop and exposes activations, signals,
flags and content over HTTP. Presentations and activation results stream on
GET /events?topic=engine; Prometheus metrics are served on the metrics path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); cmd.Flags().Changed("addr") {
			cfg.Server.Addr = addr
		}
		logger := newLogger(cmd, cfg)

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		tracer, shutdownTracing, err := telemetry.Setup(sigCtx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				logger.Warn("tracing shutdown failed", "err", err)
			}
		}()

		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(registry)
		streams := httpAdapter.NewStreamManager()

		hooks := []domain.LifecycleHooks{
			metrics.Hooks(),
			observability.NewTracer(tracer).Hooks(),
			streams.Hooks(),
		}
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			hooks = append(hooks, cli.DebugHooks(logger))
		}

		host, err := cli.NewHost(sigCtx, cfg, logger,
			vignette.WithPresenter(streams),
			vignette.WithLifecycleHooks(observability.Combine(hooks...)),
		)
		if err != nil {
			return err
		}
		defer host.Close()

		router := chi.NewRouter()
		router.Handle(cfg.Server.MetricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		router.Mount("/", httpAdapter.NewHandler(host.Engine,
			httpAdapter.WithStreams(streams),
			httpAdapter.WithVersion(vignette.Version),
			httpAdapter.WithLogger(logger),
		))

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go cli.TickLoop(sigCtx, host.Engine, cfg.Engine.TickInterval)

		if enter, _ := cmd.Flags().GetBool("enter-scene"); enter {
			if _, err := host.Engine.EnterScene(); err != nil {
				return err
			}
			host.Engine.Drain(sigCtx)
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting vignette server", "addr", srv.Addr, "metrics", cfg.Server.MetricsPath)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-sigCtx.Done():
			logger.Info("Shutting down", "signal", sigCtx.Signal())
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().Bool("enter-scene", false, "Enter the scene on startup")
}
