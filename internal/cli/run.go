package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/vignette"
	"github.com/aretw0/vignette/internal/config"
	"github.com/aretw0/vignette/internal/presentation/tui"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Config   *config.Config
	Entities []string // entities entered with the scene; empty means all
	Headless bool
	Watch    bool
	Debug    bool
	Banner   bool
	Markdown bool
	Input    io.Reader
	Output   io.Writer
}

// Execute enters the scene, drives it until idle and, in watch mode, replays it after
// every content change.
func Execute(ctx context.Context, opts RunOptions, logger *slog.Logger) error {
	if opts.Watch && opts.Headless {
		return fmt.Errorf("--watch and --headless cannot be used together")
	}
	if opts.Banner {
		tui.PrintBanner(opts.Output, vignette.Version)
	}

	runner := vignette.NewRunner(opts.Input, opts.Output)
	runner.Headless = opts.Headless
	runner.MaxTicks = opts.Config.Engine.MaxTicks
	if opts.Markdown {
		runner.Renderer = tui.NewRenderer()
	}

	extra := []vignette.Option{vignette.WithPresenter(runner)}
	if opts.Debug {
		extra = append(extra, vignette.WithLifecycleHooks(DebugHooks(logger)))
	}
	host, err := NewHost(ctx, opts.Config, logger, extra...)
	if err != nil {
		return err
	}
	defer func() {
		if err := host.Close(); err != nil {
			logger.Warn("closing host failed", "err", err)
		}
	}()

	if !opts.Watch {
		return playScene(ctx, host.Engine, runner, opts, logger)
	}
	return watchScene(ctx, host.Engine, runner, opts, logger)
}

func playScene(ctx context.Context, engine *vignette.Engine, runner *vignette.Runner, opts RunOptions, logger *slog.Logger) error {
	n, err := engine.EnterScene(opts.Entities...)
	if err != nil {
		return err
	}
	logger.Info("Scene entered", "entities", n)
	if err := runner.Run(ctx, engine); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	if !opts.Headless {
		snap := engine.Snapshot()
		printSystemMessage(opts.Output, "Scene idle after %d activations.", snap.Completed)
	}
	return nil
}

func watchScene(ctx context.Context, engine *vignette.Engine, runner *vignette.Runner, opts RunOptions, logger *slog.Logger) error {
	changes, err := engine.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	for {
		if err := playScene(ctx, engine, runner, opts, logger); err != nil {
			return err
		}
		printSystemMessage(opts.Output, "Waiting for changes...")

		select {
		case <-ctx.Done():
			return nil
		case id, ok := <-changes:
			if !ok {
				return nil
			}
			// Give editors a moment to finish writing before reloading.
			time.Sleep(100 * time.Millisecond)
			printSystemMessage(opts.Output, "Change detected in '%s'.", id)
		}
	}
}
