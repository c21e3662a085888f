package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/vignette"
	"github.com/aretw0/vignette/internal/config"
	"github.com/aretw0/vignette/pkg/adapters/file"
	"github.com/aretw0/vignette/pkg/adapters/memory"
	"github.com/aretw0/vignette/pkg/adapters/redis"
	"github.com/aretw0/vignette/pkg/adapters/sqlite"
	"github.com/aretw0/vignette/pkg/domain"
	"github.com/aretw0/vignette/pkg/ports"
)

// Host bundles an engine with the resources the CLI must release on exit.
type Host struct {
	Engine *vignette.Engine
	Flags  domain.FlagStore
	// Scene is set when content came from a single scene file.
	Scene *file.Loader

	closers []func() error
}

// Close releases the flag store backend.
func (h *Host) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		errs = append(errs, h.closers[i]())
	}
	return errors.Join(errs...)
}

// NewHost builds the engine described by cfg. extra options are applied last so callers
// can attach presenters and hooks.
func NewHost(ctx context.Context, cfg *config.Config, logger *slog.Logger, extra ...vignette.Option) (*Host, error) {
	h := &Host{}

	flags, err := openFlagStore(ctx, cfg.Flags, logger)
	if err != nil {
		return nil, err
	}
	h.Flags = flags
	if c, ok := flags.(interface{ Close() error }); ok {
		h.closers = append(h.closers, c.Close)
	}

	opts := []vignette.Option{
		vignette.WithLogger(logger),
		vignette.WithFlagStore(flags),
		vignette.WithAutoDrain(cfg.Engine.AutoDrain),
	}

	contentPath := cfg.Content.Dir
	if cfg.Content.Scene != "" {
		scene, err := file.Load(cfg.Content.Scene)
		if err != nil {
			_ = h.Close()
			return nil, err
		}
		seedFlags(flags, scene.Scene.Flags, logger)
		h.Scene = scene
		opts = append(opts, vignette.WithLoader(scene))
		contentPath = cfg.Content.Scene
	}

	engine, err := vignette.New(contentPath, append(opts, extra...)...)
	if err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	h.Engine = engine
	return h, nil
}

func openFlagStore(ctx context.Context, cfg config.FlagsConfig, logger *slog.Logger) (domain.FlagStore, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithLogger(logger),
		)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		return store, nil
	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.SQLite.Path, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendMemory, "":
		return memory.NewFlagStore(logger), nil
	}
	return nil, fmt.Errorf("unknown flag backend %q", cfg.Backend)
}

// seedFlags applies a scene's starting flags without overwriting values a durable
// store already holds.
func seedFlags(store domain.FlagStore, initial map[string]bool, logger *slog.Logger) {
	existing := map[string]bool{}
	if lister, ok := store.(ports.FlagLister); ok {
		if all, err := lister.ListFlags(); err == nil {
			existing = all
		} else {
			logger.Warn("could not list flags before seeding", "err", err)
		}
	}
	for name, value := range initial {
		if _, ok := existing[name]; ok {
			continue
		}
		store.SetFlagState(name, value)
	}
}
