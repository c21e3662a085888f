package vignette

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/aretw0/loam"
	"github.com/aretw0/vignette/internal/compiler"
	"github.com/aretw0/vignette/internal/runtime"
	loamAdapter "github.com/aretw0/vignette/pkg/adapters/loam"
	"github.com/aretw0/vignette/pkg/adapters/memory"
	"github.com/aretw0/vignette/pkg/domain"
	"github.com/aretw0/vignette/pkg/ports"
	"github.com/aretw0/vignette/pkg/registry"
)

// Snapshot is a point-in-time view of the engine.
type Snapshot = runtime.Snapshot

var (
	// ErrNoActivation is returned when an operation needs an in-flight activation.
	ErrNoActivation = runtime.ErrNoActivation
	// ErrNotAwaitingExternal is returned by CompleteStep when the current step is not waiting on the host.
	ErrNotAwaitingExternal = runtime.ErrNotAwaitingExternal
	// ErrTickBudget is returned by RunUntilIdle when the engine is still busy after the allowed ticks.
	ErrTickBudget = errors.New("engine still busy after tick budget")
)

// Engine is the high-level entry point for the Vignette library.
// It wires the content loader, flag store and host collaborators into the runtime
// dispatcher and exposes the activation API.
type Engine struct {
	loader    ports.DefinitionLoader
	flags     domain.FlagStore
	registry  *registry.Registry
	presenter domain.Presenter
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	autoDrain bool

	catalog    *runtime.Catalog
	dispatcher *runtime.Dispatcher
	Name       string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a custom DefinitionLoader, bypassing the default Loam initialization.
func WithLoader(l ports.DefinitionLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithFlagStore sets the flag collaborator (default: in-memory).
func WithFlagStore(flags domain.FlagStore) Option {
	return func(e *Engine) {
		e.flags = flags
	}
}

// WithPresenter attaches the host UI. Without one, messages and menus are skipped.
func WithPresenter(p domain.Presenter) Option {
	return func(e *Engine) {
		e.presenter = p
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithRegistry replaces the step and condition registry.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithAutoDrain makes Enqueue start draining immediately on an idle engine.
func WithAutoDrain(enabled bool) Option {
	return func(e *Engine) {
		e.autoDrain = enabled
	}
}

// New initializes a new Vignette Engine.
// By default, it reads entity documents from a Loam repository at contentPath.
// If WithLoader is provided, contentPath may be empty and Loam is skipped.
func New(contentPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		if contentPath == "" {
			return nil, fmt.Errorf("contentPath is required when no custom loader is provided")
		}
		absPath, err := filepath.Abs(contentPath)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(absPath)

		// The engine never writes content, so Loam runs read-only and strict
		// (consistent numeric types across JSON and frontmatter).
		repo, err := loam.Init(absPath,
			loam.WithStrict(true),
			loam.WithReadOnly(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize loam: %w", err)
		}
		eng.loader = loamAdapter.New(loam.NewTypedRepository[loamAdapter.EntityMetadata](repo))
	} else if contentPath != "" {
		eng.Name = filepath.Base(contentPath)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.DiscardHandler)
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("content", eng.Name)
	}
	if eng.flags == nil {
		eng.flags = memory.NewFlagStore(eng.logger)
	}
	if eng.registry == nil {
		eng.registry = registry.NewDefault()
	}

	eng.catalog = runtime.NewCatalog(eng.loader, compiler.New(eng.registry, eng.flags, eng.logger), eng.logger)
	eng.dispatcher = runtime.NewDispatcher(eng.catalog,
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithFlagStore(eng.flags),
		runtime.WithPresenter(eng.presenter),
		runtime.WithAutoDrain(eng.autoDrain),
	)
	return eng, nil
}

// Enqueue submits an activation request. It never blocks and never fails.
func (e *Engine) Enqueue(req *domain.ActivationRequest) {
	e.dispatcher.Enqueue(req)
}

// Submit enqueues an activation for entityID and returns its request ID.
// done, which may be nil, is called exactly once when the activation finishes.
func (e *Engine) Submit(entityID string, trigger domain.Trigger, done func()) string {
	var completion domain.Completion
	if done != nil {
		completion = domain.CompletionFunc(done)
	}
	req := domain.NewActivation(entityID, trigger, completion)
	e.dispatcher.Enqueue(req)
	return req.ID
}

// EnterScene enqueues an automatic activation for each entity, in the given order.
// With no IDs, every entity the loader knows is scheduled in sorted order.
func (e *Engine) EnterScene(entityIDs ...string) (int, error) {
	if len(entityIDs) == 0 {
		ids, err := e.catalog.Entities()
		if err != nil {
			return 0, fmt.Errorf("list entities: %w", err)
		}
		sort.Strings(ids)
		entityIDs = ids
	}
	for _, id := range entityIDs {
		e.dispatcher.Enqueue(domain.NewActivation(id, domain.TriggerAutomatic, nil))
	}
	return len(entityIDs), nil
}

// Drain starts queued activations until one suspends or the queue empties.
func (e *Engine) Drain(ctx context.Context) {
	e.dispatcher.Drain(ctx)
}

// Tick advances the engine by one scheduling tick. Hosts call it once per frame.
func (e *Engine) Tick(ctx context.Context) {
	e.dispatcher.Tick(ctx)
}

// RunUntilIdle ticks until nothing is in flight or queued, or maxTicks is reached.
func (e *Engine) RunUntilIdle(ctx context.Context, maxTicks int) error {
	e.dispatcher.Drain(ctx)
	for i := 0; !e.dispatcher.Idle(); i++ {
		if i >= maxTicks {
			return fmt.Errorf("%w (%d ticks)", ErrTickBudget, maxTicks)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		e.dispatcher.Tick(ctx)
	}
	return nil
}

// Acknowledge delivers a host acknowledgment to the running activation.
func (e *Engine) Acknowledge(signal string, value any) error {
	return e.dispatcher.Acknowledge(signal, value)
}

// CompleteStep finishes a step waiting on the host and continues at next.
func (e *Engine) CompleteStep(ctx context.Context, next string) error {
	return e.dispatcher.CompleteStep(ctx, next)
}

// Resolve reports the page that would answer trigger for entityID right now.
// A nil page means the activation would be a no-op.
func (e *Engine) Resolve(entityID string, trigger domain.Trigger) (*domain.Page, error) {
	return e.dispatcher.Resolve(entityID, trigger)
}

// ResolveIdle reports the page describing entityID's resting state.
func (e *Engine) ResolveIdle(entityID string) (*domain.Page, error) {
	return e.dispatcher.ResolveIdle(entityID)
}

// Inspect returns the authored content of every entity for visualization or introspection tools.
func (e *Engine) Inspect() ([]domain.DefinitionSpec, error) {
	ids, err := e.catalog.Entities()
	if err != nil {
		return nil, err
	}
	specs := make([]domain.DefinitionSpec, 0, len(ids))
	for _, id := range ids {
		spec, err := e.catalog.Spec(id)
		if err != nil {
			return nil, fmt.Errorf("inspect %q: %w", id, err)
		}
		specs = append(specs, *spec)
	}
	return specs, nil
}

// Entities lists the entity IDs the loader knows.
func (e *Engine) Entities() ([]string, error) {
	return e.catalog.Entities()
}

// Flags returns the flag store shared by conditions and steps.
func (e *Engine) Flags() domain.FlagStore {
	return e.flags
}

// Snapshot returns the current engine state. It is safe to call from any goroutine.
func (e *Engine) Snapshot() Snapshot {
	return e.dispatcher.Snapshot()
}

// Pending returns the number of queued activations.
func (e *Engine) Pending() int {
	return e.dispatcher.Pending()
}

// Invalidate drops the cached definition of entityID so its content is reloaded.
func (e *Engine) Invalidate(entityID string) {
	e.catalog.Invalidate(entityID)
}

// Watch forwards content changes from the loader, invalidating each changed entity first.
// Returns error if the loader does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	w, ok := e.loader.(ports.Watchable)
	if !ok {
		return nil, fmt.Errorf("current loader does not support watching")
	}
	changes, err := w.Watch(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan string, 1)
	go func() {
		defer close(out)
		for id := range changes {
			e.catalog.Invalidate(id)
			e.logger.Info("content changed", "entity", id)
			select {
			case out <- id:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Loader returns the underlying DefinitionLoader used by the engine.
func (e *Engine) Loader() ports.DefinitionLoader {
	return e.loader
}
