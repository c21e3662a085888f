package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/vignette/pkg/domain"
)

// DefinitionSource supplies the compiled Definition of an entity.
type DefinitionSource interface {
	Definition(entityID string) (*domain.Definition, error)
}

// Dispatcher serializes activation requests. Requests are processed strictly FIFO and
// at most one is in flight. Completions are delivered exactly once, in FIFO order, after
// the dispatcher lock is released, so callbacks may call back into the dispatcher. The next
// request is dequeued only once earlier completions have been delivered.
type Dispatcher struct {
	source    DefinitionSource
	resolver  *Resolver
	runner    *Runner
	flags     domain.FlagStore
	presenter domain.Presenter
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	baseCtx   context.Context
	autoDrain bool

	// mu serializes every operation that may run step logic.
	mu      sync.Mutex
	inside  atomic.Bool
	current *RunnerState

	qmu   sync.Mutex
	queue []*domain.ActivationRequest
	done  []*domain.ActivationRequest

	// delivering is held by the goroutine currently running completion callbacks.
	delivering atomic.Bool
	// wake is raised by auto-draining Enqueue calls that found the lock taken.
	wake atomic.Bool

	completed atomic.Uint64
	ticks     atomic.Uint64
	snapshot  atomic.Pointer[Snapshot]
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) DispatcherOption {
	return func(d *Dispatcher) {
		d.hooks = hooks
	}
}

// WithFlagStore exposes the flag store to running steps.
func WithFlagStore(flags domain.FlagStore) DispatcherOption {
	return func(d *Dispatcher) {
		d.flags = flags
	}
}

// WithPresenter attaches the host UI. Without one the engine runs headless.
func WithPresenter(p domain.Presenter) DispatcherOption {
	return func(d *Dispatcher) {
		d.presenter = p
	}
}

// WithAutoDrain starts draining as soon as a request is enqueued on an idle dispatcher.
func WithAutoDrain(enabled bool) DispatcherOption {
	return func(d *Dispatcher) {
		d.autoDrain = enabled
	}
}

// WithBaseContext sets the context used when draining is started implicitly.
func WithBaseContext(ctx context.Context) DispatcherOption {
	return func(d *Dispatcher) {
		if ctx != nil {
			d.baseCtx = ctx
		}
	}
}

// NewDispatcher creates an idle dispatcher reading definitions from source.
func NewDispatcher(source DefinitionSource, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		source:  source,
		logger:  slog.New(slog.DiscardHandler),
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.resolver = NewResolver(d.logger)
	d.runner = NewRunner(d.logger, d.hooks)
	d.publish()
	return d
}

// Enqueue appends req to the queue. It never blocks on running steps and never fails;
// malformed requests are diagnosed when dequeued. Steps may call it while running.
func (d *Dispatcher) Enqueue(req *domain.ActivationRequest) {
	if req == nil {
		d.logger.Warn("ignoring nil activation request")
		return
	}
	if req.EnqueuedAt.IsZero() {
		req.EnqueuedAt = time.Now()
	}

	d.qmu.Lock()
	d.queue = append(d.queue, req)
	depth := len(d.queue)
	d.qmu.Unlock()

	d.emitActivation(d.baseCtx, domain.EventEnqueue, req, "", domain.ResultPending, depth, 0)

	if !d.autoDrain {
		return
	}
	// The lock holder re-checks wake after unlocking, so a request enqueued while
	// another goroutine is inside is picked up without waiting for the next Tick.
	d.wake.Store(true)
	if !d.inside.Load() {
		d.Drain(d.baseCtx)
	}
}

// Drain starts queued requests until one suspends or the queue is empty.
func (d *Dispatcher) Drain(ctx context.Context) {
	d.lock()
	d.settle(ctx)
}

// Tick is one scheduling tick of the host loop: the suspended step is polled and,
// once it completes, the queue keeps draining.
func (d *Dispatcher) Tick(ctx context.Context) {
	d.lock()
	d.ticks.Add(1)
	if d.current != nil {
		d.runner.Poll(ctx)
	}
	d.settle(ctx)
}

// Acknowledge delivers a host acknowledgment (message dismissed, menu answered) to the
// in-flight activation. The suspended step sees it on the next Tick.
func (d *Dispatcher) Acknowledge(signal string, value any) error {
	if !d.runner.Acknowledge(signal, value) {
		d.logger.Debug("acknowledgment dropped", "signal", signal)
		return ErrNoActivation
	}
	return nil
}

// CompleteStep finishes a step that awaits the host, continuing at next (empty ends the page).
// It must not be called from step logic.
func (d *Dispatcher) CompleteStep(ctx context.Context, next string) error {
	d.lock()
	if d.current == nil {
		d.unlock()
		return ErrNoActivation
	}
	if err := d.runner.CompleteStep(next); err != nil {
		d.unlock()
		return err
	}
	d.settle(ctx)
	return nil
}

// Resolve reports which page would answer trigger for entityID right now, without running it.
func (d *Dispatcher) Resolve(entityID string, trigger domain.Trigger) (*domain.Page, error) {
	def, err := d.source.Definition(entityID)
	if err != nil {
		return nil, err
	}
	return d.resolver.Resolve(def, trigger), nil
}

// ResolveIdle reports the page describing entityID's resting state.
func (d *Dispatcher) ResolveIdle(entityID string) (*domain.Page, error) {
	def, err := d.source.Definition(entityID)
	if err != nil {
		return nil, err
	}
	return d.resolver.ResolveIdle(def), nil
}

// Pending returns the number of queued requests, excluding the in-flight one.
func (d *Dispatcher) Pending() int {
	d.qmu.Lock()
	defer d.qmu.Unlock()
	return len(d.queue)
}

// Idle reports whether nothing is in flight, queued or awaiting delivery.
func (d *Dispatcher) Idle() bool {
	snap := d.Snapshot()
	return snap.Status == StatusIdle.String() && snap.QueueDepth == 0 && d.undelivered() == 0
}

// Snapshot returns the last published state. It never blocks on running steps.
func (d *Dispatcher) Snapshot() Snapshot {
	snap := *d.snapshot.Load()
	snap.QueueDepth = d.Pending()
	snap.Completed = d.completed.Load()
	snap.Ticks = d.ticks.Load()
	return snap
}

func (d *Dispatcher) lock() {
	d.mu.Lock()
	d.inside.Store(true)
}

func (d *Dispatcher) unlock() {
	d.publish()
	d.inside.Store(false)
	d.mu.Unlock()
}

// settle drains with the lock held, releases it and delivers completions. It repeats
// while delivery or a wake-up may have left startable requests in the queue.
func (d *Dispatcher) settle(ctx context.Context) {
	for {
		stalled := d.drainLocked(ctx)
		d.unlock()

		delivered, owner := d.flush()
		woke := d.wake.Swap(false)
		if !woke && (!owner || (!stalled && delivered == 0)) {
			return
		}
		d.lock()
	}
}

// drainLocked starts queued requests while nothing is in flight. It reports stalled
// when requests are still queued behind completions that have not been delivered.
func (d *Dispatcher) drainLocked(ctx context.Context) (stalled bool) {
	if ctx == nil {
		ctx = d.baseCtx
	}
	for d.current == nil {
		if d.undelivered() > 0 {
			return d.Pending() > 0
		}
		req := d.pop()
		if req == nil {
			return false
		}
		d.start(ctx, req)
	}
	return false
}

// flush delivers pending completions in order. Only one goroutine delivers at a time;
// owner is false when another goroutine, possibly a callback's caller, already is.
func (d *Dispatcher) flush() (delivered int, owner bool) {
	for {
		if !d.delivering.CompareAndSwap(false, true) {
			return delivered, owner
		}
		owner = true
		for req := d.popDone(); req != nil; req = d.popDone() {
			d.deliver(req)
			delivered++
		}
		d.delivering.Store(false)
		if d.undelivered() == 0 {
			return delivered, owner
		}
	}
}

func (d *Dispatcher) popDone() *domain.ActivationRequest {
	d.qmu.Lock()
	defer d.qmu.Unlock()
	if len(d.done) == 0 {
		return nil
	}
	req := d.done[0]
	d.done[0] = nil
	d.done = d.done[1:]
	return req
}

func (d *Dispatcher) undelivered() int {
	d.qmu.Lock()
	defer d.qmu.Unlock()
	return len(d.done)
}

func (d *Dispatcher) pop() *domain.ActivationRequest {
	d.qmu.Lock()
	defer d.qmu.Unlock()
	if len(d.queue) == 0 {
		return nil
	}
	req := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	return req
}

func (d *Dispatcher) start(ctx context.Context, req *domain.ActivationRequest) {
	state := &RunnerState{Request: req, Status: StatusResolving, StartedAt: time.Now()}
	d.current = state
	d.publish()

	log := d.logger.With("request", req.ID, "entity", req.EntityID, "trigger", req.Trigger)
	d.emitActivation(ctx, domain.EventActivationStart, req, "", domain.ResultPending, d.Pending(), 0)

	if req.EntityID == "" || !req.Trigger.Valid() {
		log.Warn("malformed activation request")
		d.finish(ctx, domain.ResultInvalid)
		return
	}

	def, err := d.source.Definition(req.EntityID)
	if err != nil {
		if errors.Is(err, domain.ErrDefinitionNotFound) {
			log.Debug("entity has no definition")
		} else {
			log.Warn("definition could not be loaded", "err", err)
		}
		d.finish(ctx, domain.ResultNoMatch)
		return
	}
	state.Definition = def

	page := d.resolver.Resolve(def, req.Trigger)
	if page == nil {
		log.Debug("no page matched")
		d.finish(ctx, domain.ResultNoMatch)
		return
	}
	state.Page = page
	log = log.With("page", page.Label())

	if page.Gather(log) == 0 || page.StartStep() == nil {
		log.Warn("matched page has no executable steps")
		d.finish(ctx, domain.ResultEmpty)
		return
	}

	state.Status = StatusStepRunning
	sc := &domain.StepContext{
		Context:   ctx,
		RequestID: req.ID,
		EntityID:  req.EntityID,
		Trigger:   req.Trigger,
		Page:      page,
		Flags:     d.flags,
		Logger:    log,
		Enqueuer:  d,
		Presenter: d.presenter,
	}
	d.runner.Run(sc, page, func() { d.finish(sc.Context, domain.ResultRan) })
}

// finish closes the in-flight activation and queues its completion for delivery.
func (d *Dispatcher) finish(ctx context.Context, result domain.ActivationResult) {
	state := d.current
	if state == nil {
		return
	}
	state.Status = StatusComplete
	d.current = nil
	d.completed.Add(1)

	page := ""
	if state.Page != nil {
		page = state.Page.Label()
	}
	d.emitActivation(ctx, domain.EventActivationFinish, state.Request, page, result, d.Pending(), time.Since(state.StartedAt))
	d.qmu.Lock()
	d.done = append(d.done, state.Request)
	d.qmu.Unlock()
	d.publish()
}

func (d *Dispatcher) deliver(req *domain.ActivationRequest) {
	if req.Completion == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("completion callback panicked",
				"request", req.ID, "entity", req.EntityID, "err", fmt.Errorf("%v", rec))
		}
	}()
	req.Completion.OnActivationFinished()
}

// publish stores a copy of the current state for lock-free readers.
func (d *Dispatcher) publish() {
	snap := &Snapshot{Status: StatusIdle.String()}
	if state := d.current; state != nil {
		snap.Status = state.Status.String()
		snap.RequestID = state.Request.ID
		snap.EntityID = state.Request.EntityID
		snap.Trigger = state.Request.Trigger
		if state.Page != nil {
			snap.Page = state.Page.Label()
		}
		if step := d.runner.Current(); step != nil {
			snap.Step = step.ID()
		}
		if tok, ok := d.runner.Token(); ok {
			snap.Awaiting = tok.Await
			snap.External = tok.External
			snap.WaitTicks = tok.Ticks
		}
	}
	d.snapshot.Store(snap)
}

func (d *Dispatcher) emitActivation(ctx context.Context, typ domain.EventType, req *domain.ActivationRequest, page string, result domain.ActivationResult, depth int, elapsed time.Duration) {
	var hook func(context.Context, *domain.ActivationEvent)
	switch typ {
	case domain.EventEnqueue:
		hook = d.hooks.OnEnqueue
	case domain.EventActivationStart:
		hook = d.hooks.OnActivationStart
	case domain.EventActivationFinish:
		hook = d.hooks.OnActivationFinish
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.ActivationEvent{
		EventBase:  domain.EventBase{Timestamp: time.Now(), Type: typ, RequestID: req.ID},
		EntityID:   req.EntityID,
		Trigger:    req.Trigger,
		Page:       page,
		Result:     result,
		QueueDepth: depth,
		Elapsed:    elapsed,
	})
}
