package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/vignette/pkg/domain"
)

// Runner executes the step chain of one page at a time.
//
// Steps report their continuation as an Outcome. Continue and Done are applied at once;
// Suspend parks the step with its ResumeToken until Poll finds the token satisfied.
// Execution is iterative, so long chains never grow the stack.
type Runner struct {
	logger *slog.Logger
	hooks  domain.LifecycleHooks

	sc         *domain.StepContext
	page       *domain.Page
	current    domain.Step
	token      *domain.ResumeToken
	onComplete func()
	status     Status

	executing  bool
	pending    domain.Step
	hasPending bool

	sigMu   sync.Mutex
	active  bool
	signals map[string]any
}

// NewRunner creates an idle runner.
func NewRunner(logger *slog.Logger, hooks domain.LifecycleHooks) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{logger: logger, hooks: hooks, signals: make(map[string]any)}
}

// Run starts page. onPageComplete is called exactly once, when a step reports no
// successor, or immediately when the page has no executable steps.
func (r *Runner) Run(sc *domain.StepContext, page *domain.Page, onPageComplete func()) {
	r.sc = sc
	if r.sc == nil {
		r.sc = &domain.StepContext{}
	}
	if r.sc.Logger == nil {
		r.sc.Logger = r.logger
	}
	r.page = page
	r.current = nil
	r.token = nil
	r.onComplete = onPageComplete
	r.status = StatusStepRunning
	r.setActive(true)

	if page == nil {
		r.complete()
		return
	}
	if page.Gather(r.sc.Log()) == 0 || page.StartStep() == nil {
		r.sc.Log().Warn("page has no executable steps", "page", page.Label(), "start", page.Start)
		r.complete()
		return
	}
	r.Execute(page.StartStep())
}

// Execute makes step current and runs it. A nil step completes the page.
// Calls made while a step is already executing are queued and picked up by the loop.
func (r *Runner) Execute(step domain.Step) {
	if r.sc == nil {
		r.sc = &domain.StepContext{Logger: r.logger}
	}
	r.pending = step
	r.hasPending = true
	if r.executing {
		return
	}

	r.executing = true
	defer func() { r.executing = false }()

	for r.hasPending {
		next := r.pending
		r.pending = nil
		r.hasPending = false

		if next == nil {
			r.complete()
			return
		}

		r.current = next
		// Acknowledgments meant for earlier steps never carry over.
		r.clearSignals()
		r.emitStep(domain.EventStepEnter, next, domain.OutcomeDone)
		r.apply(next, r.invoke(next, func() domain.Outcome { return next.Run(r.sc) }))
	}
}

// OnStepFinished moves to the step with the given ID, or completes the page when it is empty.
// A successor that was not gathered ends the page with a warning.
func (r *Runner) OnStepFinished(next string) {
	if r.current != nil {
		r.emitStep(domain.EventStepLeave, r.current, outcomeFor(next))
	}
	r.token = nil

	var step domain.Step
	if next != "" && r.page != nil {
		var ok bool
		step, ok = r.page.Fetch(next)
		if !ok {
			r.sc.Log().Warn("successor not found, ending page", "page", r.page.Label(), "step", next)
		}
	}
	r.Execute(step)
}

// Poll advances a suspended step by one tick, resuming it once its token is satisfied.
func (r *Runner) Poll(ctx context.Context) {
	if r.status != StatusStepRunning || r.token == nil {
		return
	}
	if ctx != nil {
		r.sc.Context = ctx
	}

	tok := r.token
	if tok.Ticks > 0 {
		tok.Ticks--
		if tok.Ticks > 0 {
			return
		}
	}
	if tok.External {
		return
	}
	if tok.Await != "" {
		value, ok := r.takeSignal(tok.Await)
		if !ok {
			return
		}
		tok.Value = value
	}
	r.resume(*tok)
}

// Acknowledge records a host acknowledgment for the in-flight activation.
// It is safe to call from any goroutine and reports whether a page is running.
func (r *Runner) Acknowledge(signal string, value any) bool {
	r.sigMu.Lock()
	defer r.sigMu.Unlock()
	if !r.active {
		return false
	}
	r.signals[signal] = value
	return true
}

// CompleteStep finishes a step suspended on external completion, continuing at next.
func (r *Runner) CompleteStep(next string) error {
	if r.status != StatusStepRunning {
		return ErrNoActivation
	}
	if r.token == nil || !r.token.External {
		return ErrNotAwaitingExternal
	}
	r.OnStepFinished(next)
	return nil
}

// Busy reports whether a page is running.
func (r *Runner) Busy() bool {
	return r.status == StatusStepRunning
}

// Current returns the executing or suspended step.
func (r *Runner) Current() domain.Step {
	return r.current
}

// Token returns the suspension of the current step, if any.
func (r *Runner) Token() (domain.ResumeToken, bool) {
	if r.token == nil {
		return domain.ResumeToken{}, false
	}
	return *r.token, true
}

func (r *Runner) resume(tok domain.ResumeToken) {
	r.token = nil
	step := r.current
	resumer, ok := step.(domain.Resumer)
	if !ok {
		r.sc.Log().Warn("suspended step cannot resume, ending page", "step", step.ID(), "kind", step.Kind())
		r.OnStepFinished("")
		return
	}
	r.apply(step, r.invoke(step, func() domain.Outcome { return resumer.Resume(r.sc, tok) }))
}

func (r *Runner) apply(step domain.Step, out domain.Outcome) {
	switch out.Kind {
	case domain.OutcomeSuspend:
		tok := out.Token
		r.token = &tok
	case domain.OutcomeContinue:
		r.OnStepFinished(out.Next)
	default:
		r.OnStepFinished("")
	}
}

// invoke runs step logic, turning a panic into a finished page.
func (r *Runner) invoke(step domain.Step, fn func() domain.Outcome) (out domain.Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			r.sc.Log().Error("step panicked, ending page",
				"step", step.ID(), "kind", step.Kind(), "err", fmt.Errorf("%v", rec))
			out = domain.Done()
		}
	}()
	return fn()
}

func (r *Runner) complete() {
	if r.status != StatusStepRunning {
		return
	}
	r.status = StatusComplete
	r.current = nil
	r.token = nil
	r.pending = nil
	r.hasPending = false
	r.setActive(false)

	done := r.onComplete
	r.onComplete = nil
	if done != nil {
		done()
	}
}

func (r *Runner) setActive(active bool) {
	r.sigMu.Lock()
	defer r.sigMu.Unlock()
	r.active = active
	clear(r.signals)
}

func (r *Runner) clearSignals() {
	r.sigMu.Lock()
	defer r.sigMu.Unlock()
	clear(r.signals)
}

func (r *Runner) takeSignal(name string) (any, bool) {
	r.sigMu.Lock()
	defer r.sigMu.Unlock()
	v, ok := r.signals[name]
	if ok {
		delete(r.signals, name)
	}
	return v, ok
}

func (r *Runner) emitStep(typ domain.EventType, step domain.Step, outcome domain.OutcomeKind) {
	hook := r.hooks.OnStepEnter
	if typ == domain.EventStepLeave {
		hook = r.hooks.OnStepLeave
	}
	if hook == nil {
		return
	}
	ctx := r.sc.Context
	if ctx == nil {
		ctx = context.Background()
	}
	hook(ctx, &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ, RequestID: r.sc.RequestID},
		EntityID:  r.sc.EntityID,
		StepID:    step.ID(),
		StepKind:  step.Kind(),
		Outcome:   outcome,
	})
}

func outcomeFor(next string) domain.OutcomeKind {
	if next == "" {
		return domain.OutcomeDone
	}
	return domain.OutcomeContinue
}
