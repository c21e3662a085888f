package domain

import (
	"context"
	"log/slog"
)

// Step is one discrete unit of behavior inside a Page.
//
// Run performs the step's effect and reports what happens next through an Outcome.
// Successors lists the step IDs the step may ever continue to; the Page uses it to
// gather the reachable step graph before the first run.
type Step interface {
	ID() string
	Kind() string
	Successors() []string
	Run(sc *StepContext) Outcome
}

// Resumer is implemented by steps that suspend. Resume is called by the runner once
// the suspension recorded in the token is satisfied.
type Resumer interface {
	Resume(sc *StepContext, token ResumeToken) Outcome
}

// OutcomeKind enumerates the continuation a step reports.
type OutcomeKind int

const (
	// OutcomeDone ends the page: the step has no successor.
	OutcomeDone OutcomeKind = iota
	// OutcomeContinue runs the step named by Outcome.Next.
	OutcomeContinue
	// OutcomeSuspend parks the step until the ResumeToken is satisfied.
	OutcomeSuspend
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeContinue:
		return "continue"
	case OutcomeSuspend:
		return "suspend"
	default:
		return "done"
	}
}

// Outcome is the explicit continuation value returned from Run and Resume.
type Outcome struct {
	Kind  OutcomeKind
	Next  string
	Token ResumeToken
}

// Done reports that the page is complete.
func Done() Outcome {
	return Outcome{Kind: OutcomeDone}
}

// Continue reports next as the successor. An empty next is the same as Done.
func Continue(next string) Outcome {
	if next == "" {
		return Done()
	}
	return Outcome{Kind: OutcomeContinue, Next: next}
}

// Suspend parks the step until token is satisfied.
func Suspend(token ResumeToken) Outcome {
	return Outcome{Kind: OutcomeSuspend, Token: token}
}

// ResumeToken captures why a step is suspended. The runner polls it once per tick:
// Ticks counts down first, then Await (if set) must have been acknowledged, and an
// External token waits for the host to finish the step explicitly.
type ResumeToken struct {
	Ticks    int
	Await    string
	External bool

	// Data is step-private state carried across the suspension.
	Data any
	// Value is filled by the runner with the acknowledged signal payload.
	Value any
}

// WaitTicks suspends for n scheduling ticks.
func WaitTicks(n int) ResumeToken {
	if n < 0 {
		n = 0
	}
	return ResumeToken{Ticks: n}
}

// AwaitSignal suspends until the host acknowledges signal.
func AwaitSignal(signal string) ResumeToken {
	return ResumeToken{Await: signal}
}

// AwaitExternal suspends until the host reports the successor itself.
func AwaitExternal() ResumeToken {
	return ResumeToken{External: true}
}

// Standard signal names acknowledged by hosts.
const (
	SignalAck    = "ack"
	SignalChoice = "choice"
)

// Enqueuer accepts new activation requests. Steps use it for sub-dispatch.
type Enqueuer interface {
	Enqueue(req *ActivationRequest)
}

// Presentation is a request for the host UI to show something.
type Presentation struct {
	RequestID string   `json:"request_id"`
	EntityID  string   `json:"entity_id"`
	StepID    string   `json:"step_id"`
	Kind      string   `json:"kind"`
	Speaker   string   `json:"speaker,omitempty"`
	Text      string   `json:"text"`
	Options   []string `json:"options,omitempty"`
	// Await is the signal the host must acknowledge once the player is done.
	Await string `json:"await"`
}

// Presenter is the host UI collaborator (message boxes, choice menus).
type Presenter interface {
	Present(ctx context.Context, p Presentation)
}

// StepContext is the back-reference a step receives while it runs.
type StepContext struct {
	Context   context.Context
	RequestID string
	EntityID  string
	Trigger   Trigger
	Page      *Page
	Flags     FlagStore
	Logger    *slog.Logger

	Enqueuer  Enqueuer
	Presenter Presenter
}

// Enqueue submits a follow-up activation. It queues behind the current one.
func (sc *StepContext) Enqueue(req *ActivationRequest) {
	if sc.Enqueuer == nil || req == nil {
		sc.Log().Warn("activation dropped: no dispatcher attached", "entity", sc.EntityID)
		return
	}
	sc.Enqueuer.Enqueue(req)
}

// Present forwards p to the host presenter, filling in routing fields.
// It returns false when the host is headless.
func (sc *StepContext) Present(p Presentation) bool {
	if sc.Presenter == nil {
		return false
	}
	p.RequestID = sc.RequestID
	p.EntityID = sc.EntityID
	ctx := sc.Context
	if ctx == nil {
		ctx = context.Background()
	}
	sc.Presenter.Present(ctx, p)
	return true
}

// Log returns the step logger, never nil.
func (sc *StepContext) Log() *slog.Logger {
	if sc.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return sc.Logger
}
