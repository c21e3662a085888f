package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aretw0/vignette"
	"github.com/aretw0/vignette/internal/logging"
	"github.com/aretw0/vignette/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		signal.Stop(sc.sigCh)
	}()
	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// NewLogger builds the CLI logger. Debug forces the debug level; an unparsable level
// falls back to info with a warning.
func NewLogger(level, format string, debug bool) *slog.Logger {
	lvl, err := logging.ParseLevel(level)
	if debug {
		lvl = slog.LevelDebug
	}
	logger := logging.NewWithFormat(os.Stderr, lvl, format)
	if err != nil {
		logger.Warn("invalid log level, using info", "err", err)
	}
	return logger
}

// DebugHooks logs every lifecycle event at debug level.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEnqueue: func(ctx context.Context, e *domain.ActivationEvent) {
			logger.Debug("Enqueue", "request", e.RequestID, "entity", e.EntityID, "trigger", e.Trigger, "queue", e.QueueDepth)
		},
		OnActivationStart: func(ctx context.Context, e *domain.ActivationEvent) {
			logger.Debug("Activation Start", "request", e.RequestID, "entity", e.EntityID, "trigger", e.Trigger)
		},
		OnActivationFinish: func(ctx context.Context, e *domain.ActivationEvent) {
			logger.Debug("Activation Finish", "request", e.RequestID, "entity", e.EntityID, "page", e.Page, "result", e.Result, "elapsed", e.Elapsed)
		},
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.Debug("Enter Step", "entity", e.EntityID, "step", e.StepID, "kind", e.StepKind)
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			logger.Debug("Leave Step", "entity", e.EntityID, "step", e.StepID, "outcome", e.Outcome)
		},
	}
}

// TickLoop advances engine once per interval until ctx is done.
// A non-positive interval falls back to 50ms.
func TickLoop(ctx context.Context, engine *vignette.Engine, interval time.Duration) {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			engine.Tick(ctx)
		}
	}
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
