package vignette

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/vignette/pkg/domain"
)

// Runner is a line-oriented host: it presents messages and menus on Output, reads
// answers from Input and drives the engine's tick loop until it goes idle.
// It implements domain.Presenter; pass it to the engine with WithPresenter.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
	// MaxTicks bounds Run; zero means unbounded.
	MaxTicks int

	mu      sync.Mutex
	pending []domain.Presentation
}

// ContentRenderer is a function that transforms message text before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner on the given streams.
func NewRunner(in io.Reader, out io.Writer) *Runner {
	return &Runner{Input: in, Output: out}
}

// Present queues p; Run shows it once the running step has suspended.
func (r *Runner) Present(_ context.Context, p domain.Presentation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, p)
}

// Run drains the engine and keeps ticking until nothing is running or queued.
// Input EOF or "quit" stops the loop early without error.
func (r *Runner) Run(ctx context.Context, engine *Engine) error {
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	if r.Input == nil && !r.Headless {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	var lines *bufio.Reader
	if r.Input != nil {
		lines = bufio.NewReader(r.Input)
	}

	engine.Drain(ctx)
	for ticks := 0; ; ticks++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		for _, p := range r.take() {
			r.show(p)
			value, err := r.answer(lines, p)
			if err != nil {
				return ignoreQuit(err)
			}
			if err := engine.Acknowledge(p.Await, value); err != nil {
				return fmt.Errorf("acknowledge %s: %w", p.Await, err)
			}
		}

		snap := engine.Snapshot()
		if snap.Status == "idle" && snap.QueueDepth == 0 && r.queued() == 0 {
			return nil
		}
		if err := r.hostWork(ctx, engine, lines, snap); err != nil {
			return ignoreQuit(err)
		}
		if r.MaxTicks > 0 && ticks >= r.MaxTicks {
			return fmt.Errorf("%w (%d ticks)", ErrTickBudget, r.MaxTicks)
		}
		engine.Tick(ctx)
	}
}

// hostWork answers suspensions no presentation covers: custom signals and external steps.
func (r *Runner) hostWork(ctx context.Context, engine *Engine, lines *bufio.Reader, snap Snapshot) error {
	if r.queued() > 0 {
		return nil
	}
	switch {
	case snap.External:
		next, err := r.prompt(lines, fmt.Sprintf("[%s] next step", snap.Step))
		if err != nil {
			return err
		}
		return engine.CompleteStep(ctx, next)
	case snap.Awaiting != "" && snap.Awaiting != domain.SignalAck && snap.Awaiting != domain.SignalChoice:
		value, err := r.prompt(lines, fmt.Sprintf("[%s]", snap.Awaiting))
		if err != nil {
			return err
		}
		return engine.Acknowledge(snap.Awaiting, value)
	}
	return nil
}

func (r *Runner) show(p domain.Presentation) {
	text := p.Text
	if r.Renderer != nil {
		if rendered, err := r.Renderer(text); err == nil {
			text = rendered
		}
	}
	text = strings.TrimSpace(text)
	if p.Speaker != "" {
		text = p.Speaker + ": " + text
	}
	if text != "" {
		fmt.Fprintln(r.Output, text)
	}
	for i, opt := range p.Options {
		fmt.Fprintf(r.Output, "  %d) %s\n", i+1, opt)
	}
}

func (r *Runner) answer(lines *bufio.Reader, p domain.Presentation) (any, error) {
	if r.Headless {
		if p.Await == domain.SignalChoice {
			return 1, nil
		}
		return nil, nil
	}
	line, err := r.prompt(lines, "")
	if err != nil {
		return nil, err
	}
	if p.Await == domain.SignalAck {
		return nil, nil
	}
	return line, nil
}

var errQuit = errors.New("quit")

func (r *Runner) prompt(lines *bufio.Reader, label string) (string, error) {
	if lines == nil {
		return "", errQuit
	}
	if label != "" {
		fmt.Fprint(r.Output, label+" ")
	}
	fmt.Fprint(r.Output, "> ")
	text, err := lines.ReadString('\n')
	if err != nil && (text == "" || !errors.Is(err, io.EOF)) {
		if errors.Is(err, io.EOF) {
			return "", errQuit
		}
		return "", fmt.Errorf("input error: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "exit" || text == "quit" {
		fmt.Fprintln(r.Output, "Bye!")
		return "", errQuit
	}
	return text, nil
}

func (r *Runner) take() []domain.Presentation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.pending
	r.pending = nil
	return out
}

func (r *Runner) queued() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func ignoreQuit(err error) error {
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}
