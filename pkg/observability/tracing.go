package observability

import (
	"context"
	"sync"

	"github.com/aretw0/vignette/pkg/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer opens one span per activation and a child span per step.
// Spans are keyed by request ID because an activation outlives the tick that started it.
type Tracer struct {
	tracer trace.Tracer

	mu          sync.Mutex
	activations map[string]activeSpan
	steps       map[string]trace.Span
}

type activeSpan struct {
	ctx  context.Context
	span trace.Span
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) *Tracer {
	return &Tracer{
		tracer:      t,
		activations: make(map[string]activeSpan),
		steps:       make(map[string]trace.Span),
	}
}

// Hooks returns lifecycle hooks that record spans.
func (t *Tracer) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnActivationStart:  t.activationStart,
		OnActivationFinish: t.activationFinish,
		OnStepEnter:        t.stepEnter,
		OnStepLeave:        t.stepLeave,
	}
}

func (t *Tracer) activationStart(ctx context.Context, e *domain.ActivationEvent) {
	ctx, span := t.tracer.Start(ctx, "vignette.activation",
		trace.WithTimestamp(e.Timestamp),
		trace.WithAttributes(
			attribute.String("vignette.request_id", e.RequestID),
			attribute.String("vignette.entity_id", e.EntityID),
			attribute.String("vignette.trigger", string(e.Trigger)),
		),
	)
	t.mu.Lock()
	t.activations[e.RequestID] = activeSpan{ctx: ctx, span: span}
	t.mu.Unlock()
}

func (t *Tracer) activationFinish(_ context.Context, e *domain.ActivationEvent) {
	t.mu.Lock()
	active, ok := t.activations[e.RequestID]
	delete(t.activations, e.RequestID)
	step, stepOpen := t.steps[e.RequestID]
	delete(t.steps, e.RequestID)
	t.mu.Unlock()
	if !ok {
		return
	}
	if stepOpen {
		step.End(trace.WithTimestamp(e.Timestamp))
	}
	active.span.SetAttributes(
		attribute.String("vignette.page", e.Page),
		attribute.String("vignette.result", string(e.Result)),
	)
	if e.Result == domain.ResultInvalid {
		active.span.SetStatus(codes.Error, "invalid activation request")
	}
	active.span.End(trace.WithTimestamp(e.Timestamp))
}

func (t *Tracer) stepEnter(ctx context.Context, e *domain.StepEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if active, ok := t.activations[e.RequestID]; ok {
		ctx = active.ctx
	}
	_, span := t.tracer.Start(ctx, "vignette.step",
		trace.WithTimestamp(e.Timestamp),
		trace.WithAttributes(
			attribute.String("vignette.step_id", e.StepID),
			attribute.String("vignette.step_kind", e.StepKind),
		),
	)
	if prev, ok := t.steps[e.RequestID]; ok {
		prev.End()
	}
	t.steps[e.RequestID] = span
}

func (t *Tracer) stepLeave(_ context.Context, e *domain.StepEvent) {
	t.mu.Lock()
	span, ok := t.steps[e.RequestID]
	delete(t.steps, e.RequestID)
	t.mu.Unlock()
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("vignette.outcome", e.Outcome.String()))
	span.End(trace.WithTimestamp(e.Timestamp))
}
