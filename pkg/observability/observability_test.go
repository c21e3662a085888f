package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/vignette/pkg/domain"
	"github.com/aretw0/vignette/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func activation(typ domain.EventType, id string, result domain.ActivationResult) *domain.ActivationEvent {
	return &domain.ActivationEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ, RequestID: id},
		EntityID:  "guard",
		Trigger:   domain.TriggerConfirm,
		Page:      "guard#0",
		Result:    result,
		Elapsed:   50 * time.Millisecond,
	}
}

func step(typ domain.EventType, id, stepID string, outcome domain.OutcomeKind) *domain.StepEvent {
	return &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ, RequestID: id},
		EntityID:  "guard",
		StepID:    stepID,
		StepKind:  "message",
		Outcome:   outcome,
	}
}

func TestMetrics_RecordsLifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	h := m.Hooks()
	ctx := context.Background()

	enq := activation(domain.EventEnqueue, "r1", domain.ResultPending)
	enq.QueueDepth = 3
	h.OnEnqueue(ctx, enq)
	h.OnStepLeave(ctx, step(domain.EventStepLeave, "r1", "hello", domain.OutcomeContinue))
	h.OnStepLeave(ctx, step(domain.EventStepLeave, "r1", "bye", domain.OutcomeDone))
	h.OnActivationFinish(ctx, activation(domain.EventActivationFinish, "r1", domain.ResultRan))
	h.OnActivationFinish(ctx, activation(domain.EventActivationFinish, "r2", domain.ResultNoMatch))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Enqueued.WithLabelValues("confirm")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Finished.WithLabelValues("ran")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Finished.WithLabelValues("no_match")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Steps.WithLabelValues("message", "continue")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Steps.WithLabelValues("message", "done")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.QueueDepth))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Duration))
}

func TestMetrics_NilRegistererSkipsRegistration(t *testing.T) {
	m := observability.NewMetrics(nil)
	// A second set must register cleanly because the first never touched a registry.
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { observability.NewMetrics(reg) })
	assert.NotNil(t, m.Hooks().OnEnqueue)
}

func TestTracer_SpansPerActivationAndStep(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	tr := observability.NewTracer(tp.Tracer("test"))
	h := tr.Hooks()
	ctx := context.Background()

	h.OnActivationStart(ctx, activation(domain.EventActivationStart, "r1", domain.ResultPending))
	h.OnStepEnter(ctx, step(domain.EventStepEnter, "r1", "hello", domain.OutcomeDone))
	h.OnStepLeave(ctx, step(domain.EventStepLeave, "r1", "hello", domain.OutcomeDone))
	h.OnActivationFinish(ctx, activation(domain.EventActivationFinish, "r1", domain.ResultRan))

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "vignette.step", spans[0].Name())
	assert.Equal(t, "vignette.activation", spans[1].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestTracer_FinishClosesOpenStep(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	h := observability.NewTracer(tp.Tracer("test")).Hooks()
	ctx := context.Background()

	h.OnActivationStart(ctx, activation(domain.EventActivationStart, "r1", domain.ResultPending))
	h.OnStepEnter(ctx, step(domain.EventStepEnter, "r1", "boom", domain.OutcomeDone))
	h.OnActivationFinish(ctx, activation(domain.EventActivationFinish, "r1", domain.ResultRan))

	assert.Len(t, rec.Ended(), 2)
	// Finishing an unknown request is ignored.
	h.OnActivationFinish(ctx, activation(domain.EventActivationFinish, "ghost", domain.ResultRan))
	assert.Len(t, rec.Ended(), 2)
}

func TestCombine_CallsAllInOrder(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnEnqueue: func(context.Context, *domain.ActivationEvent) { calls = append(calls, "a") },
	}
	b := domain.LifecycleHooks{
		OnEnqueue:   func(context.Context, *domain.ActivationEvent) { calls = append(calls, "b") },
		OnStepEnter: func(context.Context, *domain.StepEvent) { calls = append(calls, "b-step") },
	}

	h := observability.Combine(a, domain.LifecycleHooks{}, b)
	h.OnEnqueue(context.Background(), &domain.ActivationEvent{})
	h.OnStepEnter(context.Background(), &domain.StepEvent{})

	assert.Equal(t, []string{"a", "b", "b-step"}, calls)
	assert.Nil(t, h.OnStepLeave)
}
