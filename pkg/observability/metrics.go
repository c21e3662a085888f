package observability

import (
	"context"

	"github.com/aretw0/vignette/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by the engine hooks.
type Metrics struct {
	Enqueued   *prometheus.CounterVec
	Finished   *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	Steps      *prometheus.CounterVec
	QueueDepth prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered, which is handy in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Enqueued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vignette_activations_enqueued_total",
				Help: "Activation requests accepted into the queue",
			},
			[]string{"trigger"},
		),
		Finished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vignette_activations_finished_total",
				Help: "Activation requests finished, by result",
			},
			[]string{"result"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vignette_activation_duration_seconds",
				Help:    "Wall time from activation start to completion",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		Steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vignette_steps_total",
				Help: "Steps executed, by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vignette_queue_depth",
			Help: "Activation requests waiting in the queue",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Enqueued, m.Finished, m.Duration, m.Steps, m.QueueDepth)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEnqueue: func(_ context.Context, e *domain.ActivationEvent) {
			m.Enqueued.WithLabelValues(string(e.Trigger)).Inc()
			m.QueueDepth.Set(float64(e.QueueDepth))
		},
		OnActivationStart: func(_ context.Context, e *domain.ActivationEvent) {
			m.QueueDepth.Set(float64(e.QueueDepth))
		},
		OnActivationFinish: func(_ context.Context, e *domain.ActivationEvent) {
			result := string(e.Result)
			m.Finished.WithLabelValues(result).Inc()
			m.Duration.WithLabelValues(result).Observe(e.Elapsed.Seconds())
			m.QueueDepth.Set(float64(e.QueueDepth))
		},
		OnStepLeave: func(_ context.Context, e *domain.StepEvent) {
			m.Steps.WithLabelValues(e.StepKind, e.Outcome.String()).Inc()
		},
	}
}
