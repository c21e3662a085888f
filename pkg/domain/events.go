package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventEnqueue          EventType = "activation_enqueue"
	EventActivationStart  EventType = "activation_start"
	EventActivationFinish EventType = "activation_finish"
	EventStepEnter        EventType = "step_enter"
	EventStepLeave        EventType = "step_leave"
)

// ActivationResult tells observers whether a page actually ran.
type ActivationResult string

const (
	ResultPending ActivationResult = "pending"
	ResultRan     ActivationResult = "ran"
	ResultNoMatch ActivationResult = "no_match"
	ResultEmpty   ActivationResult = "empty_page"
	ResultInvalid ActivationResult = "invalid"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RequestID string    `json:"request_id"`
}

// ActivationEvent reports progress of one activation request.
type ActivationEvent struct {
	EventBase
	EntityID   string           `json:"entity_id"`
	Trigger    Trigger          `json:"trigger"`
	Page       string           `json:"page,omitempty"`
	Result     ActivationResult `json:"result"`
	QueueDepth int              `json:"queue_depth"`
	// Elapsed is set on finish events.
	Elapsed time.Duration `json:"elapsed,omitempty"`
}

// StepEvent reports entry into or exit from one step.
type StepEvent struct {
	EventBase
	EntityID string      `json:"entity_id"`
	StepID   string      `json:"step_id"`
	StepKind string      `json:"step_kind"`
	Outcome  OutcomeKind `json:"outcome,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnEnqueue          func(context.Context, *ActivationEvent)
	OnActivationStart  func(context.Context, *ActivationEvent)
	OnActivationFinish func(context.Context, *ActivationEvent)
	OnStepEnter        func(context.Context, *StepEvent)
	OnStepLeave        func(context.Context, *StepEvent)
}
