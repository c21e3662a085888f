package domain

import (
	"time"

	"github.com/google/uuid"
)

// Completion is notified exactly once when an activation finishes,
// including when no page matched.
type Completion interface {
	OnActivationFinished()
}

// CompletionFunc adapts a function to Completion.
type CompletionFunc func()

// OnActivationFinished calls f.
func (f CompletionFunc) OnActivationFinished() {
	if f != nil {
		f()
	}
}

// ActivationRequest asks the engine to resolve and run a page for an entity.
// It is consumed once by the dispatcher and never mutated after submission.
type ActivationRequest struct {
	ID         string
	EntityID   string
	Trigger    Trigger
	Completion Completion
	EnqueuedAt time.Time
}

// NewActivation builds a request with a fresh ID. done may be nil.
func NewActivation(entityID string, trigger Trigger, done Completion) *ActivationRequest {
	return &ActivationRequest{
		ID:         uuid.NewString(),
		EntityID:   entityID,
		Trigger:    trigger,
		Completion: done,
		EnqueuedAt: time.Now(),
	}
}
