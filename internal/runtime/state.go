package runtime

import (
	"time"

	"github.com/aretw0/vignette/pkg/domain"
)

// Status is the runner state machine.
type Status int

const (
	StatusIdle Status = iota
	StatusResolving
	StatusStepRunning
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusResolving:
		return "resolving"
	case StatusStepRunning:
		return "step_running"
	case StatusComplete:
		return "complete"
	default:
		return "idle"
	}
}

// RunnerState is the transient record of the in-flight activation.
// It exists from dequeue until completion and is then discarded.
type RunnerState struct {
	Request    *domain.ActivationRequest
	Definition *domain.Definition
	Page       *domain.Page
	Status     Status
	StartedAt  time.Time
}

// Snapshot is a point-in-time view of the dispatcher, safe to read from any goroutine.
type Snapshot struct {
	Status     string         `json:"status"`
	RequestID  string         `json:"request_id,omitempty"`
	EntityID   string         `json:"entity_id,omitempty"`
	Trigger    domain.Trigger `json:"trigger,omitempty"`
	Page       string         `json:"page,omitempty"`
	Step       string         `json:"step,omitempty"`
	Awaiting   string         `json:"awaiting,omitempty"`
	External   bool           `json:"external,omitempty"`
	WaitTicks  int            `json:"wait_ticks,omitempty"`
	QueueDepth int            `json:"queue_depth"`
	Completed  uint64         `json:"completed"`
	Ticks      uint64         `json:"ticks"`
}
