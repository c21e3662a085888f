package runtime

import "errors"

var (
	// ErrNoActivation is returned when an operation needs an in-flight activation and there is none.
	ErrNoActivation = errors.New("no activation in flight")
	// ErrNotAwaitingExternal is returned by CompleteStep when the current step is not waiting on the host.
	ErrNotAwaitingExternal = errors.New("current step is not awaiting external completion")
)
