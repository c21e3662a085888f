package domain

import "errors"

// ErrDefinitionNotFound is returned by loaders when no content exists for an entity.
var ErrDefinitionNotFound = errors.New("definition not found")

// ErrUnknownTrigger is returned when authored content names a trigger the engine does not know.
var ErrUnknownTrigger = errors.New("unknown trigger")

// ErrUnknownStepKind is returned when no factory is registered for a step kind.
var ErrUnknownStepKind = errors.New("unknown step kind")

// ErrUnknownConditionKind is returned when no factory is registered for a condition kind.
var ErrUnknownConditionKind = errors.New("unknown condition kind")

// ErrInvalidArgs is returned when a step or condition cannot decode its arguments.
var ErrInvalidArgs = errors.New("invalid arguments")
