package domain

import (
	"fmt"
	"strings"
)

// Trigger is the reason an activation is being requested.
type Trigger string

const (
	// TriggerConfirm is an explicit confirmation input (talking to an NPC, inspecting a sign).
	TriggerConfirm Trigger = "confirm"
	// TriggerTouch fires when the player steps onto the entity's tile.
	TriggerTouch Trigger = "touch"
	// TriggerAutomatic fires once for every entity present when a scene is entered.
	TriggerAutomatic Trigger = "automatic"
	// TriggerSystem is raised by the host itself (cutscenes, scripted sequences).
	TriggerSystem Trigger = "system"
)

// Triggers lists every known trigger in declaration order.
func Triggers() []Trigger {
	return []Trigger{TriggerConfirm, TriggerTouch, TriggerAutomatic, TriggerSystem}
}

// Valid reports whether t is one of the known triggers.
func (t Trigger) Valid() bool {
	switch t {
	case TriggerConfirm, TriggerTouch, TriggerAutomatic, TriggerSystem:
		return true
	}
	return false
}

// ParseTrigger normalizes an authored trigger tag.
// "action" and "auto" are accepted as aliases used by older content.
func ParseTrigger(raw string) (Trigger, error) {
	clean := Trigger(strings.ToLower(strings.TrimSpace(raw)))
	switch clean {
	case "action", "interact":
		return TriggerConfirm, nil
	case "auto", "autorun":
		return TriggerAutomatic, nil
	case "step", "enter":
		return TriggerTouch, nil
	}
	if !clean.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTrigger, raw)
	}
	return clean, nil
}
