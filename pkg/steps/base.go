package steps

import (
	"fmt"

	"github.com/aretw0/vignette/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Kind names of the built-in steps.
const (
	KindMessage  = "message"
	KindChoice   = "choice"
	KindSetFlag  = "set_flag"
	KindWait     = "wait"
	KindBranch   = "branch"
	KindActivate = "activate"
	KindAwait    = "await"
)

// Builtins returns the factories for every built-in step kind.
func Builtins() map[string]domain.StepFactory {
	return map[string]domain.StepFactory{
		KindMessage:  NewMessage,
		KindChoice:   NewChoice,
		KindSetFlag:  NewSetFlag,
		KindWait:     NewWait,
		KindBranch:   NewBranch,
		KindActivate: NewActivate,
		KindAwait:    NewAwait,
	}
}

// base carries the identity and default successor shared by every kind.
type base struct {
	id   string
	kind string
	next string
}

func newBase(spec domain.StepSpec) base {
	return base{id: spec.ID, kind: spec.Kind, next: spec.Next}
}

func (b base) ID() string   { return b.id }
func (b base) Kind() string { return b.kind }

// Next is the default successor.
func (b base) Next() string { return b.next }

func (b base) Successors() []string {
	if b.next == "" {
		return nil
	}
	return []string{b.next}
}

// decodeArgs decodes StepSpec.Args into out, accepting loosely typed YAML scalars.
func decodeArgs(spec domain.StepSpec, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(spec.Args); err != nil {
		return fmt.Errorf("%w: step %q (%s): %v", domain.ErrInvalidArgs, spec.ID, spec.Kind, err)
	}
	return nil
}

func appendTarget(targets []string, id string) []string {
	if id == "" {
		return targets
	}
	for _, existing := range targets {
		if existing == id {
			return targets
		}
	}
	return append(targets, id)
}
