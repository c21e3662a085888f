package steps

import (
	"fmt"

	"github.com/aretw0/vignette/pkg/domain"
)

// SetFlag writes a boolean flag and continues.
type SetFlag struct {
	base
	Name  string
	Value bool
}

type setFlagArgs struct {
	Name  string `mapstructure:"name"`
	Value bool   `mapstructure:"value"`
}

// NewSetFlag builds a set_flag step.
func NewSetFlag(spec domain.StepSpec, _ domain.ConditionBuilder) (domain.Step, error) {
	var args setFlagArgs
	if err := decodeArgs(spec, &args); err != nil {
		return nil, err
	}
	if args.Name == "" {
		return nil, fmt.Errorf("%w: step %q: flag name is required", domain.ErrInvalidArgs, spec.ID)
	}
	return &SetFlag{base: newBase(spec), Name: args.Name, Value: args.Value}, nil
}

func (s *SetFlag) Run(sc *domain.StepContext) domain.Outcome {
	if sc.Flags == nil {
		sc.Log().Warn("set_flag without flag store", "step", s.id, "flag", s.Name)
		return domain.Continue(s.next)
	}
	sc.Flags.SetFlagState(s.Name, s.Value)
	return domain.Continue(s.next)
}
