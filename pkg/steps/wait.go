package steps

import "github.com/aretw0/vignette/pkg/domain"

// Wait holds the chain for a number of scheduling ticks.
type Wait struct {
	base
	Ticks int
}

type waitArgs struct {
	Ticks int `mapstructure:"ticks"`
}

// NewWait builds a wait step.
func NewWait(spec domain.StepSpec, _ domain.ConditionBuilder) (domain.Step, error) {
	var args waitArgs
	if err := decodeArgs(spec, &args); err != nil {
		return nil, err
	}
	return &Wait{base: newBase(spec), Ticks: args.Ticks}, nil
}

func (w *Wait) Run(_ *domain.StepContext) domain.Outcome {
	if w.Ticks <= 0 {
		return domain.Continue(w.next)
	}
	return domain.Suspend(domain.WaitTicks(w.Ticks))
}

func (w *Wait) Resume(_ *domain.StepContext, _ domain.ResumeToken) domain.Outcome {
	return domain.Continue(w.next)
}
