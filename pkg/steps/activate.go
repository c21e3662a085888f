package steps

import (
	"github.com/aretw0/vignette/pkg/domain"
)

// Activate queues an activation for another entity (or itself). The new request
// runs after the current one completes, never before.
type Activate struct {
	base
	Entity  string
	Trigger domain.Trigger
}

type activateArgs struct {
	Entity  string `mapstructure:"entity"`
	Trigger string `mapstructure:"trigger"`
}

// NewActivate builds an activate step. The trigger defaults to system.
func NewActivate(spec domain.StepSpec, _ domain.ConditionBuilder) (domain.Step, error) {
	var args activateArgs
	if err := decodeArgs(spec, &args); err != nil {
		return nil, err
	}
	trigger := domain.TriggerSystem
	if args.Trigger != "" {
		var err error
		if trigger, err = domain.ParseTrigger(args.Trigger); err != nil {
			return nil, err
		}
	}
	return &Activate{base: newBase(spec), Entity: args.Entity, Trigger: trigger}, nil
}

func (a *Activate) Run(sc *domain.StepContext) domain.Outcome {
	target := a.Entity
	if target == "" {
		target = sc.EntityID
	}
	sc.Enqueue(domain.NewActivation(target, a.Trigger, nil))
	return domain.Continue(a.next)
}
