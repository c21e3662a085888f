package steps

import (
	"fmt"

	"github.com/aretw0/vignette/pkg/domain"
)

// Branch picks its successor at runtime from a condition conjunction.
// Empty then/else targets fall back to the step's next.
type Branch struct {
	base
	When []domain.Condition
	Then string
	Else string
}

type branchArgs struct {
	When []domain.ConditionSpec `mapstructure:"when"`
	Then string                 `mapstructure:"then"`
	Else string                 `mapstructure:"else"`
}

// NewBranch builds a branch step, compiling its conditions through build.
func NewBranch(spec domain.StepSpec, build domain.ConditionBuilder) (domain.Step, error) {
	var args branchArgs
	if err := decodeArgs(spec, &args); err != nil {
		return nil, err
	}
	var conds []domain.Condition
	if len(args.When) > 0 {
		if build == nil {
			return nil, fmt.Errorf("%w: step %q: no condition builder", domain.ErrInvalidArgs, spec.ID)
		}
		var err error
		conds, err = build(args.When)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", spec.ID, err)
		}
	}
	return &Branch{base: newBase(spec), When: conds, Then: args.Then, Else: args.Else}, nil
}

func (b *Branch) Successors() []string {
	var out []string
	out = appendTarget(out, b.Then)
	out = appendTarget(out, b.Else)
	out = appendTarget(out, b.next)
	return out
}

func (b *Branch) Run(_ *domain.StepContext) domain.Outcome {
	if domain.AllHold(b.When) {
		return domain.Continue(b.or(b.Then))
	}
	return domain.Continue(b.or(b.Else))
}

func (b *Branch) or(target string) string {
	if target != "" {
		return target
	}
	return b.next
}
