package steps

import (
	"fmt"
	"sort"

	"github.com/aretw0/vignette/pkg/domain"
)

// Await parks the chain until the host reports back, e.g. a battle result or the end of a fade.
//
// With a signal, the acknowledged value selects a successor through Routes (falling back
// to next). Without one, the host completes the step itself and names the successor.
type Await struct {
	base
	Signal string
	Routes map[string]string
}

type awaitArgs struct {
	Signal string            `mapstructure:"signal"`
	Routes map[string]string `mapstructure:"routes"`
}

// NewAwait builds an await step.
func NewAwait(spec domain.StepSpec, _ domain.ConditionBuilder) (domain.Step, error) {
	var args awaitArgs
	if err := decodeArgs(spec, &args); err != nil {
		return nil, err
	}
	return &Await{base: newBase(spec), Signal: args.Signal, Routes: args.Routes}, nil
}

func (a *Await) Successors() []string {
	keys := make([]string, 0, len(a.Routes))
	for k := range a.Routes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := a.base.Successors()
	for _, k := range keys {
		out = appendTarget(out, a.Routes[k])
	}
	return out
}

func (a *Await) Run(_ *domain.StepContext) domain.Outcome {
	if a.Signal == "" {
		return domain.Suspend(domain.AwaitExternal())
	}
	return domain.Suspend(domain.AwaitSignal(a.Signal))
}

func (a *Await) Resume(_ *domain.StepContext, token domain.ResumeToken) domain.Outcome {
	if token.Value != nil {
		if target, ok := a.Routes[fmt.Sprint(token.Value)]; ok {
			return domain.Continue(target)
		}
	}
	return domain.Continue(a.next)
}
