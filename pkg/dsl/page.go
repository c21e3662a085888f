package dsl

import (
	"github.com/aretw0/vignette/pkg/domain"
	"github.com/aretw0/vignette/pkg/steps"
)

// PageBuilder provides a fluent API for configuring a page.
// Steps are chained in the order they are added unless Goto or End says otherwise.
type PageBuilder struct {
	spec   domain.PageSpec
	entity *EntityBuilder
	// open is true while the last step still accepts an implicit successor.
	open bool
}

// Named labels the page in logs and graphs.
func (p *PageBuilder) Named(name string) *PageBuilder {
	p.spec.Name = name
	return p
}

// When adds a raw condition to the page conjunction.
func (p *PageBuilder) When(cond domain.ConditionSpec) *PageBuilder {
	p.spec.Conditions = append(p.spec.Conditions, cond)
	return p
}

// WhenFlag requires the flag to have value.
func (p *PageBuilder) WhenFlag(name string, value bool) *PageBuilder {
	return p.When(Flag(name, value))
}

// Start overrides the entry step (default: the first step added).
func (p *PageBuilder) Start(id string) *PageBuilder {
	p.spec.Start = id
	return p
}

// Step appends a raw step.
func (p *PageBuilder) Step(spec domain.StepSpec) *PageBuilder {
	if p.open && len(p.spec.Steps) > 0 {
		last := &p.spec.Steps[len(p.spec.Steps)-1]
		if last.Next == "" {
			last.Next = spec.ID
		}
	}
	p.spec.Steps = append(p.spec.Steps, spec)
	p.open = spec.Next == ""
	return p
}

// Say shows a message box.
func (p *PageBuilder) Say(id, speaker, text string) *PageBuilder {
	return p.Step(domain.StepSpec{ID: id, Kind: steps.KindMessage, Args: map[string]any{
		"speaker": speaker,
		"text":    text,
	}})
}

// Choose shows a menu. Options without a target fall through to the next step.
func (p *PageBuilder) Choose(id, text string, options ...Option) *PageBuilder {
	opts := make([]any, len(options))
	for i, o := range options {
		opts[i] = map[string]any{"label": o.Label, "next": o.Next}
	}
	return p.Step(domain.StepSpec{ID: id, Kind: steps.KindChoice, Args: map[string]any{
		"text":    text,
		"options": opts,
	}})
}

// SetFlag writes a flag.
func (p *PageBuilder) SetFlag(id, name string, value bool) *PageBuilder {
	return p.Step(domain.StepSpec{ID: id, Kind: steps.KindSetFlag, Args: map[string]any{
		"name":  name,
		"value": value,
	}})
}

// Wait pauses for a number of ticks.
func (p *PageBuilder) Wait(id string, ticks int) *PageBuilder {
	return p.Step(domain.StepSpec{ID: id, Kind: steps.KindWait, Args: map[string]any{"ticks": ticks}})
}

// BranchOnFlag continues at then when the flag has value, else at otherwise.
// An empty target falls through to the next step.
func (p *PageBuilder) BranchOnFlag(id, flag string, value bool, then, otherwise string) *PageBuilder {
	return p.Step(domain.StepSpec{ID: id, Kind: steps.KindBranch, Args: map[string]any{
		"when": []any{map[string]any{"kind": "flag", "params": map[string]any{"name": flag, "value": value}}},
		"then": then,
		"else": otherwise,
	}})
}

// Activate queues an activation of another entity behind the current one.
func (p *PageBuilder) Activate(id, entity string, trigger domain.Trigger) *PageBuilder {
	return p.Step(domain.StepSpec{ID: id, Kind: steps.KindActivate, Args: map[string]any{
		"entity":  entity,
		"trigger": string(trigger),
	}})
}

// Await waits for a host signal; routes map acknowledged values to successors.
// An empty signal waits for the host to complete the step.
func (p *PageBuilder) Await(id, signal string, routes map[string]string) *PageBuilder {
	args := map[string]any{"signal": signal}
	if len(routes) > 0 {
		r := make(map[string]any, len(routes))
		for k, v := range routes {
			r[k] = v
		}
		args["routes"] = r
	}
	return p.Step(domain.StepSpec{ID: id, Kind: steps.KindAwait, Args: args})
}

// Goto sets the successor of the last step explicitly.
func (p *PageBuilder) Goto(next string) *PageBuilder {
	if n := len(p.spec.Steps); n > 0 {
		p.spec.Steps[n-1].Next = next
	}
	p.open = false
	return p
}

// End stops implicit chaining: the last step has no successor.
func (p *PageBuilder) End() *PageBuilder {
	p.open = false
	return p
}

// Page appends another page to the same entity.
func (p *PageBuilder) Page(trigger domain.Trigger) *PageBuilder {
	return p.entity.Page(trigger)
}

// Entity switches to another entity.
func (p *PageBuilder) Entity(id string) *EntityBuilder {
	return p.entity.Entity(id)
}

// Build returns the underlying PageSpec.
func (p *PageBuilder) Build() domain.PageSpec {
	spec := p.spec
	spec.Steps = append([]domain.StepSpec(nil), p.spec.Steps...)
	return spec
}

// Option is one entry of a Choose menu.
type Option struct {
	Label string
	Next  string
}

// Opt builds an Option.
func Opt(label, next string) Option {
	return Option{Label: label, Next: next}
}

// Flag builds a flag condition.
func Flag(name string, value bool) domain.ConditionSpec {
	return domain.ConditionSpec{Kind: "flag", Params: map[string]any{"name": name, "value": value}}
}

// Not negates a conjunction of conditions.
func Not(conds ...domain.ConditionSpec) domain.ConditionSpec {
	return domain.ConditionSpec{Kind: "not", When: conds}
}

// Any holds when one of conds holds.
func Any(conds ...domain.ConditionSpec) domain.ConditionSpec {
	return domain.ConditionSpec{Kind: "any", When: conds}
}
