package domain

import (
	"fmt"
	"log/slog"
)

// StepLookup builds the step with the given ID from the page's current authored content.
type StepLookup func(id string) (Step, error)

// Page is one authored variant of an entity's behavior.
// The trigger tag and conditions are fixed at load time; the step graph is gathered
// lazily on first run so that content edited before then is reflected.
type Page struct {
	Index      int
	Name       string
	Trigger    Trigger
	Conditions []Condition
	Start      string

	lookup StepLookup
	steps  map[string]Step
	order  []string
}

// NewPage creates a page whose steps are resolved through lookup.
func NewPage(index int, name string, trigger Trigger, conditions []Condition, start string, lookup StepLookup) *Page {
	return &Page{
		Index:      index,
		Name:       name,
		Trigger:    trigger,
		Conditions: conditions,
		Start:      start,
		lookup:     lookup,
	}
}

// NewStaticPage creates a page over an already built set of steps.
func NewStaticPage(index int, trigger Trigger, conditions []Condition, start string, steps ...Step) *Page {
	byID := make(map[string]Step, len(steps))
	for _, s := range steps {
		if s != nil {
			byID[s.ID()] = s
		}
	}
	return NewPage(index, "", trigger, conditions, start, func(id string) (Step, error) {
		s, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("step %q not found", id)
		}
		return s, nil
	})
}

// Label identifies the page in logs.
func (p *Page) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("page-%d", p.Index+1)
}

// ConditionsHold evaluates the page conjunction.
func (p *Page) ConditionsHold() bool {
	return AllHold(p.Conditions)
}

// Matches reports whether the page answers trigger under the current conditions.
func (p *Page) Matches(trigger Trigger) bool {
	return p.Trigger == trigger && p.ConditionsHold()
}

// Gathered reports whether the step graph has already been collected.
func (p *Page) Gathered() bool {
	return len(p.order) > 0
}

// Gather collects the step graph reachable from the start step and returns its size.
// Broken references are logged and skipped. A page that gathers nothing is retried
// on the next call.
func (p *Page) Gather(logger *slog.Logger) int {
	if p.Gathered() {
		return len(p.order)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if p.lookup == nil || p.Start == "" {
		return 0
	}

	steps := make(map[string]Step)
	var order []string
	queue := []string{p.Start}
	seen := map[string]bool{p.Start: true}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		step, err := p.lookup(id)
		if err != nil || step == nil {
			logger.Warn("step skipped while gathering page",
				"page", p.Label(), "step", id, "err", err)
			continue
		}
		steps[id] = step
		order = append(order, id)

		for _, next := range step.Successors() {
			if next == "" || seen[next] {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}

	if len(order) > 0 {
		p.steps = steps
		p.order = order
	}
	return len(order)
}

// Step returns a gathered step.
func (p *Page) Step(id string) (Step, bool) {
	s, ok := p.steps[id]
	return s, ok
}

// Fetch returns a gathered step, or builds it from the page content when it was not
// reachable while gathering (a successor chosen by the host, for instance).
func (p *Page) Fetch(id string) (Step, bool) {
	if s, ok := p.steps[id]; ok {
		return s, true
	}
	if p.lookup == nil || !p.Gathered() {
		return nil, false
	}
	s, err := p.lookup(id)
	if err != nil || s == nil {
		return nil, false
	}
	p.steps[id] = s
	p.order = append(p.order, id)
	return s, true
}

// StartStep returns the entry step, or nil when nothing was gathered.
func (p *Page) StartStep() Step {
	return p.steps[p.Start]
}

// Steps returns the gathered steps in discovery order.
func (p *Page) Steps() []Step {
	out := make([]Step, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.steps[id])
	}
	return out
}
