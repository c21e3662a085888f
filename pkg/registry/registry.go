package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/vignette/pkg/domain"
	"github.com/aretw0/vignette/pkg/steps"
	"github.com/mitchellh/mapstructure"
)

// Condition kinds available in every default registry.
const (
	ConditionAlways = "always"
	ConditionFlag   = "flag"
	ConditionNot    = "not"
	ConditionAny    = "any"
)

// Registry maps authored kind names to the factories that build them.
// New step and condition kinds are added here; the resolver and runner never change.
type Registry struct {
	mu         sync.RWMutex
	steps      map[string]domain.StepFactory
	conditions map[string]domain.ConditionFactory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		steps:      make(map[string]domain.StepFactory),
		conditions: make(map[string]domain.ConditionFactory),
	}
}

// NewDefault creates a registry with the built-in steps and conditions.
func NewDefault() *Registry {
	r := New()
	for kind, factory := range steps.Builtins() {
		r.RegisterStep(kind, factory)
	}
	r.RegisterCondition(ConditionAlways, buildAlways)
	r.RegisterCondition(ConditionFlag, buildFlag)
	r.RegisterCondition(ConditionNot, buildNot)
	r.RegisterCondition(ConditionAny, buildAny)
	return r
}

// RegisterStep adds a step kind. An existing kind is overwritten.
func (r *Registry) RegisterStep(kind string, factory domain.StepFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[kind] = factory
}

// RegisterCondition adds a condition kind. An existing kind is overwritten.
func (r *Registry) RegisterCondition(kind string, factory domain.ConditionFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conditions[kind] = factory
}

// StepKinds lists registered step kinds, sorted.
func (r *Registry) StepKinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.steps)
}

// ConditionKinds lists registered condition kinds, sorted.
func (r *Registry) ConditionKinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.conditions)
}

// BuildStep instantiates a step from its spec.
func (r *Registry) BuildStep(spec domain.StepSpec, flags domain.FlagStore) (domain.Step, error) {
	r.mu.RLock()
	factory, ok := r.steps[spec.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (step %q)", domain.ErrUnknownStepKind, spec.Kind, spec.ID)
	}
	return factory(spec, r.conditionBuilder(flags))
}

// BuildConditions instantiates a conjunction bound to the given flag store.
func (r *Registry) BuildConditions(specs []domain.ConditionSpec, flags domain.FlagStore) ([]domain.Condition, error) {
	out := make([]domain.Condition, 0, len(specs))
	nested := r.conditionBuilder(flags)
	for _, spec := range specs {
		r.mu.RLock()
		factory, ok := r.conditions[spec.Kind]
		r.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownConditionKind, spec.Kind)
		}
		cond, err := factory(spec, flags, nested)
		if err != nil {
			return nil, err
		}
		out = append(out, cond)
	}
	return out, nil
}

func (r *Registry) conditionBuilder(flags domain.FlagStore) domain.ConditionBuilder {
	return func(specs []domain.ConditionSpec) ([]domain.Condition, error) {
		return r.BuildConditions(specs, flags)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func buildAlways(_ domain.ConditionSpec, _ domain.FlagStore, _ domain.ConditionBuilder) (domain.Condition, error) {
	return domain.Always{}, nil
}

type flagParams struct {
	Name  string `mapstructure:"name"`
	Value *bool  `mapstructure:"value"`
}

// buildFlag reads {name, value}; value defaults to true.
func buildFlag(spec domain.ConditionSpec, flags domain.FlagStore, _ domain.ConditionBuilder) (domain.Condition, error) {
	var params flagParams
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &params,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(spec.Params); err != nil {
		return nil, fmt.Errorf("%w: flag condition: %v", domain.ErrInvalidArgs, err)
	}
	if params.Name == "" {
		return nil, fmt.Errorf("%w: flag condition needs a name", domain.ErrInvalidArgs)
	}
	expected := true
	if params.Value != nil {
		expected = *params.Value
	}
	return domain.FlagEquals{Store: flags, Name: params.Name, Expected: expected}, nil
}

func buildNot(spec domain.ConditionSpec, _ domain.FlagStore, nested domain.ConditionBuilder) (domain.Condition, error) {
	inner, err := nested(spec.When)
	if err != nil {
		return nil, fmt.Errorf("not: %w", err)
	}
	return domain.Not{Inner: inner}, nil
}

func buildAny(spec domain.ConditionSpec, _ domain.FlagStore, nested domain.ConditionBuilder) (domain.Condition, error) {
	inner, err := nested(spec.When)
	if err != nil {
		return nil, fmt.Errorf("any: %w", err)
	}
	return domain.AnyOf{Inner: inner}, nil
}
