package domain

// DefinitionSpec is the authored content of one entity as produced by loaders.
// Tags cover JSON, YAML and frontmatter (mapstructure) sources.
type DefinitionSpec struct {
	ID    string     `json:"id" yaml:"id" mapstructure:"id"`
	Name  string     `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Pages []PageSpec `json:"pages" yaml:"pages" mapstructure:"pages"`
}

// PageSpec is one authored page. Start defaults to the first listed step.
type PageSpec struct {
	Name       string          `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Trigger    string          `json:"trigger" yaml:"trigger" mapstructure:"trigger"`
	Conditions []ConditionSpec `json:"conditions,omitempty" yaml:"conditions,omitempty" mapstructure:"conditions"`
	Start      string          `json:"start,omitempty" yaml:"start,omitempty" mapstructure:"start"`
	Steps      []StepSpec      `json:"steps" yaml:"steps" mapstructure:"steps"`
}

// EntryStep returns the declared start step or the first authored one.
func (p PageSpec) EntryStep() string {
	if p.Start != "" {
		return p.Start
	}
	if len(p.Steps) > 0 {
		return p.Steps[0].ID
	}
	return ""
}

// ConditionSpec is one authored predicate. When carries nested conditions for
// combinators such as "not" and "any".
type ConditionSpec struct {
	Kind   string          `json:"kind" yaml:"kind" mapstructure:"kind"`
	Params map[string]any  `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`
	When   []ConditionSpec `json:"when,omitempty" yaml:"when,omitempty" mapstructure:"when"`
}

// StepSpec is one authored step. Next is the default successor; kinds that branch
// read their targets from Args.
type StepSpec struct {
	ID   string         `json:"id" yaml:"id" mapstructure:"id"`
	Kind string         `json:"kind" yaml:"kind" mapstructure:"kind"`
	Next string         `json:"next,omitempty" yaml:"next,omitempty" mapstructure:"next"`
	Args map[string]any `json:"args,omitempty" yaml:"args,omitempty" mapstructure:"args"`
}

// ConditionBuilder compiles nested condition specs; step factories receive one.
type ConditionBuilder func(specs []ConditionSpec) ([]Condition, error)

// StepFactory builds a Step from its spec.
type StepFactory func(spec StepSpec, conditions ConditionBuilder) (Step, error)

// ConditionFactory builds a Condition from its spec.
type ConditionFactory func(spec ConditionSpec, flags FlagStore, nested ConditionBuilder) (Condition, error)
