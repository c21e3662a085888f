package domain

// FlagStore is the boolean-flag collaborator consulted by flag conditions and written by steps.
// Unknown names are handled by the store's own policy (the bundled stores return false and warn).
type FlagStore interface {
	GetFlagState(name string) bool
	SetFlagState(name string, value bool)
}

// Condition is a side-effect-free predicate gating a Page.
// It is evaluated fresh on every resolution attempt and never caches its result.
type Condition interface {
	Evaluate() bool
}

// ConditionFunc adapts a plain function to the Condition interface.
type ConditionFunc func() bool

// Evaluate calls f.
func (f ConditionFunc) Evaluate() bool { return f() }

// Always is the trivially true condition.
type Always struct{}

// Evaluate returns true.
func (Always) Evaluate() bool { return true }

// FlagEquals holds when the named flag currently has the expected value.
type FlagEquals struct {
	Store    FlagStore
	Name     string
	Expected bool
}

// Evaluate queries the store. A missing store never matches.
func (c FlagEquals) Evaluate() bool {
	if c.Store == nil {
		return false
	}
	return c.Store.GetFlagState(c.Name) == c.Expected
}

// Not negates the conjunction of its inner conditions.
type Not struct {
	Inner []Condition
}

// Evaluate returns false when every inner condition holds.
func (c Not) Evaluate() bool {
	return !AllHold(c.Inner)
}

// AnyOf holds when at least one inner condition holds. An empty list never holds.
type AnyOf struct {
	Inner []Condition
}

// Evaluate short-circuits on the first holding condition.
func (c AnyOf) Evaluate() bool {
	for _, inner := range c.Inner {
		if inner != nil && inner.Evaluate() {
			return true
		}
	}
	return false
}

// AllHold evaluates a conjunction. An empty list is vacuously true; a nil entry fails the conjunction.
func AllHold(conditions []Condition) bool {
	for _, c := range conditions {
		if c == nil || !c.Evaluate() {
			return false
		}
	}
	return true
}
