package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/vignette/internal/compiler"
	"github.com/aretw0/vignette/pkg/domain"
)

// Loader implements ports.DefinitionLoader using an in-memory map.
type Loader struct {
	mu    sync.RWMutex
	specs map[string]domain.DefinitionSpec
}

// NewLoader creates a loader from raw authored documents (YAML or JSON) keyed by entity ID.
func NewLoader(data map[string]string) (*Loader, error) {
	parser := compiler.NewParser()
	l := &Loader{specs: make(map[string]domain.DefinitionSpec, len(data))}
	for id, raw := range data {
		spec, err := parser.Parse([]byte(raw), id)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", id, err)
		}
		l.specs[spec.ID] = *spec
	}
	return l, nil
}

// NewFromSpecs creates a loader from domain specs.
func NewFromSpecs(specs ...domain.DefinitionSpec) (*Loader, error) {
	l := &Loader{specs: make(map[string]domain.DefinitionSpec, len(specs))}
	for _, s := range specs {
		if s.ID == "" {
			return nil, fmt.Errorf("definition missing ID")
		}
		l.specs[s.ID] = s
	}
	return l, nil
}

// Put adds or replaces an entity's content.
func (l *Loader) Put(spec domain.DefinitionSpec) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.specs[spec.ID] = spec
}

// LoadDefinition returns a copy of the entity's spec.
func (l *Loader) LoadDefinition(entityID string) (*domain.DefinitionSpec, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	spec, ok := l.specs[entityID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, entityID)
	}
	return &spec, nil
}

// ListEntities returns all entity IDs, sorted.
func (l *Loader) ListEntities() ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.specs))
	for k := range l.specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
