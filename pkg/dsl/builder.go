package dsl

import (
	"fmt"

	"github.com/aretw0/vignette/pkg/adapters/memory"
	"github.com/aretw0/vignette/pkg/domain"
)

// Builder manages the construction of entity definitions.
type Builder struct {
	entities map[string]*EntityBuilder
	order    []string
}

// New creates a new builder.
func New() *Builder {
	return &Builder{
		entities: make(map[string]*EntityBuilder),
	}
}

// Entity starts or resumes the definition of an entity.
// If the entity already exists, it returns the existing builder.
func (b *Builder) Entity(id string) *EntityBuilder {
	if eb, ok := b.entities[id]; ok {
		return eb
	}
	eb := &EntityBuilder{spec: domain.DefinitionSpec{ID: id}, builder: b}
	b.entities[id] = eb
	b.order = append(b.order, id)
	return eb
}

// Specs returns the built definitions in the order their entities were first declared.
func (b *Builder) Specs() []domain.DefinitionSpec {
	specs := make([]domain.DefinitionSpec, 0, len(b.order))
	for _, id := range b.order {
		specs = append(specs, b.entities[id].Build())
	}
	return specs
}

// Build compiles the definitions into a memory Loader.
func (b *Builder) Build() (*memory.Loader, error) {
	loader, err := memory.NewFromSpecs(b.Specs()...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}

// EntityBuilder collects the pages of one entity in authoring order.
type EntityBuilder struct {
	spec    domain.DefinitionSpec
	pages   []*PageBuilder
	builder *Builder
}

// Name sets the display name.
func (e *EntityBuilder) Name(name string) *EntityBuilder {
	e.spec.Name = name
	return e
}

// Page appends a new page answering trigger. Later pages take priority.
func (e *EntityBuilder) Page(trigger domain.Trigger) *PageBuilder {
	pb := &PageBuilder{spec: domain.PageSpec{Trigger: string(trigger)}, entity: e}
	e.pages = append(e.pages, pb)
	return pb
}

// Entity switches to another entity of the same builder.
func (e *EntityBuilder) Entity(id string) *EntityBuilder {
	return e.builder.Entity(id)
}

// Build returns the underlying DefinitionSpec.
func (e *EntityBuilder) Build() domain.DefinitionSpec {
	spec := e.spec
	spec.Pages = make([]domain.PageSpec, 0, len(e.pages))
	for _, p := range e.pages {
		spec.Pages = append(spec.Pages, p.Build())
	}
	return spec
}
