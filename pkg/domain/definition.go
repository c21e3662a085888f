package domain

import "sync"

// PageSource materializes the page list of a Definition.
// A nil entry marks a page that could not be loaded; resolution skips it.
type PageSource func() []*Page

// Definition is the set of pages authored for one entity, in authoring order.
// The list is materialized on first use and stays stable for the entity's lifetime.
type Definition struct {
	EntityID string

	source PageSource
	once   sync.Once
	pages  []*Page
	loaded bool
}

// NewDefinition creates a lazily materialized definition.
func NewDefinition(entityID string, source PageSource) *Definition {
	return &Definition{EntityID: entityID, source: source}
}

// NewStaticDefinition wraps an already built page list.
func NewStaticDefinition(entityID string, pages ...*Page) *Definition {
	return NewDefinition(entityID, func() []*Page { return pages })
}

// Pages returns the cached page list, materializing it on the first call.
func (d *Definition) Pages() []*Page {
	d.once.Do(func() {
		if d.source != nil {
			d.pages = d.source()
		}
		d.loaded = true
	})
	return d.pages
}

// Materialized reports whether Pages has already run.
func (d *Definition) Materialized() bool {
	return d.loaded
}
