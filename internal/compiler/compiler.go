// Package compiler turns authored DefinitionSpecs into lazily materialized domain Definitions.
package compiler

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/vignette/pkg/domain"
	"github.com/aretw0/vignette/pkg/registry"
)

// Compiler binds authored specs to step and condition factories and to the flag store.
type Compiler struct {
	registry *registry.Registry
	flags    domain.FlagStore
	logger   *slog.Logger
}

// New creates a compiler. A nil registry means the default one.
func New(reg *registry.Registry, flags domain.FlagStore, logger *slog.Logger) *Compiler {
	if reg == nil {
		reg = registry.NewDefault()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Compiler{registry: reg, flags: flags, logger: logger}
}

// Compile wraps spec in a Definition whose pages are built on first use.
// A page that fails to compile becomes a nil entry, which resolution skips with a warning.
func (c *Compiler) Compile(spec *domain.DefinitionSpec) *domain.Definition {
	if spec == nil {
		return nil
	}
	return domain.NewDefinition(spec.ID, func() []*domain.Page {
		pages := make([]*domain.Page, len(spec.Pages))
		for i, ps := range spec.Pages {
			page, err := c.CompilePage(i, ps)
			if err != nil {
				c.logger.Warn("page dropped", "entity", spec.ID, "page", i+1, "err", err)
				continue
			}
			pages[i] = page
		}
		return pages
	})
}

// CompilePage builds one page. Its trigger and conditions are bound now; its steps are
// built from the authored step list on the first run.
func (c *Compiler) CompilePage(index int, ps domain.PageSpec) (*domain.Page, error) {
	trigger, err := domain.ParseTrigger(ps.Trigger)
	if err != nil {
		return nil, err
	}
	conditions, err := c.registry.BuildConditions(ps.Conditions, c.flags)
	if err != nil {
		return nil, fmt.Errorf("conditions: %w", err)
	}
	return domain.NewPage(index, ps.Name, trigger, conditions, ps.EntryStep(), c.lookup(ps)), nil
}

func (c *Compiler) lookup(ps domain.PageSpec) domain.StepLookup {
	byID := make(map[string]domain.StepSpec, len(ps.Steps))
	for _, s := range ps.Steps {
		if s.ID != "" {
			byID[s.ID] = s
		}
	}
	return func(id string) (domain.Step, error) {
		spec, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("step %q is not authored on this page", id)
		}
		return c.registry.BuildStep(spec, c.flags)
	}
}
