package runtime

import (
	"log/slog"

	"github.com/aretw0/vignette/pkg/domain"
)

// Resolver picks the page of a Definition that answers an activation.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a resolver. A nil logger discards diagnostics.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{logger: logger}
}

// Resolve scans pages last-authored first and returns the first one tagged with trigger
// whose conditions all hold. Later pages override earlier ones. Missing pages are skipped.
func (r *Resolver) Resolve(def *domain.Definition, trigger domain.Trigger) *domain.Page {
	return r.scan(def, func(p *domain.Page) bool { return p.Matches(trigger) })
}

// ResolveIdle picks the page that describes the entity's resting state, ignoring triggers.
// It uses the same last-authored-first order as Resolve so both agree on overrides.
func (r *Resolver) ResolveIdle(def *domain.Definition) *domain.Page {
	return r.scan(def, (*domain.Page).ConditionsHold)
}

func (r *Resolver) scan(def *domain.Definition, match func(*domain.Page) bool) *domain.Page {
	if def == nil {
		return nil
	}
	pages := def.Pages()
	for i := len(pages) - 1; i >= 0; i-- {
		page := pages[i]
		if page == nil {
			r.logger.Warn("skipping missing page", "entity", def.EntityID, "page", i+1)
			continue
		}
		if match(page) {
			return page
		}
	}
	return nil
}
