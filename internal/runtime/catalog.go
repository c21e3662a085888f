package runtime

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/vignette/internal/compiler"
	"github.com/aretw0/vignette/pkg/domain"
	"github.com/aretw0/vignette/pkg/ports"
)

// Catalog loads and compiles entity definitions on demand and caches them.
// A cached Definition is stable until Invalidate drops it, which models the
// entity being destroyed and recreated.
type Catalog struct {
	loader   ports.DefinitionLoader
	compiler *compiler.Compiler
	logger   *slog.Logger

	mu   sync.Mutex
	defs map[string]*domain.Definition
}

// NewCatalog creates a catalog over loader.
func NewCatalog(loader ports.DefinitionLoader, c *compiler.Compiler, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Catalog{
		loader:   loader,
		compiler: c,
		logger:   logger,
		defs:     make(map[string]*domain.Definition),
	}
}

// Definition returns the cached Definition for entityID, loading it on first use.
// Load failures are not cached.
func (c *Catalog) Definition(entityID string) (*domain.Definition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if def, ok := c.defs[entityID]; ok {
		return def, nil
	}
	spec, err := c.loader.LoadDefinition(entityID)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", entityID, err)
	}
	def := c.compiler.Compile(spec)
	c.defs[entityID] = def
	return def, nil
}

// Spec returns the authored content of entityID straight from the loader.
func (c *Catalog) Spec(entityID string) (*domain.DefinitionSpec, error) {
	return c.loader.LoadDefinition(entityID)
}

// Entities lists the entities the loader knows.
func (c *Catalog) Entities() ([]string, error) {
	return c.loader.ListEntities()
}

// Cached reports whether entityID has a Definition in the cache.
func (c *Catalog) Cached(entityID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.defs[entityID]
	return ok
}

// Invalidate drops the cached Definition of entityID. An activation already running
// keeps its page; the next one sees the reloaded content.
func (c *Catalog) Invalidate(entityID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.defs[entityID]; ok {
		delete(c.defs, entityID)
		c.logger.Debug("definition invalidated", "entity", entityID)
	}
}

// InvalidateAll empties the cache.
func (c *Catalog) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.defs)
}
