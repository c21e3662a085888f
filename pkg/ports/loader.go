package ports

import (
	"context"

	"github.com/aretw0/vignette/pkg/domain"
)

// DefinitionLoader defines how the engine retrieves authored entity content.
// This allows the storage layer (Loam, YAML, Memory) to be decoupled.
type DefinitionLoader interface {
	// LoadDefinition returns the authored pages of an entity.
	// It returns an error wrapping domain.ErrDefinitionNotFound when the entity has no content.
	LoadDefinition(entityID string) (*domain.DefinitionSpec, error)

	// ListEntities returns every entity ID the loader knows, in a deterministic order.
	ListEntities() ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
type Watchable interface {
	// Watch returns a channel that receives the ID of each entity whose content changed.
	Watch(ctx context.Context) (<-chan string, error)
}
