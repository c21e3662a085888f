package loam

import "github.com/aretw0/vignette/pkg/domain"

// EntityMetadata is the frontmatter of an entity document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type EntityMetadata struct {
	ID    string            `json:"id" mapstructure:"id"`
	Name  string            `json:"name" mapstructure:"name"`
	Pages []domain.PageSpec `json:"pages" mapstructure:"pages"`
}
