// Package file loads a whole scene (entities and starting flags) from one YAML file.
package file

import (
	"fmt"
	"os"

	"github.com/aretw0/vignette/pkg/adapters/memory"
	"github.com/aretw0/vignette/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Scene is the on-disk layout of a scene file.
type Scene struct {
	Name     string                  `yaml:"scene"`
	Flags    map[string]bool         `yaml:"flags,omitempty"`
	Entities []domain.DefinitionSpec `yaml:"entities"`
}

// Loader serves the entities of a scene file.
type Loader struct {
	*memory.Loader
	Scene Scene
}

// Load reads and decodes the scene file at path.
func Load(path string) (*Loader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scene document. Entity IDs must be present and unique.
func Parse(data []byte) (*Loader, error) {
	var scene Scene
	if err := yaml.Unmarshal(data, &scene); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}

	seen := make(map[string]bool, len(scene.Entities))
	for i, e := range scene.Entities {
		if e.ID == "" {
			return nil, fmt.Errorf("scene entity %d has no id", i+1)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("scene entity %q is defined twice", e.ID)
		}
		seen[e.ID] = true
	}

	mem, err := memory.NewFromSpecs(scene.Entities...)
	if err != nil {
		return nil, err
	}
	return &Loader{Loader: mem, Scene: scene}, nil
}
