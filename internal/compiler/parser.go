package compiler

import (
	"fmt"

	"github.com/aretw0/vignette/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Parser converts raw authored bytes into a DefinitionSpec.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes YAML or JSON (a YAML subset) into a DefinitionSpec.
// fallbackID is used when the document does not name its entity.
func (p *Parser) Parse(data []byte, fallbackID string) (*domain.DefinitionSpec, error) {
	var spec domain.DefinitionSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}
	if spec.ID == "" {
		spec.ID = fallbackID
	}
	if spec.ID == "" {
		return nil, fmt.Errorf("definition missing ID")
	}
	return &spec, nil
}
