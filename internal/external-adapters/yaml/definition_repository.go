package yaml

import (
	"context"
	"fmt"
	"os"

	"github.com/ochairo/pkgbump/internal/domain/entities"
)

// DefinitionRepository implements repositories.DefinitionRepository using YAML files
type DefinitionRepository struct {
	parser *DefinitionParser
}

// NewDefinitionRepository creates a new YAML-based definition repository
func NewDefinitionRepository() *DefinitionRepository {
	return &DefinitionRepository{
		parser: NewDefinitionParser(),
	}
}

// GetDefinition loads the package definition at path
func (r *DefinitionRepository) GetDefinition(_ context.Context, path string) (*entities.Definition, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("definition not found: %s", path)
	}

	return r.parser.ParseFile(path)
}
