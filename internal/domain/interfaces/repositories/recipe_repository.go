// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/pkgbump/internal/domain/entities"
)

// RecipeRepository defines access to the local recipe file
type RecipeRepository interface {
	// Path returns the location of the recipe
	Path() string

	// Read returns the full recipe text
	Read(ctx context.Context) ([]byte, error)

	// Write replaces the recipe text in a single step
	Write(ctx context.Context, data []byte) error
}

// RecipeCodec extracts and rewrites the fields of a recipe
type RecipeCodec interface {
	// ParseIdentity reads version, release, source and artifact checksum
	ParseIdentity(data []byte, fields entities.RecipeFields) (entities.BuildIdentity, error)

	// Rewrite returns data with the maintained fields replaced
	Rewrite(data []byte, fields entities.RecipeFields, change entities.RecipeChange) ([]byte, error)
}

// DefinitionRepository loads package definitions
type DefinitionRepository interface {
	// GetDefinition loads the definition stored at path
	GetDefinition(ctx context.Context, path string) (*entities.Definition, error)
}

// RecordStore persists the decision record between the detect and update stages
type RecordStore interface {
	// Save writes the record
	Save(ctx context.Context, record *entities.DecisionRecord) error

	// Load reads and validates the record
	Load(ctx context.Context) (*entities.DecisionRecord, error)
}
