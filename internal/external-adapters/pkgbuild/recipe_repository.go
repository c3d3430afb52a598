package pkgbuild

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// RecipeRepository implements repositories.RecipeRepository for a PKGBUILD on disk
type RecipeRepository struct {
	path string
}

// NewRecipeRepository creates a repository for the recipe at path
func NewRecipeRepository(path string) *RecipeRepository {
	return &RecipeRepository{path: path}
}

// Path returns the recipe location
func (r *RecipeRepository) Path() string {
	return r.path
}

// Read returns the full recipe text
func (r *RecipeRepository) Read(_ context.Context) ([]byte, error) {
	//nolint:gosec // G304: recipe path comes from the package definition
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe %s: %w", r.path, err)
	}
	return data, nil
}

// Write replaces the recipe through a temporary file in the same directory
// and a rename, so readers see either the old or the new text
func (r *RecipeRepository) Write(_ context.Context, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(r.path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), "."+filepath.Base(r.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary recipe: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temporary recipe: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		cleanup()
		return fmt.Errorf("failed to set recipe permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to flush temporary recipe: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary recipe: %w", err)
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace recipe %s: %w", r.path, err)
	}
	return nil
}
