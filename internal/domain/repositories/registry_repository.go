package repositories

import (
	"context"

	"github.com/depscope/depscope/internal/domain/entities"
)

// RegistryRepository queries one package registry (PyPI, npm) for
// latest-version metadata.
type RegistryRepository interface {
	// Name returns the registry identifier (e.g. "pypi", "npm").
	Name() string

	// Matches returns true if this registry serves the given ecosystem.
	Matches(ecosystem entities.Ecosystem) bool

	// Query fetches latest-version metadata for a package.
	Query(ctx context.Context, name string) (entities.RegistryInfo, error)
}
