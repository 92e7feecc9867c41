//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, dummies) for
// repository interfaces. These are hand-crafted implementations, no mock
// frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/depscope/depscope/internal/domain/entities"
	"github.com/depscope/depscope/internal/domain/repositories"
)

// SpyScannerRepository implements repositories.ScannerRepository as a
// configurable spy.
type SpyScannerRepository struct {
	Dependencies []entities.Dependency
	ScanErr      error

	// spy: paths that were scanned
	ScannedPaths []string
}

var _ repositories.ScannerRepository = (*SpyScannerRepository)(nil)

func (s *SpyScannerRepository) ScanProject(projectPath string) ([]entities.Dependency, error) {
	s.ScannedPaths = append(s.ScannedPaths, projectPath)
	if s.ScanErr != nil {
		return nil, s.ScanErr
	}
	return s.Dependencies, nil
}
