//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/depscope/depscope/internal/domain/entities"
	"github.com/depscope/depscope/internal/domain/repositories"
)

// SpyUsageRepository implements repositories.UsageRepository as a
// configurable spy.
type SpyUsageRepository struct {
	Usages  map[string][]entities.CodeUsage // dep name -> usages
	FindErr error

	mu sync.Mutex
	// spy: dependencies that were looked up
	SearchedDeps []string
}

var _ repositories.UsageRepository = (*SpyUsageRepository)(nil)

func (s *SpyUsageRepository) FindUsages(_ context.Context, _, depName string) ([]entities.CodeUsage, error) {
	s.mu.Lock()
	s.SearchedDeps = append(s.SearchedDeps, depName)
	s.mu.Unlock()

	if s.FindErr != nil {
		return nil, s.FindErr
	}
	return s.Usages[depName], nil
}
