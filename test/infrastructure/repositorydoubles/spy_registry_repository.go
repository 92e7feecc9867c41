//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/depscope/depscope/internal/domain/entities"
	"github.com/depscope/depscope/internal/domain/repositories"
)

// SpyRegistryRepository implements repositories.RegistryRepository as a
// configurable spy. Query is safe for concurrent use and tracks the peak
// number of in-flight calls, so fan-out caps can be asserted.
type SpyRegistryRepository struct {
	RegistryName string
	Ecosystem    entities.Ecosystem

	// --- Query ---
	Infos      map[string]entities.RegistryInfo // name -> info
	QueryErr   error
	QueryDelay time.Duration

	mu sync.Mutex
	// spy: names that were queried
	QueriedNames []string
	// spy: concurrency tracking
	active    int
	MaxActive int
}

var _ repositories.RegistryRepository = (*SpyRegistryRepository)(nil)

func (s *SpyRegistryRepository) Name() string {
	return s.RegistryName
}

func (s *SpyRegistryRepository) Matches(ecosystem entities.Ecosystem) bool {
	return ecosystem == s.Ecosystem
}

func (s *SpyRegistryRepository) Query(_ context.Context, name string) (entities.RegistryInfo, error) {
	s.mu.Lock()
	s.QueriedNames = append(s.QueriedNames, name)
	s.active++
	if s.active > s.MaxActive {
		s.MaxActive = s.active
	}
	s.mu.Unlock()

	if s.QueryDelay > 0 {
		time.Sleep(s.QueryDelay)
	}

	s.mu.Lock()
	s.active--
	s.mu.Unlock()

	if s.QueryErr != nil {
		return entities.RegistryInfo{}, s.QueryErr
	}
	info, ok := s.Infos[name]
	if !ok {
		return entities.RegistryInfo{}, fmt.Errorf("no registry info configured for %q", name)
	}
	return info, nil
}
