//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"
	"time"

	"github.com/depscope/depscope/internal/domain/entities"
	"github.com/depscope/depscope/internal/domain/repositories"
)

// SpyChangelogRepository implements repositories.ChangelogRepository as a
// configurable spy. Fetch is safe for concurrent use and tracks the peak
// number of in-flight calls.
type SpyChangelogRepository struct {
	Texts      map[string]string   // dep name -> changelog text
	Warnings   map[string][]string // dep name -> warnings
	FetchDelay time.Duration

	mu sync.Mutex
	// spy: dependencies that were fetched
	FetchedDeps []string
	// spy: concurrency tracking
	active    int
	MaxActive int
}

var _ repositories.ChangelogRepository = (*SpyChangelogRepository)(nil)

func (s *SpyChangelogRepository) Fetch(_ context.Context, dep entities.OutdatedDependency) (string, []string) {
	s.mu.Lock()
	s.FetchedDeps = append(s.FetchedDeps, dep.Name)
	s.active++
	if s.active > s.MaxActive {
		s.MaxActive = s.active
	}
	s.mu.Unlock()

	if s.FetchDelay > 0 {
		time.Sleep(s.FetchDelay)
	}

	s.mu.Lock()
	s.active--
	s.mu.Unlock()

	return s.Texts[dep.Name], s.Warnings[dep.Name]
}
