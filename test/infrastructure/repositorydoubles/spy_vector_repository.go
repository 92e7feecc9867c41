//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/depscope/depscope/internal/domain/repositories"
)

// UpsertRecord captures the arguments of one SpyVectorRepository.Upsert call.
type UpsertRecord struct {
	DepName  string
	Version  string
	SubChunk int
	Content  string
	Vector   []float32
}

// SpyVectorRepository implements repositories.VectorRepository as a
// configurable spy backed by an in-memory map.
type SpyVectorRepository struct {
	// --- Query ---
	Docs     map[string][]string // dep name -> stored contents
	QueryErr error

	// --- Upsert ---
	UpsertErr error

	mu sync.Mutex
	// spy: upserts received
	Upserts []UpsertRecord
	// spy: limits passed to Query
	QueryLimits []int
}

var _ repositories.VectorRepository = (*SpyVectorRepository)(nil)

func (s *SpyVectorRepository) Upsert(
	_ context.Context,
	depName, version string,
	subChunk int,
	content string,
	vector []float32,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	s.Upserts = append(s.Upserts, UpsertRecord{
		DepName:  depName,
		Version:  version,
		SubChunk: subChunk,
		Content:  content,
		Vector:   vector,
	})
	return nil
}

func (s *SpyVectorRepository) Query(_ context.Context, depName string, _ []float32, limit int) ([]string, error) {
	s.mu.Lock()
	s.QueryLimits = append(s.QueryLimits, limit)
	s.mu.Unlock()

	if s.QueryErr != nil {
		return nil, s.QueryErr
	}

	docs := s.Docs[depName]
	if limit > 0 && limit < len(docs) {
		return docs[:limit], nil
	}
	return docs, nil
}

func (s *SpyVectorRepository) CountFor(_ context.Context, depName string) (int, error) {
	return len(s.Docs[depName]), nil
}
