//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/depscope/depscope/internal/domain/entities"
	"github.com/depscope/depscope/internal/domain/repositories"
)

// SpyLLMRepository implements repositories.LLMRepository as a configurable
// spy. ExtractBreakingChanges returns ExtractResults in call order, sticking
// to the last entry once they run out, so confidence-gated retry loops can
// be scripted.
type SpyLLMRepository struct {
	// --- ValidateCredentials ---
	ValidateErr error

	// --- Embed ---
	Embedding []float32
	EmbedErr  error

	// --- ExtractBreakingChanges ---
	ExtractResults []entities.ChangelogAnalysis
	ExtractErr     error

	// --- AssessImpact ---
	Assessment entities.ImpactAssessment
	AssessErr  error

	// --- GeneratePatches ---
	PatchSet entities.PatchSet
	PatchErr error

	mu sync.Mutex
	// spy: inputs received
	EmbeddedTexts   []string
	ExtractedNames  []string
	ExtractExcerpts []string
	AssessedNames   []string
	PatchedNames    []string
}

var _ repositories.LLMRepository = (*SpyLLMRepository)(nil)

func (s *SpyLLMRepository) ValidateCredentials() error {
	return s.ValidateErr
}

func (s *SpyLLMRepository) Embed(_ context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	s.EmbeddedTexts = append(s.EmbeddedTexts, text)
	s.mu.Unlock()

	if s.EmbedErr != nil {
		return nil, s.EmbedErr
	}
	if s.Embedding != nil {
		return s.Embedding, nil
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (s *SpyLLMRepository) ExtractBreakingChanges(
	_ context.Context,
	depName, excerpts string,
) (entities.ChangelogAnalysis, error) {
	s.mu.Lock()
	call := len(s.ExtractedNames)
	s.ExtractedNames = append(s.ExtractedNames, depName)
	s.ExtractExcerpts = append(s.ExtractExcerpts, excerpts)
	s.mu.Unlock()

	if s.ExtractErr != nil {
		return entities.ChangelogAnalysis{}, s.ExtractErr
	}
	if len(s.ExtractResults) == 0 {
		return entities.ChangelogAnalysis{}, nil
	}
	if call >= len(s.ExtractResults) {
		call = len(s.ExtractResults) - 1
	}
	return s.ExtractResults[call], nil
}

func (s *SpyLLMRepository) AssessImpact(
	_ context.Context,
	depName, currentVersion, latestVersion string,
	_ []entities.BreakingChange,
	_ []entities.CodeUsage,
) (entities.ImpactAssessment, error) {
	s.mu.Lock()
	s.AssessedNames = append(s.AssessedNames, depName)
	s.mu.Unlock()

	if s.AssessErr != nil {
		return entities.ImpactAssessment{}, s.AssessErr
	}

	assessment := s.Assessment
	assessment.DepName = depName
	assessment.Versions = map[string]string{"current": currentVersion, "latest": latestVersion}
	return assessment, nil
}

func (s *SpyLLMRepository) GeneratePatches(
	_ context.Context,
	assessment entities.ImpactAssessment,
	_ string,
) (entities.PatchSet, error) {
	s.mu.Lock()
	s.PatchedNames = append(s.PatchedNames, assessment.DepName)
	s.mu.Unlock()

	if s.PatchErr != nil {
		return entities.PatchSet{}, s.PatchErr
	}

	patchSet := s.PatchSet
	patchSet.DepName = assessment.DepName
	return patchSet, nil
}
