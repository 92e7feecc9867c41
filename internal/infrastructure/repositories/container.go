package repositories

import (
	"go.uber.org/dig"
	"golang.org/x/sync/semaphore"

	"github.com/depscope/depscope/config"
	githubRepo "github.com/depscope/depscope/internal/infrastructure/repositories/github"
	manifestRepo "github.com/depscope/depscope/internal/infrastructure/repositories/manifest"
	npmRepo "github.com/depscope/depscope/internal/infrastructure/repositories/npm"
	openaiRepo "github.com/depscope/depscope/internal/infrastructure/repositories/openai"
	pypiRepo "github.com/depscope/depscope/internal/infrastructure/repositories/pypi"
	treesitterRepo "github.com/depscope/depscope/internal/infrastructure/repositories/treesitter"
	weaviateRepo "github.com/depscope/depscope/internal/infrastructure/repositories/weaviate"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register registry lookup with all package-registry clients
	if err := container.Provide(func() *RegistryLookup {
		lookup := NewRegistryLookup()
		lookup.Register(pypiRepo.NewPyPIRegistryRepository())
		lookup.Register(npmRepo.NewNPMRegistryRepository())
		return lookup
	}); err != nil {
		return err
	}

	// One process-wide LLM limiter shared by every consumer
	if err := container.Provide(func(settings *config.Settings) *semaphore.Weighted {
		return semaphore.NewWeighted(int64(settings.EffectiveLLMCap()))
	}); err != nil {
		return err
	}

	providers := []any{
		manifestRepo.NewManifestScannerRepository,
		githubRepo.NewChangelogFetcherRepository,
		weaviateRepo.NewWeaviateVectorRepository,
		openaiRepo.NewOpenAILLMRepository,
		treesitterRepo.NewTreeSitterUsageRepository,
	}
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return err
		}
	}

	return nil
}
