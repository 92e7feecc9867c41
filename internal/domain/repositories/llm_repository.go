package repositories

import (
	"context"

	"github.com/depscope/depscope/internal/domain/entities"
)

// LLMRepository wraps the embedding and structured-extraction services.
// Implementations share one process-wide concurrency limiter because some
// local-inference backends are effectively single-threaded.
type LLMRepository interface {
	// ValidateCredentials fails fast, before any network activity, when the
	// configured backend has no usable credentials. The error names the
	// environment variable to set.
	ValidateCredentials() error

	// Embed returns the embedding vector for a text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// ExtractBreakingChanges analyzes changelog excerpts for a dependency
	// and returns structured breaking changes with a confidence score.
	ExtractBreakingChanges(ctx context.Context, depName, excerpts string) (entities.ChangelogAnalysis, error)

	// AssessImpact cross-references breaking changes with code usages.
	// Callers overwrite the returned Versions with their own pair; language
	// models routinely omit or hallucinate that field.
	AssessImpact(
		ctx context.Context,
		depName, currentVersion, latestVersion string,
		breakingChanges []entities.BreakingChange,
		codeUsages []entities.CodeUsage,
	) (entities.ImpactAssessment, error)

	// GeneratePatches produces file-level migration patches for an
	// assessment with impacts.
	GeneratePatches(ctx context.Context, assessment entities.ImpactAssessment, projectPath string) (entities.PatchSet, error)
}
