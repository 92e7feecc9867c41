package commands

import (
	"context"
	"fmt"
	"sync"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/depscope/depscope/config"
	"github.com/depscope/depscope/internal/domain/entities"
	"github.com/depscope/depscope/internal/domain/repositories"
	infraRepos "github.com/depscope/depscope/internal/infrastructure/repositories"
)

// Analyze is the interface for the project analysis command.
type Analyze interface {
	Execute(ctx context.Context, opts AnalyzeOptions) (entities.AnalysisReport, error)
}

// AnalyzeOptions holds runtime options for a single analysis.
type AnalyzeOptions struct {
	ProjectPath string
	FixMode     bool
}

// AnalyzeCommand orchestrates the full migration audit:
// scan manifests -> find outdated dependencies -> analyze each in parallel
// -> optionally generate patches -> build the report.
type AnalyzeCommand struct {
	scanner    repositories.ScannerRepository
	registries *infraRepos.RegistryLookup
	worker     *DepWorker
	llm        repositories.LLMRepository
	settings   *config.Settings
}

// NewAnalyzeCommand creates a new AnalyzeCommand.
func NewAnalyzeCommand(
	scanner repositories.ScannerRepository,
	registries *infraRepos.RegistryLookup,
	worker *DepWorker,
	llm repositories.LLMRepository,
	settings *config.Settings,
) *AnalyzeCommand {
	return &AnalyzeCommand{
		scanner:    scanner,
		registries: registries,
		worker:     worker,
		llm:        llm,
		settings:   settings,
	}
}

// Execute runs the full audit. Per-dependency failures are collected into
// the report's error list; a report is always produced unless the project
// cannot even be scanned.
func (it *AnalyzeCommand) Execute(ctx context.Context, opts AnalyzeOptions) (entities.AnalysisReport, error) {
	if err := it.llm.ValidateCredentials(); err != nil {
		return entities.AnalysisReport{}, err
	}

	deps, err := it.scanner.ScanProject(opts.ProjectPath)
	if err != nil {
		return entities.AnalysisReport{}, fmt.Errorf("failed to scan project: %w", err)
	}
	logger.Infof("Found %d dependencies in %s", len(deps), opts.ProjectPath)

	outdated, analysisErrors := it.findOutdated(ctx, deps)
	logger.Infof("%d dependencies are outdated", len(outdated))

	var mu sync.Mutex
	var assessments []entities.ImpactAssessment

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(it.settings.MaxConcurrentDeps)
	for _, dep := range outdated {
		group.Go(func() error {
			assessment, workerErr := it.worker.Analyze(groupCtx, opts.ProjectPath, dep)

			mu.Lock()
			defer mu.Unlock()
			if workerErr != nil {
				logger.Errorf("Analysis failed for %s: %v", dep.Name, workerErr)
				analysisErrors = append(analysisErrors, fmt.Sprintf("%s: %v", dep.Name, workerErr))
				return nil
			}
			assessments = append(assessments, assessment)
			return nil
		})
	}
	_ = group.Wait()

	var patches []entities.PatchSet
	if opts.FixMode {
		patches, analysisErrors = it.generatePatches(ctx, assessments, opts.ProjectPath, analysisErrors)
	}

	return BuildReport(opts.ProjectPath, len(deps), assessments, patches, analysisErrors), nil
}

// findOutdated resolves latest versions for every dependency, fanning out
// registry queries up to the configured cap. Failures become error strings,
// never an abort.
func (it *AnalyzeCommand) findOutdated(
	ctx context.Context,
	deps []entities.Dependency,
) ([]entities.OutdatedDependency, []string) {
	var mu sync.Mutex
	var outdated []entities.OutdatedDependency
	var errors []string

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(it.settings.MaxConcurrentRegistryQueries)
	for _, dep := range deps {
		group.Go(func() error {
			registry := it.registries.For(dep.Ecosystem)
			if registry == nil {
				logger.Debugf("No registry serves ecosystem %q; skipping %s", dep.Ecosystem, dep.Name)
				return nil
			}

			info, err := registry.Query(groupCtx, dep.Name)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errors = append(errors, fmt.Sprintf("%s: %v", dep.Name, err))
				return nil
			}
			if !entities.IsNewerVersion(info.LatestVersion, dep.CurrentVersion) {
				return nil
			}
			outdated = append(outdated, entities.OutdatedDependency{
				Name:           dep.Name,
				CurrentVersion: dep.CurrentVersion,
				LatestVersion:  info.LatestVersion,
				Ecosystem:      dep.Ecosystem,
				ManifestPath:   dep.ManifestPath,
				HomepageURL:    info.HomepageURL,
				RepositoryURL:  info.RepositoryURL,
				ChangelogURL:   info.ChangelogURL,
			})
			return nil
		})
	}
	_ = group.Wait()

	return outdated, errors
}

// generatePatches asks the model for file-level patches for every assessment
// that has impacts and attaches unified diffs.
func (it *AnalyzeCommand) generatePatches(
	ctx context.Context,
	assessments []entities.ImpactAssessment,
	projectPath string,
	analysisErrors []string,
) ([]entities.PatchSet, []string) {
	var patches []entities.PatchSet
	for _, assessment := range assessments {
		if len(assessment.Impacts) == 0 {
			continue
		}

		patchSet, err := it.llm.GeneratePatches(ctx, assessment, projectPath)
		if err != nil {
			logger.Errorf("Patch generation failed for %s: %v", assessment.DepName, err)
			analysisErrors = append(analysisErrors,
				fmt.Sprintf("%s: patch generation failed: %v", assessment.DepName, err))
			continue
		}

		for i := range patchSet.Patches {
			patch := &patchSet.Patches[i]
			patch.Diff = CreateUnifiedDiff(patch.FilePath, patch.Original, patch.Patched)
		}
		patches = append(patches, patchSet)
	}
	return patches, analysisErrors
}
