package commands

import (
	"context"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/depscope/depscope/config"
	"github.com/depscope/depscope/internal/domain/entities"
	"github.com/depscope/depscope/internal/domain/repositories"
)

// depState enumerates the stages of the per-dependency pipeline. Each stage
// handler returns the next state, so the analysis reads as an explicit state
// machine: fetch -> embed -> analyze (with confidence-gated retries) ->
// parse code -> assess impact.
type depState int

const (
	stateFetchChangelog depState = iota
	stateEmbedChangelog
	stateRAGAnalyze
	stateRefineQuery
	stateParseCode
	stateAssessImpact
	stateDone
)

// depRun carries the mutable state of one dependency's analysis through the
// state machine.
type depRun struct {
	projectPath string
	dep         entities.OutdatedDependency

	changelog  string
	analysis   entities.ChangelogAnalysis
	retryCount int
	codeUsages []entities.CodeUsage
	warnings   []string
	result     entities.ImpactAssessment

	err error
}

// assessment returns the final result with the run's accumulated warnings
// merged in. Warnings are an unordered set: concatenation order carries no
// meaning.
func (run *depRun) assessment() entities.ImpactAssessment {
	result := run.result
	result.Warnings = append(result.Warnings, run.warnings...)
	return result
}

// DepWorker analyzes one outdated dependency end to end: changelog
// acquisition, embedding, retrieval-augmented breaking-change extraction,
// code-usage parsing, and impact assessment.
type DepWorker struct {
	changelogs repositories.ChangelogRepository
	vectors    repositories.VectorRepository
	llm        repositories.LLMRepository
	usages     repositories.UsageRepository
	settings   *config.Settings
}

// NewDepWorker creates a worker over the given repositories.
func NewDepWorker(
	changelogs repositories.ChangelogRepository,
	vectors repositories.VectorRepository,
	llm repositories.LLMRepository,
	usages repositories.UsageRepository,
	settings *config.Settings,
) *DepWorker {
	return &DepWorker{
		changelogs: changelogs,
		vectors:    vectors,
		llm:        llm,
		usages:     usages,
		settings:   settings,
	}
}

// Analyze runs the full pipeline for one dependency. Diagnostic conditions
// (missing changelog, unparseable headers, zero usages) degrade to warnings
// on the assessment; only infrastructure failures return an error.
func (it *DepWorker) Analyze(
	ctx context.Context,
	projectPath string,
	dep entities.OutdatedDependency,
) (entities.ImpactAssessment, error) {
	run := &depRun{projectPath: projectPath, dep: dep}

	state := stateFetchChangelog
	for state != stateDone {
		switch state {
		case stateFetchChangelog:
			state = it.fetchChangelog(ctx, run)
		case stateEmbedChangelog:
			state = it.embedChangelog(ctx, run)
		case stateRAGAnalyze:
			state = it.ragAnalyze(ctx, run)
		case stateRefineQuery:
			state = it.refineQuery(run)
		case stateParseCode:
			state = it.parseCode(ctx, run)
		case stateAssessImpact:
			state = it.assessImpact(ctx, run)
		}
		if run.err != nil {
			return entities.ImpactAssessment{}, run.err
		}
	}

	return run.assessment(), nil
}

func (it *DepWorker) fetchChangelog(ctx context.Context, run *depRun) depState {
	text, warnings := it.changelogs.Fetch(ctx, run.dep)
	run.changelog = text
	run.warnings = append(run.warnings, warnings...)
	return stateEmbedChangelog
}

func (it *DepWorker) embedChangelog(ctx context.Context, run *depRun) depState {
	dep := run.dep
	chunks := entities.ChunkChangelogByVersion(run.changelog)

	if len(chunks) == 0 {
		run.warnings = append(run.warnings,
			fmt.Sprintf("No parseable version headers found in %s changelog", dep.Name))
	} else {
		chunks = entities.FilterChunksByVersionRange(chunks, dep.CurrentVersion, dep.LatestVersion)
		if len(chunks) == 0 {
			run.warnings = append(run.warnings,
				fmt.Sprintf("No changelog entries found for %s between %s and %s",
					dep.Name, dep.CurrentVersion, dep.LatestVersion))
		}
	}

	for _, chunk := range chunks {
		for idx, sub := range splitSubChunks(chunk.Content, it.settings.EmbedChunkChars) {
			vector, err := it.llm.Embed(ctx, sub)
			if err != nil {
				run.err = fmt.Errorf("failed to embed changelog chunk for %s: %w", dep.Name, err)
				return stateDone
			}
			if err := it.vectors.Upsert(ctx, dep.Name, chunk.Version, idx, sub, vector); err != nil {
				run.err = fmt.Errorf("failed to store changelog chunk for %s: %w", dep.Name, err)
				return stateDone
			}
		}
	}

	return stateRAGAnalyze
}

// ragAnalyze queries the vector store and extracts breaking changes. Low
// confidence routes through refineQuery for a bounded number of retries.
// An extraction failure yields a zero-confidence result and skips retrying:
// a model that produced undecodable output once will keep doing so.
func (it *DepWorker) ragAnalyze(ctx context.Context, run *depRun) depState {
	dep := run.dep
	queryText := fmt.Sprintf("breaking changes in %s between %s and %s",
		dep.Name, dep.CurrentVersion, dep.LatestVersion)

	analysis, err := it.queryBreakingChanges(ctx, dep.Name, queryText)
	if err != nil {
		logger.Debugf("Breaking-change extraction failed for %s: %v", dep.Name, err)
		run.analysis = entities.ChangelogAnalysis{}
		return stateParseCode
	}

	run.analysis = analysis
	if analysis.Confidence < it.settings.ConfidenceThreshold && run.retryCount < it.settings.MaxRAGRetries {
		return stateRefineQuery
	}
	return stateParseCode
}

func (it *DepWorker) queryBreakingChanges(ctx context.Context, depName, queryText string) (entities.ChangelogAnalysis, error) {
	vector, err := it.llm.Embed(ctx, queryText)
	if err != nil {
		return entities.ChangelogAnalysis{}, fmt.Errorf("failed to embed query: %w", err)
	}

	docs, err := it.vectors.Query(ctx, depName, vector, it.settings.MaxRAGResults)
	if err != nil {
		return entities.ChangelogAnalysis{}, fmt.Errorf("failed to query vector store: %w", err)
	}
	if len(docs) == 0 {
		return entities.ChangelogAnalysis{}, nil
	}

	excerpts := strings.Join(docs, "\n\n---\n\n")
	return it.llm.ExtractBreakingChanges(ctx, depName, excerpts)
}

func (it *DepWorker) refineQuery(run *depRun) depState {
	run.retryCount++
	return stateRAGAnalyze
}

func (it *DepWorker) parseCode(ctx context.Context, run *depRun) depState {
	usages, err := it.usages.FindUsages(ctx, run.projectPath, run.dep.Name)
	if err != nil {
		run.err = fmt.Errorf("failed to find usages of %s: %w", run.dep.Name, err)
		return stateDone
	}

	run.codeUsages = usages
	if len(usages) == 0 {
		run.warnings = append(run.warnings,
			fmt.Sprintf("No usages of %s found in project code", run.dep.Name))
	}
	return stateAssessImpact
}

// assessImpact calls the model only when there are both breaking changes and
// code usages; otherwise the result is an immediate INFO assessment. A model
// failure degrades to INFO with a warning instead of losing the dependency.
func (it *DepWorker) assessImpact(ctx context.Context, run *depRun) depState {
	dep := run.dep

	if len(run.analysis.BreakingChanges) == 0 || len(run.codeUsages) == 0 {
		run.result = infoAssessment(dep)
		return stateDone
	}

	assessment, err := it.llm.AssessImpact(ctx,
		dep.Name, dep.CurrentVersion, dep.LatestVersion,
		run.analysis.BreakingChanges, run.codeUsages)
	if err != nil {
		logger.Warnf("Impact assessment failed for %s: %v", dep.Name, err)
		run.warnings = append(run.warnings,
			fmt.Sprintf("Impact assessment failed for %s", dep.Name))
		run.result = infoAssessment(dep)
		return stateDone
	}

	run.result = assessment
	return stateDone
}

func infoAssessment(dep entities.OutdatedDependency) entities.ImpactAssessment {
	return entities.ImpactAssessment{
		DepName: dep.Name,
		Versions: map[string]string{
			"current": dep.CurrentVersion,
			"latest":  dep.LatestVersion,
		},
		Summary:         fmt.Sprintf("No impact detected for %s", dep.Name),
		OverallSeverity: entities.SeverityInfo,
	}
}

// splitSubChunks slices content into contiguous pieces of at most size
// characters, never cutting through a multi-byte rune. Nothing is dropped or
// overlapped; empty content still yields one empty sub-chunk so the version
// stays represented in the store.
func splitSubChunks(content string, size int) []string {
	if size <= 0 || len(content) <= size {
		return []string{content}
	}

	runes := []rune(content)
	if len(runes) <= size {
		return []string{content}
	}

	var subs []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		subs = append(subs, string(runes[start:end]))
	}
	return subs
}
