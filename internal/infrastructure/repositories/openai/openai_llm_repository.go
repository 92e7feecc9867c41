package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/semaphore"

	"github.com/depscope/depscope/config"
	"github.com/depscope/depscope/internal/domain/entities"
	"github.com/depscope/depscope/internal/domain/repositories"
)

const (
	extractSystemPrompt = "You are a dependency migration expert. " +
		"Analyze the following changelog excerpts and identify breaking changes, deprecations, and new features. " +
		"Respond with a JSON object of the form " +
		`{"breaking_changes": [{"api_name": string, "change_type": "removed"|"renamed"|"signature_changed"|"behavior_changed", ` +
		`"description": string, "migration_hint": string}], "confidence": number between 0 and 1}.`

	assessSystemPrompt = "You are a dependency migration expert. " +
		"Analyze the breaking changes and code usages below to assess the impact on the project. " +
		"Respond with a JSON object of the form " +
		`{"impacts": [{"breaking_change": string, "severity": "critical"|"warning"|"info", ` +
		`"affected_usages": [string], "explanation": string, "suggested_fix": string}], ` +
		`"summary": string, "overall_severity": "critical"|"warning"|"info"}.`

	patchSystemPrompt = "You are a code migration expert. " +
		"Given the impact assessment below, generate concrete code patches that fix the breaking changes. " +
		"Respond with a JSON object of the form " +
		`{"patches": [{"file_path": string, "original": string, "patched": string}]} ` +
		"where original and patched are complete file contents."
)

// OpenAILLMRepository talks to an OpenAI-compatible chat and embedding API,
// either api.openai.com or a local Ollama server. Every call goes through a
// shared weighted semaphore because local backends serve one request at a
// time.
type OpenAILLMRepository struct {
	client   *openai.Client
	limiter  *semaphore.Weighted
	settings *config.Settings
}

// NewOpenAILLMRepository creates the repository against the backend selected
// by DEPSCOPE_USE_LOCAL_LLM. The limiter is built once at startup and shared
// with every other LLM consumer in the process. Model names are read from
// settings per call so a CLI override still takes effect.
func NewOpenAILLMRepository(settings *config.Settings, limiter *semaphore.Weighted) repositories.LLMRepository {
	cfg := openai.DefaultConfig(settings.OpenAIAPIKey)
	if settings.UseLocalLLM {
		cfg = openai.DefaultConfig("ollama")
		cfg.BaseURL = strings.TrimSuffix(settings.OllamaBaseURL, "/") + "/v1"
	}

	return &OpenAILLMRepository{
		client:   openai.NewClientWithConfig(cfg),
		limiter:  limiter,
		settings: settings,
	}
}

// ValidateCredentials fails before any network activity when the remote
// backend has no API key. Local backends need none.
func (r *OpenAILLMRepository) ValidateCredentials() error {
	if !r.settings.UseLocalLLM && r.settings.OpenAIAPIKey == "" {
		return errors.New("no OpenAI API key configured: set DEPSCOPE_OPENAI_API_KEY or enable DEPSCOPE_USE_LOCAL_LLM")
	}
	return nil
}

// Embed returns the embedding vector for a text.
func (r *OpenAILLMRepository) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire LLM slot: %w", err)
	}
	defer r.limiter.Release(1)

	resp, err := r.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(r.settings.ActiveEmbeddingModel()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding response contained no data")
	}
	return resp.Data[0].Embedding, nil
}

// ExtractBreakingChanges analyzes changelog excerpts and returns structured
// breaking changes with a confidence score. A response that cannot be
// decoded is an error; callers treat it as a zero-confidence result and do
// not retry.
func (r *OpenAILLMRepository) ExtractBreakingChanges(
	ctx context.Context,
	depName, excerpts string,
) (entities.ChangelogAnalysis, error) {
	user := fmt.Sprintf("Analyze these changelog excerpts for %s:\n\n%s", depName, excerpts)

	var analysis entities.ChangelogAnalysis
	if err := r.structuredCompletion(ctx, extractSystemPrompt, user, &analysis); err != nil {
		return entities.ChangelogAnalysis{}, fmt.Errorf("failed to extract breaking changes for %s: %w", depName, err)
	}
	return analysis, nil
}

// AssessImpact cross-references breaking changes with code usages. Versions
// are always overwritten from the arguments because models routinely omit
// or invent that field.
func (r *OpenAILLMRepository) AssessImpact(
	ctx context.Context,
	depName, currentVersion, latestVersion string,
	breakingChanges []entities.BreakingChange,
	codeUsages []entities.CodeUsage,
) (entities.ImpactAssessment, error) {
	user := fmt.Sprintf(
		"Dependency: %s\nCurrent version: %s\nLatest version: %s\n\n%s",
		depName, currentVersion, latestVersion,
		buildImpactContext(breakingChanges, codeUsages),
	)

	var assessment entities.ImpactAssessment
	if err := r.structuredCompletion(ctx, assessSystemPrompt, user, &assessment); err != nil {
		return entities.ImpactAssessment{}, fmt.Errorf("failed to assess impact for %s: %w", depName, err)
	}

	assessment.DepName = depName
	assessment.Versions = map[string]string{"current": currentVersion, "latest": latestVersion}
	return assessment, nil
}

// GeneratePatches produces file-level migration patches for an assessment.
// Diff rendering is left to the caller.
func (r *OpenAILLMRepository) GeneratePatches(
	ctx context.Context,
	assessment entities.ImpactAssessment,
	projectPath string,
) (entities.PatchSet, error) {
	user := fmt.Sprintf(
		"Project path: %s\nDependency: %s\nCurrent version: %s\nLatest version: %s\n\n%s",
		projectPath, assessment.DepName,
		assessment.Versions["current"], assessment.Versions["latest"],
		buildPatchContext(assessment),
	)

	var patchSet entities.PatchSet
	if err := r.structuredCompletion(ctx, patchSystemPrompt, user, &patchSet); err != nil {
		return entities.PatchSet{}, fmt.Errorf("failed to generate patches for %s: %w", assessment.DepName, err)
	}

	patchSet.DepName = assessment.DepName
	return patchSet, nil
}

// structuredCompletion runs a JSON-mode chat completion and decodes the
// response into target.
func (r *OpenAILLMRepository) structuredCompletion(ctx context.Context, system, user string, target any) error {
	if err := r.limiter.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("failed to acquire LLM slot: %w", err)
	}
	defer r.limiter.Release(1)

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.settings.ActiveModel(),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return errors.New("chat completion returned no choices")
	}

	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), target); err != nil {
		return fmt.Errorf("failed to decode model response: %w", err)
	}
	return nil
}

func buildImpactContext(breakingChanges []entities.BreakingChange, codeUsages []entities.CodeUsage) string {
	var sb strings.Builder

	sb.WriteString("## Breaking Changes\n")
	for _, bc := range breakingChanges {
		fmt.Fprintf(&sb, "- **%s** (%s): %s\n", bc.APIName, bc.ChangeType, bc.Description)
		fmt.Fprintf(&sb, "  Migration hint: %s\n", bc.MigrationHint)
	}

	sb.WriteString("\n## Code Usages\n")
	for _, usage := range codeUsages {
		fmt.Fprintf(&sb, "- %s:%d %s of `%s`\n", usage.FilePath, usage.LineNumber, usage.UsageType, usage.Symbol)
		fmt.Fprintf(&sb, "  ```%s```\n", usage.CodeSnippet)
	}

	return sb.String()
}

func buildPatchContext(assessment entities.ImpactAssessment) string {
	var sb strings.Builder

	sb.WriteString("## Impact Assessment\n")
	fmt.Fprintf(&sb, "**Summary:** %s\n", assessment.Summary)
	fmt.Fprintf(&sb, "**Overall Severity:** %s\n\n", assessment.OverallSeverity)

	for _, impact := range assessment.Impacts {
		fmt.Fprintf(&sb, "### %s\n", impact.BreakingChange)
		fmt.Fprintf(&sb, "- Severity: %s\n", impact.Severity)
		fmt.Fprintf(&sb, "- Explanation: %s\n", impact.Explanation)
		fmt.Fprintf(&sb, "- Suggested fix: %s\n", impact.SuggestedFix)
		if len(impact.AffectedUsages) > 0 {
			fmt.Fprintf(&sb, "- Affected files: %s\n", strings.Join(impact.AffectedUsages, ", "))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
