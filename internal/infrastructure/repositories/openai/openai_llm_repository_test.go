//go:build unit

package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	xopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"

	"github.com/depscope/depscope/config"
	"github.com/depscope/depscope/internal/domain/entities"
	"github.com/depscope/depscope/internal/infrastructure/repositories/openai"
)

func newRepositoryAgainst(t *testing.T, serverURL string, settings *config.Settings) *openai.OpenAILLMRepository {
	t.Helper()
	repo, ok := openai.NewOpenAILLMRepository(settings, semaphore.NewWeighted(1)).(*openai.OpenAILLMRepository)
	require.True(t, ok)

	cfg := xopenai.DefaultConfig("test-key")
	cfg.BaseURL = serverURL + "/v1"
	repo.SetClient(xopenai.NewClientWithConfig(cfg))
	return repo
}

func chatResponse(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

func TestValidateCredentials(t *testing.T) {
	t.Parallel()

	t.Run("should fail without an API key on the remote backend", func(t *testing.T) {
		t.Parallel()

		// given
		repo := openai.NewOpenAILLMRepository(&config.Settings{}, semaphore.NewWeighted(1))

		// when
		err := repo.ValidateCredentials()

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DEPSCOPE_OPENAI_API_KEY")
	})

	t.Run("should pass with an API key", func(t *testing.T) {
		t.Parallel()

		// given
		repo := openai.NewOpenAILLMRepository(&config.Settings{OpenAIAPIKey: "sk-test"}, semaphore.NewWeighted(1))

		// when + then
		require.NoError(t, repo.ValidateCredentials())
	})

	t.Run("should pass without a key on the local backend", func(t *testing.T) {
		t.Parallel()

		// given
		repo := openai.NewOpenAILLMRepository(&config.Settings{UseLocalLLM: true}, semaphore.NewWeighted(1))

		// when + then
		require.NoError(t, repo.ValidateCredentials())
	})
}

func TestEmbed(t *testing.T) {
	t.Parallel()

	t.Run("should return the embedding vector", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/embeddings", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data": [{"embedding": [0.1, 0.2, 0.3]}]}`))
		}))
		defer server.Close()

		repo := newRepositoryAgainst(t, server.URL, &config.Settings{EmbeddingModel: "text-embedding-3-small"})

		// when
		vector, err := repo.Embed(context.Background(), "breaking changes in requests")

		// then
		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
	})
}

func TestExtractBreakingChanges(t *testing.T) {
	t.Parallel()

	t.Run("should decode the structured extraction", func(t *testing.T) {
		t.Parallel()

		// given
		content := `{"breaking_changes": [{"api_name": "verify", "change_type": "removed", ` +
			`"description": "kwarg removed", "migration_hint": "drop it"}], "confidence": 0.9}`
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/chat/completions", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(chatResponse(content)))
		}))
		defer server.Close()

		repo := newRepositoryAgainst(t, server.URL, &config.Settings{OpenAIModel: "gpt-4o-mini"})

		// when
		analysis, err := repo.ExtractBreakingChanges(context.Background(), "requests", "excerpt text")

		// then
		require.NoError(t, err)
		require.Len(t, analysis.BreakingChanges, 1)
		assert.Equal(t, "verify", analysis.BreakingChanges[0].APIName)
		assert.Equal(t, entities.ChangeRemoved, analysis.BreakingChanges[0].ChangeType)
		assert.InDelta(t, 0.9, analysis.Confidence, 0.001)
	})

	t.Run("should fail on undecodable model output", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(chatResponse("this is not JSON")))
		}))
		defer server.Close()

		repo := newRepositoryAgainst(t, server.URL, &config.Settings{OpenAIModel: "gpt-4o-mini"})

		// when
		_, err := repo.ExtractBreakingChanges(context.Background(), "requests", "excerpt text")

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode model response")
	})
}

func TestAssessImpact(t *testing.T) {
	t.Parallel()

	t.Run("should overwrite name and versions from the arguments", func(t *testing.T) {
		t.Parallel()

		// given
		content := `{"impacts": [{"breaking_change": "verify removed", "severity": "critical", ` +
			`"affected_usages": ["app.py:3"], "explanation": "used directly", "suggested_fix": "drop the kwarg"}], ` +
			`"summary": "one critical impact", "overall_severity": "critical", ` +
			`"dep_name": "hallucinated", "versions": {"current": "0.0.1"}}`
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(chatResponse(content)))
		}))
		defer server.Close()

		repo := newRepositoryAgainst(t, server.URL, &config.Settings{OpenAIModel: "gpt-4o-mini"})

		// when
		assessment, err := repo.AssessImpact(context.Background(), "requests", "2.28.0", "2.31.0",
			[]entities.BreakingChange{{APIName: "verify"}},
			[]entities.CodeUsage{{FilePath: "app.py", LineNumber: 3}})

		// then
		require.NoError(t, err)
		assert.Equal(t, "requests", assessment.DepName)
		assert.Equal(t, map[string]string{"current": "2.28.0", "latest": "2.31.0"}, assessment.Versions)
		assert.Equal(t, entities.SeverityCritical, assessment.OverallSeverity)
		require.Len(t, assessment.Impacts, 1)
		assert.Equal(t, []string{"app.py:3"}, assessment.Impacts[0].AffectedUsages)
	})
}

func TestGeneratePatches(t *testing.T) {
	t.Parallel()

	t.Run("should return patches tagged with the dependency", func(t *testing.T) {
		t.Parallel()

		// given
		content := `{"patches": [{"file_path": "app.py", "original": "old", "patched": "new"}]}`
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(chatResponse(content)))
		}))
		defer server.Close()

		repo := newRepositoryAgainst(t, server.URL, &config.Settings{OpenAIModel: "gpt-4o-mini"})
		assessment := entities.ImpactAssessment{
			DepName:  "requests",
			Versions: map[string]string{"current": "2.28.0", "latest": "2.31.0"},
			Impacts:  []entities.Impact{{BreakingChange: "verify removed"}},
		}

		// when
		patchSet, err := repo.GeneratePatches(context.Background(), assessment, "/project")

		// then
		require.NoError(t, err)
		assert.Equal(t, "requests", patchSet.DepName)
		require.Len(t, patchSet.Patches, 1)
		assert.Equal(t, "app.py", patchSet.Patches[0].FilePath)
	})
}

func TestBuildImpactContext(t *testing.T) {
	t.Parallel()

	// given
	breakingChanges := []entities.BreakingChange{
		{APIName: "verify", ChangeType: entities.ChangeRemoved, Description: "kwarg removed", MigrationHint: "drop it"},
	}
	codeUsages := []entities.CodeUsage{
		{FilePath: "app.py", LineNumber: 3, UsageType: "call", Symbol: "requests.get", CodeSnippet: "requests.get(url)"},
	}

	// when
	context := openai.BuildImpactContext(breakingChanges, codeUsages)

	// then
	assert.Contains(t, context, "## Breaking Changes")
	assert.Contains(t, context, "- **verify** (removed): kwarg removed")
	assert.Contains(t, context, "Migration hint: drop it")
	assert.Contains(t, context, "## Code Usages")
	assert.Contains(t, context, "- app.py:3 call of `requests.get`")
}

func TestBuildPatchContext(t *testing.T) {
	t.Parallel()

	// given
	assessment := entities.ImpactAssessment{
		Summary:         "one critical impact",
		OverallSeverity: entities.SeverityCritical,
		Impacts: []entities.Impact{{
			BreakingChange: "verify removed",
			Severity:       entities.SeverityCritical,
			Explanation:    "used directly",
			SuggestedFix:   "drop the kwarg",
			AffectedUsages: []string{"app.py:3"},
		}},
	}

	// when
	context := openai.BuildPatchContext(assessment)

	// then
	assert.Contains(t, context, "**Summary:** one critical impact")
	assert.Contains(t, context, "### verify removed")
	assert.Contains(t, context, "- Suggested fix: drop the kwarg")
	assert.Contains(t, context, "- Affected files: app.py:3")
}
