package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Settings is the top-level configuration for depscope. Every field can be
// set through the DEPSCOPE_ environment prefix (DEPSCOPE_OPENAI_API_KEY,
// DEPSCOPE_MAX_CONCURRENT_DEPS, ...) or through a .depscope.yaml file found
// in a standard location.
type Settings struct {
	OpenAIAPIKey string
	OpenAIModel  string
	GitHubToken  string

	UseLocalLLM         bool
	OllamaBaseURL       string
	LocalLLMModel       string
	LocalEmbeddingModel string
	EmbeddingModel      string

	VectorStoreURL string

	ConfidenceThreshold float64
	MaxRAGRetries       int
	// MaxRAGResults caps the chunks retrieved per RAG query. Zero means
	// "retrieve every stored chunk for the dependency".
	MaxRAGResults int

	// EmbedChunkChars is the per-embedding-call character budget. Technical
	// and RST-dense text tokenizes at roughly 2 characters per token, so
	// 4000 chars stays safely within an 8192-token embedding limit.
	EmbedChunkChars int

	MaxConcurrentDeps            int
	MaxConcurrentRegistryQueries int
	MaxConcurrentLLMCalls        int
	MaxConcurrentProbes          int
}

// defaults mirror the documented out-of-the-box behavior; every key is also
// the suffix of its DEPSCOPE_ environment variable.
func setDefaults(v *viper.Viper) {
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("github_token", "")
	v.SetDefault("use_local_llm", false)
	v.SetDefault("ollama_base_url", "http://localhost:11434")
	v.SetDefault("local_llm_model", "llama3.2")
	v.SetDefault("local_embedding_model", "nomic-embed-text")
	v.SetDefault("embedding_model", "text-embedding-3-small")
	v.SetDefault("vector_store_url", "http://localhost:8080")
	v.SetDefault("confidence_threshold", 0.6)
	v.SetDefault("max_rag_retries", 3)
	v.SetDefault("max_rag_results", 20)
	v.SetDefault("embed_chunk_chars", 4000)
	v.SetDefault("max_concurrent_deps", 20)
	v.SetDefault("max_concurrent_registry_queries", 20)
	v.SetDefault("max_concurrent_llm_calls", 5)
	v.SetDefault("max_concurrent_probes", 10)
}

// Load builds Settings from defaults, an optional config file, and the
// environment. An explicit path wins over discovery; a missing config file
// is not an error because the environment alone is a valid configuration.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DEPSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName(".depscope")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		v.AddConfigPath("$HOME/.config")
		// Discovery is best-effort; the environment alone is enough.
		_ = v.ReadInConfig()
	}

	return &Settings{
		OpenAIAPIKey:                 v.GetString("openai_api_key"),
		OpenAIModel:                  v.GetString("openai_model"),
		GitHubToken:                  v.GetString("github_token"),
		UseLocalLLM:                  v.GetBool("use_local_llm"),
		OllamaBaseURL:                v.GetString("ollama_base_url"),
		LocalLLMModel:                v.GetString("local_llm_model"),
		LocalEmbeddingModel:          v.GetString("local_embedding_model"),
		EmbeddingModel:               v.GetString("embedding_model"),
		VectorStoreURL:               v.GetString("vector_store_url"),
		ConfidenceThreshold:          v.GetFloat64("confidence_threshold"),
		MaxRAGRetries:                v.GetInt("max_rag_retries"),
		MaxRAGResults:                v.GetInt("max_rag_results"),
		EmbedChunkChars:              v.GetInt("embed_chunk_chars"),
		MaxConcurrentDeps:            v.GetInt("max_concurrent_deps"),
		MaxConcurrentRegistryQueries: v.GetInt("max_concurrent_registry_queries"),
		MaxConcurrentLLMCalls:        v.GetInt("max_concurrent_llm_calls"),
		MaxConcurrentProbes:          v.GetInt("max_concurrent_probes"),
	}, nil
}

// ActiveModel returns the completion model for the configured backend.
func (s *Settings) ActiveModel() string {
	if s.UseLocalLLM {
		return s.LocalLLMModel
	}
	return s.OpenAIModel
}

// ActiveEmbeddingModel returns the embedding model for the configured backend.
func (s *Settings) ActiveEmbeddingModel() string {
	if s.UseLocalLLM {
		return s.LocalEmbeddingModel
	}
	return s.EmbeddingModel
}

// EffectiveLLMCap returns the concurrency cap actually applied to LLM and
// embedding calls. Local single-threaded backends refuse concurrent
// connections, so the cap collapses to 1 regardless of configuration.
func (s *Settings) EffectiveLLMCap() int {
	if s.UseLocalLLM {
		return 1
	}
	if s.MaxConcurrentLLMCalls < 1 {
		return 1
	}
	return s.MaxConcurrentLLMCalls
}
