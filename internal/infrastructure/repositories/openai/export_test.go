package openai

import openai "github.com/sashabaranov/go-openai"

// SetClient swaps in a pre-configured API client, so tests can point the
// repository at an httptest server.
func (r *OpenAILLMRepository) SetClient(client *openai.Client) {
	r.client = client
}

var (
	BuildImpactContext = buildImpactContext //nolint:gochecknoglobals // test export
	BuildPatchContext  = buildPatchContext  //nolint:gochecknoglobals // test export
)
