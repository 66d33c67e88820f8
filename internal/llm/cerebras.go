package llm

import (
	"context"
	"net/http"

	"github.com/Harshitk-cp/lumen/internal/domain"
)

const (
	cerebrasAPIURL = "https://api.cerebras.ai/v1/chat/completions"
	cerebrasModel  = "llama-3.3-70b"
)

// CerebrasClient speaks the OpenAI-compatible chat format.
type CerebrasClient struct {
	apiKey     string
	url        string
	httpClient *http.Client
}

func NewCerebrasClient(apiKey string) *CerebrasClient {
	return &CerebrasClient{
		apiKey:     apiKey,
		url:        cerebrasAPIURL,
		httpClient: &http.Client{},
	}
}

func (c *CerebrasClient) Propose(ctx context.Context, pc domain.PromptContext) (string, error) {
	messages := []chatMessage{
		{Role: "system", Content: "You answer in exactly the format requested, with no preamble."},
		{Role: "user", Content: BuildPrompt(pc)},
	}
	return completeChat(ctx, c.httpClient, c.url, c.apiKey, cerebrasModel, "cerebras", messages, temperature(pc.Kind))
}
