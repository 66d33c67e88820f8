// Package llm is the external cognition port. Every provider only produces
// untrusted candidate text; nothing here decides whether it is used.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/Harshitk-cp/lumen/internal/domain"
)

// Provider constants
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderCerebras  = "cerebras"
	ProviderLocal     = "local"
	ProviderMock      = "mock"
)

// NewClient creates a cognition client based on the provider name.
// Returns an error if the provider is unknown or the API key is empty
// (except for local and mock). A zero seed seeds the local provider from
// the clock.
func NewClient(ctx context.Context, provider, apiKey string, seed int64) (domain.CognitionClient, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIClient(apiKey), nil

	case ProviderAnthropic:
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for Anthropic provider")
		}
		return NewAnthropicClient(apiKey), nil

	case ProviderGemini:
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewGeminiClient(ctx, apiKey)

	case ProviderCerebras:
		if apiKey == "" {
			return nil, fmt.Errorf("CEREBRAS_API_KEY is required for Cerebras provider")
		}
		return NewCerebrasClient(apiKey), nil

	case ProviderLocal, "":
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return NewLocalClient(seed), nil

	case ProviderMock:
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (valid options: openai, anthropic, gemini, cerebras, local, mock)", provider)
	}
}
