package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/lumen/internal/domain"
	"google.golang.org/genai"
)

const geminiModel = "gemini-2.0-flash"

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: geminiModel}, nil
}

func (c *GeminiClient) Propose(ctx context.Context, pc domain.PromptContext) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature(pc.Kind)),
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(BuildPrompt(pc)), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini API returned no content")
	}
	return text, nil
}
