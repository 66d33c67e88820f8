package llm

import (
	"context"

	"github.com/Harshitk-cp/lumen/internal/domain"
)

// MockClient is a configurable cognition client for testing.
// Queued responses are served first, then the per-kind response.
type MockClient struct {
	Responses map[domain.ProposalKind]string
	Queue     []string
	Error     error

	// Call tracking for assertions
	Calls []domain.PromptContext
}

func NewMockClient() *MockClient {
	return &MockClient{
		Responses: map[domain.ProposalKind]string{
			domain.ProposeName:      "Mock",
			domain.ProposeGoal:      "Understand the mock world",
			domain.ProposeNarrative: "Mock reflection.",
		},
	}
}

func (c *MockClient) Propose(ctx context.Context, pc domain.PromptContext) (string, error) {
	c.Calls = append(c.Calls, pc)
	if c.Error != nil {
		return "", c.Error
	}
	if len(c.Queue) > 0 {
		next := c.Queue[0]
		c.Queue = c.Queue[1:]
		return next, nil
	}
	return c.Responses[pc.Kind], nil
}

// CallsOf returns the recorded calls of one kind.
func (c *MockClient) CallsOf(kind domain.ProposalKind) []domain.PromptContext {
	var out []domain.PromptContext
	for _, pc := range c.Calls {
		if pc.Kind == kind {
			out = append(out, pc)
		}
	}
	return out
}
