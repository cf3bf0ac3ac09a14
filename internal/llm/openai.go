package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"creditdesk/internal/domain"
)

// OpenAIProvider calls the OpenAI Chat Completions API. Used when the
// deployment prefers a hosted model over local Ollama.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider returns an OpenAI-backed LLMProvider. baseURL may be empty
// for the public API, or point at an OpenAI-compatible endpoint.
func NewOpenAIProvider(apiKey, model, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Generate implements domain.LLMProvider.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Ensure OpenAIProvider implements domain.LLMProvider at compile time.
var _ domain.LLMProvider = (*OpenAIProvider)(nil)
