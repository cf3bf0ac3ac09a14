package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"creditdesk/internal/domain"
)

const defaultOllamaBaseURL = "http://localhost:11434/api"

// OllamaProvider calls the local Ollama API. This is the default provider: the
// assistant is designed to run against a locally served model.
type OllamaProvider struct {
	model   string
	client  *http.Client
	baseURL string
}

// NewOllamaProvider returns an Ollama-backed LLMProvider. baseURL may be empty
// to use the local default.
func NewOllamaProvider(model, baseURL string) *OllamaProvider {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &OllamaProvider{
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
		baseURL: baseURL,
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Generate implements domain.LLMProvider. An empty model response is returned
// as an empty string, not an error: the orchestration layer owns the
// empty-response retry policy.
func (p *OllamaProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body := ollamaRequest{
		Model:  p.model,
		Prompt: prompt,
		Stream: false,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("ollama marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/generate", bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama api: %s", resp.Status)
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ollama decode: %w", err)
	}

	return out.Response, nil
}

// Ensure OllamaProvider implements domain.LLMProvider at compile time.
var _ domain.LLMProvider = (*OllamaProvider)(nil)
