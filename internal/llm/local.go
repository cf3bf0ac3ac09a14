package llm

import (
	"context"

	"creditdesk/internal/domain"
)

// LocalProvider answers deterministically without any model server: the reply
// is the prompt itself, optionally prefixed. It exists so the binary can run
// offline (ask/daemon with provider "local") and so tests have a provider
// with predictable output.
type LocalProvider struct {
	Prefix string
}

var _ domain.LLMProvider = (*LocalProvider)(nil)

func NewLocalProvider(prefix string) *LocalProvider {
	return &LocalProvider{Prefix: prefix}
}

// Generate echoes the prompt, honoring context cancellation so callers can
// treat this provider like any remote one.
func (p *LocalProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.Prefix + prompt, nil
}
