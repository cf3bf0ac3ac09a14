package llm

import (
	"fmt"
	"os"
	"time"

	"creditdesk/internal/domain"
	"creditdesk/internal/retry"
)

// lookupEnv resolves API keys; package-level var so tests can inject values.
var lookupEnv = os.LookupEnv

// NewProvider returns an LLMProvider for the given model config, optionally
// wrapped with retry logic. Provider may be "ollama", "openai", or "local";
// empty defaults to "ollama". Hosted providers read their API key from the
// environment variable named by cfg.APIKeyEnv.
func NewProvider(cfg *domain.ModelConfig, retryCfg ...*domain.RetryConfig) (domain.LLMProvider, error) {
	base, err := newBaseProvider(cfg)
	if err != nil {
		return nil, err
	}
	return wrapWithRetry(base, retryCfg...), nil
}

func newBaseProvider(cfg *domain.ModelConfig) (domain.LLMProvider, error) {
	if cfg == nil {
		return NewLocalProvider(""), nil
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "ollama"
	}
	switch provider {
	case "local":
		return NewLocalProvider(""), nil
	case "ollama":
		return NewOllamaProvider(cfg.DefaultModel, cfg.BaseURL), nil
	case "openai":
		keyEnv := cfg.APIKeyEnv
		if keyEnv == "" {
			keyEnv = "OPENAI_API_KEY"
		}
		key, ok := lookupEnv(keyEnv)
		if !ok || key == "" {
			return nil, fmt.Errorf("openai provider: API key not set (export %s)", keyEnv)
		}
		return NewOpenAIProvider(key, cfg.DefaultModel, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (use: ollama, openai, local)", provider)
	}
}

// wrapWithRetry decorates a provider with retry logic when config is supplied.
func wrapWithRetry(provider domain.LLMProvider, retryCfg ...*domain.RetryConfig) domain.LLMProvider {
	if len(retryCfg) == 0 || retryCfg[0] == nil || retryCfg[0].MaxRetries <= 0 {
		return provider
	}
	rc := retryCfg[0]
	cfg := retry.Config{
		MaxRetries:     rc.MaxRetries,
		InitialBackoff: time.Duration(rc.InitialBackoff) * time.Millisecond,
		MaxBackoff:     time.Duration(rc.MaxBackoff) * time.Millisecond,
		Multiplier:     float64(rc.Multiplier),
	}
	return retry.NewRetryableProvider(provider, cfg)
}
