// Package brain drives one conversational turn from user prompt to final
// answer: deterministic intent overrides, the model decision step, the
// confirmation gate for write tools, tool dispatch, and the summary/fallback
// policy. Every turn ends with exactly one non-empty answer; no fault escapes
// as anything other than answer text.
package brain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"creditdesk/internal/domain"
	"creditdesk/internal/router"
	"creditdesk/internal/tooling"
)

// Option is a functional option for configuring Brain.
type Option func(*Brain)

// WithRouter sets the intent override router. If r is nil it is ignored and
// the default rules apply.
func WithRouter(r *router.Router) Option {
	return func(b *Brain) {
		if r != nil {
			b.router = r
		}
	}
}

// WithLogger sets a structured logger for the Brain. If l is nil it is ignored
// and the default slog logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(b *Brain) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithFallbacks adds fallback LLM providers that are tried in order if the
// primary provider fails. Nil entries are silently skipped.
func WithFallbacks(providers ...domain.LLMProvider) Option {
	return func(b *Brain) {
		for _, p := range providers {
			if p != nil {
				b.fallbacks = append(b.fallbacks, p)
			}
		}
	}
}

// Brain holds the model provider, the tool registry, and the pending-action
// store, and exposes RunTurn to application logic. Callers are unaware of the
// underlying model implementation.
type Brain struct {
	provider   domain.LLMProvider
	fallbacks  []domain.LLMProvider // optional; tried in order when provider fails
	registry   *tooling.Registry
	dispatcher *ToolDispatcher
	pending    domain.PendingStore
	router     *router.Router
	logger     *slog.Logger // optional; nil uses slog.Default()
}

// NewBrain returns a Brain for the given provider, registry, and pending
// store. None of the three may be nil.
func NewBrain(provider domain.LLMProvider, registry *tooling.Registry, pending domain.PendingStore, opts ...Option) *Brain {
	if provider == nil {
		panic("brain: provider must not be nil")
	}
	if registry == nil {
		panic("brain: registry must not be nil")
	}
	if pending == nil {
		panic("brain: pending store must not be nil")
	}
	b := &Brain{
		provider:   provider,
		registry:   registry,
		dispatcher: NewToolDispatcher(registry),
		pending:    pending,
		router:     router.New(nil),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// log returns the Brain's logger, falling back to the default slog logger.
func (b *Brain) log() *slog.Logger {
	if b.logger != nil {
		return b.logger
	}
	return slog.Default()
}

// generate calls the model and normalizes every fault to an empty reply; the
// turn logic owns what an empty reply means at each step.
func (b *Brain) generate(ctx context.Context, prompt string) string {
	out, err := b.generateWithFailover(ctx, prompt)
	if err != nil {
		b.log().Warn("model call failed", "error", err)
		return ""
	}
	return out
}

// generateWithFailover tries the primary provider, then each fallback in order.
// Returns the first successful response, or an aggregated error if all fail.
func (b *Brain) generateWithFailover(ctx context.Context, prompt string) (string, error) {
	result, err := b.provider.Generate(ctx, prompt)
	if err == nil {
		return result, nil
	}

	if len(b.fallbacks) == 0 {
		return "", err
	}

	errs := []error{err}
	for i, fb := range b.fallbacks {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		b.log().Warn("provider failed, trying fallback",
			"provider_index", i,
			"error", err,
		)

		result, fbErr := fb.Generate(ctx, prompt)
		if fbErr == nil {
			return result, nil
		}
		errs = append(errs, fbErr)
		err = fbErr
	}

	return "", fmt.Errorf("brain: all %d providers failed: %w", len(errs), errors.Join(errs...))
}

// decide runs the model decision step for a turn. An empty first response is
// retried once with the identical prompt (cold-start retry); a second empty
// response is accepted as-is and surfaces as the generic fallback answer.
func (b *Brain) decide(ctx context.Context, history []domain.Message, userText string) string {
	prompt := buildDecisionPrompt(b.registry.Definitions(), history, userText)

	reply := strings.TrimSpace(b.generate(ctx, prompt))
	if reply == "" {
		b.log().Info("empty model response, cold-start retry")
		reply = strings.TrimSpace(b.generate(ctx, prompt))
	}
	return reply
}
