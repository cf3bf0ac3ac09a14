package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"creditdesk/internal/domain"
)

// Config controls the transport-level retry decorator. It is distinct from
// the orchestration layer's own bounded retries (cold-start and
// prose-enforcement), which count model responses, not transport faults.
type Config struct {
	MaxRetries     int           `json:"maxRetries"`
	InitialBackoff time.Duration `json:"initialBackoff"`
	MaxBackoff     time.Duration `json:"maxBackoff"`
	Multiplier     float64       `json:"multiplier"`
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
	}
}

// Validate rejects configs that would disable backoff or loop forever.
func (c Config) Validate() error {
	switch {
	case c.MaxRetries < 0:
		return errors.New("retry: MaxRetries must be >= 0")
	case c.InitialBackoff <= 0:
		return errors.New("retry: InitialBackoff must be > 0")
	case c.MaxBackoff <= 0:
		return errors.New("retry: MaxBackoff must be > 0")
	case c.Multiplier < 1.0:
		return errors.New("retry: Multiplier must be >= 1.0")
	}
	return nil
}

// next is the backoff that follows d, clamped to MaxBackoff.
func (c Config) next(d time.Duration) time.Duration {
	n := time.Duration(float64(d) * c.Multiplier)
	if n > c.MaxBackoff {
		return c.MaxBackoff
	}
	return n
}

// transientMarkers are substrings of provider errors worth retrying:
// rate limits, upstream 5xx, and connection-level flakes.
var transientMarkers = []string{
	"429", "500", "502", "503", "504", "529",
	"connection refused",
	"EOF",
}

// IsRetryable reports whether err is a transient transport fault. Context
// cancellation and deadline expiry are never retryable: the caller gave up.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := err.Error()
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// RetryableProvider decorates an LLMProvider with exponential-backoff retry
// on transient transport errors.
type RetryableProvider struct {
	inner     domain.LLMProvider
	config    Config
	sleepFunc func(time.Duration) // injectable for tests
}

var _ domain.LLMProvider = (*RetryableProvider)(nil)

// NewRetryableProvider wraps inner. inner must not be nil.
func NewRetryableProvider(inner domain.LLMProvider, cfg Config) *RetryableProvider {
	if inner == nil {
		panic("retry: inner provider must not be nil")
	}
	return &RetryableProvider{inner: inner, config: cfg, sleepFunc: time.Sleep}
}

// Generate forwards to the inner provider, retrying transient failures up to
// MaxRetries times. Non-retryable errors surface immediately; exhausting the
// budget wraps the last error with the attempt count.
func (p *RetryableProvider) Generate(ctx context.Context, prompt string) (string, error) {
	backoff := p.config.InitialBackoff
	var lastErr error

	for attempt := 0; ; attempt++ {
		reply, err := p.inner.Generate(ctx, prompt)
		if err == nil {
			return reply, nil
		}
		if !IsRetryable(err) {
			return "", err
		}
		lastErr = err
		if attempt == p.config.MaxRetries {
			break
		}

		p.sleepFunc(backoff)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		backoff = p.config.next(backoff)
	}

	return "", fmt.Errorf("retries exhausted after %d attempts: %w", p.config.MaxRetries+1, lastErr)
}
