package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"creditdesk/internal/brain"
	"creditdesk/internal/confirm"
	"creditdesk/internal/domain"
	"creditdesk/internal/tooling"
)

// echoProvider answers with a fixed prefix plus a marker so tests can tell
// turns apart. It also records the prompts it saw.
type echoProvider struct {
	mu      sync.Mutex
	prompts []string
}

func (p *echoProvider) Generate(ctx context.Context, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, prompt)
	return fmt.Sprintf("reply %d", len(p.prompts)), nil
}

func newTestManager(t *testing.T) (*Manager, *echoProvider) {
	t.Helper()
	provider := &echoProvider{}
	b := brain.NewBrain(provider, tooling.NewRegistry(), confirm.NewMemStore())
	return NewManager(b), provider
}

func TestHandleTurn_ShouldReturnNonEmptyAnswer(t *testing.T) {
	m, _ := newTestManager(t)

	answer, err := m.HandleTurn(context.Background(), "s1", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer == "" {
		t.Fatal("answer must not be empty")
	}
}

func TestHandleTurn_ShouldAccumulateHistoryPerSession(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.HandleTurn(ctx, "s1", "first question"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.HandleTurn(ctx, "s1", "second question"); err != nil {
		t.Fatal(err)
	}

	history := m.History("s1")
	if len(history) != 4 {
		t.Fatalf("history: want 4 messages, got %d", len(history))
	}
	if history[0].Role != domain.RoleUser || history[0].Content != "first question" {
		t.Errorf("history[0]: %+v", history[0])
	}
	if history[1].Role != domain.RoleAssistant {
		t.Errorf("history[1] should be the assistant reply: %+v", history[1])
	}
	if history[2].Content != "second question" {
		t.Errorf("history[2]: %+v", history[2])
	}
}

func TestHandleTurn_ShouldFeedPriorHistoryIntoThePrompt(t *testing.T) {
	m, provider := newTestManager(t)
	ctx := context.Background()

	if _, err := m.HandleTurn(ctx, "s1", "remember the borrower is ACME"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.HandleTurn(ctx, "s1", "who is the borrower?"); err != nil {
		t.Fatal(err)
	}

	provider.mu.Lock()
	defer provider.mu.Unlock()
	second := provider.prompts[len(provider.prompts)-1]
	if !strings.Contains(second, "remember the borrower is ACME") {
		t.Error("second prompt should carry the first exchange")
	}
}

func TestHandleTurn_ShouldKeepSessionsIsolated(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.HandleTurn(ctx, "s1", "hello from s1"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.HandleTurn(ctx, "s2", "hello from s2"); err != nil {
		t.Fatal(err)
	}

	for _, msg := range m.History("s2") {
		if strings.Contains(msg.Content, "s1") {
			t.Errorf("s2 history leaked s1 content: %+v", msg)
		}
	}
	if m.SessionCount() != 2 {
		t.Errorf("sessions: want 2, got %d", m.SessionCount())
	}
}

func TestHandleTurn_ShouldTrimHistoryOldestFirst(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	turns := maxHistoryMessages // each turn adds 2 messages, so this overflows
	for i := 0; i < turns; i++ {
		if _, err := m.HandleTurn(ctx, "s1", fmt.Sprintf("question %d", i)); err != nil {
			t.Fatal(err)
		}
	}

	history := m.History("s1")
	if len(history) != maxHistoryMessages {
		t.Fatalf("history: want %d, got %d", maxHistoryMessages, len(history))
	}
	if strings.Contains(history[0].Content, "question 0") {
		t.Error("oldest messages should have been dropped")
	}
	last := history[len(history)-2]
	if last.Content != fmt.Sprintf("question %d", turns-1) {
		t.Errorf("newest exchange missing: %+v", last)
	}
}

func TestHandleTurn_WhenSessionIDEmpty_ShouldUseDefault(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.HandleTurn(context.Background(), "", "hello"); err != nil {
		t.Fatal(err)
	}
	if len(m.History(brain.DefaultSessionID)) != 2 {
		t.Error("turn should land in the default session")
	}
}

func TestHandleTurn_ConcurrentSameSession_ShouldSerializeWithoutLoss(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	const n = 20

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.HandleTurn(ctx, "s1", fmt.Sprintf("q%d", i)); err != nil {
				t.Errorf("turn %d: %v", i, err)
			}
		}()
	}
	wg.Wait()

	if got := len(m.History("s1")); got != 2*n {
		t.Errorf("history: want %d messages, got %d", 2*n, got)
	}
}

func TestReset_ShouldDropHistory(t *testing.T) {
	m, _ := newTestManager(t)
	if _, err := m.HandleTurn(context.Background(), "s1", "hello"); err != nil {
		t.Fatal(err)
	}

	m.Reset("s1")

	if len(m.History("s1")) != 0 {
		t.Error("history should be empty after reset")
	}
}

func TestNewManager_WhenBrainNil_ShouldPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewManager(nil)
}
