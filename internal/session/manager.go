// Package session owns per-conversation state: the rolling message history
// each session carries into the model decision step, and the per-session
// FIFO serialization of turns.
package session

import (
	"context"
	"log/slog"
	"sync"

	"creditdesk/internal/brain"
	"creditdesk/internal/domain"
	"creditdesk/internal/queue"
)

// maxHistoryMessages caps the rolling history per session. Older messages
// are dropped oldest-first so the decision prompt stays bounded.
const maxHistoryMessages = 40

// Option is a functional option for configuring Manager.
type Option func(*Manager)

// WithLogger sets a structured logger for the Manager. If l is nil it is
// ignored and the default slog logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// Manager fronts the Brain with per-session history and turn serialization.
// Concurrent turns for the same session run strictly FIFO; different
// sessions proceed in parallel.
type Manager struct {
	brain  *brain.Brain
	lanes  *queue.LaneQueue
	logger *slog.Logger

	mu        sync.Mutex
	histories map[string][]domain.Message
}

// NewManager returns a Manager for the given Brain. The Brain must not be nil.
func NewManager(b *brain.Brain, opts ...Option) *Manager {
	if b == nil {
		panic("session: brain must not be nil")
	}
	m := &Manager{
		brain:     b,
		lanes:     queue.NewLaneQueue(),
		histories: make(map[string][]domain.Message),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) log() *slog.Logger {
	if m.logger != nil {
		return m.logger
	}
	return slog.Default()
}

// HandleTurn runs one user turn for the session and returns the final
// answer. The answer is non-empty on the nil-error path. A non-nil error
// means the turn never ran (queue cancellation), not that it failed.
func (m *Manager) HandleTurn(ctx context.Context, sessionID, text string) (string, error) {
	if sessionID == "" {
		sessionID = brain.DefaultSessionID
	}

	var answer string
	err := m.lanes.Do(ctx, sessionID, func() error {
		history := m.snapshotHistory(sessionID)
		answer = m.brain.RunTurn(ctx, sessionID, text, history)
		m.appendExchange(sessionID, text, answer)
		return nil
	})
	if err != nil {
		m.log().Warn("turn did not run", "session", sessionID, "error", err)
		return "", err
	}
	return answer, nil
}

// History returns a copy of the session's current message history.
func (m *Manager) History(sessionID string) []domain.Message {
	return m.snapshotHistory(sessionID)
}

// Reset discards the session's history. Pending confirmations are owned by
// the Brain's pending store and are not touched here.
func (m *Manager) Reset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.histories, sessionID)
}

// SessionCount returns the number of sessions with recorded history.
func (m *Manager) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.histories)
}

func (m *Manager) snapshotHistory(sessionID string) []domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := m.histories[sessionID]
	out := make([]domain.Message, len(history))
	copy(out, history)
	return out
}

// appendExchange records the user/assistant pair and trims the history to
// maxHistoryMessages, dropping oldest-first.
func (m *Manager) appendExchange(sessionID, userText, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := append(m.histories[sessionID],
		domain.Message{Role: domain.RoleUser, Content: userText},
		domain.Message{Role: domain.RoleAssistant, Content: answer},
	)
	if over := len(history) - maxHistoryMessages; over > 0 {
		history = history[over:]
	}
	m.histories[sessionID] = history
}
