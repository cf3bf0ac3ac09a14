package confirm

import (
	"context"
	"fmt"
	"sync"

	"creditdesk/internal/domain"
)

// MemStore is an in-memory PendingStore used when no SQLite path is
// configured and by tests. Same replace-on-put semantics as SQLiteStore, but
// pending actions do not survive a restart.
type MemStore struct {
	mu      sync.RWMutex
	pending map[string]domain.PendingAction
}

// NewMemStore returns an empty in-memory pending store.
func NewMemStore() *MemStore {
	return &MemStore{pending: make(map[string]domain.PendingAction)}
}

// Put implements domain.PendingStore.
func (m *MemStore) Put(ctx context.Context, action domain.PendingAction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if action.SessionID == "" {
		return fmt.Errorf("confirm: session id must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[action.SessionID] = action
	return nil
}

// Get implements domain.PendingStore.
func (m *MemStore) Get(ctx context.Context, sessionID string) (domain.PendingAction, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.PendingAction{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	action, ok := m.pending[sessionID]
	return action, ok, nil
}

// Delete implements domain.PendingStore.
func (m *MemStore) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, sessionID)
	return nil
}

// Ensure MemStore implements domain.PendingStore.
var _ domain.PendingStore = (*MemStore)(nil)
