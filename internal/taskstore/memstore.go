package taskstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"creditdesk/internal/domain"
)

// MemStore is an in-memory task store used when no database URL is configured
// and by tests. Matching semantics mirror SQLStore: partial case-insensitive
// borrower/officer match, exact status match, newest first, capped rows.
type MemStore struct {
	mu      sync.RWMutex
	records []domain.TaskRecord
	lastID  int64

	nowFunc func() time.Time
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{nowFunc: time.Now}
}

// RecordTask implements domain.TaskStore.
func (m *MemStore) RecordTask(ctx context.Context, borrower, officer, note, status string) (domain.TaskRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.TaskRecord{}, err
	}
	if status == "" {
		status = domain.StatusOpen
	}
	if !domain.ValidStatus(status) {
		return domain.TaskRecord{}, fmt.Errorf("taskstore: invalid status %q", status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Millisecond-epoch ids like SQLStore, bumped when two inserts land in
	// the same millisecond so ids stay unique.
	id := m.nowFunc().UnixMilli()
	if id <= m.lastID {
		id = m.lastID + 1
	}
	m.lastID = id

	now := m.nowFunc().UTC()
	record := domain.TaskRecord{
		TaskID:    strconv.FormatInt(id, 10),
		Borrower:  borrower,
		Officer:   officer,
		Note:      note,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.records = append(m.records, record)
	return record, nil
}

// GetTasks implements domain.TaskStore.
func (m *MemStore) GetTasks(ctx context.Context, f domain.TaskFilter) ([]domain.TaskRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Status != "" && !domain.ValidStatus(f.Status) {
		return nil, fmt.Errorf("taskstore: invalid status %q", f.Status)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.TaskRecord
	for _, r := range m.records {
		if f.Borrower != "" && !containsFold(r.Borrower, f.Borrower) {
			continue
		}
		if f.Officer != "" && !containsFold(r.Officer, f.Officer) {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].TaskID > out[j].TaskID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > maxQueryRows {
		out = out[:maxQueryRows]
	}
	return out, nil
}

// Health implements domain.TaskStore. An in-memory store is always healthy.
func (m *MemStore) Health(ctx context.Context) error {
	return ctx.Err()
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// Ensure MemStore implements domain.TaskStore.
var _ domain.TaskStore = (*MemStore)(nil)
