package tooling

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"creditdesk/internal/domain"
)

// fakeTaskStore is a scriptable domain.TaskStore.
type fakeTaskStore struct {
	mu        sync.Mutex
	records   []domain.TaskRecord
	recordErr error
	getErr    error
	lastF     domain.TaskFilter
	inserted  []domain.TaskRecord
}

func (f *fakeTaskStore) RecordTask(ctx context.Context, borrower, officer, note, status string) (domain.TaskRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return domain.TaskRecord{}, f.recordErr
	}
	if status == "" {
		status = domain.StatusOpen
	}
	rec := domain.TaskRecord{
		TaskID: "1730000000000", Borrower: borrower, Officer: officer, Note: note,
		Status: status, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	f.inserted = append(f.inserted, rec)
	return rec, nil
}

func (f *fakeTaskStore) GetTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.TaskRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastF = filter
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.records, nil
}

func (f *fakeTaskStore) Health(ctx context.Context) error { return nil }

func TestGetTasksTool_WhenNoMatches_ShouldReturnPlainMessage(t *testing.T) {
	tool := NewGetTasksTool(&fakeTaskStore{})

	res, err := tool.Call(context.Background(), json.RawMessage(`{"status": "open"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Data != "No matching tasks found." {
		t.Errorf("data: got %q", res.Data)
	}
}

func TestGetTasksTool_ShouldPassFiltersThrough(t *testing.T) {
	store := &fakeTaskStore{}
	tool := NewGetTasksTool(store)

	_, err := tool.Call(context.Background(), json.RawMessage(`{"borrower": "acme", "officer": "smith", "status": "blocked"}`))
	if err != nil {
		t.Fatal(err)
	}
	want := domain.TaskFilter{Borrower: "acme", Officer: "smith", Status: "blocked"}
	if store.lastF != want {
		t.Errorf("filter: want %+v, got %+v", want, store.lastF)
	}
}

func TestGetTasksTool_WhenMatches_ShouldReturnJSONWithCount(t *testing.T) {
	store := &fakeTaskStore{records: []domain.TaskRecord{
		{TaskID: "2", Borrower: "ACME"},
		{TaskID: "1", Borrower: "ACME"},
	}}
	tool := NewGetTasksTool(store)

	res, err := tool.Call(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Data, `"task_id": "2"`) {
		t.Errorf("data should contain records: %q", res.Data)
	}
	if res.Metadata["count"] != "2" {
		t.Errorf("count: got %q", res.Metadata["count"])
	}
}

func TestGetTasksTool_WhenStoreFails_ShouldError(t *testing.T) {
	tool := NewGetTasksTool(&fakeTaskStore{getErr: errors.New("db down")})

	_, err := tool.Call(context.Background(), json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "db down") {
		t.Errorf("error: %v", err)
	}
}

func TestNewGetTasksTool_WhenStoreNil_ShouldPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewGetTasksTool(nil)
}

func TestRecordTaskTool_ShouldInsertAndReturnStoredPayload(t *testing.T) {
	store := &fakeTaskStore{}
	tool := NewRecordTaskTool(store)

	res, err := tool.Call(context.Background(), json.RawMessage(
		`{"borrower": "ACME", "officer": "Smith", "note": "chase rent roll"}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("inserts: want 1, got %d", len(store.inserted))
	}
	if store.inserted[0].Status != domain.StatusOpen {
		t.Errorf("default status: want open, got %q", store.inserted[0].Status)
	}
	if !strings.Contains(res.Data, `"stored": true`) {
		t.Errorf("payload should confirm storage: %q", res.Data)
	}
	if res.Metadata["task_id"] == "" {
		t.Error("task_id metadata missing")
	}
}

func TestRecordTaskTool_WhenStoreFails_ShouldError(t *testing.T) {
	tool := NewRecordTaskTool(&fakeTaskStore{recordErr: errors.New("insert failed")})

	_, err := tool.Call(context.Background(), json.RawMessage(
		`{"borrower": "ACME", "officer": "Smith", "note": "x"}`))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestTaskTools_Kinds_ShouldSeparateReadAndWrite(t *testing.T) {
	if kind := NewGetTasksTool(&fakeTaskStore{}).Kind(); kind != domain.ToolKindRead {
		t.Errorf("get_tasks kind: got %q", kind)
	}
	if kind := NewRecordTaskTool(&fakeTaskStore{}).Kind(); kind != domain.ToolKindWrite {
		t.Errorf("record_task kind: got %q", kind)
	}
}

func TestRecordTaskTool_Definition_ShouldRequireCoreFields(t *testing.T) {
	schema := NewRecordTaskTool(&fakeTaskStore{}).Definition()

	var parsed struct {
		Required []string `json:"required"`
	}
	if err := json.Unmarshal([]byte(schema), &parsed); err != nil {
		t.Fatalf("schema parse: %v", err)
	}
	want := map[string]bool{"borrower": true, "officer": true, "note": true}
	if len(parsed.Required) != len(want) {
		t.Fatalf("required: want 3 fields, got %v", parsed.Required)
	}
	for _, field := range parsed.Required {
		if !want[field] {
			t.Errorf("unexpected required field %q", field)
		}
	}
}
