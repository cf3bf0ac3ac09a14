package tooling

import (
	"context"
	"encoding/json"
	"fmt"

	"creditdesk/internal/domain"
)

// GetTasksInput filters the task query. All fields are optional.
type GetTasksInput struct {
	Borrower string `json:"borrower,omitempty"`
	Officer  string `json:"officer,omitempty"`
	Status   string `json:"status,omitempty" jsonschema:"enum=open,enum=in_progress,enum=done,enum=blocked"`
}

// GetTasksTool reads tasks from the persistent store. Borrower and officer
// are partial case-insensitive matches; status is exact.
type GetTasksTool struct {
	store domain.TaskStore
}

// NewGetTasksTool returns a get_tasks tool backed by the given store.
// Panics if store is nil: the registry is wired once at startup.
func NewGetTasksTool(store domain.TaskStore) *GetTasksTool {
	if store == nil {
		panic("tooling: task store must not be nil")
	}
	return &GetTasksTool{store: store}
}

func (t *GetTasksTool) Name() string { return "get_tasks" }

func (t *GetTasksTool) Description() string {
	return "Retrieve persistent tasks, optionally filtered by borrower, officer, or status"
}

func (t *GetTasksTool) Kind() domain.ToolKind { return domain.ToolKindRead }

func (t *GetTasksTool) Definition() string {
	return GenerateSchema(GetTasksInput{})
}

// Call queries the store and returns a JSON array of matching tasks, newest
// first, or a plain "no matching tasks" message when the result is empty.
func (t *GetTasksTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	var input GetTasksInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("get_tasks: parse input: %w", err)
	}

	records, err := t.store.GetTasks(ctx, domain.TaskFilter{
		Borrower: input.Borrower,
		Officer:  input.Officer,
		Status:   input.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("get_tasks: %w", err)
	}

	if len(records) == 0 {
		return &domain.ToolResult{Data: "No matching tasks found."}, nil
	}

	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("get_tasks: encode result: %w", err)
	}
	return &domain.ToolResult{
		Data:     string(payload),
		Metadata: map[string]string{"count": fmt.Sprintf("%d", len(records))},
	}, nil
}

// RecordTaskInput describes a task to persist. Status defaults to "open".
type RecordTaskInput struct {
	Borrower string `json:"borrower"`
	Officer  string `json:"officer"`
	Note     string `json:"note"`
	Status   string `json:"status,omitempty" jsonschema:"enum=open,enum=in_progress,enum=done,enum=blocked"`
}

// RecordTaskTool persists a task into the store. Write-class: the
// orchestrator requires explicit user confirmation before invoking it.
type RecordTaskTool struct {
	store domain.TaskStore
}

// NewRecordTaskTool returns a record_task tool backed by the given store.
func NewRecordTaskTool(store domain.TaskStore) *RecordTaskTool {
	if store == nil {
		panic("tooling: task store must not be nil")
	}
	return &RecordTaskTool{store: store}
}

func (t *RecordTaskTool) Name() string { return "record_task" }

func (t *RecordTaskTool) Description() string {
	return "Record a persistent task for a borrower, assigned to an officer"
}

func (t *RecordTaskTool) Kind() domain.ToolKind { return domain.ToolKindWrite }

func (t *RecordTaskTool) Definition() string {
	return GenerateSchema(RecordTaskInput{})
}

// Call inserts the task and returns the stored fields including the generated
// task id.
func (t *RecordTaskTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	var input RecordTaskInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("record_task: parse input: %w", err)
	}

	record, err := t.store.RecordTask(ctx, input.Borrower, input.Officer, input.Note, input.Status)
	if err != nil {
		return nil, fmt.Errorf("record_task: %w", err)
	}

	payload, err := json.MarshalIndent(map[string]any{
		"task_id":  record.TaskID,
		"borrower": record.Borrower,
		"officer":  record.Officer,
		"note":     record.Note,
		"status":   record.Status,
		"stored":   true,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("record_task: encode result: %w", err)
	}
	return &domain.ToolResult{
		Data:     string(payload),
		Metadata: map[string]string{"task_id": record.TaskID},
	}, nil
}

var (
	_ SchemaTool = (*GetTasksTool)(nil)
	_ SchemaTool = (*RecordTaskTool)(nil)
)
