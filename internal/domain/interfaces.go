package domain

import "context"

// LLMProvider is the model-agnostic interface for text generation.
// Implementations may be Ollama, OpenAI, a local stub, or mocks. The
// orchestration core depends only on being able to tell a structured
// tool-call reply from prose — never on the model's reasoning.
type LLMProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// TaskStore is the persistent store collaborator behind record_task and
// get_tasks. A write either fully succeeds or reports an error; the store is
// responsible for its own consistency (atomic insert with generated id).
type TaskStore interface {
	// RecordTask inserts a task and returns the stored record, including the
	// generated task id. status defaults to "open" when empty.
	RecordTask(ctx context.Context, borrower, officer, note, status string) (TaskRecord, error)

	// GetTasks returns tasks matching the filter, newest first.
	GetTasks(ctx context.Context, f TaskFilter) ([]TaskRecord, error)

	// Health verifies the store is reachable and migrated.
	Health(ctx context.Context) error
}

// WorkflowClient is the workflow-engine collaborator (legacy write path).
type WorkflowClient interface {
	// CreateWorkItem triggers the engine's create-work-item automation and
	// returns its raw acknowledgement payload.
	CreateWorkItem(ctx context.Context, borrower, officer, note string) (string, error)

	// PipelineSummary returns the engine's pipeline snapshot payload.
	PipelineSummary(ctx context.Context) (string, error)
}

// PendingStore persists at most one PendingAction per session across the two
// turns of the confirmation gate.
type PendingStore interface {
	// Put stores the action, replacing any pending action for the same session.
	Put(ctx context.Context, action PendingAction) error

	// Get returns the session's pending action, if any.
	Get(ctx context.Context, sessionID string) (PendingAction, bool, error)

	// Delete removes the session's pending action. Deleting when none is
	// pending is not an error.
	Delete(ctx context.Context, sessionID string) error
}
