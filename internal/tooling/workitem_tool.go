package tooling

import (
	"context"
	"encoding/json"
	"fmt"

	"creditdesk/internal/domain"
)

// CreateWorkItemInput describes a work item to create in the workflow engine.
type CreateWorkItemInput struct {
	Borrower string `json:"borrower"`
	Officer  string `json:"officer"`
	Note     string `json:"note"`
}

// CreateWorkItemTool triggers the workflow engine's create-work-item
// automation, then records a local audit task as a second step. The two steps
// are one logical call: when the engine call succeeds but the audit record
// fails, the result is success with a partial warning — the user-facing
// action already happened and must not be reported as total failure.
type CreateWorkItemTool struct {
	engine domain.WorkflowClient
	store  domain.TaskStore
}

// NewCreateWorkItemTool returns a create_work_item tool. engine must not be
// nil; store may be nil to disable the audit step.
func NewCreateWorkItemTool(engine domain.WorkflowClient, store domain.TaskStore) *CreateWorkItemTool {
	if engine == nil {
		panic("tooling: workflow client must not be nil")
	}
	return &CreateWorkItemTool{engine: engine, store: store}
}

func (t *CreateWorkItemTool) Name() string { return "create_work_item" }

func (t *CreateWorkItemTool) Description() string {
	return "Create and assign a work item to an officer via the workflow engine"
}

func (t *CreateWorkItemTool) Kind() domain.ToolKind { return domain.ToolKindWrite }

func (t *CreateWorkItemTool) Definition() string {
	return GenerateSchema(CreateWorkItemInput{})
}

// Call triggers the automation and persists the audit record. The engine's
// acknowledgement payload is returned verbatim as the result data.
func (t *CreateWorkItemTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	var input CreateWorkItemInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("create_work_item: parse input: %w", err)
	}

	ack, err := t.engine.CreateWorkItem(ctx, input.Borrower, input.Officer, input.Note)
	if err != nil {
		return nil, fmt.Errorf("create_work_item: %w", err)
	}

	result := &domain.ToolResult{Data: ack}
	if t.store == nil {
		return result, nil
	}

	// Audit step: mirror the work item into the task store so pipeline
	// queries see it. Failure here must not mask the successful automation.
	if _, auditErr := t.store.RecordTask(ctx, input.Borrower, input.Officer, input.Note, domain.StatusOpen); auditErr != nil {
		result.Metadata = map[string]string{
			domain.MetaPartialWarning: fmt.Sprintf("work item created, but recording the audit task failed: %v", auditErr),
		}
	}
	return result, nil
}

var _ SchemaTool = (*CreateWorkItemTool)(nil)
