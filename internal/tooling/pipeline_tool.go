package tooling

import (
	"context"
	"encoding/json"
	"fmt"

	"creditdesk/internal/domain"
)

// PipelineSummaryInput is intentionally empty: the snapshot takes no filters.
type PipelineSummaryInput struct{}

// PipelineSummaryTool fetches the legacy underwriting pipeline snapshot from
// the workflow engine. Pipeline questions are normally answered from the task
// store via the intent router; this tool remains for deployments that still
// publish the engine-side snapshot.
type PipelineSummaryTool struct {
	engine domain.WorkflowClient
}

// NewPipelineSummaryTool returns a get_pipeline_summary tool.
func NewPipelineSummaryTool(engine domain.WorkflowClient) *PipelineSummaryTool {
	if engine == nil {
		panic("tooling: workflow client must not be nil")
	}
	return &PipelineSummaryTool{engine: engine}
}

func (t *PipelineSummaryTool) Name() string { return "get_pipeline_summary" }

func (t *PipelineSummaryTool) Description() string {
	return "Fetch the legacy underwriting pipeline snapshot from the workflow engine"
}

func (t *PipelineSummaryTool) Kind() domain.ToolKind { return domain.ToolKindRead }

func (t *PipelineSummaryTool) Definition() string {
	return GenerateSchema(PipelineSummaryInput{})
}

// Call returns the engine's snapshot payload verbatim.
func (t *PipelineSummaryTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	var input PipelineSummaryInput
	if len(args) > 0 {
		if err := json.Unmarshal(args, &input); err != nil {
			return nil, fmt.Errorf("get_pipeline_summary: parse input: %w", err)
		}
	}

	payload, err := t.engine.PipelineSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_pipeline_summary: %w", err)
	}
	return &domain.ToolResult{Data: payload}, nil
}

var _ SchemaTool = (*PipelineSummaryTool)(nil)
