package brain

import (
	"context"
	"fmt"

	"creditdesk/internal/domain"
	"creditdesk/internal/tooling"
)

// ToolDispatcher is the single invocation path for tool calls, shared by the
// override and model-driven routes. It validates every request against the
// registry before any collaborator is touched and normalizes every outcome
// into a ToolCallResult — collaborator faults never propagate raw.
type ToolDispatcher struct {
	registry *tooling.Registry
}

// NewToolDispatcher creates a dispatcher backed by the given registry.
// Panics if registry is nil.
func NewToolDispatcher(registry *tooling.Registry) *ToolDispatcher {
	if registry == nil {
		panic("dispatcher: registry must not be nil")
	}
	return &ToolDispatcher{registry: registry}
}

// Dispatch looks up the tool, validates the arguments, and invokes it. An
// unknown tool or failed validation synthesizes a failure result without
// touching a collaborator, so the turn still ends in a coherent explanation.
func (d *ToolDispatcher) Dispatch(ctx context.Context, req domain.ToolCallRequest) domain.ToolCallResult {
	tool, err := d.registry.Get(req.Tool)
	if err != nil {
		return failure(req, fmt.Sprintf("invalid tool request: %v", err))
	}

	if err := tooling.ValidateAgainstSchema(req.Args, tool.Definition()); err != nil {
		return failure(req, fmt.Sprintf("invalid tool request: %v", err))
	}

	res, err := tool.Call(ctx, req.Args)
	if err != nil {
		return failure(req, err.Error())
	}

	out := domain.ToolCallResult{Request: req, Ok: true, Data: res.Data}
	if res.Metadata != nil {
		out.PartialWarning = res.Metadata[domain.MetaPartialWarning]
	}
	return out
}

func failure(req domain.ToolCallRequest, reason string) domain.ToolCallResult {
	return domain.ToolCallResult{Request: req, Ok: false, FailReason: reason}
}
