package tooling

import (
	"context"
	"encoding/json"

	"creditdesk/internal/domain"
)

// SchemaTool is a tool whose input is described by a JSON Schema generated
// from a Go struct via invopop/jsonschema. The orchestrator passes
// Definition() to the LLM as part of the tool catalog and validates returned
// arguments before calling Call().
type SchemaTool interface {
	// Name returns the unique tool name (e.g. "get_tasks").
	Name() string
	// Description returns a human-readable description for the LLM.
	Description() string
	// Kind returns the side-effect class. Write tools are only invoked after
	// explicit user confirmation.
	Kind() domain.ToolKind
	// Definition returns the JSON Schema string for the tool's input struct.
	Definition() string
	// Call executes the tool with the given JSON arguments. Arguments are
	// validated against the schema by the dispatcher before Call runs.
	Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error)
}
