package tooling

import (
	"encoding/json"
	"fmt"
	"sort"

	"creditdesk/internal/domain"
)

// Registry holds SchemaTool implementations keyed by name. Contents are fixed
// at process start; adding a tool is a wiring change, not a runtime operation.
type Registry struct {
	tools map[string]SchemaTool
}

// NewRegistry returns an empty, ready-to-use registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]SchemaTool)}
}

// Register adds a tool. Returns an error if the tool is nil or a tool with the
// same name is already registered.
func (r *Registry) Register(tool SchemaTool) error {
	if tool == nil {
		return fmt.Errorf("tool must not be nil")
	}
	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q is already registered", name)
	}
	r.tools[name] = tool
	return nil
}

// Get returns the tool with the given name or an error if not found.
func (r *Registry) Get(name string) (SchemaTool, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %q", name)
	}
	return tool, nil
}

// Validate checks raw JSON arguments against the named tool's schema without
// invoking it. Invalid requests never reach a collaborator.
func (r *Registry) Validate(name string, args json.RawMessage) error {
	tool, err := r.Get(name)
	if err != nil {
		return err
	}
	if err := ValidateAgainstSchema(args, tool.Definition()); err != nil {
		return fmt.Errorf("schema validation failed for tool %q: %w", name, err)
	}
	return nil
}

// Definitions returns a domain.ToolDefinition for every registered tool,
// sorted by name so the catalog handed to the LLM is stable across turns.
func (r *Registry) Definitions() []domain.ToolDefinition {
	out := make([]domain.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, domain.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Kind:        t.Kind(),
			InputSchema: json.RawMessage(t.Definition()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
