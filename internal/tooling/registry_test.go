package tooling

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"creditdesk/internal/domain"
)

// fakeTool is a minimal SchemaTool for registry tests.
type fakeTool struct {
	name string
	kind domain.ToolKind
}

func (f *fakeTool) Name() string          { return f.name }
func (f *fakeTool) Description() string   { return "fake " + f.name }
func (f *fakeTool) Kind() domain.ToolKind { return f.kind }
func (f *fakeTool) Definition() string    { return `{"type": "object"}` }
func (f *fakeTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	return &domain.ToolResult{Data: "ok"}, nil
}

func TestRegistry_Register_WhenDuplicateName_ShouldError(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&fakeTool{name: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&fakeTool{name: "a"}); err == nil {
		t.Error("duplicate registration should fail")
	}
}

func TestRegistry_Register_WhenNil_ShouldError(t *testing.T) {
	if err := NewRegistry().Register(nil); err == nil {
		t.Error("nil tool should be rejected")
	}
}

func TestRegistry_Get_WhenUnknown_ShouldError(t *testing.T) {
	_, err := NewRegistry().Get("nope")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), `"nope"`) {
		t.Errorf("error should name the tool: %v", err)
	}
}

func TestRegistry_Definitions_ShouldBeSortedByName(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(&fakeTool{name: name, kind: domain.ToolKindRead}); err != nil {
			t.Fatal(err)
		}
	}

	defs := r.Definitions()
	if len(defs) != 3 {
		t.Fatalf("len: want 3, got %d", len(defs))
	}
	want := []string{"alpha", "mid", "zeta"}
	for i, def := range defs {
		if def.Name != want[i] {
			t.Errorf("defs[%d]: want %q, got %q", i, want[i], def.Name)
		}
	}
}

func TestRegistry_Validate_WhenArgsDoNotMatchSchema_ShouldError(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewDebtYieldTool()); err != nil {
		t.Fatal(err)
	}
	if err := r.Validate("debt_yield", json.RawMessage(`{"noi": "lots"}`)); err == nil {
		t.Error("string NOI should fail schema validation")
	}
	if err := r.Validate("debt_yield", json.RawMessage(`{"noi": 1, "loan_amount": 2}`)); err != nil {
		t.Errorf("valid args should pass, got %v", err)
	}
}
