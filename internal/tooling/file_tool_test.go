package tooling

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadFileTool_ShouldReturnFileContents(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "memo.txt"), []byte("Borrower looks solid."), 0644); err != nil {
		t.Fatal(err)
	}
	tool := NewReadFileTool(dir)

	res, err := tool.Call(context.Background(), json.RawMessage(`{"path": "memo.txt"}`))
	if err != nil {
		t.Fatal(err)
	}
	if res.Data != "Borrower looks solid." {
		t.Errorf("data: got %q", res.Data)
	}
}

func TestReadFileTool_WhenFileMissing_ShouldReturnNotFoundError(t *testing.T) {
	tool := NewReadFileTool(t.TempDir())

	_, err := tool.Call(context.Background(), json.RawMessage(`{"path": "memo.txt"}`))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), `"memo.txt" not found`) {
		t.Errorf("error should quote the requested path: %v", err)
	}
}

func TestReadFileTool_WhenPathTraversal_ShouldStayInsideRoot(t *testing.T) {
	dir := t.TempDir()
	// The escape target exists outside the root; only the basename may resolve.
	outside := filepath.Join(dir, "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0644); err != nil {
		t.Fatal(err)
	}
	root := filepath.Join(dir, "docs")
	if err := os.Mkdir(root, 0755); err != nil {
		t.Fatal(err)
	}
	tool := NewReadFileTool(root)

	_, err := tool.Call(context.Background(), json.RawMessage(`{"path": "../secret.txt"}`))
	if err == nil {
		t.Fatal("traversal outside the root must not succeed")
	}
}

func TestReadFileTool_WhenContextCancelled_ShouldReturnContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tool := NewReadFileTool(t.TempDir())

	if _, err := tool.Call(ctx, json.RawMessage(`{"path": "memo.txt"}`)); err != context.Canceled {
		t.Errorf("want context.Canceled, got %v", err)
	}
}
