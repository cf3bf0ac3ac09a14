package tooling

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"creditdesk/internal/domain"
)

// ReadFileInput names the file to read.
type ReadFileInput struct {
	Path string `json:"path"`
}

// ReadFileTool reads a local UTF-8 text file (e.g. a credit memo) from the
// configured document root. Paths are confined to the root: traversal
// outside it is rejected before any I/O.
type ReadFileTool struct {
	root string
}

// NewReadFileTool returns a read_file tool rooted at dir. Empty dir means the
// current working directory.
func NewReadFileTool(root string) *ReadFileTool {
	if root == "" {
		root = "."
	}
	return &ReadFileTool{root: filepath.Clean(root)}
}

func (t *ReadFileTool) Name() string { return "read_file" }

func (t *ReadFileTool) Description() string {
	return "Read the contents of a local text file such as memo.txt"
}

func (t *ReadFileTool) Kind() domain.ToolKind { return domain.ToolKindRead }

func (t *ReadFileTool) Definition() string {
	return GenerateSchema(ReadFileInput{})
}

// Call reads the file and returns its contents. A missing file is an error
// (normalized to a tool failure by the dispatcher), never a panic.
func (t *ReadFileTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var input ReadFileInput
	if err := json.Unmarshal(args, &input); err != nil {
		return nil, fmt.Errorf("read_file: parse input: %w", err)
	}

	// filepath.Base strips directory components so "../secret" cannot escape root.
	path := filepath.Join(t.root, filepath.Base(input.Path))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("read_file: %q not found", input.Path)
		}
		return nil, fmt.Errorf("read_file: %w", err)
	}
	return &domain.ToolResult{
		Data:     string(data),
		Metadata: map[string]string{"path": path},
	}, nil
}

var _ SchemaTool = (*ReadFileTool)(nil)
