package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const maxFileRead = 512 * 1024

// resolvePath resolves path against workspace when path is relative,
// matching the C original's resolve_path: no traversal restriction
// beyond what the caller's model-issued path already implies.
func resolvePath(workspace, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workspace, path)
}

type fileReadTool struct {
	workspace string
}

func newFileReadTool(workspace string) *fileReadTool { return &fileReadTool{workspace: workspace} }

func (t *fileReadTool) Name() string        { return "file_read" }
func (t *fileReadTool) Description() string { return "Read the contents of a file." }

func (t *fileReadTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "File path (relative to workspace)"}
		},
		"required": ["path"]
	}`)
}

type fileReadArgs struct {
	// Path is a pointer so a present-but-empty "" key is distinguishable
	// from an absent one, matching tool_file.c's NULL-vs-empty-string
	// cJSON semantics.
	Path *string `json:"path"`
}

func (t *fileReadTool) Execute(ctx context.Context, inputJSON string) Result {
	var args fileReadArgs
	if err := json.Unmarshal([]byte(inputJSON), &args); err != nil || args.Path == nil {
		return Result{Success: false, Output: "Error: missing 'path'"}
	}

	fullPath := resolvePath(t.workspace, *args.Path)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return Result{Success: false, Output: fmt.Sprintf("Error: cannot read %s: %v", fullPath, err)}
	}
	if len(data) > maxFileRead {
		data = data[:maxFileRead]
	}
	return Result{Success: true, Output: string(data)}
}

type fileWriteTool struct {
	workspace string
	log       *slog.Logger
}

func newFileWriteTool(workspace string) *fileWriteTool {
	return &fileWriteTool{workspace: workspace, log: slog.Default()}
}

func (t *fileWriteTool) Name() string { return "file_write" }
func (t *fileWriteTool) Description() string {
	return "Write content to a file. Creates parent directories."
}

func (t *fileWriteTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "File path"},
			"content": {"type": "string", "description": "Content to write"}
		},
		"required": ["path", "content"]
	}`)
}

type fileWriteArgs struct {
	// Path and Content are pointers so a present-but-empty "" key (a
	// zero-byte write, or a write using the workspace root itself) is
	// distinguishable from an absent one, matching tool_file.c's
	// NULL-vs-empty-string cJSON semantics.
	Path    *string `json:"path"`
	Content *string `json:"content"`
}

func (t *fileWriteTool) Execute(ctx context.Context, inputJSON string) Result {
	var args fileWriteArgs
	if err := json.Unmarshal([]byte(inputJSON), &args); err != nil || args.Path == nil || args.Content == nil {
		return Result{Success: false, Output: "Error: missing 'path' or 'content'"}
	}
	path, content := *args.Path, *args.Content

	fullPath := resolvePath(t.workspace, path)
	if dir := filepath.Dir(fullPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Result{Success: false, Output: fmt.Sprintf("Error: cannot write %s: %v", fullPath, err)}
		}
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		return Result{Success: false, Output: fmt.Sprintf("Error: cannot write %s: %v", fullPath, err)}
	}

	t.log.Info("file_write", "path", path, "bytes", len(content))
	return Result{Success: true, Output: fmt.Sprintf("Wrote %d bytes to %s", len(content), path)}
}
