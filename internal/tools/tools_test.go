package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestShellExecuteCapturesExitCodeAndOutput(t *testing.T) {
	r := NewRegistry(t.TempDir())
	result := r.Execute(context.Background(), "shell", `{"command":"echo hi"}`)
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if !strings.HasPrefix(result.Output, "[exit 0]\n") || !strings.Contains(result.Output, "hi") {
		t.Fatalf("Output = %q, want [exit 0] prefix containing 'hi'", result.Output)
	}
}

func TestShellExecuteNonzeroExit(t *testing.T) {
	r := NewRegistry(t.TempDir())
	result := r.Execute(context.Background(), "shell", `{"command":"exit 3"}`)
	if result.Success {
		t.Fatalf("expected failure for nonzero exit")
	}
	if !strings.HasPrefix(result.Output, "[exit 3]") {
		t.Fatalf("Output = %q, want [exit 3] prefix", result.Output)
	}
}

func TestFileWriteThenRead(t *testing.T) {
	workspace := t.TempDir()
	r := NewRegistry(workspace)

	writeResult := r.Execute(context.Background(), "file_write", `{"path":"notes/a.txt","content":"hello"}`)
	if !writeResult.Success {
		t.Fatalf("file_write failed: %+v", writeResult)
	}
	if writeResult.Output != "Wrote 5 bytes to notes/a.txt" {
		t.Fatalf("Output = %q", writeResult.Output)
	}

	readResult := r.Execute(context.Background(), "file_read", `{"path":"notes/a.txt"}`)
	if !readResult.Success || readResult.Output != "hello" {
		t.Fatalf("file_read = %+v, want success with 'hello'", readResult)
	}
}

func TestFileReadMissingFile(t *testing.T) {
	r := NewRegistry(t.TempDir())
	result := r.Execute(context.Background(), "file_read", `{"path":"nope.txt"}`)
	if result.Success || !strings.HasPrefix(result.Output, "Error: ") {
		t.Fatalf("Output = %+v, want an Error: prefix for a missing file", result)
	}
}

func TestUnknownToolName(t *testing.T) {
	r := NewRegistry(t.TempDir())
	result := r.Execute(context.Background(), "nonexistent", `{}`)
	if result.Success || result.Output != "Unknown tool: nonexistent" {
		t.Fatalf("result = %+v", result)
	}
}

func TestInvalidJSONInput(t *testing.T) {
	r := NewRegistry(t.TempDir())
	result := r.Execute(context.Background(), "shell", `not json`)
	if result.Success || result.Output != "Error: invalid JSON" {
		t.Fatalf("result = %+v", result)
	}
}

func TestDefinitionsIncludesAllThreeTools(t *testing.T) {
	r := NewRegistry(t.TempDir())
	data, err := r.Definitions()
	if err != nil {
		t.Fatalf("Definitions() error = %v", err)
	}
	for _, name := range []string{"shell", "file_read", "file_write"} {
		if !strings.Contains(string(data), `"name":"`+name+`"`) {
			t.Errorf("definitions missing tool %q: %s", name, data)
		}
	}
}

func TestFileWriteCreatesParentDirs(t *testing.T) {
	workspace := t.TempDir()
	r := NewRegistry(workspace)
	r.Execute(context.Background(), "file_write", `{"path":"a/b/c.txt","content":"x"}`)
	if _, err := os.Stat(filepath.Join(workspace, "a", "b", "c.txt")); err != nil {
		t.Fatalf("expected nested file to exist: %v", err)
	}
}

func TestShellEmptyButPresentCommandIsNotAnError(t *testing.T) {
	r := NewRegistry(t.TempDir())
	result := r.Execute(context.Background(), "shell", `{"command":""}`)
	if !result.Success || !strings.HasPrefix(result.Output, "[exit 0]") {
		t.Fatalf("result = %+v, want a successful no-op run for an empty-but-present command", result)
	}
}

func TestShellMissingCommandKeyIsAnError(t *testing.T) {
	r := NewRegistry(t.TempDir())
	result := r.Execute(context.Background(), "shell", `{}`)
	if result.Success || result.Output != "Error: missing 'command' parameter" {
		t.Fatalf("result = %+v, want an error for a genuinely missing key", result)
	}
}

func TestFileWriteEmptyButPresentContentWritesZeroBytes(t *testing.T) {
	workspace := t.TempDir()
	r := NewRegistry(workspace)
	result := r.Execute(context.Background(), "file_write", `{"path":"empty.txt","content":""}`)
	if !result.Success || result.Output != "Wrote 0 bytes to empty.txt" {
		t.Fatalf("result = %+v, want a successful zero-byte write", result)
	}
	data, err := os.ReadFile(filepath.Join(workspace, "empty.txt"))
	if err != nil || len(data) != 0 {
		t.Fatalf("expected an empty file on disk, err=%v data=%q", err, data)
	}
}

func TestFileWriteMissingContentKeyIsAnError(t *testing.T) {
	r := NewRegistry(t.TempDir())
	result := r.Execute(context.Background(), "file_write", `{"path":"x.txt"}`)
	if result.Success || result.Output != "Error: missing 'path' or 'content'" {
		t.Fatalf("result = %+v, want an error for a genuinely missing 'content' key", result)
	}
}

func TestFileReadMissingPathKeyIsAnError(t *testing.T) {
	r := NewRegistry(t.TempDir())
	result := r.Execute(context.Background(), "file_read", `{}`)
	if result.Success || result.Output != "Error: missing 'path'" {
		t.Fatalf("result = %+v, want an error for a genuinely missing 'path' key", result)
	}
}
