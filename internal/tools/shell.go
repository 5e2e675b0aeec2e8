package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
)

const maxShellOutput = 128 * 1024

type shellTool struct {
	workspace string
	log       *slog.Logger
}

func newShellTool(workspace string) *shellTool {
	return &shellTool{workspace: workspace, log: slog.Default()}
}

func (t *shellTool) Name() string        { return "shell" }
func (t *shellTool) Description() string { return "Execute a shell command and return stdout/stderr." }

func (t *shellTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"command": {"type": "string", "description": "Shell command to execute"}
		},
		"required": ["command"]
	}`)
}

type shellArgs struct {
	// Command is a pointer so a present-but-empty "" is distinguishable
	// from an absent key — mirroring cJSON's valuestring, which is a
	// non-NULL empty C string for {"command":""} and NULL only when the
	// key itself is missing (tool_shell.c: `if (!cmd || !cmd->valuestring)`).
	Command *string `json:"command"`
}

// Execute runs command under /bin/sh -c, chdir'd into the workspace if
// one is set, draining combined stdout/stderr up to maxShellOutput
// (spec.md §4.5: "[exit N]\n<captured output>", success = exit==0).
func (t *shellTool) Execute(ctx context.Context, inputJSON string) Result {
	var args shellArgs
	if err := json.Unmarshal([]byte(inputJSON), &args); err != nil || args.Command == nil {
		return Result{Success: false, Output: "Error: missing 'command' parameter"}
	}
	command := *args.Command

	t.log.Info("shell", "command", command)

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	if t.workspace != "" {
		cmd.Dir = t.workspace
	}
	var buf bytes.Buffer
	cmd.Stdout = &limitedWriter{buf: &buf, limit: maxShellOutput}
	cmd.Stderr = cmd.Stdout

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	output := fmt.Sprintf("[exit %d]\n%s", exitCode, buf.String())
	return Result{Success: exitCode == 0, Output: output}
}

// limitedWriter caps how many bytes it will accept, silently dropping
// the remainder — mirrors the C original's fixed 128KB output buffer.
type limitedWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		p = p[:remaining]
	}
	w.buf.Write(p)
	return len(p), nil
}
