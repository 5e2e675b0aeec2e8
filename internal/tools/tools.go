// Package tools implements the side-effecting tool dispatcher (spec.md
// C1): shell, file_read, and file_write, each resolved against a
// workspace root and bounded in how much output they can return.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Result is the outcome of one tool call, carried back into the session
// as a tool_result block.
type Result struct {
	Success bool
	Output  string
}

// Tool is one side-effecting action the model can invoke. Schema
// returns the Anthropic-shaped JSON schema fragment the registry
// assembles into its definitions array; the OpenAI dialect rewrites it.
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Execute(ctx context.Context, inputJSON string) Result
}

// Registry dispatches tool calls by name and produces the provider-
// facing tool definitions array.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry returns a registry preloaded with the three built-in
// tools, scoped to workspace.
func NewRegistry(workspace string) *Registry {
	r := &Registry{tools: map[string]Tool{}}
	r.register(newShellTool(workspace))
	r.register(newFileReadTool(workspace))
	r.register(newFileWriteTool(workspace))
	return r
}

func (r *Registry) register(t Tool) {
	r.tools[t.Name()] = t
	r.order = append(r.order, t.Name())
}

// Execute dispatches a tool call by name. An unknown name or malformed
// input JSON is reported as a failed Result rather than a Go error —
// the agent turn loop feeds the result straight back to the model as a
// tool_result block (spec.md §7).
func (r *Registry) Execute(ctx context.Context, name, inputJSON string) Result {
	t, ok := r.tools[name]
	if !ok {
		return Result{Success: false, Output: fmt.Sprintf("Unknown tool: %s", name)}
	}
	if !json.Valid([]byte(inputJSON)) {
		return Result{Success: false, Output: "Error: invalid JSON"}
	}
	return t.Execute(ctx, inputJSON)
}

// anthropicToolDef mirrors providers.anthropicTool's wire shape without
// importing the providers package — the registry is the producer, the
// provider adapter the consumer, and neither should depend on the
// other's internals.
type anthropicToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// Definitions returns the tool registry's definitions as the JSON array
// the provider adapter embeds in its request body (spec.md §4.1.1).
func (r *Registry) Definitions() ([]byte, error) {
	defs := make([]anthropicToolDef, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, anthropicToolDef{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.Schema(),
		})
	}
	return json.Marshal(defs)
}
