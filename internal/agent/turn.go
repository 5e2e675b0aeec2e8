// Package agent implements the bounded turn loop (spec.md §4.2, C1):
// one user message in, at most MaxTurns provider round-trips, zero or
// more tool executions, one final text reply out.
package agent

import (
	"context"
	"log/slog"

	"github.com/haeli05/seaclaw/internal/providers"
	"github.com/haeli05/seaclaw/internal/sessions"
	"github.com/haeli05/seaclaw/internal/tools"
	"github.com/haeli05/seaclaw/pkg/models"
)

// MaxTurns bounds how many provider round-trips a single call to Turn
// may make before giving up and returning whatever text it last saw.
const MaxTurns = 10

// Agent ties a provider, a tool registry, and a fixed system prompt
// together into something Turn can drive repeatedly across sessions.
type Agent struct {
	Provider     providers.Provider
	Tools        *tools.Registry
	APIKey       string
	Model        string
	SystemPrompt string
	Temperature  float64
	Log          *slog.Logger
}

// Turn appends userMsg to the session, then drives the provider/tool
// loop until a turn produces no tool calls (or MaxTurns is exhausted),
// saving the session before returning. streaming selects ChatStream
// with the caller's onDelta callback over the non-streaming Chat call;
// both paths otherwise share the same control flow.
func (a *Agent) Turn(ctx context.Context, session *sessions.Session, userMsg string, streaming bool, onDelta providers.OnDelta) (string, error) {
	session.AddUser(userMsg)

	var finalText string

	for turn := 0; turn < MaxTurns; turn++ {
		msgsJSON, err := session.MessagesJSON()
		if err != nil {
			return finalText, err
		}
		toolsJSON, err := a.Tools.Definitions()
		if err != nil {
			return finalText, err
		}

		req := providers.Request{
			APIKey:       a.APIKey,
			Model:        a.Model,
			SystemPrompt: a.SystemPrompt,
			MessagesJSON: msgsJSON,
			ToolsJSON:    toolsJSON,
			Temperature:  a.Temperature,
		}

		var resp models.ChatResponse
		if streaming {
			resp = a.Provider.ChatStream(ctx, req, onDelta)
		} else {
			resp = a.Provider.Chat(ctx, req)
		}

		if a.Log != nil {
			a.Log.Debug("turn response",
				"input_tokens", resp.InputTokens,
				"output_tokens", resp.OutputTokens,
				"stop_reason", resp.StopReason,
				"tool_calls", len(resp.ToolCalls),
			)
		}

		if len(resp.ToolCalls) > 0 {
			for _, tc := range resp.ToolCalls {
				session.AddToolUse(tc.ID, tc.Name, tc.InputJSON)

				result := a.Tools.Execute(ctx, tc.Name, tc.InputJSON)

				if a.Log != nil {
					a.Log.Debug("tool executed", "name", tc.Name, "success", result.Success, "bytes", len(result.Output))
				}

				session.AddToolResult(tc.ID, result.Output)
			}

			// Text accompanying tool calls is remembered as a fallback
			// final answer but never committed to the session — only a
			// pure-text turn becomes an assistant message (spec.md §4.2).
			if resp.Text != "" {
				finalText = resp.Text
			}
			continue
		}

		if resp.Text != "" {
			session.AddAssistant(resp.Text)
			finalText = resp.Text
		}
		break
	}

	if err := session.Save(); err != nil {
		return finalText, err
	}
	return finalText, nil
}
