// Package providers implements the provider abstraction and streaming
// protocol parser (spec.md C3): converting between the Anthropic Messages
// and OpenAI Chat Completions dialects, in both streaming and
// non-streaming modes, into one canonical models.ChatResponse. The agent
// turn loop never inspects which dialect answered a call.
package providers

import (
	"context"

	"github.com/haeli05/seaclaw/internal/httpclient"
	"github.com/haeli05/seaclaw/pkg/models"
)

// OnDelta fires once per text fragment as it arrives during a streamed
// response. Returning false aborts the stream; the response accumulated
// so far is still returned — a partial response is a legitimate outcome.
type OnDelta func(text string) (keepGoing bool)

// Provider is the dialect-agnostic interface the agent turn loop calls
// through. Anthropic and OpenAI each implement it from the same inputs.
type Provider interface {
	// Chat sends one non-streaming completion request.
	Chat(ctx context.Context, req Request) models.ChatResponse

	// ChatStream sends one streaming completion request, invoking
	// onDelta for every text fragment as it arrives.
	ChatStream(ctx context.Context, req Request, onDelta OnDelta) models.ChatResponse
}

// Request carries every input the two dialects build their request
// bodies from (spec.md §4.1.1).
type Request struct {
	APIKey       string
	Model        string
	SystemPrompt string
	// MessagesJSON is the session's block-structured message array,
	// already serialized — see sessions.Session.MessagesJSON.
	MessagesJSON []byte
	// ToolsJSON is the tool registry's Anthropic-shaped definitions
	// ({name, description, input_schema}[]); OpenAI dialect rewrites it.
	ToolsJSON   []byte
	Temperature float64
}

const (
	maxTokens = 8192

	anthropicURL     = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
	openAIURL        = "https://api.openai.com/v1/chat/completions"
)

// New returns the Provider for the given dialect name ("anthropic" or
// "openai"). Unknown names fall back to Anthropic, matching the C
// original's config_defaults().
func New(dialect string, http *httpclient.Client) Provider {
	if dialect == "openai" {
		return &openAIProvider{http: http}
	}
	return &anthropicProvider{http: http}
}
