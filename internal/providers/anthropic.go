package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haeli05/seaclaw/internal/httpclient"
	"github.com/haeli05/seaclaw/pkg/models"
)

// anthropicProvider implements Provider for the Anthropic Messages API
// (spec.md §4.1, dialect A). It is the "hardest subsystem" by the
// spec's own description: a streaming state machine that reconstructs
// tool-call input incrementally from content_block_delta fragments.
type anthropicProvider struct {
	http *httpclient.Client
	// url overrides anthropicURL; left empty in production, set by
	// tests to point at an httptest.Server.
	url string
}

func (p *anthropicProvider) endpoint() string {
	if p.url != "" {
		return p.url
	}
	return anthropicURL
}

type anthropicRequestBody struct {
	Model       string            `json:"model"`
	MaxTokens   int               `json:"max_tokens"`
	Temperature float64           `json:"temperature"`
	Stream      bool              `json:"stream,omitempty"`
	System      string            `json:"system,omitempty"`
	Messages    json.RawMessage   `json:"messages"`
	Tools       []anthropicTool   `json:"tools,omitempty"`
}

func (p *anthropicProvider) buildBody(req Request, stream bool) ([]byte, error) {
	body := anthropicRequestBody{
		Model:       req.Model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
		System:      req.SystemPrompt,
		Messages:    messagesArray(req.MessagesJSON),
		Tools:       parseTools(req.ToolsJSON),
	}
	return json.Marshal(body)
}

func (p *anthropicProvider) headers(apiKey string) map[string]string {
	return map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": anthropicVersion,
	}
}

// Chat implements spec.md §4.1.2 for dialect A.
func (p *anthropicProvider) Chat(ctx context.Context, req Request) models.ChatResponse {
	body, err := p.buildBody(req, false)
	if err != nil {
		return models.ChatResponse{Text: fmt.Sprintf("Error: %v", err)}
	}
	resp := p.http.PostJSON(ctx, p.endpoint(), body, p.headers(req.APIKey))
	if len(resp.Body) == 0 {
		return models.ChatResponse{Text: "Error: no response from API"}
	}
	return parseAnthropicResponse(resp.Body)
}

type anthropicContentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type anthropicNonStreamResponse struct {
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func parseAnthropicResponse(raw []byte) models.ChatResponse {
	var parsed anthropicNonStreamResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return models.ChatResponse{Text: "Error: failed to parse API response"}
	}
	if parsed.Error != nil {
		msg := parsed.Error.Message
		if msg == "" {
			msg = "Unknown API error"
		}
		return models.ChatResponse{Text: msg}
	}

	resp := models.ChatResponse{
		StopReason:   parsed.StopReason,
		InputTokens:  parsed.Usage.InputTokens,
		OutputTokens: parsed.Usage.OutputTokens,
	}
	for _, block := range parsed.Content {
		switch block.Type {
		case "text":
			resp.Text += block.Text
		case "tool_use":
			input := string(block.Input)
			if input == "" {
				input = "{}"
			}
			resp.ToolCalls = append(resp.ToolCalls, models.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				InputJSON: input,
			})
		}
	}
	return resp
}

// streamEvent is the union of every dialect-A SSE event shape the
// adapter handles (spec.md §4.1.3).
type streamEvent struct {
	Type    string `json:"type"`
	Message struct {
		Usage struct {
			InputTokens int `json:"input_tokens"`
		} `json:"usage"`
	} `json:"message"`
	ContentBlock struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"content_block"`
	Delta struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
		StopReason  string `json:"stop_reason"`
	} `json:"delta"`
	Usage struct {
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// pendingToolCall is the dialect-A scratch slot holding an unfinalized
// tool_use block while its input is assembled from input_json_delta
// fragments. Only one is ever in flight at a time — the server emits one
// content block at a time.
type pendingToolCall struct {
	id, name string
	input    []byte
	active   bool
}

// ChatStream implements the dialect-A streaming state machine of
// spec.md §4.1.3. ChatResponse.Text after a streamed call always equals
// the concatenation of every text delta delivered, independent of the
// callback's return value — resolving the open question in spec.md §9:
// the same resp.Text buffer is both accumulated and forwarded to onDelta,
// so there is exactly one source of truth for the final text.
func (p *anthropicProvider) ChatStream(ctx context.Context, req Request, onDelta OnDelta) models.ChatResponse {
	body, err := p.buildBody(req, true)
	if err != nil {
		return models.ChatResponse{Text: fmt.Sprintf("Error: %v", err)}
	}

	var resp models.ChatResponse
	var pending pendingToolCall

	_ = p.http.PostStream(ctx, p.endpoint(), body, p.headers(req.APIKey), func(payload string) bool {
		var ev streamEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return true
		}
		switch ev.Type {
		case "message_start":
			resp.InputTokens = ev.Message.Usage.InputTokens
		case "content_block_start":
			if ev.ContentBlock.Type == "tool_use" {
				pending = pendingToolCall{id: ev.ContentBlock.ID, name: ev.ContentBlock.Name, active: true}
			}
		case "content_block_delta":
			switch ev.Delta.Type {
			case "text_delta":
				resp.Text += ev.Delta.Text
				if onDelta != nil && !onDelta(ev.Delta.Text) {
					return false
				}
			case "input_json_delta":
				if pending.active {
					pending.input = append(pending.input, ev.Delta.PartialJSON...)
				}
			}
		case "content_block_stop":
			if pending.active {
				input := string(pending.input)
				if input == "" {
					input = "{}"
				}
				resp.ToolCalls = append(resp.ToolCalls, models.ToolCall{
					ID:        pending.id,
					Name:      pending.name,
					InputJSON: input,
				})
				pending = pendingToolCall{}
			}
		case "message_delta":
			if ev.Delta.StopReason != "" {
				resp.StopReason = ev.Delta.StopReason
			}
			resp.OutputTokens = ev.Usage.OutputTokens
		}
		return true
	})

	return resp
}
