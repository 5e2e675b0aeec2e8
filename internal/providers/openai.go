package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/haeli05/seaclaw/internal/httpclient"
	"github.com/haeli05/seaclaw/pkg/models"
)

// openAIProvider implements Provider for the OpenAI Chat Completions API
// (spec.md §4.1, dialect B). Its streaming state machine differs from
// dialect A's in one structural way: tool calls arrive tagged by index
// and may interleave, so the adapter keeps an indexed slot table instead
// of a single pending slot.
type openAIProvider struct {
	http *httpclient.Client
	// url overrides openAIURL; left empty in production, set by tests
	// to point at an httptest.Server.
	url string
}

func (p *openAIProvider) endpoint() string {
	if p.url != "" {
		return p.url
	}
	return openAIURL
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequestBody struct {
	Model       string               `json:"model"`
	Temperature float64              `json:"temperature"`
	Stream      bool                 `json:"stream,omitempty"`
	Messages    json.RawMessage      `json:"messages"`
	Tools       []openAIFunctionTool `json:"tools,omitempty"`
}

func (p *openAIProvider) buildBody(req Request, stream bool) ([]byte, error) {
	system, err := json.Marshal(openAIMessage{Role: "system", Content: req.SystemPrompt})
	if err != nil {
		return nil, err
	}
	rest := messagesArray(req.MessagesJSON)
	messages, err := prependMessage(system, rest)
	if err != nil {
		return nil, err
	}
	body := openAIRequestBody{
		Model:       req.Model,
		Temperature: req.Temperature,
		Stream:      stream,
		Messages:    messages,
		Tools:       toOpenAITools(parseTools(req.ToolsJSON)),
	}
	return json.Marshal(body)
}

// prependMessage splices a single pre-built message object onto the
// front of a JSON message array.
func prependMessage(message json.RawMessage, array json.RawMessage) (json.RawMessage, error) {
	var rest []json.RawMessage
	if err := json.Unmarshal(array, &rest); err != nil {
		return nil, fmt.Errorf("decode messages array: %w", err)
	}
	combined := make([]json.RawMessage, 0, len(rest)+1)
	combined = append(combined, message)
	combined = append(combined, rest...)
	return json.Marshal(combined)
}

func (p *openAIProvider) headers(apiKey string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + apiKey}
}

// Chat implements spec.md §4.1.2 for dialect B.
func (p *openAIProvider) Chat(ctx context.Context, req Request) models.ChatResponse {
	body, err := p.buildBody(req, false)
	if err != nil {
		return models.ChatResponse{Text: fmt.Sprintf("Error: %v", err)}
	}
	resp := p.http.PostJSON(ctx, p.endpoint(), body, p.headers(req.APIKey))
	if len(resp.Body) == 0 {
		return models.ChatResponse{Text: "Error: no response from API"}
	}
	return parseOpenAIResponse(resp.Body)
}

type openAIToolCall struct {
	ID       string `json:"id"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type openAINonStreamResponse struct {
	Choices []struct {
		Message struct {
			Content   string           `json:"content"`
			ToolCalls []openAIToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// mapFinishReason rewrites dialect B's finish_reason vocabulary into the
// canonical stop reasons dialect A reports (spec.md §4.1.2 table):
// "tool_calls" -> "tool_use", everything else -> "end_turn".
func mapFinishReason(reason string) string {
	if reason == "tool_calls" {
		return "tool_use"
	}
	return "end_turn"
}

func parseOpenAIResponse(raw []byte) models.ChatResponse {
	var parsed openAINonStreamResponse
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
	if len(parsed.Choices) == 0 {
		return models.ChatResponse{Text: "Error: empty choices array"}
	}

	choice := parsed.Choices[0]
	resp := models.ChatResponse{
		Text:         choice.Message.Content,
		StopReason:   mapFinishReason(choice.FinishReason),
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}
	for _, tc := range choice.Message.ToolCalls {
		args := tc.Function.Arguments
		if args == "" {
			args = "{}"
		}
		resp.ToolCalls = append(resp.ToolCalls, models.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			InputJSON: args,
		})
	}
	return resp
}

type openAIStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// toolSlot is one entry in the indexed slot table dialect B's streaming
// protocol requires: tool calls may interleave across content deltas,
// each tagged with an index rather than delivered as one block at a time.
type toolSlot struct {
	filled   bool
	id, name string
	args     []byte
}

// ChatStream implements the dialect-B streaming state machine. Resolves
// spec.md §9's open question on slot allocation: the slot table grows to
// cover every index seen, up to and including the highest index any
// delta names; slots never observed stay unfilled and are elided when
// results are emitted, in ascending index order, at stream end.
func (p *openAIProvider) ChatStream(ctx context.Context, req Request, onDelta OnDelta) models.ChatResponse {
	body, err := p.buildBody(req, true)
	if err != nil {
		return models.ChatResponse{Text: fmt.Sprintf("Error: %v", err)}
	}

	var resp models.ChatResponse
	slots := make(map[int]*toolSlot)

	_ = p.http.PostStream(ctx, p.endpoint(), body, p.headers(req.APIKey), func(payload string) bool {
		var chunk openAIStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return true
		}
		if chunk.Usage != nil {
			resp.InputTokens = chunk.Usage.PromptTokens
			resp.OutputTokens = chunk.Usage.CompletionTokens
		}
		if len(chunk.Choices) == 0 {
			return true
		}
		choice := chunk.Choices[0]

		if choice.Delta.Content != "" {
			resp.Text += choice.Delta.Content
			if onDelta != nil && !onDelta(choice.Delta.Content) {
				return false
			}
		}

		for _, tc := range choice.Delta.ToolCalls {
			slot, ok := slots[tc.Index]
			if !ok {
				slot = &toolSlot{}
				slots[tc.Index] = slot
			}
			slot.filled = true
			if tc.ID != "" {
				slot.id = tc.ID
			}
			slot.name += tc.Function.Name
			slot.args = append(slot.args, tc.Function.Arguments...)
		}

		if choice.FinishReason != nil {
			resp.StopReason = mapFinishReason(*choice.FinishReason)
		}
		return true
	})

	resp.ToolCalls = flattenSlots(slots)
	return resp
}

func flattenSlots(slots map[int]*toolSlot) []models.ToolCall {
	indices := make([]int, 0, len(slots))
	for i, slot := range slots {
		if slot.filled {
			indices = append(indices, i)
		}
	}
	sort.Ints(indices)

	calls := make([]models.ToolCall, 0, len(indices))
	for _, i := range indices {
		slot := slots[i]
		args := string(slot.args)
		if args == "" {
			args = "{}"
		}
		calls = append(calls, models.ToolCall{
			ID:        slot.id,
			Name:      slot.name,
			InputJSON: args,
		})
	}
	if len(calls) == 0 {
		return nil
	}
	return calls
}
