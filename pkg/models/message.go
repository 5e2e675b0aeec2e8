// Package models defines the provider-agnostic message and response shapes
// shared by the session store, the agent turn loop, and the provider
// adapters.
package models

import "encoding/json"

// Role identifies who authored a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType identifies the variant of a content Block.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// Block is one element of a Message's content array. Only the fields
// relevant to its Type are populated.
type Block struct {
	Type BlockType `json:"type"`

	// text blocks
	Text string `json:"text,omitempty"`

	// tool_use blocks
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result blocks
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

// Message is one role-tagged entry in a session's history. Content is
// either a single plain-text user turn (Text set, Blocks nil) or an
// ordered sequence of blocks (assistant turns with tool use, and the
// user-role tool_result turns that answer them).
type Message struct {
	Role    Role    `json:"role"`
	Text    string  `json:"content,omitempty"`
	Blocks  []Block `json:"-"`
	isBlock bool
}

// MarshalJSON renders content as a plain string for text-only messages and
// as a block array otherwise, matching both provider dialects' message
// shape.
func (m Message) MarshalJSON() ([]byte, error) {
	if !m.isBlock && m.Blocks == nil {
		return json.Marshal(struct {
			Role    Role   `json:"role"`
			Content string `json:"content"`
		}{m.Role, m.Text})
	}
	return json.Marshal(struct {
		Role    Role    `json:"role"`
		Content []Block `json:"content"`
	}{m.Role, m.Blocks})
}

// UnmarshalJSON accepts content as either a plain string or a block array.
func (m *Message) UnmarshalJSON(data []byte) error {
	var shape struct {
		Role    Role            `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return err
	}
	m.Role = shape.Role
	if len(shape.Content) == 0 {
		return nil
	}
	if shape.Content[0] == '"' {
		var text string
		if err := json.Unmarshal(shape.Content, &text); err != nil {
			return err
		}
		m.Text = text
		m.isBlock = false
		return nil
	}
	var blocks []Block
	if err := json.Unmarshal(shape.Content, &blocks); err != nil {
		return err
	}
	m.Blocks = blocks
	m.isBlock = true
	return nil
}

// NewUserText builds a plain-text user message.
func NewUserText(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// NewAssistantText builds a single-block text assistant message.
func NewAssistantText(text string) Message {
	return Message{Role: RoleAssistant, Blocks: []Block{{Type: BlockText, Text: text}}, isBlock: true}
}

// ToolCall is the provider-agnostic shape of one requested tool
// invocation. InputJSON is the raw object serialization as a string so it
// can be re-embedded verbatim in the next request, byte for byte, even
// when it was assembled incrementally from streamed fragments.
type ToolCall struct {
	ID        string
	Name      string
	InputJSON string
}

// ChatResponse is the canonical output of one provider call, identical in
// shape whether produced by the streaming or non-streaming path and
// regardless of which dialect answered the request.
type ChatResponse struct {
	Text         string
	ToolCalls    []ToolCall
	StopReason   string
	InputTokens  int
	OutputTokens int
}

// ToolResult is a success flag plus output text for one tool invocation.
// The dispatcher in internal/tools returns its own tools.Result of the
// same shape rather than this type.
type ToolResult struct {
	Success bool
	Output  string
}
