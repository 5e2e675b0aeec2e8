package providers

import "encoding/json"

// messagesArray returns messagesJSON if it parses as a JSON array,
// otherwise wraps it as a single user text message (spec.md §4.1.1
// fallback).
func messagesArray(messagesJSON []byte) json.RawMessage {
	var probe []json.RawMessage
	if err := json.Unmarshal(messagesJSON, &probe); err == nil {
		return json.RawMessage(messagesJSON)
	}
	fallback, err := json.Marshal([]map[string]string{
		{"role": "user", "content": string(messagesJSON)},
	})
	if err != nil {
		return json.RawMessage(`[]`)
	}
	return json.RawMessage(fallback)
}

// anthropicTool is the shape the tool registry emits and dialect A sends
// verbatim.
type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// parseTools returns the registry's tool definitions, or nil if the input
// is empty or unparseable — tools are omitted from the request in either
// case.
func parseTools(toolsJSON []byte) []anthropicTool {
	if len(toolsJSON) == 0 {
		return nil
	}
	var tools []anthropicTool
	if err := json.Unmarshal(toolsJSON, &tools); err != nil || len(tools) == 0 {
		return nil
	}
	return tools
}

// openAIFunctionTool rewrites an anthropicTool into OpenAI's function
// calling shape (spec.md §4.1.1 table).
type openAIFunctionTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

func toOpenAITools(tools []anthropicTool) []openAIFunctionTool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openAIFunctionTool, len(tools))
	for i, t := range tools {
		out[i].Type = "function"
		out[i].Function.Name = t.Name
		out[i].Function.Description = t.Description
		out[i].Function.Parameters = t.InputSchema
	}
	return out
}
