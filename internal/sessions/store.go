// Package sessions implements the append-only conversation history
// described in spec.md §4.3 (C2): one JSON document per session id,
// loaded on first use and rewritten wholesale at the end of each turn.
package sessions

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/haeli05/seaclaw/pkg/models"
)

// Session is an ordered sequence of messages plus an optional on-disk
// location. A Session with an empty id is non-persistent: it never loads
// from disk and Save is a no-op.
type Session struct {
	id        string
	path      string
	messages  []models.Message
	persisted bool
}

// New creates or loads a session for (workspace, id). If id is empty the
// session is purely in-memory. If a session file already exists at
// <workspace>/.cclaw/sessions/<id>.json it is loaded and replayed.
func New(workspace, id string) (*Session, error) {
	s := &Session{id: id}
	if id == "" {
		return s, nil
	}
	s.persisted = true
	s.path = filepath.Join(workspace, ".cclaw", "sessions", id+".json")

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	var messages []models.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", id, err)
	}
	s.messages = messages
	return s, nil
}

// ID returns the session's id, or "" for non-persistent sessions.
func (s *Session) ID() string { return s.id }

// Messages returns the session's message history. The returned slice must
// not be mutated by the caller.
func (s *Session) Messages() []models.Message { return s.messages }

// AddUser appends a plain-text user message.
func (s *Session) AddUser(text string) {
	s.messages = append(s.messages, models.NewUserText(text))
}

// AddAssistant appends a terminal single-block text assistant message.
func (s *Session) AddAssistant(text string) {
	s.messages = append(s.messages, models.NewAssistantText(text))
}

// AddToolUse appends a tool_use block, coalescing onto the previous
// message if it already has role=assistant so that one assistant turn
// with multiple tool calls serializes as a single message.
func (s *Session) AddToolUse(id, name, inputJSON string) {
	block := models.Block{
		Type:  models.BlockToolUse,
		ID:    id,
		Name:  name,
		Input: normalizeInput(inputJSON),
	}
	if n := len(s.messages); n > 0 && s.messages[n-1].Role == models.RoleAssistant {
		last := &s.messages[n-1]
		last.Blocks = append(last.Blocks, block)
		return
	}
	s.messages = append(s.messages, models.Message{
		Role:   models.RoleAssistant,
		Blocks: []models.Block{block},
	})
}

// AddToolResult appends a tool_result message, carried in a user-role
// message per spec.md §3.
func (s *Session) AddToolResult(toolUseID, output string) {
	s.messages = append(s.messages, models.Message{
		Role: models.RoleUser,
		Blocks: []models.Block{{
			Type:      models.BlockToolResult,
			ToolUseID: toolUseID,
			Content:   output,
		}},
	})
}

// MessagesJSON serializes the session's messages as a JSON array, the
// form the provider adapter embeds verbatim in its request body.
func (s *Session) MessagesJSON() ([]byte, error) {
	return json.Marshal(s.messages)
}

// Save rewrites the session's on-disk document in full. A no-op for
// non-persistent sessions.
func (s *Session) Save() error {
	if !s.persisted {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	data, err := json.MarshalIndent(s.messages, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Free releases any resources held by the session. Sessions hold no
// external resources beyond their in-memory message slice, but the
// method is kept to mirror the teacher's explicit-lifecycle idiom
// (sessions.Store.Create/Get/Update in the teacher repo) and to give
// front ends a single place to release a session when a client
// disconnects.
func (s *Session) Free() {
	s.messages = nil
}

func normalizeInput(inputJSON string) json.RawMessage {
	if inputJSON == "" {
		return json.RawMessage("{}")
	}
	if !json.Valid([]byte(inputJSON)) {
		return json.RawMessage("{}")
	}
	return json.RawMessage(inputJSON)
}
