// Package telegram implements the long-polling messenger front end of
// spec.md C6: getUpdates/sendMessage/sendChatAction over raw
// HTTP, with an offset-tracked poll loop and comma-separated allow-list
// filtering. The REST calls are delegated to httpclient; the poll loop
// itself is the in-scope pattern this package hand-rolls.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/haeli05/seaclaw/internal/httpclient"
)

const (
	apiBase    = "https://api.telegram.org/bot"
	maxLogText = 80
)

// Message is one inbound Telegram text message.
type Message struct {
	ChatID       int64
	MessageID    int
	Text         string
	FromUsername string
	FromID       int64
}

// Handler processes an inbound message and returns the reply text, or
// "" to send nothing.
type Handler func(ctx context.Context, msg Message) string

// Bot drives the long-poll loop against one bot token.
type Bot struct {
	HTTP    *httpclient.Client
	Token   string
	Allowed string // comma-separated ids/usernames; "" or containing "*" = allow all
	Log     *slog.Logger
}

func (b *Bot) allowed(fromID int64, username string) bool {
	if strings.TrimSpace(b.Allowed) == "" {
		return true
	}
	idStr := strconv.FormatInt(fromID, 10)
	for _, tok := range strings.Split(b.Allowed, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "*" || tok == idStr || (username != "" && tok == username) {
			return true
		}
	}
	return false
}

// Send posts a Markdown-formatted reply to chatID.
func (b *Bot) Send(ctx context.Context, chatID int64, text string) error {
	url := fmt.Sprintf("%s%s/sendMessage", apiBase, b.Token)
	body, _ := json.Marshal(map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	resp := b.HTTP.PostJSON(ctx, url, body, nil)
	if resp.Status < 200 || resp.Status >= 300 {
		return fmt.Errorf("telegram send failed: status %d", resp.Status)
	}
	return nil
}

// sendTyping is a best-effort typing indicator; failures are not
// reported since it never blocks a reply.
func (b *Bot) sendTyping(ctx context.Context, chatID int64) {
	url := fmt.Sprintf("%s%s/sendChatAction", apiBase, b.Token)
	body, _ := json.Marshal(map[string]any{"chat_id": chatID, "action": "typing"})
	b.HTTP.PostJSON(ctx, url, body, nil)
}

type getUpdatesResponse struct {
	OK     bool `json:"ok"`
	Result []struct {
		UpdateID int64 `json:"update_id"`
		Message  *struct {
			MessageID int    `json:"message_id"`
			Text      string `json:"text"`
			From      *struct {
				ID       int64  `json:"id"`
				Username string `json:"username"`
			} `json:"from"`
			Chat struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"message"`
	} `json:"result"`
}

// Run blocks in the long-poll loop until ctx is canceled, dispatching
// each allowed text message to handler and sending back any non-empty
// reply.
func (b *Bot) Run(ctx context.Context, handler Handler) {
	var offset int64
	b.logf("Telegram long-polling started")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		url := fmt.Sprintf("%s%s/getUpdates?timeout=30&offset=%d", apiBase, b.Token, offset)
		resp := b.HTTP.Get(ctx, url, nil)
		if len(resp.Body) == 0 {
			b.logf("Telegram poll: no response, retrying...")
			continue
		}

		var parsed getUpdatesResponse
		if err := json.Unmarshal(resp.Body, &parsed); err != nil || !parsed.OK {
			b.logf("Telegram API error")
			continue
		}

		for _, update := range parsed.Result {
			offset = update.UpdateID + 1

			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			m := update.Message

			var fromID int64
			var username string
			if m.From != nil {
				fromID = m.From.ID
				username = m.From.Username
			}

			if !b.allowed(fromID, username) {
				b.logf("Blocked Telegram user: %d (%s)", fromID, username)
				continue
			}

			logText := m.Text
			if len(logText) > maxLogText {
				logText = "(long message)"
			}
			name := username
			if name == "" {
				name = "unknown"
			}
			b.logf("Telegram [%s]: %s", name, logText)

			b.sendTyping(ctx, m.Chat.ID)

			msg := Message{
				ChatID:       m.Chat.ID,
				MessageID:    m.MessageID,
				Text:         m.Text,
				FromUsername: username,
				FromID:       fromID,
			}
			reply := handler(ctx, msg)
			if reply != "" {
				if err := b.Send(ctx, m.Chat.ID, reply); err != nil {
					b.logf("telegram send error: %v", err)
				}
			}
		}
	}
}

func (b *Bot) logf(msg string, args ...any) {
	if b.Log != nil {
		b.Log.Info(fmt.Sprintf(msg, args...))
	}
}

// SessionID returns the per-chat session id pattern used for Telegram
// front-end sessions (spec.md §4.7).
func SessionID(chatID int64) string {
	return fmt.Sprintf("tg_%d", chatID)
}
