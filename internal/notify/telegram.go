// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notify pushes a short summary of detected deadline changes to a
// Telegram chat.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pdiddy/deadline-tracker/pkg/types"
)

// apiEndpoint is the Bot API URL format. Package-level var for test substitution.
var apiEndpoint = tgbotapi.APIEndpoint

// maxMessageLen stays under Telegram's 4096 character limit.
const maxMessageLen = 4000

// Sender delivers one HTML message to a chat.
type Sender interface {
	SendHTML(ctx context.Context, chatID int64, text string) error
}

// TelegramSender implements Sender using tgbotapi.
type TelegramSender struct {
	api *tgbotapi.BotAPI
}

// NewTelegramSender authenticates the bot token against the Bot API.
func NewTelegramSender(token string) (*TelegramSender, error) {
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, apiEndpoint)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramSender{api: api}, nil
}

// SendHTML sends an HTML-formatted message without link previews.
func (s *TelegramSender) SendHTML(_ context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// Notifier sends change summaries to one chat.
type Notifier struct {
	sender Sender
	chatID int64
}

// New returns a Notifier for chatID.
func New(sender Sender, chatID int64) *Notifier {
	return &Notifier{sender: sender, chatID: chatID}
}

// FromConfig builds a Telegram-backed Notifier. It returns nil, nil when
// notifications are not configured.
func FromConfig(cfg types.NotifyConfig) (*Notifier, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	sender, err := NewTelegramSender(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}
	return New(sender, cfg.TelegramChatID), nil
}

// Notify sends the summary of cs. An empty change set sends nothing.
func (n *Notifier) Notify(ctx context.Context, cs types.ChangeSet) error {
	if cs.IsEmpty() {
		return nil
	}
	if n.chatID == 0 {
		return errors.New("telegram chat id not configured")
	}
	return n.sender.SendHTML(ctx, n.chatID, FormatChanges(cs))
}

// FormatChanges renders cs as a Telegram HTML message, truncated to fit
// one message.
func FormatChanges(cs types.ChangeSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 <b>%d deadline changes detected</b>\n", cs.Total())

	if len(cs.Modified) > 0 {
		b.WriteString("\n📅 <b>Date changes</b>\n")
		for _, d := range cs.Modified {
			fmt.Fprintf(&b, "• <b>%s</b> - %s: <s>%s</s> → <b>%s</b>\n",
				esc(d.Course), esc(d.Title), esc(d.OldDate), esc(d.Date))
		}
	}
	if len(cs.Added) > 0 {
		b.WriteString("\n✨ <b>New deadlines</b>\n")
		for _, d := range cs.Added {
			fmt.Fprintf(&b, "• <b>%s</b> - %s (%s)\n", esc(d.Course), esc(d.Title), esc(d.Date))
		}
	}
	if len(cs.Removed) > 0 {
		b.WriteString("\n🗑️ <b>Removed/Cancelled</b>\n")
		for _, d := range cs.Removed {
			fmt.Fprintf(&b, "• <b>%s</b> - %s\n", esc(d.Course), esc(d.Title))
		}
	}

	return truncateLines(strings.TrimRight(b.String(), "\n"), maxMessageLen)
}

func esc(s string) string { return html.EscapeString(s) }

// truncateLines cuts msg at a line boundary so no HTML tag is split.
func truncateLines(msg string, limit int) string {
	if len([]rune(msg)) <= limit {
		return msg
	}
	const more = "\n…"
	var b strings.Builder
	n := 0
	for _, line := range strings.Split(msg, "\n") {
		l := len([]rune(line)) + 1
		if n+l+len([]rune(more)) > limit {
			break
		}
		b.WriteString(line)
		b.WriteString("\n")
		n += l
	}
	return strings.TrimRight(b.String(), "\n") + more
}
