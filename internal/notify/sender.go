package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

// ErrUndeliverable marks a delivery that retrying cannot fix, such as a
// chat that does not exist or a user who blocked the bot.
var ErrUndeliverable = errors.New("notification undeliverable")

// Sender delivers a rendered message to a Telegram chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, msg Message) error
}

// TelegramSender sends messages through the Bot API. Request timeouts are
// bounded by the bot's HTTP client.
type TelegramSender struct {
	bot *tele.Bot
}

// NewTelegramSender creates a new TelegramSender instance.
func NewTelegramSender(bot *tele.Bot) *TelegramSender {
	return &TelegramSender{bot: bot}
}

// Send delivers msg with its buttons as an inline keyboard.
func (s *TelegramSender) Send(ctx context.Context, chatID int64, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	opts := &tele.SendOptions{DisableWebPagePreview: true}
	if len(msg.Buttons) > 0 {
		rows := make([][]tele.InlineButton, 0, len(msg.Buttons))
		for _, btn := range msg.Buttons {
			rows = append(rows, []tele.InlineButton{{Text: btn.Text, URL: btn.URL}})
		}
		opts.ReplyMarkup = &tele.ReplyMarkup{InlineKeyboard: rows}
	}

	_, err := s.bot.Send(tele.ChatID(chatID), msg.Text, opts)
	if err == nil {
		return nil
	}
	if errors.Is(err, tele.ErrChatNotFound) || errors.Is(err, tele.ErrBlockedByUser) || errors.Is(err, tele.ErrUserIsDeactivated) {
		return fmt.Errorf("%w: %v", ErrUndeliverable, err)
	}
	return fmt.Errorf("failed to send telegram message: %w", err)
}

// LogSender writes messages to the log. It stands in for Telegram when no
// bot token is configured.
type LogSender struct{}

// Send logs msg.
func (LogSender) Send(_ context.Context, chatID int64, msg Message) error {
	log.Info().
		Int64("chat_id", chatID).
		Str("text", msg.Text).
		Int("buttons", len(msg.Buttons)).
		Msg("Telegram disabled, notification logged")
	return nil
}
