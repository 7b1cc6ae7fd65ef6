package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/msrishav-28/medipal-sub002/internal/domain"
)

// ChatResolver maps an engine user to their Telegram chat link, if any.
// The store implements it.
type ChatResolver interface {
	ChatLink(ctx context.Context, userID uuid.UUID) (*domain.ChatLink, error)
}

// TelegramSink delivers reminders as Telegram messages with inline
// taken/snooze/skip buttons. "Permission" on this platform is the chat
// link: no link means the user never connected (default), a disabled link
// means they revoked deliveries (denied).
type TelegramSink struct {
	bot   *tgbotapi.BotAPI
	chats ChatResolver
	log   *zap.Logger
}

// NewTelegramSink creates a sink on an authorized bot.
func NewTelegramSink(bot *tgbotapi.BotAPI, chats ChatResolver, log *zap.Logger) *TelegramSink {
	return &TelegramSink{bot: bot, chats: chats, log: log}
}

// RequestPermission cannot prompt on Telegram; linking happens in the chat
// itself via /start. It reports the current state so the caller can direct
// the user there.
func (s *TelegramSink) RequestPermission(ctx context.Context, userID uuid.UUID) (PermissionState, error) {
	return s.PermissionState(ctx, userID), nil
}

func (s *TelegramSink) PermissionState(ctx context.Context, userID uuid.UUID) PermissionState {
	link, err := s.chats.ChatLink(ctx, userID)
	if err != nil {
		s.log.Warn("chat link lookup failed", zap.String("user", userID.String()), zap.Error(err))
		return PermissionDefault
	}
	switch {
	case link == nil:
		return PermissionDefault
	case !link.Enabled:
		return PermissionDenied
	default:
		return PermissionGranted
	}
}

func (s *TelegramSink) Deliver(ctx context.Context, p Payload) error {
	userID, err := uuid.Parse(p.Data.UserID)
	if err != nil {
		return fmt.Errorf("payload user id: %w", err)
	}
	link, err := s.chats.ChatLink(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve chat: %w", err)
	}
	if link == nil || !link.Enabled {
		return fmt.Errorf("%w: user %s has no enabled chat link", domain.ErrPermissionDenied, userID)
	}

	msg := tgbotapi.NewMessage(link.ChatID, renderText(p))
	if kb, ok := renderKeyboard(p); ok {
		msg.ReplyMarkup = kb
	}
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func renderText(p Payload) string {
	if p.Body == "" {
		return p.Title
	}
	return p.Title + "\n\n" + p.Body
}

// renderKeyboard builds one inline button per action. The callback data
// carries "<action>:<reminder-id>" so the update handler can correlate the
// user's response back to the originating reminder.
func renderKeyboard(p Payload) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(p.Actions) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(p.Actions))
	for _, a := range p.Actions {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(a.Title, a.Action+":"+p.Data.ReminderID))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row), true
}
