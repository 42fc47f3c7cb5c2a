// Package notify announces published weeks to an admins chat.
package notify

import (
	"context"
	"fmt"

	"shiftdesk/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type telegramClient interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends publish announcements via a Telegram bot.
type Telegram struct {
	tg     telegramClient
	chatID int64
	logger *zerolog.Logger
}

// NewTelegram creates a notifier for the given bot token and chat.
func NewTelegram(token string, chatID int64, logger *zerolog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Telegram{tg: api, chatID: chatID, logger: logger}, nil
}

// WeekPublished announces that a week schedule is now published.
func (t *Telegram) WeekPublished(ctx context.Context, week *models.ShiftWeek, employees int) error {
	end, err := models.WeekDates(week.WeekStart)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("📅 Week schedule published\n\n%s – %s\n👥 %d employees",
		week.WeekStart, end[6], employees)
	if week.PublishedBy != "" {
		text += fmt.Sprintf("\n✍️ by %s", week.PublishedBy)
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.tg.Send(msg); err != nil {
		return fmt.Errorf("send publish notification: %w", err)
	}
	if t.logger != nil {
		t.logger.Info().Str("week_start", week.WeekStart).Msg("publish notification sent")
	}
	return nil
}
