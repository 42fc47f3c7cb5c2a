package notify

import (
	"context"
	"testing"

	"shiftdesk/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTelegram struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func TestWeekPublished(t *testing.T) {
	fake := &fakeTelegram{}
	n := &Telegram{tg: fake, chatID: 42}

	week := &models.ShiftWeek{WeekStart: "2024-06-03", Status: models.WeekPublished, PublishedBy: "admin"}
	require.NoError(t, n.WeekPublished(context.Background(), week, 5))

	require.Len(t, fake.sent, 1)
	msg, ok := fake.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Contains(t, msg.Text, "2024-06-03")
	assert.Contains(t, msg.Text, "2024-06-09")
	assert.Contains(t, msg.Text, "5 employees")
	assert.Contains(t, msg.Text, "admin")
}

func TestWeekPublishedBadWeekStart(t *testing.T) {
	n := &Telegram{tg: &fakeTelegram{}, chatID: 42}
	week := &models.ShiftWeek{WeekStart: "2024-06-04"}
	assert.Error(t, n.WeekPublished(context.Background(), week, 1))
}
