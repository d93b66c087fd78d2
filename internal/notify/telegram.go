package notify

import (
	"context"
	"fmt"

	"arenda/internal/config"
	"arenda/internal/domain"
	"arenda/internal/metrics"
	"arenda/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Telegram mirrors notifications into a chat, so booking status changes
// reach the user away from the terminal.
type Telegram struct {
	bot    domain.TelegramSender
	chatID int64
	minLvl models.NotificationLevel
	logger *zerolog.Logger
}

// NewTelegramBot connects to the Bot API with the configured token.
func NewTelegramBot(cfg config.TelegramConfig) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	bot.Debug = cfg.Debug
	return bot, nil
}

func NewTelegram(bot domain.TelegramSender, chatID int64, logger *zerolog.Logger) *Telegram {
	return &Telegram{bot: bot, chatID: chatID, logger: logger}
}

// SkipInfo stops info-level notifications from being sent.
func (t *Telegram) SkipInfo() *Telegram {
	t.minLvl = models.LevelSuccess
	return t
}

func (t *Telegram) Notify(ctx context.Context, n models.Notification) error {
	if t.minLvl == models.LevelSuccess && n.Level == models.LevelInfo {
		return nil
	}

	msg := tgbotapi.NewMessage(t.chatID, Format(n))
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		metrics.IncNotification("telegram", "failed")
		t.logger.Error().Err(err).Int64("chat_id", t.chatID).Msg("Failed to send Telegram notification")
		return fmt.Errorf("send telegram notification: %w", err)
	}
	metrics.IncNotification("telegram", string(n.Level))
	return nil
}
