package alerts

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramSender is the subset of the bot API the channel uses.
type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// telegram delivers alerts to a Telegram chat.
type telegram struct {
	bot    telegramSender
	chatID int64
}

// NewTelegramChannel creates a Telegram alert channel. It fails when the
// token is invalid or Telegram is unreachable.
func NewTelegramChannel(cfg TelegramConfig) (Channel, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &telegram{
		bot:    bot,
		chatID: cfg.ChatID,
	}, nil
}

func (t *telegram) Name() string { return "telegram" }

func (t *telegram) Send(ctx context.Context, n Notification) error {
	msg := tgbotapi.NewMessage(t.chatID, n.Body())
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram alert: %w", err)
	}
	return nil
}
