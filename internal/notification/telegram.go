// Package notification sends the daily aggregation digest to Telegram.
package notification

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/chunyu/logs2weekly-go/internal/aggregator"
	internalerrors "github.com/chunyu/logs2weekly-go/internal/errors"
)

// TelegramClient posts cycle digests to a configured chat.
type TelegramClient struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramClient creates a new Telegram client
func NewTelegramClient(botToken string, chatID int64) (*TelegramClient, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		// Sanitize error to keep the bot token out of error messages
		return nil, internalerrors.Wrapf(err, "failed to create Telegram bot")
	}

	return &TelegramClient{
		bot:    bot,
		chatID: chatID,
	}, nil
}

// SendDailyDigest posts a short report after a scheduled aggregation cycle.
func (t *TelegramClient) SendDailyDigest(stats aggregator.CycleStats) error {
	msg := tgbotapi.NewMessage(t.chatID, formatDigest(stats))
	if _, err := t.bot.Send(msg); err != nil {
		return internalerrors.Wrapf(err, "failed to send daily digest")
	}
	return nil
}

// formatDigest formats cycle stats into a Telegram message.
func formatDigest(stats aggregator.CycleStats) string {
	var b strings.Builder

	b.WriteString("📝 Daily aggregation cycle finished\n")
	b.WriteString(fmt.Sprintf("• Users: %d\n", stats.Users))
	b.WriteString(fmt.Sprintf("• Summaries created: %d\n", stats.Summaries))
	b.WriteString(fmt.Sprintf("• No-ops: %d\n", stats.NoOps))
	b.WriteString(fmt.Sprintf("• Failures: %d\n", stats.Failures))
	b.WriteString(fmt.Sprintf("• Duration: %.1fs", stats.Duration.Seconds()))

	return b.String()
}

// Ensure TelegramClient implements the scheduler's notifier interface
var _ aggregator.Notifier = (*TelegramClient)(nil)
