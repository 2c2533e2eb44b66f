package notifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/semmidev/yabu/internal/config"
	"github.com/semmidev/yabu/internal/domain"
)

// maxListed caps how many archives or failures a message spells out.
const maxListed = 10

type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(cfg *config.TelegramConfig) (*TelegramNotifier, error) {
	chatID, err := strconv.ParseInt(cfg.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", cfg.ChatID, err)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
	}, nil
}

func (t *TelegramNotifier) Notify(ctx context.Context, summary domain.Summary) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatSummary(summary))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}
	return nil
}

// FormatSummary renders a run summary as a chat message.
func FormatSummary(s domain.Summary) string {
	var b strings.Builder

	if s.OK() {
		fmt.Fprintf(&b, "✅ Backup Finished: %s\n\n", s.Preset)
	} else {
		fmt.Fprintf(&b, "⚠️ Backup Finished With Errors: %s\n\n", s.Preset)
	}

	fmt.Fprintf(&b, "📦 Created: %d\n", len(s.Created))
	fmt.Fprintf(&b, "♻️ Unchanged: %d\n", s.Duplicates)
	fmt.Fprintf(&b, "❌ Failed: %d\n", len(s.Failures))
	fmt.Fprintf(&b, "🕐 Took: %s\n", s.Duration.Round(time.Second))

	for i, bk := range s.Created {
		if i == maxListed {
			fmt.Fprintf(&b, "\n… and %d more", len(s.Created)-maxListed)
			break
		}
		fmt.Fprintf(&b, "\n📁 %s", bk.Path)
	}

	for i, err := range s.Failures {
		if i == maxListed {
			fmt.Fprintf(&b, "\n… and %d more", len(s.Failures)-maxListed)
			break
		}
		fmt.Fprintf(&b, "\n• %v", err)
	}

	return b.String()
}
