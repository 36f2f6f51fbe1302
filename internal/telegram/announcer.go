// Package telegram posts finished flips to a Telegram chat.
package telegram

import (
	"coinflip/backend/internal/models"
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Sender is the part of *tgbotapi.BotAPI the announcer needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Announcer implements the transfer notifier contract by posting a summary message.
type Announcer struct {
	Sender Sender
	ChatID int64
}

// NewAnnouncer authorizes the bot token and returns an announcer for chatID.
func NewAnnouncer(token string, chatID int64) (*Announcer, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	bot.Debug = false
	logrus.WithField("bot", bot.Self.UserName).Info("Telegram announcer authorized")
	return &Announcer{Sender: bot, ChatID: chatID}, nil
}

// Notify sends one message per finished room.
func (a *Announcer) Notify(ctx context.Context, req models.TransferRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(a.ChatID, FormatResult(req))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := a.Sender.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// FormatResult renders the announcement text.
func FormatResult(req models.TransferRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🪙 *Coinflip finished*: %s\n", req.Outcome)
	fmt.Fprintf(&b, "Winner: `%s`\n", req.WinnerUserID)
	fmt.Fprintf(&b, "Loser: `%s`\n", req.LoserUserID)
	if len(req.Items) == 0 {
		b.WriteString("Items: none")
	} else {
		fmt.Fprintf(&b, "Items (%d): %s", len(req.Items), strings.Join(req.Items, ", "))
	}
	fmt.Fprintf(&b, "\nRoom: `%s`", req.RoomID)
	return b.String()
}
