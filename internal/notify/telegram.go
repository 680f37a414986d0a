package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts a short message to the administrators' chat.
type Telegram struct {
	api         telegramSender
	adminChatID int64
}

// NewTelegram verifies the token with the Bot API before returning.
func NewTelegram(token string, adminChatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	api.Debug = false
	return &Telegram{api: api, adminChatID: adminChatID}, nil
}

func (t *Telegram) Notify(ctx context.Context, n Notice) error {
	text := fmt.Sprintf("✅ License renewed\nSchool: %s (%s)\nPlan: %s\nAmount: %.2f\nExpires: %s\nOrigin: %s",
		n.displayName(), n.SchoolCode, n.Plan, n.AmountPaid, n.NewExpiry.Format("2006-01-02"), n.Origin)
	if n.Reference != "" {
		text += "\nRef: " + n.Reference
	}

	msg := tgbotapi.NewMessage(t.adminChatID, text)
	err := withContext(ctx, func() error {
		_, err := t.api.Send(msg)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
