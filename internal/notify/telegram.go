package notify

import (
	"context"

	"github.com/BatmanBruc/image-credits/internal/messages"
	"github.com/BatmanBruc/image-credits/types"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramFeed posts every applied recharge to an operator chat.
type TelegramFeed struct {
	sender messageSender
	chatID int64
}

func NewTelegramFeed(sender messageSender, chatID int64) *TelegramFeed {
	return &TelegramFeed{sender: sender, chatID: chatID}
}

func (t *TelegramFeed) BalanceChanged(ctx context.Context, update types.BalanceUpdate) error {
	_, err := t.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    t.chatID,
		Text:      messages.RechargeApplied(update),
		ParseMode: messages.ParseModeHTML,
	})
	return err
}
