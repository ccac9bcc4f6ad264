package notify

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/trainup/internal/controller/keyboard"
	"github.com/Freeeeeet/trainup/internal/formatting"
	"github.com/Freeeeeet/trainup/internal/model"
	"github.com/Freeeeeet/trainup/internal/session"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Telegram отправляет уведомления в личные чаты пользователей
type Telegram struct {
	bot    *bot.Bot
	logger *zap.Logger
}

// NewTelegram создаёт Telegram нотификатор
func NewTelegram(b *bot.Bot, logger *zap.Logger) *Telegram {
	return &Telegram{bot: b, logger: logger}
}

func (t *Telegram) send(ctx context.Context, user *model.User, text string, markup models.ReplyMarkup) error {
	if user == nil || user.TelegramID == 0 {
		return fmt.Errorf("recipient has no telegram chat")
	}

	params := &bot.SendMessageParams{
		ChatID: user.TelegramID,
		Text:   text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := t.bot.SendMessage(ctx, params); err != nil {
		t.logger.Error("Failed to send notification",
			zap.Int64("user_id", user.ID),
			zap.Int64("chat_id", user.TelegramID),
			zap.Error(err),
		)
		return fmt.Errorf("send telegram message: %w", err)
	}

	return nil
}

// NewRequest уведомляет тренера о новой заявке с кнопками решения
func (t *Telegram) NewRequest(ctx context.Context, trainer, requester *model.User, slot *model.Slot, req *model.SessionRequest) error {
	text := fmt.Sprintf(
		"📥 New session request #%d\n\n"+
			"👤 %s\n"+
			"📅 %s",
		req.ID,
		requester.DisplayName(),
		formatting.FormatSlot(slot),
	)
	return t.send(ctx, trainer, text, keyboard.RequestDecision(req.ID))
}

// RequestApproved уведомляет пользователя об одобрении
func (t *Telegram) RequestApproved(ctx context.Context, user *model.User, slot *model.Slot) error {
	text := fmt.Sprintf(
		"✅ Your session is confirmed!\n\n"+
			"📅 %s\n\n"+
			"You can join the video call %d minutes before it starts.",
		formatting.FormatSlot(slot),
		int(session.JoinLeadTime.Minutes()),
	)
	return t.send(ctx, user, text, nil)
}

// RequestRejected уведомляет пользователя об отклонении с причиной
func (t *Telegram) RequestRejected(ctx context.Context, user *model.User, slot *model.Slot, reason string) error {
	text := fmt.Sprintf(
		"🚫 Your request was declined\n\n"+
			"📅 %s\n"+
			"💬 %s\n\n"+
			"Slot unavailable, please choose another: /slots",
		formatting.FormatSlot(slot),
		reason,
	)
	return t.send(ctx, user, text, nil)
}

// BookingCancelled уведомляет участника об отмене записи
func (t *Telegram) BookingCancelled(ctx context.Context, recipient *model.User, slot *model.Slot) error {
	text := fmt.Sprintf("❌ Session cancelled\n\n📅 %s", formatting.FormatSlot(slot))
	return t.send(ctx, recipient, text, nil)
}

// JoinWindowOpening напоминает что вход в звонок открыт
func (t *Telegram) JoinWindowOpening(ctx context.Context, recipient *model.User, slot *model.Slot, window session.Window) error {
	text := fmt.Sprintf(
		"🎥 Your session starts at %s\n\n"+
			"📅 %s\n"+
			"You can join now.",
		window.Start.Format("15:04"),
		formatting.FormatSlot(slot),
	)
	return t.send(ctx, recipient, text, keyboard.JoinButton(slot.ID))
}
