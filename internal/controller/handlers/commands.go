package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/trainup/internal/controller/common"
	"github.com/Freeeeeet/trainup/internal/controller/state"
	"github.com/Freeeeeet/trainup/internal/formatting"
	"github.com/Freeeeeet/trainup/internal/session"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "📚 Commands:\n\n" +
	"For everyone:\n" +
	"/start - Register\n" +
	"/slots - Free slots\n" +
	"/myrequests - My requests and sessions\n" +
	"/join <slot> - Join the video call\n" +
	"/cancel <slot> - Cancel a confirmed session\n" +
	"/help - Show this help\n\n" +
	"For trainers:\n" +
	"/becometrainer - Register as a trainer\n" +
	"/newslot YYYY-MM-DD HH:MM HH:MM - Create a slot\n" +
	"/myslots - My slots\n" +
	"/requests - Pending requests"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From

	user, err := h.userService.RegisterUser(ctx, from.ID, from.Username, from.FirstName, from.LastName)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Registration failed. Please try again later.", nil)
		return
	}

	text := fmt.Sprintf("👋 Hi, %s!\n\nTrainUp books one-to-one sessions with trainers.\n\n%s",
		user.DisplayName(), helpText)
	h.sendMessage(ctx, b, update.Message.Chat.ID, text, nil)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText, nil)
}

// HandleBecomeTrainer обрабатывает команду /becometrainer
func (h *Handlers) HandleBecomeTrainer(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	if _, err := h.userService.MakeTrainer(ctx, update.Message.From.ID); err != nil {
		h.replyError(ctx, b, update.Message.Chat.ID, "become_trainer", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID,
		"🏋️ You are a trainer now.\n\nCreate your first slot:\n/newslot 2024-06-01 10:00 11:00", nil)
}

// HandleCancel обрабатывает /cancel.
// Без аргументов сбрасывает текущий диалог, с номером слота отменяет запись.
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	if len(common.CommandArgs(update.Message.Text)) == 0 {
		telegramID := update.Message.From.ID
		if h.stateManager.GetState(telegramID) == state.StateNone {
			h.sendMessage(ctx, b, update.Message.Chat.ID,
				"Nothing to cancel.\n\nTo cancel a session: /cancel <slot>", nil)
			return
		}
		h.stateManager.ClearState(telegramID)
		h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Cancelled.", nil)
		return
	}

	h.handleCancelBooking(ctx, b, update)
}

// HandleTextMessage обрабатывает текст вне команд в зависимости от состояния диалога
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		return
	}

	telegramID := update.Message.From.ID
	currentState := h.stateManager.GetState(telegramID)

	switch currentState {
	case state.StateRejectReason:
		h.handleRejectReason(ctx, b, update)
	default:
		h.logger.Debug("No active state, ignoring message", zap.Int64("telegram_id", telegramID))
	}
}

// handleRejectReason завершает отклонение заявки введённой причиной
func (h *Handlers) handleRejectReason(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	telegramID := update.Message.From.ID

	requestID, ok := h.stateManager.GetInt64(telegramID, state.KeyRequestID)
	if !ok {
		h.stateManager.ClearState(telegramID)
		return
	}

	trainer, ok := h.requireTrainer(ctx, b, update)
	if !ok {
		h.stateManager.ClearState(telegramID)
		return
	}

	req, err := h.bookingService.RejectRequest(ctx, trainer.ID, requestID, update.Message.Text)
	if errors.Is(err, session.ErrMissingReason) {
		// Диалог продолжается, ждём непустую причину
		h.sendMessage(ctx, b, chatID, common.ErrorMessage(err), nil)
		return
	}
	h.stateManager.ClearState(telegramID)
	if err != nil {
		h.replyError(ctx, b, chatID, "reject_request", err)
		return
	}

	h.sendMessage(ctx, b, chatID, "🚫 "+formatting.FormatRequest(req), nil)
}
