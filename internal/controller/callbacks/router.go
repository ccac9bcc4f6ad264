package callbacks

import (
	"context"
	"strings"

	"github.com/Freeeeeet/trainup/internal/controller/common"
	"github.com/Freeeeeet/trainup/internal/controller/keyboard"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleCallbackQuery - точка входа для всех callback query
func (h *Handler) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	h.Route(ctx, b, update.CallbackQuery)
}

// Route распределяет callback query по обработчикам
func (h *Handler) Route(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	data := callback.Data

	h.Logger.Info("Routing callback",
		zap.String("data", data),
		zap.Int64("user_id", callback.From.ID),
	)

	var handle func(*callbackContext, int64)

	switch {
	case strings.HasPrefix(data, keyboard.RequestSlot):
		handle = h.handleRequestSlot
	case strings.HasPrefix(data, keyboard.ApproveReq):
		handle = h.handleApprove
	case strings.HasPrefix(data, keyboard.RejectReq):
		handle = h.handleReject
	case strings.HasPrefix(data, keyboard.DeleteSlot):
		handle = h.handleDeleteSlot
	case strings.HasPrefix(data, keyboard.CancelBooking):
		handle = h.handleCancelBooking
	case strings.HasPrefix(data, keyboard.JoinCall):
		handle = h.handleJoin
	default:
		h.Logger.Warn("Unknown callback", zap.String("data", data))
		common.AnswerCallback(ctx, b, callback.ID, "")
		return
	}

	id, err := keyboard.ParseID(data)
	if err != nil {
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(common.ErrInvalidFormat))
		return
	}

	cc, err := h.newContext(ctx, b, callback)
	if err != nil {
		h.Logger.Error("Failed to load user",
			zap.Int64("telegram_id", callback.From.ID),
			zap.Error(err))
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(err))
		return
	}

	handle(cc, id)
}
