package handlers

import (
	"context"

	"github.com/Freeeeeet/trainup/internal/controller/common"
	"github.com/Freeeeeet/trainup/internal/model"
	"github.com/Freeeeeet/trainup/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requireUser проверяет что пользователь существует
// Возвращает user и true если OK, nil и false если нет
func (h *Handlers) requireUser(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	if update.Message == nil || update.Message.From == nil {
		return nil, false
	}

	telegramID := update.Message.From.ID
	user, err := h.userService.GetByTelegramID(ctx, telegramID)

	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendMessage(ctx, b, update.Message.Chat.ID, common.ErrorMessage(err), nil)
		return nil, false
	}

	if user == nil {
		h.sendMessage(ctx, b, update.Message.Chat.ID, common.ErrorMessage(service.ErrUserNotFound), nil)
		return nil, false
	}

	return user, true
}

// requireTrainer проверяет что пользователь является тренером
func (h *Handlers) requireTrainer(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return nil, false
	}

	if !user.IsTrainer {
		h.sendMessage(ctx, b, update.Message.Chat.ID, common.ErrorMessage(service.ErrNotTrainer), nil)
		return nil, false
	}

	return user, true
}

// replyError логирует ошибку операции и отвечает пользователю
func (h *Handlers) replyError(ctx context.Context, b *bot.Bot, chatID int64, operation string, err error) {
	h.logger.Warn("Operation failed",
		zap.String("operation", operation),
		zap.Int64("chat_id", chatID),
		zap.Error(err),
	)
	h.sendMessage(ctx, b, chatID, common.ErrorMessage(err), nil)
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string, markup models.ReplyMarkup) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := b.SendMessage(ctx, params); err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
