package callbacks

import (
	"context"

	"github.com/Freeeeeet/trainup/internal/controller/common"
	"github.com/Freeeeeet/trainup/internal/model"
	"github.com/Freeeeeet/trainup/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// callbackContext содержит всё нужное одному обработчику нажатия
type callbackContext struct {
	ctx      context.Context
	bot      *bot.Bot
	callback *models.CallbackQuery
	user     *model.User
	chatID   int64
	h        *Handler
}

func (h *Handler) newContext(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) (*callbackContext, error) {
	user, err := h.UserService.GetByTelegramID(ctx, callback.From.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, service.ErrUserNotFound
	}

	chatID := callback.From.ID
	if msg := common.GetMessageFromCallback(callback); msg != nil {
		chatID = msg.Chat.ID
	}

	return &callbackContext{
		ctx:      ctx,
		bot:      b,
		callback: callback,
		user:     user,
		chatID:   chatID,
		h:        h,
	}, nil
}

// Answer подтверждает нажатие коротким текстом
func (c *callbackContext) Answer(text string) {
	common.AnswerCallback(c.ctx, c.bot, c.callback.ID, text)
}

// Fail логирует ошибку операции и показывает её пользователю
func (c *callbackContext) Fail(operation string, err error) {
	c.h.Logger.Warn("Callback operation failed",
		zap.String("operation", operation),
		zap.Int64("user_id", c.user.ID),
		zap.Error(err))
	common.AnswerCallbackAlert(c.ctx, c.bot, c.callback.ID, common.ErrorMessage(err))
}

// Send отправляет новое сообщение в чат пользователя
func (c *callbackContext) Send(text string) {
	if _, err := c.bot.SendMessage(c.ctx, &bot.SendMessageParams{
		ChatID: c.chatID,
		Text:   text,
	}); err != nil {
		c.h.Logger.Error("Failed to send message", zap.Int64("chat_id", c.chatID), zap.Error(err))
	}
}

// Resolve заменяет текст исходного сообщения и убирает кнопки
func (c *callbackContext) Resolve(suffix string) {
	msg := common.GetMessageFromCallback(c.callback)
	if msg == nil {
		c.Send(suffix)
		return
	}

	if _, err := c.bot.EditMessageText(c.ctx, &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      msg.Text + "\n\n" + suffix,
	}); err != nil {
		c.h.Logger.Warn("Failed to edit message", zap.Int("message_id", msg.ID), zap.Error(err))
	}
}
