package controller

import (
	"context"
	"strings"
	"time"

	"github.com/Freeeeeet/trainup/internal/controller/callbacks"
	"github.com/Freeeeeet/trainup/internal/controller/handlers"
	"github.com/Freeeeeet/trainup/internal/controller/state"
	"github.com/Freeeeeet/trainup/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot             *bot.Bot
	handlers        *handlers.Handlers
	callbackHandler *callbacks.Handler
	stateManager    *state.Manager
	logger          *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	userService *service.UserService,
	bookingService *service.BookingService,
	roomURL func(roomID string) string,
	logger *zap.Logger,
) *BotController {
	stateManager := state.NewManager(state.DefaultTTL)

	cmdHandlers := handlers.NewHandlers(
		userService,
		bookingService,
		stateManager,
		roomURL,
		logger,
	)

	callbackHandler := callbacks.NewHandler(
		userService,
		bookingService,
		stateManager,
		logger,
		cmdHandlers.ReplyJoin,
	)

	return &BotController{
		bot:             botInstance,
		handlers:        cmdHandlers,
		callbackHandler: callbackHandler,
		stateManager:    stateManager,
		logger:          logger,
	}
}

// isDialogText - текст без команды, ответ в диалоге
func isDialogText(update *models.Update) bool {
	return update.Message != nil && update.Message.Text != "" && !strings.HasPrefix(update.Message.Text, "/")
}

// matchCommand совпадает с командой без аргументов или с аргументами через пробел
func matchCommand(cmd string) bot.MatchFunc {
	return func(update *models.Update) bool {
		if update.Message == nil {
			return false
		}
		text := update.Message.Text
		return text == cmd || strings.HasPrefix(text, cmd+" ")
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/slots", bot.MatchTypeExact, c.handlers.HandleSlots)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/myrequests", bot.MatchTypeExact, c.handlers.HandleMyRequests)
	c.bot.RegisterHandlerMatchFunc(matchCommand("/join"), c.handlers.HandleJoin)
	c.bot.RegisterHandlerMatchFunc(matchCommand("/cancel"), c.handlers.HandleCancel)

	// Команды для тренеров
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/becometrainer", bot.MatchTypeExact, c.handlers.HandleBecomeTrainer)
	c.bot.RegisterHandlerMatchFunc(matchCommand("/newslot"), c.handlers.HandleNewSlot)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/myslots", bot.MatchTypeExact, c.handlers.HandleMySlots)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/requests", bot.MatchTypeExact, c.handlers.HandleRequests)

	// Ответы в диалогах (причина отклонения)
	c.bot.RegisterHandlerMatchFunc(isDialogText, c.handlers.HandleTextMessage)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.callbackHandler.HandleCallbackQuery)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Register"},
		{Command: "help", Description: "❓ Help"},
		{Command: "slots", Description: "🟢 Free slots"},
		{Command: "myrequests", Description: "📋 My requests and sessions"},
		{Command: "join", Description: "🎥 Join a video call"},
		{Command: "cancel", Description: "❌ Cancel a session or dialog"},
		{Command: "becometrainer", Description: "🏋️ Become a trainer"},
		{Command: "newslot", Description: "➕ Create a slot (trainer)"},
		{Command: "myslots", Description: "📅 My slots (trainer)"},
		{Command: "requests", Description: "📥 Pending requests (trainer)"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start запускает бота и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}

// RunStateCleanup периодически забывает брошенные диалоги
func (c *BotController) RunStateCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if removed := c.stateManager.Cleanup(); removed > 0 {
				c.logger.Debug("Expired dialogs removed", zap.Int("count", removed))
			}
		}
	}
}
