package callbacks

import (
	"context"

	"github.com/Freeeeeet/trainup/internal/controller/state"
	"github.com/Freeeeeet/trainup/internal/service"
	"github.com/go-telegram/bot"
	"go.uber.org/zap"
)

// JoinFunc отвечает в чат ссылкой на звонок или сообщением об окне входа
type JoinFunc func(ctx context.Context, b *bot.Bot, chatID, userID, slotID int64)

// Handler обрабатывает нажатия inline кнопок
type Handler struct {
	UserService    *service.UserService
	BookingService *service.BookingService
	StateManager   *state.Manager
	Logger         *zap.Logger

	join JoinFunc
}

// NewHandler создаёт обработчик callback query
func NewHandler(
	userService *service.UserService,
	bookingService *service.BookingService,
	stateManager *state.Manager,
	logger *zap.Logger,
	join JoinFunc,
) *Handler {
	return &Handler{
		UserService:    userService,
		BookingService: bookingService,
		StateManager:   stateManager,
		Logger:         logger,
		join:           join,
	}
}
