package handlers

import (
	"github.com/Freeeeeet/trainup/internal/controller/state"
	"github.com/Freeeeeet/trainup/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService    *service.UserService
	bookingService *service.BookingService
	stateManager   *state.Manager
	roomURL        func(roomID string) string
	logger         *zap.Logger
}

// NewHandlers создаёт новый обработчик команд.
// roomURL строит ссылку на комнату видеозвонка по её ID.
func NewHandlers(
	userService *service.UserService,
	bookingService *service.BookingService,
	stateManager *state.Manager,
	roomURL func(roomID string) string,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:    userService,
		bookingService: bookingService,
		stateManager:   stateManager,
		roomURL:        roomURL,
		logger:         logger,
	}
}
