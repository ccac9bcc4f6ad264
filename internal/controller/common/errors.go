package common

import (
	"errors"

	"github.com/Freeeeeet/trainup/internal/service"
	"github.com/Freeeeeet/trainup/internal/session"
)

var (
	ErrNoMessage     = errors.New("no message in callback")
	ErrInvalidFormat = errors.New("invalid command or callback format")
)

// ErrorMessage возвращает пользовательское сообщение для ошибки
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return "❌ User not found. Use /start to register."
	case errors.Is(err, service.ErrNotTrainer):
		return "❌ This command is for trainers only.\n\nBecome a trainer: /becometrainer"
	case errors.Is(err, service.ErrSlotNotFound):
		return "❌ Slot not found."
	case errors.Is(err, service.ErrRequestNotFound):
		return "❌ Request not found."
	case errors.Is(err, service.ErrNoPermission):
		return "❌ You don't have access to this slot."
	case errors.Is(err, service.ErrOwnSlot):
		return "❌ You can't request your own slot."
	case errors.Is(err, service.ErrNotBooked):
		return "❌ This slot has no confirmed booking."
	case errors.Is(err, ErrNoMessage):
		return "❌ Failed to process the message."
	case errors.Is(err, ErrInvalidFormat):
		return "❌ Invalid format."
	default:
		return "❌ " + session.UserMessage(err)
	}
}
