package session

import "errors"

// Ошибки жизненного цикла сессии. Все они исправимы вызывающей стороной
// и не являются временными.
var (
	ErrSlotAlreadyBooked = errors.New("slot already booked")
	ErrDuplicateRequest  = errors.New("duplicate request for slot")
	ErrInvalidState      = errors.New("request is not in a valid state for this action")
	ErrMissingReason     = errors.New("rejection reason is required")
	ErrInvalidSlot       = errors.New("invalid slot date or time range")
	ErrSlotInPast        = errors.New("slot is in the past")
)

// UserMessage возвращает пользовательское сообщение для ошибки
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrSlotAlreadyBooked):
		return "This slot was just booked by someone else. Slot unavailable, please choose another."
	case errors.Is(err, ErrDuplicateRequest):
		return "You already have an active request for this slot."
	case errors.Is(err, ErrInvalidState):
		return "This request has already been handled."
	case errors.Is(err, ErrMissingReason):
		return "Please give a reason for the rejection."
	case errors.Is(err, ErrInvalidSlot):
		return "Invalid slot: use YYYY-MM-DD HH:MM HH:MM with the start before the end."
	case errors.Is(err, ErrSlotInPast):
		return "This slot has already started."
	default:
		return "Something went wrong. Please try again later."
	}
}
