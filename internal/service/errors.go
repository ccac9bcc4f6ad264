package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/trainup/internal/session"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrNotTrainer       = errors.New("user is not a trainer")
	ErrSlotNotFound     = errors.New("slot not found")
	ErrRequestNotFound  = errors.New("request not found")
	ErrNoPermission     = errors.New("no permission for this slot")
	ErrOwnSlot          = errors.New("trainer cannot request own slot")
	ErrNotBooked        = errors.New("slot has no approved booking")
	ErrJoinWindowClosed = errors.New("join window is closed")
)

// JoinWindowError - попытка войти в звонок вне окна.
// Содержит вычисленное окно для сообщения пользователю.
type JoinWindowError struct {
	Window session.Window
	Now    time.Time
}

func (e *JoinWindowError) Error() string {
	return fmt.Sprintf("join window is closed: open %s, end %s, now %s",
		e.Window.Open.Format(time.RFC3339),
		e.Window.End.Format(time.RFC3339),
		e.Now.Format(time.RFC3339),
	)
}

// Is позволяет проверять ошибку через errors.Is(err, ErrJoinWindowClosed)
func (e *JoinWindowError) Is(target error) bool {
	return target == ErrJoinWindowClosed
}
