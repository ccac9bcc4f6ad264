// Package notify доставляет пользователям уведомления о заявках и сессиях
package notify

import (
	"context"

	"github.com/Freeeeeet/trainup/internal/model"
	"github.com/Freeeeeet/trainup/internal/session"
)

// Notifier - получатель событий жизненного цикла сессии
type Notifier interface {
	NewRequest(ctx context.Context, trainer, requester *model.User, slot *model.Slot, req *model.SessionRequest) error
	RequestApproved(ctx context.Context, user *model.User, slot *model.Slot) error
	RequestRejected(ctx context.Context, user *model.User, slot *model.Slot, reason string) error
	BookingCancelled(ctx context.Context, recipient *model.User, slot *model.Slot) error
	JoinWindowOpening(ctx context.Context, recipient *model.User, slot *model.Slot, window session.Window) error
}

// Nop отбрасывает все уведомления
type Nop struct{}

func (Nop) NewRequest(context.Context, *model.User, *model.User, *model.Slot, *model.SessionRequest) error {
	return nil
}

func (Nop) RequestApproved(context.Context, *model.User, *model.Slot) error { return nil }

func (Nop) RequestRejected(context.Context, *model.User, *model.Slot, string) error { return nil }

func (Nop) BookingCancelled(context.Context, *model.User, *model.Slot) error { return nil }

func (Nop) JoinWindowOpening(context.Context, *model.User, *model.Slot, session.Window) error {
	return nil
}
