package service

import (
	"context"
	"sync"

	"github.com/Freeeeeet/trainup/internal/model"
	"github.com/Freeeeeet/trainup/internal/session"
)

type sentNotification struct {
	event  string
	userID int64
	slotID int64
	reason string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *recordingNotifier) record(event string, user *model.User, slot *model.Slot, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{event: event, userID: user.ID, slotID: slot.ID, reason: reason})
	return n.err
}

func (n *recordingNotifier) NewRequest(_ context.Context, trainer, _ *model.User, slot *model.Slot, _ *model.SessionRequest) error {
	return n.record("new_request", trainer, slot, "")
}

func (n *recordingNotifier) RequestApproved(_ context.Context, user *model.User, slot *model.Slot) error {
	return n.record("approved", user, slot, "")
}

func (n *recordingNotifier) RequestRejected(_ context.Context, user *model.User, slot *model.Slot, reason string) error {
	return n.record("rejected", user, slot, reason)
}

func (n *recordingNotifier) BookingCancelled(_ context.Context, user *model.User, slot *model.Slot) error {
	return n.record("cancelled", user, slot, "")
}

func (n *recordingNotifier) JoinWindowOpening(_ context.Context, user *model.User, slot *model.Slot, _ session.Window) error {
	return n.record("join_window", user, slot, "")
}

func (n *recordingNotifier) events(event string) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNotification
	for _, s := range n.sent {
		if s.event == event {
			out = append(out, s)
		}
	}
	return out
}
