// Package session содержит правила жизненного цикла слота тренера:
// заявка, одобрение или отклонение, отмена и допуск в видеозвонок.
//
// Пакет не выполняет ввода-вывода. Загрузка, сохранение и уведомления
// выполняются вызывающим кодом, который также обязан сериализовать
// записи по одному слоту (см. repository.Store.InTx).
package session

import (
	"strings"
	"time"

	"github.com/Freeeeeet/trainup/internal/model"
)

// AutoRejectReason - причина для заявок, отклонённых из-за одобрения другой заявки на тот же слот
const AutoRejectReason = "Another request for this slot was approved"

// Lifecycle принимает решения по слотам и заявкам
type Lifecycle struct {
	loc *time.Location
	now func() time.Time
}

// NewLifecycle создаёт Lifecycle. loc - часовой пояс, в котором
// интерпретируются даты и время слотов; now - источник текущего времени.
func NewLifecycle(loc *time.Location, now func() time.Time) *Lifecycle {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Lifecycle{loc: loc, now: now}
}

// Location возвращает часовой пояс слотов
func (l *Lifecycle) Location() *time.Location {
	return l.loc
}

// ValidateSlot проверяет новый слот: дата и время корректны, начало раньше
// конца и сессия ещё не началась
func (l *Lifecycle) ValidateSlot(slot *model.Slot) error {
	start, _, err := bounds(slot, l.loc)
	if err != nil {
		return err
	}
	if !l.now().Before(start) {
		return ErrSlotInPast
	}
	return nil
}

// JoinWindow вычисляет окно входа в звонок для слота
func (l *Lifecycle) JoinWindow(slot *model.Slot) (Window, error) {
	start, end, err := bounds(slot, l.loc)
	if err != nil {
		return Window{}, err
	}
	return Window{Open: start.Add(-JoinLeadTime), Start: start, End: end}, nil
}

// RequestSlot создаёт новую заявку пользователя на слот.
// existing - уже существующие заявки на этот слот.
func (l *Lifecycle) RequestSlot(slot *model.Slot, existing []*model.SessionRequest, userID int64) (*model.SessionRequest, error) {
	if slot.IsBooked {
		return nil, ErrSlotAlreadyBooked
	}

	for _, req := range existing {
		if req.UserID == userID && req.IsActive() {
			return nil, ErrDuplicateRequest
		}
	}

	start, _, err := bounds(slot, l.loc)
	if err != nil {
		return nil, err
	}

	now := l.now()
	if !now.Before(start) {
		return nil, ErrSlotInPast
	}

	return &model.SessionRequest{
		SlotID:      slot.ID,
		UserID:      userID,
		RequestedAt: now.UTC(),
		Status:      model.RequestStatusPending,
	}, nil
}

// ApproveRequest одобряет заявку и занимает слот.
// Остальные pending заявки из others отклоняются автоматически и
// возвращаются, чтобы вызывающий код сохранил их и уведомил авторов.
//
// Повторное решение по уже одобренной или отклонённой тренером заявке
// даёт ErrInvalidState. Заявка, отклонённая автоматически, на занятом
// слоте даёт ErrSlotAlreadyBooked.
func (l *Lifecycle) ApproveRequest(slot *model.Slot, req *model.SessionRequest, others []*model.SessionRequest) ([]*model.SessionRequest, error) {
	if req.SlotID != slot.ID {
		return nil, ErrInvalidState
	}
	if req.IsApproved() || (req.IsRejected() && !req.AutoRejected) {
		return nil, ErrInvalidState
	}
	if slot.IsBooked {
		return nil, ErrSlotAlreadyBooked
	}
	if !req.IsPending() {
		return nil, ErrInvalidState
	}

	now := l.now().UTC()

	var rejected []*model.SessionRequest
	for _, other := range others {
		if other.ID == req.ID || other.SlotID != slot.ID || !other.IsPending() {
			continue
		}
		rejected = append(rejected, other)
	}

	req.Status = model.RequestStatusApproved
	req.UpdatedAt = now

	userID := req.UserID
	slot.IsBooked = true
	slot.BookedBy = &userID

	for _, other := range rejected {
		other.Status = model.RequestStatusRejected
		other.RejectionReason = AutoRejectReason
		other.AutoRejected = true
		other.UpdatedAt = now
	}

	return rejected, nil
}

// RejectRequest отклоняет pending заявку с указанием причины. Слот не меняется.
func (l *Lifecycle) RejectRequest(req *model.SessionRequest, reason string) error {
	if !req.IsPending() {
		return ErrInvalidState
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrMissingReason
	}

	req.Status = model.RequestStatusRejected
	req.RejectionReason = reason
	req.UpdatedAt = l.now().UTC()
	return nil
}

// CancelBooking отменяет одобренную запись и освобождает слот.
// Заявка переходит в cancelled, поэтому одобренной на слоте остаётся не
// больше одной заявки.
func (l *Lifecycle) CancelBooking(slot *model.Slot, req *model.SessionRequest) error {
	if !req.IsApproved() || req.SlotID != slot.ID {
		return ErrInvalidState
	}

	slot.IsBooked = false
	slot.BookedBy = nil

	req.Status = model.RequestStatusCancelled
	req.UpdatedAt = l.now().UTC()
	return nil
}

// CanDeleteSlot проверяет что слот можно удалить
func (l *Lifecycle) CanDeleteSlot(slot *model.Slot) error {
	if slot.IsBooked {
		return ErrSlotAlreadyBooked
	}
	return nil
}

// CanJoinCall сообщает, может ли участник войти в звонок в момент now.
// Ошибки разбора даты или времени слота дают false.
func (l *Lifecycle) CanJoinCall(slot *model.Slot, req *model.SessionRequest, now time.Time) bool {
	if slot == nil || req == nil {
		return false
	}
	if !req.IsApproved() || !slot.IsBooked {
		return false
	}

	window, err := l.JoinWindow(slot)
	if err != nil {
		return false
	}

	return window.Contains(now)
}
