package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/trainup/internal/model"
	"github.com/Freeeeeet/trainup/internal/notify"
	"github.com/Freeeeeet/trainup/internal/repository"
	"github.com/Freeeeeet/trainup/internal/session"
	"go.uber.org/zap"
)

// availableSlotsLimit - сколько свободных слотов показывать пользователю
const availableSlotsLimit = 20

// slotTimeWithSeconds - время суток с секундами для сравнения с началом слота
const slotTimeWithSeconds = "15:04:05"

type BookingService struct {
	repo      *repository.Repository
	tx        repository.TxManager
	lifecycle *session.Lifecycle
	notifier  notify.Notifier
	now       func() time.Time
	logger    *zap.Logger
}

func NewBookingService(
	repo *repository.Repository,
	tx repository.TxManager,
	lifecycle *session.Lifecycle,
	notifier notify.Notifier,
	now func() time.Time,
	logger *zap.Logger,
) *BookingService {
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		repo:      repo,
		tx:        tx,
		lifecycle: lifecycle,
		notifier:  notifier,
		now:       now,
		logger:    logger,
	}
}

// JoinInfo - данные для входа в видеозвонок
type JoinInfo struct {
	Slot   *model.Slot
	Room   *model.VideoRoom
	Window session.Window
}

// today возвращает текущую дату в часовом поясе слотов
func (s *BookingService) today() string {
	return s.now().In(s.lifecycle.Location()).Format(model.SlotDateLayout)
}

// getUser получает пользователя или ErrUserNotFound
func (s *BookingService) getUser(ctx context.Context, repo *repository.Repository, userID int64) (*model.User, error) {
	user, err := repo.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// lockSlot блокирует слот в транзакции или возвращает ErrSlotNotFound
func lockSlot(ctx context.Context, repo *repository.Repository, slotID int64) (*model.Slot, error) {
	slot, err := repo.Slots.GetByIDForUpdate(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}
	return slot, nil
}

// notifyUser отправляет уведомление получателю; ошибки только логируются,
// изменения уже зафиксированы
func (s *BookingService) notifyUser(ctx context.Context, event string, userID int64, send func(user *model.User) error) {
	user, err := s.getUser(ctx, s.repo, userID)
	if err == nil {
		err = send(user)
	}
	if err != nil {
		s.logger.Warn("Failed to deliver notification",
			zap.String("event", event),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
}

// CreateSlot создаёт слот тренера
func (s *BookingService) CreateSlot(ctx context.Context, trainerID int64, date, startTime, endTime string) (*model.Slot, error) {
	trainer, err := s.getUser(ctx, s.repo, trainerID)
	if err != nil {
		return nil, err
	}
	if !trainer.IsTrainer {
		return nil, ErrNotTrainer
	}

	slot := &model.Slot{
		TrainerID: trainerID,
		Date:      date,
		StartTime: startTime,
		EndTime:   endTime,
	}

	if err := s.lifecycle.ValidateSlot(slot); err != nil {
		return nil, err
	}

	if err := s.repo.Slots.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	s.logger.Info("Slot created",
		zap.Int64("slot_id", slot.ID),
		zap.Int64("trainer_id", trainerID),
		zap.String("date", date),
		zap.String("start", startTime),
		zap.String("end", endTime),
	)

	return slot, nil
}

// DeleteSlot удаляет свободный слот тренера
func (s *BookingService) DeleteSlot(ctx context.Context, trainerID, slotID int64) error {
	err := s.tx.InTx(ctx, func(ctx context.Context, repo *repository.Repository) error {
		slot, err := lockSlot(ctx, repo, slotID)
		if err != nil {
			return err
		}
		if slot.TrainerID != trainerID {
			return ErrNoPermission
		}
		if err := s.lifecycle.CanDeleteSlot(slot); err != nil {
			return err
		}

		err = repo.Slots.Delete(ctx, slotID)
		if errors.Is(err, repository.ErrSlotTaken) {
			return session.ErrSlotAlreadyBooked
		}
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("Slot deleted",
		zap.Int64("slot_id", slotID),
		zap.Int64("trainer_id", trainerID),
	)

	return nil
}

// RequestSlot создаёт заявку пользователя на слот и уведомляет тренера
func (s *BookingService) RequestSlot(ctx context.Context, userID, slotID int64) (*model.SessionRequest, error) {
	requester, err := s.getUser(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}

	var (
		slot *model.Slot
		req  *model.SessionRequest
	)

	err = s.tx.InTx(ctx, func(ctx context.Context, repo *repository.Repository) error {
		slot, err = lockSlot(ctx, repo, slotID)
		if err != nil {
			return err
		}
		if slot.TrainerID == userID {
			return ErrOwnSlot
		}

		existing, err := repo.Requests.ListBySlot(ctx, slotID)
		if err != nil {
			return fmt.Errorf("get slot requests: %w", err)
		}

		req, err = s.lifecycle.RequestSlot(slot, existing, userID)
		if err != nil {
			return err
		}

		if err := repo.Requests.Create(ctx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Slot requested",
		zap.Int64("request_id", req.ID),
		zap.Int64("slot_id", slotID),
		zap.Int64("user_id", userID),
	)

	s.notifyUser(ctx, "new_request", slot.TrainerID, func(trainer *model.User) error {
		return s.notifier.NewRequest(ctx, trainer, requester, slot, req)
	})

	return req, nil
}

// decide загружает заявку и её слот под блокировкой и проверяет что
// решение принимает владелец слота. others - остальные заявки слота.
func decide(ctx context.Context, repo *repository.Repository, trainerID, requestID int64) (*model.Slot, *model.SessionRequest, []*model.SessionRequest, error) {
	found, err := repo.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("get request: %w", err)
	}
	if found == nil {
		return nil, nil, nil, ErrRequestNotFound
	}

	slot, err := lockSlot(ctx, repo, found.SlotID)
	if err != nil {
		return nil, nil, nil, err
	}
	if slot.TrainerID != trainerID {
		return nil, nil, nil, ErrNoPermission
	}

	// Перечитываем заявки под блокировкой слота
	all, err := repo.Requests.ListBySlot(ctx, slot.ID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("get slot requests: %w", err)
	}

	var (
		req    *model.SessionRequest
		others []*model.SessionRequest
	)
	for _, r := range all {
		if r.ID == requestID {
			req = r
			continue
		}
		others = append(others, r)
	}
	if req == nil {
		return nil, nil, nil, ErrRequestNotFound
	}

	return slot, req, others, nil
}

// ApproveRequest одобряет заявку, занимает слот, отклоняет остальные
// pending заявки и создаёт комнату видеозвонка
func (s *BookingService) ApproveRequest(ctx context.Context, trainerID, requestID int64) (*model.SessionRequest, error) {
	var (
		slot     *model.Slot
		req      *model.SessionRequest
		rejected []*model.SessionRequest
	)

	err := s.tx.InTx(ctx, func(ctx context.Context, repo *repository.Repository) error {
		var (
			others []*model.SessionRequest
			err    error
		)
		slot, req, others, err = decide(ctx, repo, trainerID, requestID)
		if err != nil {
			return err
		}

		rejected, err = s.lifecycle.ApproveRequest(slot, req, others)
		if err != nil {
			return err
		}

		// Условное обновление: второй одобряющий получит ErrSlotTaken
		if err := repo.Slots.MarkBooked(ctx, slot.ID, req.UserID); err != nil {
			if errors.Is(err, repository.ErrSlotTaken) {
				return session.ErrSlotAlreadyBooked
			}
			return err
		}

		if err := repo.Requests.Update(ctx, req); err != nil {
			return fmt.Errorf("approve request: %w", err)
		}

		for _, other := range rejected {
			if err := repo.Requests.Update(ctx, other); err != nil {
				return fmt.Errorf("auto-reject request %d: %w", other.ID, err)
			}
		}

		if err := repo.Rooms.Ensure(ctx, model.NewVideoRoom(slot.ID)); err != nil {
			return fmt.Errorf("create video room: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Request approved",
		zap.Int64("request_id", req.ID),
		zap.Int64("slot_id", slot.ID),
		zap.Int64("user_id", req.UserID),
		zap.Int("auto_rejected", len(rejected)),
	)

	s.notifyUser(ctx, "request_approved", req.UserID, func(user *model.User) error {
		return s.notifier.RequestApproved(ctx, user, slot)
	})
	for _, other := range rejected {
		s.notifyUser(ctx, "request_auto_rejected", other.UserID, func(user *model.User) error {
			return s.notifier.RequestRejected(ctx, user, slot, other.RejectionReason)
		})
	}

	return req, nil
}

// RejectRequest отклоняет заявку с причиной
func (s *BookingService) RejectRequest(ctx context.Context, trainerID, requestID int64, reason string) (*model.SessionRequest, error) {
	var (
		slot *model.Slot
		req  *model.SessionRequest
	)

	err := s.tx.InTx(ctx, func(ctx context.Context, repo *repository.Repository) error {
		var err error
		slot, req, _, err = decide(ctx, repo, trainerID, requestID)
		if err != nil {
			return err
		}

		if err := s.lifecycle.RejectRequest(req, reason); err != nil {
			return err
		}

		if err := repo.Requests.Update(ctx, req); err != nil {
			return fmt.Errorf("reject request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Request rejected",
		zap.Int64("request_id", req.ID),
		zap.Int64("slot_id", slot.ID),
		zap.Int64("user_id", req.UserID),
	)

	s.notifyUser(ctx, "request_rejected", req.UserID, func(user *model.User) error {
		return s.notifier.RequestRejected(ctx, user, slot, req.RejectionReason)
	})

	return req, nil
}

// CancelBooking отменяет одобренную запись на слот.
// Отменить может тренер слота или записавшийся пользователь.
func (s *BookingService) CancelBooking(ctx context.Context, actorID, slotID int64) error {
	var (
		slot      *model.Slot
		req       *model.SessionRequest
		recipient int64
	)

	err := s.tx.InTx(ctx, func(ctx context.Context, repo *repository.Repository) error {
		var err error
		slot, err = lockSlot(ctx, repo, slotID)
		if err != nil {
			return err
		}

		req, err = repo.Requests.GetApprovedBySlot(ctx, slotID)
		if err != nil {
			return fmt.Errorf("get approved request: %w", err)
		}
		if req == nil {
			return ErrNotBooked
		}

		switch actorID {
		case slot.TrainerID:
			recipient = req.UserID
		case req.UserID:
			recipient = slot.TrainerID
		default:
			return ErrNoPermission
		}

		if err := s.lifecycle.CancelBooking(slot, req); err != nil {
			return err
		}

		if err := repo.Slots.Release(ctx, slotID); err != nil {
			return err
		}
		if err := repo.Requests.Update(ctx, req); err != nil {
			return fmt.Errorf("cancel request: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Booking cancelled",
		zap.Int64("slot_id", slotID),
		zap.Int64("request_id", req.ID),
		zap.Int64("actor_id", actorID),
	)

	s.notifyUser(ctx, "booking_cancelled", recipient, func(user *model.User) error {
		return s.notifier.BookingCancelled(ctx, user, slot)
	})

	return nil
}

// JoinCall проверяет допуск участника в видеозвонок и возвращает комнату
func (s *BookingService) JoinCall(ctx context.Context, userID, slotID int64) (*JoinInfo, error) {
	slot, err := s.repo.Slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}

	req, err := s.repo.Requests.GetApprovedBySlot(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get approved request: %w", err)
	}
	if req == nil {
		return nil, ErrNotBooked
	}
	if userID != slot.TrainerID && userID != req.UserID {
		return nil, ErrNoPermission
	}

	now := s.now()
	if !s.lifecycle.CanJoinCall(slot, req, now) {
		window, err := s.lifecycle.JoinWindow(slot)
		if err != nil {
			return nil, err
		}
		return nil, &JoinWindowError{Window: window, Now: now}
	}

	window, err := s.lifecycle.JoinWindow(slot)
	if err != nil {
		return nil, err
	}

	room, err := s.repo.Rooms.GetBySlot(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get video room: %w", err)
	}
	if room == nil {
		room = model.NewVideoRoom(slotID)
		if err := s.repo.Rooms.Ensure(ctx, room); err != nil {
			return nil, fmt.Errorf("create video room: %w", err)
		}
	}

	s.logger.Info("Participant admitted to call",
		zap.Int64("slot_id", slotID),
		zap.Int64("user_id", userID),
		zap.String("room_id", room.RoomID.String()),
	)

	return &JoinInfo{Slot: slot, Room: room, Window: window}, nil
}

// ListAvailableSlots получает свободные слоты, которые ещё не начались
func (s *BookingService) ListAvailableSlots(ctx context.Context) ([]*model.Slot, error) {
	now := s.now()
	local := now.In(s.lifecycle.Location())

	slots, err := s.repo.Slots.ListAvailable(ctx,
		local.Format(model.SlotDateLayout),
		local.Format(slotTimeWithSeconds),
		availableSlotsLimit,
	)
	if err != nil {
		return nil, err
	}

	// Слоты с некорректным временем не показываем
	available := slots[:0]
	for _, slot := range slots {
		window, err := s.lifecycle.JoinWindow(slot)
		if err != nil || !now.Before(window.Start) {
			continue
		}
		available = append(available, slot)
	}

	return available, nil
}

// ListTrainerSlots получает слоты тренера начиная с сегодняшнего дня
func (s *BookingService) ListTrainerSlots(ctx context.Context, trainerID int64) ([]*model.Slot, error) {
	return s.repo.Slots.ListByTrainer(ctx, trainerID, s.today())
}

// ListPendingRequests получает pending заявки на слоты тренера
func (s *BookingService) ListPendingRequests(ctx context.Context, trainerID int64) ([]*model.SessionRequest, error) {
	return s.repo.Requests.ListPendingByTrainer(ctx, trainerID)
}

// ListUserRequests получает заявки пользователя
func (s *BookingService) ListUserRequests(ctx context.Context, userID int64) ([]*model.SessionRequest, error) {
	return s.repo.Requests.ListByUser(ctx, userID)
}

// GetSlot получает слот по ID
func (s *BookingService) GetSlot(ctx context.Context, slotID int64) (*model.Slot, error) {
	slot, err := s.repo.Slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}
	return slot, nil
}

// NotifyJoinWindows уведомляет обоих участников сессий, у которых окно
// входа открылось в интервале (from, to]. Возвращает число сессий.
func (s *BookingService) NotifyJoinWindows(ctx context.Context, from, to time.Time) (int, error) {
	loc := s.lifecycle.Location()
	fromDate := from.In(loc).Format(model.SlotDateLayout)
	toDate := to.Add(session.JoinLeadTime).In(loc).Format(model.SlotDateLayout)

	slots, err := s.repo.Slots.ListBookedBetween(ctx, fromDate, toDate)
	if err != nil {
		return 0, fmt.Errorf("get booked slots: %w", err)
	}

	sent := 0
	for _, slot := range slots {
		window, err := s.lifecycle.JoinWindow(slot)
		if err != nil {
			s.logger.Warn("Skipping slot with invalid time", zap.Int64("slot_id", slot.ID), zap.Error(err))
			continue
		}
		if !window.Open.After(from) || window.Open.After(to) {
			continue
		}

		req, err := s.repo.Requests.GetApprovedBySlot(ctx, slot.ID)
		if err != nil {
			return sent, fmt.Errorf("get approved request: %w", err)
		}
		if req == nil {
			continue
		}

		for _, participant := range []int64{slot.TrainerID, req.UserID} {
			s.notifyUser(ctx, "join_window_opening", participant, func(user *model.User) error {
				return s.notifier.JoinWindowOpening(ctx, user, slot, window)
			})
		}
		sent++
	}

	return sent, nil
}
