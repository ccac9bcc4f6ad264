package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/trainup/internal/model"
	"github.com/Freeeeeet/trainup/internal/repository/memory"
	"github.com/Freeeeeet/trainup/internal/session"
	"go.uber.org/zap"
)

// ── Тестовые помощники ──

const (
	trainerID int64 = 1
	annaID    int64 = 2
	borisID   int64 = 3
	outsider  int64 = 4
)

type testEnv struct {
	svc      *BookingService
	store    *memory.Store
	notifier *recordingNotifier
	clock    *time.Time
}

func setupBookingService(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	for _, u := range []*model.User{
		{ID: trainerID, TelegramID: 1001, FirstName: "Tom", IsTrainer: true},
		{ID: annaID, TelegramID: 1002, FirstName: "Anna"},
		{ID: borisID, TelegramID: 1003, FirstName: "Boris"},
		{ID: outsider, TelegramID: 1004, FirstName: "Olga"},
	} {
		store.AddUser(u)
	}

	clock := time.Date(2024, 5, 30, 12, 0, 0, 0, time.UTC)
	env := &testEnv{store: store, notifier: &recordingNotifier{}, clock: &clock}

	now := func() time.Time { return *env.clock }
	lifecycle := session.NewLifecycle(time.UTC, now)
	env.svc = NewBookingService(store.Repository(), store, lifecycle, env.notifier, now, zap.NewNop())
	return env
}

func (e *testEnv) setNow(t time.Time) { *e.clock = t }

func (e *testEnv) createSlot(t *testing.T) *model.Slot {
	t.Helper()
	slot, err := e.svc.CreateSlot(context.Background(), trainerID, "2024-06-01", "10:00", "11:00")
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	return slot
}

func (e *testEnv) request(t *testing.T, userID, slotID int64) *model.SessionRequest {
	t.Helper()
	req, err := e.svc.RequestSlot(context.Background(), userID, slotID)
	if err != nil {
		t.Fatalf("RequestSlot(%d): %v", userID, err)
	}
	return req
}

// checkBookingInvariant проверяет что слот занят тогда и только тогда,
// когда у него ровно одна одобренная заявка
func (e *testEnv) checkBookingInvariant(t *testing.T, slotID int64) {
	t.Helper()

	slot, _ := e.store.Repository().Slots.GetByID(context.Background(), slotID)
	reqs, _ := e.store.Repository().Requests.ListBySlot(context.Background(), slotID)

	approved := 0
	var approvedUser int64
	for _, r := range reqs {
		if r.IsApproved() {
			approved++
			approvedUser = r.UserID
		}
	}

	if slot.IsBooked != (approved == 1) || approved > 1 {
		t.Fatalf("нарушен инвариант: is_booked=%v, одобренных заявок=%d", slot.IsBooked, approved)
	}
	if slot.IsBooked && !slot.IsBookedBy(approvedUser) {
		t.Fatalf("booked_by не совпадает с одобренной заявкой")
	}
}

// ── CreateSlot / DeleteSlot ──

func TestBookingService_CreateSlot(t *testing.T) {
	env := setupBookingService(t)
	ctx := context.Background()

	slot := env.createSlot(t)
	if slot.ID == 0 || slot.IsBooked {
		t.Errorf("неверный новый слот: %+v", slot)
	}

	if _, err := env.svc.CreateSlot(ctx, annaID, "2024-06-01", "10:00", "11:00"); !errors.Is(err, ErrNotTrainer) {
		t.Errorf("ожидался ErrNotTrainer, получено %v", err)
	}
	if _, err := env.svc.CreateSlot(ctx, trainerID, "2024-06-01", "11:00", "10:00"); !errors.Is(err, session.ErrInvalidSlot) {
		t.Errorf("ожидался ErrInvalidSlot, получено %v", err)
	}
	if _, err := env.svc.CreateSlot(ctx, trainerID, "2024-05-01", "10:00", "11:00"); !errors.Is(err, session.ErrSlotInPast) {
		t.Errorf("ожидался ErrSlotInPast, получено %v", err)
	}
	// Сегодняшний слот, который уже начался
	if _, err := env.svc.CreateSlot(ctx, trainerID, "2024-05-30", "11:30", "12:30"); !errors.Is(err, session.ErrSlotInPast) {
		t.Errorf("начавшийся слот: ожидался ErrSlotInPast, получено %v", err)
	}
	if _, err := env.svc.CreateSlot(ctx, 999, "2024-06-01", "10:00", "11:00"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("ожидался ErrUserNotFound, получено %v", err)
	}
}

func TestBookingService_DeleteSlot(t *testing.T) {
	env := setupBookingService(t)
	ctx := context.Background()

	free := env.createSlot(t)
	booked := env.createSlot(t)
	req := env.request(t, annaID, booked.ID)
	if _, err := env.svc.ApproveRequest(ctx, trainerID, req.ID); err != nil {
		t.Fatalf("ApproveRequest: %v", err)
	}

	if err := env.svc.DeleteSlot(ctx, annaID, free.ID); !errors.Is(err, ErrNoPermission) {
		t.Errorf("чужой слот: ожидался ErrNoPermission, получено %v", err)
	}
	if err := env.svc.DeleteSlot(ctx, trainerID, booked.ID); !errors.Is(err, session.ErrSlotAlreadyBooked) {
		t.Errorf("занятый слот: ожидался ErrSlotAlreadyBooked, получено %v", err)
	}
	if err := env.svc.DeleteSlot(ctx, trainerID, free.ID); err != nil {
		t.Fatalf("DeleteSlot: %v", err)
	}
	if _, err := env.svc.GetSlot(ctx, free.ID); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("слот должен быть удалён, получено %v", err)
	}
}

// ── RequestSlot ──

func TestBookingService_RequestSlot(t *testing.T) {
	env := setupBookingService(t)
	ctx := context.Background()
	slot := env.createSlot(t)

	req := env.request(t, annaID, slot.ID)
	if !req.IsPending() || req.ID == 0 {
		t.Errorf("неверная заявка: %+v", req)
	}

	sent := env.notifier.events("new_request")
	if len(sent) != 1 || sent[0].userID != trainerID {
		t.Errorf("тренер должен получить уведомление: %+v", sent)
	}

	if _, err := env.svc.RequestSlot(ctx, annaID, slot.ID); !errors.Is(err, session.ErrDuplicateRequest) {
		t.Errorf("повторная заявка: ожидался ErrDuplicateRequest, получено %v", err)
	}
	if _, err := env.svc.RequestSlot(ctx, trainerID, slot.ID); !errors.Is(err, ErrOwnSlot) {
		t.Errorf("свой слот: ожидался ErrOwnSlot, получено %v", err)
	}
	if _, err := env.svc.RequestSlot(ctx, annaID, 424242); !errors.Is(err, ErrSlotNotFound) {
		t.Errorf("нет слота: ожидался ErrSlotNotFound, получено %v", err)
	}
}

// ── ApproveRequest ──

func TestBookingService_ApproveRequest(t *testing.T) {
	env := setupBookingService(t)
	ctx := context.Background()
	slot := env.createSlot(t)

	a := env.request(t, annaID, slot.ID)
	b := env.request(t, borisID, slot.ID)

	approved, err := env.svc.ApproveRequest(ctx, trainerID, a.ID)
	if err != nil {
		t.Fatalf("ApproveRequest: %v", err)
	}
	if !approved.IsApproved() {
		t.Errorf("ожидался approved, получено %s", approved.Status)
	}
	env.checkBookingInvariant(t, slot.ID)

	other, _ := env.store.Repository().Requests.GetByID(ctx, b.ID)
	if !other.IsRejected() || !other.AutoRejected {
		t.Errorf("вторая заявка должна быть отклонена автоматически: %+v", other)
	}

	room, _ := env.store.Repository().Rooms.GetBySlot(ctx, slot.ID)
	if room == nil || room.RoomID != model.RoomIDForSlot(slot.ID) {
		t.Errorf("должна быть создана комната для слота: %+v", room)
	}

	if sent := env.notifier.events("approved"); len(sent) != 1 || sent[0].userID != annaID {
		t.Errorf("Анна должна получить одобрение: %+v", sent)
	}
	if sent := env.notifier.events("rejected"); len(sent) != 1 || sent[0].userID != borisID || sent[0].reason != session.AutoRejectReason {
		t.Errorf("Борис должен получить автоматический отказ: %+v", sent)
	}

	if _, err := env.svc.ApproveRequest(ctx, trainerID, b.ID); !errors.Is(err, session.ErrSlotAlreadyBooked) {
		t.Errorf("ожидался ErrSlotAlreadyBooked, получено %v", err)
	}
	if _, err := env.svc.ApproveRequest(ctx, trainerID, a.ID); !errors.Is(err, session.ErrInvalidState) {
		t.Errorf("повторное одобрение: ожидался ErrInvalidState, получено %v", err)
	}
	if _, err := env.svc.RequestSlot(ctx, outsider, slot.ID); !errors.Is(err, session.ErrSlotAlreadyBooked) {
		t.Errorf("заявка на занятый слот: ожидался ErrSlotAlreadyBooked, получено %v", err)
	}
	env.checkBookingInvariant(t, slot.ID)
}

func TestBookingService_ApproveRequest_Permissions(t *testing.T) {
	env := setupBookingService(t)
	ctx := context.Background()
	slot := env.createSlot(t)
	a := env.request(t, annaID, slot.ID)

	if _, err := env.svc.ApproveRequest(ctx, borisID, a.ID); !errors.Is(err, ErrNoPermission) {
		t.Errorf("ожидался ErrNoPermission, получено %v", err)
	}
	if _, err := env.svc.ApproveRequest(ctx, trainerID, 999999); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("ожидался ErrRequestNotFound, получено %v", err)
	}
}

func TestBookingService_ApproveRequest_AllOrNothing(t *testing.T) {
	env := setupBookingService(t)
	ctx := context.Background()
	slot := env.createSlot(t)
	a := env.request(t, annaID, slot.ID)
	env.request(t, borisID, slot.ID)

	env.store.FailOn("rooms.ensure")
	if _, err := env.svc.ApproveRequest(ctx, trainerID, a.ID); !errors.Is(err, memory.ErrInjected) {
		t.Fatalf("ожидалась внедрённая ошибка, получено %v", err)
	}

	stored, _ := env.store.Repository().Slots.GetByID(ctx, slot.ID)
	if stored.IsBooked {
		t.Error("при ошибке слот не должен остаться занятым")
	}
	reqs, _ := env.store.Repository().Requests.ListBySlot(ctx, slot.ID)
	for _, r := range reqs {
		if !r.IsPending() {
			t.Errorf("при ошибке заявки должны остаться pending: %+v", r)
		}
	}
	if len(env.notifier.events("approved")) != 0 {
		t.Error("при ошибке уведомления не отправляются")
	}

	env.store.FailOn("")
	if _, err := env.svc.ApproveRequest(ctx, trainerID, a.ID); err != nil {
		t.Fatalf("повторная попытка должна пройти: %v", err)
	}
	env.checkBookingInvariant(t, slot.ID)
}

func TestBookingService_ConcurrentApprovals(t *testing.T) {
	env := setupBookingService(t)
	ctx := context.Background()
	slot := env.createSlot(t)

	a := env.request(t, annaID, slot.ID)
	b := env.request(t, borisID, slot.ID)

	var (
		wg   sync.WaitGroup
		errs = make([]error, 2)
	)
	for i, id := range []int64{a.ID, b.ID} {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			_, errs[i] = env.svc.ApproveRequest(ctx, trainerID, id)
		}(i, id)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, session.ErrSlotAlreadyBooked):
		default:
			t.Errorf("неожиданная ошибка: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("одобрена должна быть ровно одна заявка, успешных=%d", succeeded)
	}
	env.checkBookingInvariant(t, slot.ID)
}

// ── RejectRequest ──

func TestBookingService_RejectRequest(t *testing.T) {
	env := setupBookingService(t)
	ctx := context.Background()
	slot := env.createSlot(t)
	a := env.request(t, annaID, slot.ID)

	if _, err := env.svc.RejectRequest(ctx, trainerID, a.ID, " "); !errors.Is(err, session.ErrMissingReason) {
		t.Errorf("ожидался ErrMissingReason, получено %v", err)
	}
	stored, _ := env.store.Repository().Requests.GetByID(ctx, a.ID)
	if !stored.IsPending() {
		t.Errorf("статус должен остаться pending, получено %s", stored.Status)
	}

	rejected, err := env.svc.RejectRequest(ctx, trainerID, a.ID, "Injured this week")
	if err != nil {
		t.Fatalf("RejectRequest: %v", err)
	}
	if rejected.RejectionReason != "Injured this week" {
		t.Errorf("неверная причина: %q", rejected.RejectionReason)
	}
	if sent := env.notifier.events("rejected"); len(sent) != 1 || sent[0].reason != "Injured this week" {
		t.Errorf("пользователь должен получить причину: %+v", sent)
	}

	if _, err := env.svc.RejectRequest(ctx, trainerID, a.ID, "again"); !errors.Is(err, session.ErrInvalidState) {
		t.Errorf("ожидался ErrInvalidState, получено %v", err)
	}
	if _, err := env.svc.ApproveRequest(ctx, trainerID, a.ID); !errors.Is(err, session.ErrInvalidState) {
		t.Errorf("ожидался ErrInvalidState, получено %v", err)
	}

	// После отказа пользователь может подать новую заявку
	if _, err := env.svc.RequestSlot(ctx, annaID, slot.ID); err != nil {
		t.Errorf("новая заявка после отказа: %v", err)
	}
}

// ── CancelBooking ──

func TestBookingService_CancelBooking(t *testing.T) {
	env := setupBookingService(t)
	ctx := context.Background()
	slot := env.createSlot(t)

	if err := env.svc.CancelBooking(ctx, trainerID, slot.ID); !errors.Is(err, ErrNotBooked) {
		t.Errorf("ожидался ErrNotBooked, получено %v", err)
	}

	a := env.request(t, annaID, slot.ID)
	if _, err := env.svc.ApproveRequest(ctx, trainerID, a.ID); err != nil {
		t.Fatalf("ApproveRequest: %v", err)
	}

	if err := env.svc.CancelBooking(ctx, outsider, slot.ID); !errors.Is(err, ErrNoPermission) {
		t.Errorf("ожидался ErrNoPermission, получено %v", err)
	}

	if err := env.svc.CancelBooking(ctx, annaID, slot.ID); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	env.checkBookingInvariant(t, slot.ID)

	stored, _ := env.store.Repository().Requests.GetByID(ctx, a.ID)
	if stored.Status != model.RequestStatusCancelled {
		t.Errorf("ожидался cancelled, получено %s", stored.Status)
	}
	if sent := env.notifier.events("cancelled"); len(sent) != 1 || sent[0].userID != trainerID {
		t.Errorf("тренер должен узнать об отмене: %+v", sent)
	}

	// Освобождённый слот снова доступен
	b := env.request(t, borisID, slot.ID)
	if _, err := env.svc.ApproveRequest(ctx, trainerID, b.ID); err != nil {
		t.Fatalf("одобрение после отмены: %v", err)
	}
	env.checkBookingInvariant(t, slot.ID)
}

// ── JoinCall ──

func TestBookingService_JoinCall(t *testing.T) {
	env := setupBookingService(t)
	ctx := context.Background()
	slot := env.createSlot(t)
	a := env.request(t, annaID, slot.ID)

	if _, err := env.svc.JoinCall(ctx, annaID, slot.ID); !errors.Is(err, ErrNotBooked) {
		t.Errorf("ожидался ErrNotBooked, получено %v", err)
	}

	if _, err := env.svc.ApproveRequest(ctx, trainerID, a.ID); err != nil {
		t.Fatalf("ApproveRequest: %v", err)
	}

	env.setNow(time.Date(2024, 6, 1, 9, 49, 59, 0, time.UTC))
	_, err := env.svc.JoinCall(ctx, annaID, slot.ID)
	if !errors.Is(err, ErrJoinWindowClosed) {
		t.Fatalf("ожидался ErrJoinWindowClosed, получено %v", err)
	}
	var windowErr *JoinWindowError
	if !errors.As(err, &windowErr) || !windowErr.Window.Open.Equal(time.Date(2024, 6, 1, 9, 50, 0, 0, time.UTC)) {
		t.Errorf("ошибка должна содержать окно входа: %v", err)
	}

	for _, now := range []time.Time{
		time.Date(2024, 6, 1, 9, 50, 0, 0, time.UTC),
		time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC),
	} {
		env.setNow(now)
		for _, participant := range []int64{annaID, trainerID} {
			info, err := env.svc.JoinCall(ctx, participant, slot.ID)
			if err != nil {
				t.Fatalf("JoinCall(%d, %s): %v", participant, now, err)
			}
			if info.Room.RoomID != model.RoomIDForSlot(slot.ID) {
				t.Errorf("неверная комната: %s", info.Room.RoomID)
			}
		}
	}

	if _, err := env.svc.JoinCall(ctx, borisID, slot.ID); !errors.Is(err, ErrNoPermission) {
		t.Errorf("посторонний: ожидался ErrNoPermission, получено %v", err)
	}

	env.setNow(time.Date(2024, 6, 1, 11, 0, 1, 0, time.UTC))
	if _, err := env.svc.JoinCall(ctx, annaID, slot.ID); !errors.Is(err, ErrJoinWindowClosed) {
		t.Errorf("после конца: ожидался ErrJoinWindowClosed, получено %v", err)
	}
}

// ── Списки и напоминания ──

func TestBookingService_ListAvailableSlots(t *testing.T) {
	env := setupBookingService(t)
	ctx := context.Background()

	free := env.createSlot(t)
	booked := env.createSlot(t)
	req := env.request(t, annaID, booked.ID)
	if _, err := env.svc.ApproveRequest(ctx, trainerID, req.ID); err != nil {
		t.Fatalf("ApproveRequest: %v", err)
	}

	slots, err := env.svc.ListAvailableSlots(ctx)
	if err != nil {
		t.Fatalf("ListAvailableSlots: %v", err)
	}
	if len(slots) != 1 || slots[0].ID != free.ID {
		t.Errorf("ожидался только свободный слот: %+v", slots)
	}

	// Начавшийся слот не показывается
	env.setNow(time.Date(2024, 6, 1, 10, 5, 0, 0, time.UTC))
	slots, _ = env.svc.ListAvailableSlots(ctx)
	if len(slots) != 0 {
		t.Errorf("начавшиеся слоты не должны показываться: %+v", slots)
	}
}

func TestBookingService_ListAvailableSlots_StartedDoNotCrowdOutFuture(t *testing.T) {
	env := setupBookingService(t)
	ctx := context.Background()

	// Больше начавшихся слотов сегодня, чем помещается в выдачу
	start := time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)
	for i := 0; i < availableSlotsLimit+5; i++ {
		from := start.Add(time.Duration(i) * 15 * time.Minute)
		to := from.Add(15 * time.Minute)
		if _, err := env.svc.CreateSlot(ctx, trainerID, "2024-06-01", from.Format("15:04"), to.Format("15:04")); err != nil {
			t.Fatalf("CreateSlot %d: %v", i, err)
		}
	}
	later, err := env.svc.CreateSlot(ctx, trainerID, "2024-06-01", "18:00", "19:00")
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	tomorrow, err := env.svc.CreateSlot(ctx, trainerID, "2024-06-02", "10:00", "11:00")
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}

	env.setNow(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	slots, err := env.svc.ListAvailableSlots(ctx)
	if err != nil {
		t.Fatalf("ListAvailableSlots: %v", err)
	}
	if len(slots) != 2 || slots[0].ID != later.ID || slots[1].ID != tomorrow.ID {
		t.Errorf("ожидались только будущие слоты #%d и #%d, получено %+v", later.ID, tomorrow.ID, slots)
	}
}

func TestBookingService_NotifyJoinWindows(t *testing.T) {
	env := setupBookingService(t)
	ctx := context.Background()

	slot := env.createSlot(t)
	env.createSlot(t) // свободный слот напоминаний не даёт
	req := env.request(t, annaID, slot.ID)
	if _, err := env.svc.ApproveRequest(ctx, trainerID, req.ID); err != nil {
		t.Fatalf("ApproveRequest: %v", err)
	}

	open := time.Date(2024, 6, 1, 9, 50, 0, 0, time.UTC)

	sent, err := env.svc.NotifyJoinWindows(ctx, open.Add(-2*time.Minute), open.Add(-time.Minute))
	if err != nil || sent != 0 {
		t.Fatalf("до открытия окна напоминаний нет: sent=%d err=%v", sent, err)
	}

	sent, err = env.svc.NotifyJoinWindows(ctx, open.Add(-time.Minute), open)
	if err != nil {
		t.Fatalf("NotifyJoinWindows: %v", err)
	}
	if sent != 1 {
		t.Errorf("ожидалась одна сессия, получено %d", sent)
	}

	got := env.notifier.events("join_window")
	if len(got) != 2 {
		t.Fatalf("напоминание получают оба участника: %+v", got)
	}
	recipients := map[int64]bool{got[0].userID: true, got[1].userID: true}
	if !recipients[trainerID] || !recipients[annaID] {
		t.Errorf("неверные получатели: %+v", got)
	}

	// Следующий интервал не повторяет напоминание
	sent, _ = env.svc.NotifyJoinWindows(ctx, open, open.Add(time.Minute))
	if sent != 0 {
		t.Errorf("напоминание не должно повторяться, получено %d", sent)
	}
}

func TestBookingService_NotificationFailureDoesNotRollback(t *testing.T) {
	env := setupBookingService(t)
	env.notifier.err = errors.New("telegram unavailable")
	slot := env.createSlot(t)

	req := env.request(t, annaID, slot.ID)
	if _, err := env.svc.ApproveRequest(context.Background(), trainerID, req.ID); err != nil {
		t.Fatalf("ошибка доставки не должна ломать одобрение: %v", err)
	}
	env.checkBookingInvariant(t, slot.ID)
}
