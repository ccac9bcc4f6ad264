// Package memory - хранилище в памяти с теми же гарантиями, что и
// repository.Store: InTx работает на копии данных и применяет её только
// при успехе. Используется в тестах сервисов и обработчиков бота.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/trainup/internal/model"
	"github.com/Freeeeeet/trainup/internal/repository"
)

type memState struct {
	slots    map[int64]*model.Slot
	requests map[int64]*model.SessionRequest
	rooms    map[int64]*model.VideoRoom
	users    map[int64]*model.User
	nextID   int64
}

func (s *memState) clone() *memState {
	c := &memState{
		slots:    make(map[int64]*model.Slot, len(s.slots)),
		requests: make(map[int64]*model.SessionRequest, len(s.requests)),
		rooms:    make(map[int64]*model.VideoRoom, len(s.rooms)),
		users:    make(map[int64]*model.User, len(s.users)),
		nextID:   s.nextID,
	}
	for id, v := range s.slots {
		cp := *v
		c.slots[id] = &cp
	}
	for id, v := range s.requests {
		cp := *v
		c.requests[id] = &cp
	}
	for id, v := range s.rooms {
		cp := *v
		c.rooms[id] = &cp
	}
	for id, v := range s.users {
		cp := *v
		c.users[id] = &cp
	}
	return c
}

// Store реализует репозитории и repository.TxManager
type Store struct {
	mu    sync.Mutex
	state *memState
	// failOn заставляет операцию с этим именем вернуть ошибку
	failOn string
}

// NewStore создаёт пустое хранилище
func NewStore() *Store {
	return &Store{state: &memState{
		slots:    map[int64]*model.Slot{},
		requests: map[int64]*model.SessionRequest{},
		rooms:    map[int64]*model.VideoRoom{},
		users:    map[int64]*model.User{},
		nextID:   1000,
	}}
}

// ErrInjected возвращается операцией, заданной через FailOn
var ErrInjected = errors.New("injected failure")

func (m *Store) repo(state *memState) *repository.Repository {
	v := &memView{store: m, state: state}
	return &repository.Repository{
		Slots:    (*memSlots)(v),
		Requests: (*memRequests)(v),
		Rooms:    (*memRooms)(v),
		Users:    (*memUsers)(v),
	}
}

// InTx выполняет fn на копии данных; копия применяется только если fn вернула nil
func (m *Store) InTx(ctx context.Context, fn func(ctx context.Context, repo *repository.Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(ctx, m.repo(work)); err != nil {
		return err
	}
	m.state = work
	return nil
}

// Repository возвращает репозитории вне транзакции
func (m *Store) Repository() *repository.Repository {
	return m.repo(nil)
}

// FailOn заставляет операцию op ("slots.create", "requests.update",
// "rooms.ensure") возвращать ErrInjected. Пустая строка снимает сбой.
func (m *Store) FailOn(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn = op
}

// AddUser добавляет пользователя с заданным ID
func (m *Store) AddUser(u *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.state.users[u.ID] = &cp
}

type memView struct {
	store *Store
	state *memState // nil - текущее состояние хранилища
}

func (v *memView) st() *memState {
	if v.state != nil {
		return v.state
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return v.store.state
}

func (v *memView) id() int64 {
	s := v.st()
	s.nextID++
	return s.nextID
}

// fail вызывается и внутри InTx (мьютекс уже взят), поэтому failOn читается без блокировки
func (v *memView) fail(op string) error {
	if v.store.failOn == op {
		return ErrInjected
	}
	return nil
}

// ── Slots ──

type memSlots memView

func (r *memSlots) v() *memView { return (*memView)(r) }

func (r *memSlots) Create(_ context.Context, slot *model.Slot) error {
	if err := r.v().fail("slots.create"); err != nil {
		return err
	}
	slot.ID = r.v().id()
	slot.CreatedAt = time.Now()
	cp := *slot
	r.v().st().slots[slot.ID] = &cp
	return nil
}

func (r *memSlots) GetByID(_ context.Context, id int64) (*model.Slot, error) {
	s, ok := r.v().st().slots[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memSlots) GetByIDForUpdate(ctx context.Context, id int64) (*model.Slot, error) {
	return r.GetByID(ctx, id)
}

func (r *memSlots) filter(keep func(*model.Slot) bool) []*model.Slot {
	var out []*model.Slot
	for _, s := range r.v().st().slots {
		if keep(s) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}

func (r *memSlots) ListByTrainer(_ context.Context, trainerID int64, fromDate string) ([]*model.Slot, error) {
	return r.filter(func(s *model.Slot) bool { return s.TrainerID == trainerID && s.Date >= fromDate }), nil
}

func (r *memSlots) ListAvailable(_ context.Context, fromDate, fromTime string, limit int) ([]*model.Slot, error) {
	out := r.filter(func(s *model.Slot) bool {
		if s.IsBooked {
			return false
		}
		// "HH:MM" > "HH:MM:SS" строкой равносильно сравнению времени
		return s.Date > fromDate || (s.Date == fromDate && s.StartTime > fromTime)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memSlots) ListBookedBetween(_ context.Context, fromDate, toDate string) ([]*model.Slot, error) {
	return r.filter(func(s *model.Slot) bool { return s.IsBooked && s.Date >= fromDate && s.Date <= toDate }), nil
}

func (r *memSlots) MarkBooked(_ context.Context, slotID, userID int64) error {
	s, ok := r.v().st().slots[slotID]
	if !ok || s.IsBooked {
		return repository.ErrSlotTaken
	}
	s.IsBooked = true
	s.BookedBy = &userID
	return nil
}

func (r *memSlots) Release(_ context.Context, slotID int64) error {
	s, ok := r.v().st().slots[slotID]
	if !ok {
		return errors.New("slot not found")
	}
	s.IsBooked = false
	s.BookedBy = nil
	return nil
}

func (r *memSlots) Delete(_ context.Context, slotID int64) error {
	s, ok := r.v().st().slots[slotID]
	if !ok || s.IsBooked {
		return repository.ErrSlotTaken
	}
	delete(r.v().st().slots, slotID)
	return nil
}

// ── SessionRequests ──

type memRequests memView

func (r *memRequests) v() *memView { return (*memView)(r) }

func (r *memRequests) Create(_ context.Context, req *model.SessionRequest) error {
	req.ID = r.v().id()
	req.UpdatedAt = req.RequestedAt
	cp := *req
	r.v().st().requests[req.ID] = &cp
	return nil
}

func (r *memRequests) GetByID(_ context.Context, id int64) (*model.SessionRequest, error) {
	req, ok := r.v().st().requests[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (r *memRequests) list(keep func(*model.SessionRequest) bool) []*model.SessionRequest {
	var out []*model.SessionRequest
	for _, req := range r.v().st().requests {
		if keep(req) {
			cp := *req
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memRequests) GetApprovedBySlot(_ context.Context, slotID int64) (*model.SessionRequest, error) {
	out := r.list(func(req *model.SessionRequest) bool { return req.SlotID == slotID && req.IsApproved() })
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *memRequests) ListBySlot(_ context.Context, slotID int64) ([]*model.SessionRequest, error) {
	return r.list(func(req *model.SessionRequest) bool { return req.SlotID == slotID }), nil
}

func (r *memRequests) ListPendingByTrainer(_ context.Context, trainerID int64) ([]*model.SessionRequest, error) {
	slots := r.v().st().slots
	return r.list(func(req *model.SessionRequest) bool {
		s, ok := slots[req.SlotID]
		return ok && s.TrainerID == trainerID && req.IsPending()
	}), nil
}

func (r *memRequests) ListByUser(_ context.Context, userID int64) ([]*model.SessionRequest, error) {
	return r.list(func(req *model.SessionRequest) bool { return req.UserID == userID }), nil
}

func (r *memRequests) Update(_ context.Context, req *model.SessionRequest) error {
	if err := r.v().fail("requests.update"); err != nil {
		return err
	}
	if _, ok := r.v().st().requests[req.ID]; !ok {
		return errors.New("request not found")
	}
	cp := *req
	r.v().st().requests[req.ID] = &cp
	return nil
}

// ── VideoRooms ──

type memRooms memView

func (r *memRooms) v() *memView { return (*memView)(r) }

func (r *memRooms) Ensure(_ context.Context, room *model.VideoRoom) error {
	if err := r.v().fail("rooms.ensure"); err != nil {
		return err
	}
	if existing, ok := r.v().st().rooms[room.SlotID]; ok {
		*room = *existing
		return nil
	}
	room.CreatedAt = time.Now()
	cp := *room
	r.v().st().rooms[room.SlotID] = &cp
	return nil
}

func (r *memRooms) GetBySlot(_ context.Context, slotID int64) (*model.VideoRoom, error) {
	room, ok := r.v().st().rooms[slotID]
	if !ok {
		return nil, nil
	}
	cp := *room
	return &cp, nil
}

// ── Users ──

type memUsers memView

func (r *memUsers) v() *memView { return (*memView)(r) }

func (r *memUsers) Create(_ context.Context, user *model.User) error {
	user.ID = r.v().id()
	cp := *user
	r.v().st().users[user.ID] = &cp
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := r.v().st().users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	for _, u := range r.v().st().users {
		if u.TelegramID == telegramID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUsers) Update(_ context.Context, user *model.User) error {
	if _, ok := r.v().st().users[user.ID]; !ok {
		return errors.New("user not found")
	}
	cp := *user
	r.v().st().users[user.ID] = &cp
	return nil
}
