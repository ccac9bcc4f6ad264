package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/trainup/internal/model"
	"github.com/Freeeeeet/trainup/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSlotTaken - условное обновление слота не затронуло ни одной строки:
// слот уже занят другим пользователем или не существует
var ErrSlotTaken = errors.New("slot not available or already booked")

// Slots хранилище слотов
type Slots interface {
	Create(ctx context.Context, slot *model.Slot) error
	GetByID(ctx context.Context, id int64) (*model.Slot, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Slot, error)
	ListByTrainer(ctx context.Context, trainerID int64, fromDate string) ([]*model.Slot, error)
	ListAvailable(ctx context.Context, fromDate, fromTime string, limit int) ([]*model.Slot, error)
	ListBookedBetween(ctx context.Context, fromDate, toDate string) ([]*model.Slot, error)
	MarkBooked(ctx context.Context, slotID, userID int64) error
	Release(ctx context.Context, slotID int64) error
	Delete(ctx context.Context, slotID int64) error
}

// SessionRequests хранилище заявок на слоты
type SessionRequests interface {
	Create(ctx context.Context, req *model.SessionRequest) error
	GetByID(ctx context.Context, id int64) (*model.SessionRequest, error)
	GetApprovedBySlot(ctx context.Context, slotID int64) (*model.SessionRequest, error)
	ListBySlot(ctx context.Context, slotID int64) ([]*model.SessionRequest, error)
	ListPendingByTrainer(ctx context.Context, trainerID int64) ([]*model.SessionRequest, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.SessionRequest, error)
	Update(ctx context.Context, req *model.SessionRequest) error
}

// VideoRooms хранилище комнат видеозвонков
type VideoRooms interface {
	Ensure(ctx context.Context, room *model.VideoRoom) error
	GetBySlot(ctx context.Context, slotID int64) (*model.VideoRoom, error)
}

// Users хранилище пользователей
type Users interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

// Repository агрегирует все хранилища
type Repository struct {
	Slots    Slots
	Requests SessionRequests
	Rooms    VideoRooms
	Users    Users
}

// New создаёт Repository поверх пула или транзакции
func New(db base.DBTX) *Repository {
	return &Repository{
		Slots:    NewSlotRepository(db),
		Requests: NewSessionRequestRepository(db),
		Rooms:    NewVideoRoomRepository(db),
		Users:    NewUserRepository(db),
	}
}

// TxManager выполняет функцию в транзакции
type TxManager interface {
	InTx(ctx context.Context, fn func(ctx context.Context, repo *Repository) error) error
}

// Store - Repository поверх пула соединений с поддержкой транзакций
type Store struct {
	*Repository
	pool *pgxpool.Pool
}

// NewStore создаёт Store
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Repository: New(pool),
		pool:       pool,
	}
}

// InTx выполняет fn с репозиториями, привязанными к транзакции.
// Транзакция коммитится только если fn вернула nil.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, repo *Repository) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, New(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// scanner - общий интерфейс pgx.Row и pgx.Rows
type scanner interface {
	Scan(dest ...any) error
}
