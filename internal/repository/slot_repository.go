package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/trainup/internal/model"
	"github.com/Freeeeeet/trainup/internal/repository/base"
)

// slotColumns - дата и время отдаются строками во внешнем формате слота
const slotColumns = `
	id, trainer_id,
	to_char(slot_date, 'YYYY-MM-DD'),
	to_char(start_time, 'HH24:MI'),
	to_char(end_time, 'HH24:MI'),
	is_booked, booked_by, created_at
`

type SlotRepository struct {
	*base.Repository
}

func NewSlotRepository(db base.DBTX) *SlotRepository {
	return &SlotRepository{Repository: base.NewRepository(db)}
}

func scanSlot(row scanner) (*model.Slot, error) {
	var slot model.Slot
	err := row.Scan(
		&slot.ID,
		&slot.TrainerID,
		&slot.Date,
		&slot.StartTime,
		&slot.EndTime,
		&slot.IsBooked,
		&slot.BookedBy,
		&slot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create создаёт новый слот
func (r *SlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO slots (trainer_id, slot_date, start_time, end_time)
		VALUES ($1, $2::text::date, $3::text::time, $4::text::time)
		RETURNING id, is_booked, created_at
	`

	err := r.QueryRow(
		ctx, query,
		slot.TrainerID,
		slot.Date,
		slot.StartTime,
		slot.EndTime,
	).Scan(&slot.ID, &slot.IsBooked, &slot.CreatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// GetByIDForUpdate получает слот и блокирует строку до конца транзакции.
// Все изменения бронирования слота идут через эту блокировку.
func (r *SlotRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1 FOR UPDATE`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock slot: %w", err)
	}

	return slot, nil
}

func (r *SlotRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Slot, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}

	return slots, nil
}

// ListByTrainer получает слоты тренера начиная с даты
func (r *SlotRepository) ListByTrainer(ctx context.Context, trainerID int64, fromDate string) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE trainer_id = $1 AND slot_date >= $2::text::date
		ORDER BY slot_date, start_time
	`
	return r.list(ctx, "get slots by trainer", query, trainerID, fromDate)
}

// ListAvailable получает свободные слоты, которые начинаются позже
// момента fromDate fromTime. Фильтр по времени идёт до LIMIT.
func (r *SlotRepository) ListAvailable(ctx context.Context, fromDate, fromTime string, limit int) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE is_booked = false
		  AND (slot_date > $1::text::date
		       OR (slot_date = $1::text::date AND start_time > $2::text::time))
		ORDER BY slot_date, start_time
		LIMIT $3
	`
	return r.list(ctx, "get available slots", query, fromDate, fromTime, limit)
}

// ListBookedBetween получает занятые слоты в диапазоне дат (включительно)
func (r *SlotRepository) ListBookedBetween(ctx context.Context, fromDate, toDate string) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE is_booked = true
		  AND slot_date >= $1::text::date
		  AND slot_date <= $2::text::date
		ORDER BY slot_date, start_time
	`
	return r.list(ctx, "get booked slots", query, fromDate, toDate)
}

// MarkBooked занимает слот за пользователем.
// Обновление условное: если слот уже занят, возвращается ErrSlotTaken.
func (r *SlotRepository) MarkBooked(ctx context.Context, slotID, userID int64) error {
	query := `
		UPDATE slots
		SET is_booked = true, booked_by = $1
		WHERE id = $2 AND is_booked = false
	`

	affected, err := r.ExecAffected(ctx, query, userID, slotID)
	if err != nil {
		return fmt.Errorf("book slot: %w", err)
	}

	if affected == 0 {
		return ErrSlotTaken
	}

	return nil
}

// Release освобождает слот
func (r *SlotRepository) Release(ctx context.Context, slotID int64) error {
	query := `
		UPDATE slots
		SET is_booked = false, booked_by = NULL
		WHERE id = $1
	`

	affected, err := r.ExecAffected(ctx, query, slotID)
	if err != nil {
		return fmt.Errorf("release slot: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("slot not found")
	}

	return nil
}

// Delete удаляет свободный слот
func (r *SlotRepository) Delete(ctx context.Context, slotID int64) error {
	query := `DELETE FROM slots WHERE id = $1 AND is_booked = false`

	affected, err := r.ExecAffected(ctx, query, slotID)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	if affected == 0 {
		return ErrSlotTaken
	}

	return nil
}
