package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/trainup/internal/model"
	"github.com/Freeeeeet/trainup/internal/repository/base"
)

type VideoRoomRepository struct {
	*base.Repository
}

func NewVideoRoomRepository(db base.DBTX) *VideoRoomRepository {
	return &VideoRoomRepository{Repository: base.NewRepository(db)}
}

// Ensure создаёт комнату для слота, если её ещё нет, и заполняет room из БД
func (r *VideoRoomRepository) Ensure(ctx context.Context, room *model.VideoRoom) error {
	query := `
		INSERT INTO video_rooms (slot_id, room_id)
		VALUES ($1, $2)
		ON CONFLICT (slot_id) DO UPDATE SET slot_id = EXCLUDED.slot_id
		RETURNING room_id, created_at
	`

	err := r.QueryRow(ctx, query, room.SlotID, room.RoomID).Scan(&room.RoomID, &room.CreatedAt)
	if err != nil {
		return fmt.Errorf("ensure video room: %w", err)
	}

	return nil
}

// GetBySlot получает комнату слота
func (r *VideoRoomRepository) GetBySlot(ctx context.Context, slotID int64) (*model.VideoRoom, error) {
	query := `
		SELECT slot_id, room_id, created_at
		FROM video_rooms
		WHERE slot_id = $1
	`

	var room model.VideoRoom
	err := r.QueryRow(ctx, query, slotID).Scan(&room.SlotID, &room.RoomID, &room.CreatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get video room: %w", err)
	}

	return &room, nil
}
