package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// roomNamespace - пространство имён для детерминированных идентификаторов комнат
var roomNamespace = uuid.MustParse("6f1c3e0a-8d2b-4b7e-9a51-2c4d7e9f0b13")

// VideoRoom связывает слот с комнатой видеозвонка
type VideoRoom struct {
	SlotID    int64     `json:"slot_id"`
	RoomID    uuid.UUID `json:"room_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomIDForSlot возвращает идентификатор комнаты для слота.
// Один и тот же слот всегда получает один и тот же идентификатор.
func RoomIDForSlot(slotID int64) uuid.UUID {
	return uuid.NewSHA1(roomNamespace, []byte(strconv.FormatInt(slotID, 10)))
}

// NewVideoRoom создаёт комнату для слота
func NewVideoRoom(slotID int64) *VideoRoom {
	return &VideoRoom{
		SlotID: slotID,
		RoomID: RoomIDForSlot(slotID),
	}
}
