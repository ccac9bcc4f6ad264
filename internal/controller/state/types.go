package state

import "time"

// UserState представляет текущее состояние пользователя в диалоге
type UserState string

const (
	StateNone UserState = "" // Нет активного состояния

	// Тренер вводит причину отклонения заявки
	StateRejectReason UserState = "reject_reason"
)

// Ключи временных данных диалога
const (
	KeyRequestID = "request_id"
)

// DefaultTTL - через сколько брошенный диалог забывается
const DefaultTTL = 15 * time.Minute

// UserData хранит временные данные пользователя во время диалога
type UserData struct {
	State     UserState
	Data      map[string]any
	UpdatedAt time.Time
}
