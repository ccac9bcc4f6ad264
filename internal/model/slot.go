package model

import "time"

// Форматы даты и времени слота во внешнем представлении
const (
	SlotDateLayout = "2006-01-02"
	SlotTimeLayout = "15:04"
)

// Slot - окно времени, которое тренер открывает для индивидуальной видеосессии.
// Date, StartTime и EndTime хранятся как строки (YYYY-MM-DD, HH:MM) и
// интерпретируются в часовом поясе сервиса.
type Slot struct {
	ID        int64     `json:"id"`
	TrainerID int64     `json:"trainer_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	IsBooked  bool      `json:"is_booked"`
	BookedBy  *int64    `json:"booked_by"` // указатель - может быть nil
	CreatedAt time.Time `json:"created_at"`
}

// IsBookedBy проверяет что слот занят указанным пользователем
func (s *Slot) IsBookedBy(userID int64) bool {
	return s.IsBooked && s.BookedBy != nil && *s.BookedBy == userID
}
