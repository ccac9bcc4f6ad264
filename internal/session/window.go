package session

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/trainup/internal/model"
)

// JoinLeadTime - за сколько до начала сессии открывается вход в звонок
const JoinLeadTime = 10 * time.Minute

// Window - допустимый интервал входа в видеозвонок [Open, End], обе границы включены
type Window struct {
	Open  time.Time
	Start time.Time
	End   time.Time
}

// Contains проверяет что момент попадает в окно (границы включены)
func (w Window) Contains(now time.Time) bool {
	return !now.Before(w.Open) && !now.After(w.End)
}

// Combine собирает момент времени из даты слота и времени суток в заданном поясе
func Combine(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(model.SlotDateLayout+" "+model.SlotTimeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidSlot, err)
	}
	return t, nil
}

// bounds возвращает начало и конец сессии слота
func bounds(slot *model.Slot, loc *time.Location) (time.Time, time.Time, error) {
	start, err := Combine(slot.Date, slot.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := Combine(slot.Date, slot.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %s is not before end %s", ErrInvalidSlot, slot.StartTime, slot.EndTime)
	}
	return start, end, nil
}
