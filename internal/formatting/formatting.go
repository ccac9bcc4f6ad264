// Package formatting готовит тексты о слотах и заявках для сообщений
package formatting

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/trainup/internal/model"
	"github.com/Freeeeeet/trainup/internal/session"
)

// StatusDisplay содержит emoji и текст для отображения статуса
type StatusDisplay struct {
	Emoji string
	Text  string
}

// GetRequestStatusDisplay возвращает emoji и текст для статуса заявки
func GetRequestStatusDisplay(status model.RequestStatus) StatusDisplay {
	displays := map[model.RequestStatus]StatusDisplay{
		model.RequestStatusPending:   {"⏳", "Waiting for trainer"},
		model.RequestStatusApproved:  {"✅", "Approved"},
		model.RequestStatusRejected:  {"🚫", "Rejected"},
		model.RequestStatusCancelled: {"❌", "Cancelled"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Unknown"}
}

// FormatSlot форматирует слот: "2024-06-01 10:00-11:00 (#12)"
func FormatSlot(slot *model.Slot) string {
	return fmt.Sprintf("%s %s-%s (#%d)", slot.Date, slot.StartTime, slot.EndTime, slot.ID)
}

// FormatSlotStatus добавляет к слоту признак занятости
func FormatSlotStatus(slot *model.Slot) string {
	if slot.IsBooked {
		return "🔴 " + FormatSlot(slot)
	}
	return "🟢 " + FormatSlot(slot)
}

// FormatWindow форматирует окно входа в звонок в его часовом поясе
func FormatWindow(w session.Window) string {
	return fmt.Sprintf("%s - %s %s",
		w.Open.Format("2006-01-02 15:04"),
		w.End.Format("15:04"),
		w.Open.Location().String(),
	)
}

// JoinTooEarlyMessage - сообщение для попытки войти вне окна
func JoinTooEarlyMessage(w session.Window, now time.Time) string {
	if now.After(w.End) {
		return fmt.Sprintf("⌛ This session ended at %s.", w.End.Format("2006-01-02 15:04"))
	}
	return fmt.Sprintf(
		"⏰ You can join %d minutes before your session starts.\n\nJoin window: %s",
		int(session.JoinLeadTime/time.Minute),
		FormatWindow(w),
	)
}

// FormatRequest форматирует заявку для списка
func FormatRequest(req *model.SessionRequest) string {
	display := GetRequestStatusDisplay(req.Status)
	text := fmt.Sprintf("%s Request #%d for slot #%d: %s", display.Emoji, req.ID, req.SlotID, display.Text)
	if req.IsRejected() && req.RejectionReason != "" {
		text += "\n   Reason: " + req.RejectionReason
	}
	return text
}
