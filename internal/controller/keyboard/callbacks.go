package keyboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
)

// Форматы callback data
const (
	RequestSlot   = "req:"     // req:<slot_id>
	ApproveReq    = "approve:" // approve:<request_id>
	RejectReq     = "reject:"  // reject:<request_id>
	DeleteSlot    = "delslot:" // delslot:<slot_id>
	CancelBooking = "cancel:"  // cancel:<slot_id>
	JoinCall      = "join:"    // join:<slot_id>
)

// Data собирает callback data из префикса и ID
func Data(prefix string, id int64) string {
	return prefix + strconv.FormatInt(id, 10)
}

// ParseID извлекает ID из callback data
// Например: "approve:123" -> 123
func ParseID(data string) (int64, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid callback data format")
	}
	return strconv.ParseInt(parts[1], 10, 64)
}

// RequestDecision - кнопки одобрения и отклонения заявки для тренера
func RequestDecision(requestID int64) *models.InlineKeyboardMarkup {
	return NewBuilder().
		Row(
			Button("✅ Approve", Data(ApproveReq, requestID)),
			Button("❌ Reject", Data(RejectReq, requestID)),
		).
		Build()
}

// JoinButton - кнопка входа в звонок по слоту
func JoinButton(slotID int64) *models.InlineKeyboardMarkup {
	return NewBuilder().
		Row(Button("🎥 Join call", Data(JoinCall, slotID))).
		Build()
}
