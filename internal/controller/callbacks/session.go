package callbacks

import (
	"fmt"

	"github.com/Freeeeeet/trainup/internal/controller/state"
	"github.com/Freeeeeet/trainup/internal/formatting"
	"github.com/Freeeeeet/trainup/internal/service"
)

// handleRequestSlot - пользователь просит слот
func (h *Handler) handleRequestSlot(c *callbackContext, slotID int64) {
	req, err := h.BookingService.RequestSlot(c.ctx, c.user.ID, slotID)
	if err != nil {
		c.Fail("request_slot", err)
		return
	}

	c.Answer("📝 Request sent")
	c.Send(fmt.Sprintf("📝 Request #%d for slot #%d sent. The trainer will respond soon.", req.ID, slotID))
}

// handleApprove - тренер одобряет заявку
func (h *Handler) handleApprove(c *callbackContext, requestID int64) {
	if !c.user.IsTrainer {
		c.Fail("approve_request", service.ErrNotTrainer)
		return
	}

	req, err := h.BookingService.ApproveRequest(c.ctx, c.user.ID, requestID)
	if err != nil {
		c.Fail("approve_request", err)
		return
	}

	c.Answer("✅ Approved")
	c.Resolve(formatting.FormatRequest(req))
}

// handleReject начинает диалог ввода причины отклонения
func (h *Handler) handleReject(c *callbackContext, requestID int64) {
	if !c.user.IsTrainer {
		c.Fail("reject_request", service.ErrNotTrainer)
		return
	}

	h.StateManager.Begin(c.callback.From.ID, state.StateRejectReason, map[string]any{
		state.KeyRequestID: requestID,
	})

	c.Answer("")
	c.Send(fmt.Sprintf("✍️ Why are you declining request #%d?\n\nSend the reason as a message or /cancel.", requestID))
}

// handleDeleteSlot - тренер удаляет свободный слот
func (h *Handler) handleDeleteSlot(c *callbackContext, slotID int64) {
	if err := h.BookingService.DeleteSlot(c.ctx, c.user.ID, slotID); err != nil {
		c.Fail("delete_slot", err)
		return
	}

	c.Answer("🗑 Deleted")
	c.Send(fmt.Sprintf("🗑 Slot #%d deleted.", slotID))
}

// handleCancelBooking - участник отменяет подтверждённую сессию
func (h *Handler) handleCancelBooking(c *callbackContext, slotID int64) {
	if err := h.BookingService.CancelBooking(c.ctx, c.user.ID, slotID); err != nil {
		c.Fail("cancel_booking", err)
		return
	}

	c.Answer("❌ Cancelled")
	c.Send(fmt.Sprintf("❌ Session for slot #%d cancelled.", slotID))
}

// handleJoin - вход в звонок по кнопке
func (h *Handler) handleJoin(c *callbackContext, slotID int64) {
	c.Answer("")
	h.join(c.ctx, c.bot, c.chatID, c.user.ID, slotID)
}
