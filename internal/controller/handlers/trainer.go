package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/trainup/internal/controller/common"
	"github.com/Freeeeeet/trainup/internal/controller/keyboard"
	"github.com/Freeeeeet/trainup/internal/formatting"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleNewSlot обрабатывает /newslot YYYY-MM-DD HH:MM HH:MM
func (h *Handlers) HandleNewSlot(ctx context.Context, b *bot.Bot, update *models.Update) {
	trainer, ok := h.requireTrainer(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	args := common.CommandArgs(update.Message.Text)
	if len(args) != 3 {
		h.sendMessage(ctx, b, chatID, "Usage: /newslot YYYY-MM-DD HH:MM HH:MM\nExample: /newslot 2024-06-01 10:00 11:00", nil)
		return
	}

	slot, err := h.bookingService.CreateSlot(ctx, trainer.ID, args[0], args[1], args[2])
	if err != nil {
		h.replyError(ctx, b, chatID, "create_slot", err)
		return
	}

	h.sendMessage(ctx, b, chatID, "✅ Slot created: "+formatting.FormatSlot(slot), nil)
}

// HandleMySlots показывает слоты тренера
func (h *Handlers) HandleMySlots(ctx context.Context, b *bot.Bot, update *models.Update) {
	trainer, ok := h.requireTrainer(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	slots, err := h.bookingService.ListTrainerSlots(ctx, trainer.ID)
	if err != nil {
		h.logger.Error("Failed to get trainer slots", zap.Int64("trainer_id", trainer.ID), zap.Error(err))
		h.replyError(ctx, b, chatID, "list_trainer_slots", err)
		return
	}

	if len(slots) == 0 {
		h.sendMessage(ctx, b, chatID, "📅 You have no upcoming slots.\n\nCreate one: /newslot YYYY-MM-DD HH:MM HH:MM", nil)
		return
	}

	var text strings.Builder
	text.WriteString("📅 Your slots:\n\n")
	kb := keyboard.NewBuilder()
	for _, slot := range slots {
		text.WriteString(formatting.FormatSlotStatus(slot) + "\n")
		if slot.IsBooked {
			kb.Row(
				keyboard.Button(fmt.Sprintf("🎥 Join #%d", slot.ID), keyboard.Data(keyboard.JoinCall, slot.ID)),
				keyboard.Button(fmt.Sprintf("❌ Cancel #%d", slot.ID), keyboard.Data(keyboard.CancelBooking, slot.ID)),
			)
			continue
		}
		kb.Row(keyboard.Button(fmt.Sprintf("🗑 Delete #%d", slot.ID), keyboard.Data(keyboard.DeleteSlot, slot.ID)))
	}

	h.sendMessage(ctx, b, chatID, text.String(), kb.Build())
}

// HandleRequests показывает pending заявки на слоты тренера
func (h *Handlers) HandleRequests(ctx context.Context, b *bot.Bot, update *models.Update) {
	trainer, ok := h.requireTrainer(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	requests, err := h.bookingService.ListPendingRequests(ctx, trainer.ID)
	if err != nil {
		h.replyError(ctx, b, chatID, "list_pending_requests", err)
		return
	}

	if len(requests) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 No pending requests.", nil)
		return
	}

	// Каждая заявка отдельным сообщением со своими кнопками
	for _, req := range requests {
		who := fmt.Sprintf("user #%d", req.UserID)
		if requester, err := h.userService.GetByID(ctx, req.UserID); err == nil && requester != nil {
			who = requester.DisplayName()
		}

		slotText := fmt.Sprintf("slot #%d", req.SlotID)
		if slot, err := h.bookingService.GetSlot(ctx, req.SlotID); err == nil {
			slotText = formatting.FormatSlot(slot)
		}

		text := fmt.Sprintf("📥 Request #%d\n\n👤 %s\n📅 %s", req.ID, who, slotText)
		h.sendMessage(ctx, b, chatID, text, keyboard.RequestDecision(req.ID))
	}
}
