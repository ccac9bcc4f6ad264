package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/trainup/internal/controller/common"
	"github.com/Freeeeeet/trainup/internal/controller/keyboard"
	"github.com/Freeeeeet/trainup/internal/formatting"
	"github.com/Freeeeeet/trainup/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleSlots показывает свободные слоты с кнопками заявки
func (h *Handlers) HandleSlots(ctx context.Context, b *bot.Bot, update *models.Update) {
	if _, ok := h.requireUser(ctx, b, update); !ok {
		return
	}
	chatID := update.Message.Chat.ID

	slots, err := h.bookingService.ListAvailableSlots(ctx)
	if err != nil {
		h.replyError(ctx, b, chatID, "list_available_slots", err)
		return
	}

	if len(slots) == 0 {
		h.sendMessage(ctx, b, chatID, "😔 No free slots right now. Check back later.", nil)
		return
	}

	var text strings.Builder
	text.WriteString("🟢 Free slots:\n\n")
	kb := keyboard.NewBuilder()
	for _, slot := range slots {
		text.WriteString(formatting.FormatSlot(slot) + "\n")
		kb.Row(keyboard.Button("📝 Request "+slot.Date+" "+slot.StartTime, keyboard.Data(keyboard.RequestSlot, slot.ID)))
	}

	h.sendMessage(ctx, b, chatID, text.String(), kb.Build())
}

// HandleMyRequests показывает заявки пользователя
func (h *Handlers) HandleMyRequests(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	requests, err := h.bookingService.ListUserRequests(ctx, user.ID)
	if err != nil {
		h.replyError(ctx, b, chatID, "list_user_requests", err)
		return
	}

	if len(requests) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 You have no requests yet.\n\nSee free slots: /slots", nil)
		return
	}

	var text strings.Builder
	text.WriteString("📋 Your requests:\n\n")
	kb := keyboard.NewBuilder()
	for _, req := range requests {
		text.WriteString(formatting.FormatRequest(req) + "\n")
		if req.IsApproved() {
			kb.Row(keyboard.Button(fmt.Sprintf("🎥 Join #%d", req.SlotID), keyboard.Data(keyboard.JoinCall, req.SlotID)))
		}
	}

	if kb.IsEmpty() {
		h.sendMessage(ctx, b, chatID, text.String(), nil)
		return
	}
	h.sendMessage(ctx, b, chatID, text.String(), kb.Build())
}

// HandleJoin обрабатывает /join <slot>
func (h *Handlers) HandleJoin(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	slotID, err := common.ParseSlotArg(update.Message.Text)
	if err != nil {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "Usage: /join <slot>", nil)
		return
	}

	h.ReplyJoin(ctx, b, update.Message.Chat.ID, user.ID, slotID)
}

// ReplyJoin проверяет допуск в звонок и отправляет ссылку на комнату
// или время открытия окна входа
func (h *Handlers) ReplyJoin(ctx context.Context, b *bot.Bot, chatID, userID, slotID int64) {
	info, err := h.bookingService.JoinCall(ctx, userID, slotID)

	var windowErr *service.JoinWindowError
	if errors.As(err, &windowErr) {
		h.sendMessage(ctx, b, chatID, formatting.JoinTooEarlyMessage(windowErr.Window, windowErr.Now), nil)
		return
	}
	if err != nil {
		h.replyError(ctx, b, chatID, "join_call", err)
		return
	}

	kb := keyboard.NewBuilder().
		Row(keyboard.URLButton("🎥 Open video call", h.roomURL(info.Room.RoomID.String()))).
		Build()

	h.sendMessage(ctx, b, chatID,
		fmt.Sprintf("🎥 Session %s\n\nThe call is open until %s.",
			formatting.FormatSlot(info.Slot), info.Window.End.Format("15:04")),
		kb)
}

// handleCancelBooking обрабатывает /cancel <slot>
func (h *Handlers) handleCancelBooking(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	slotID, err := common.ParseSlotArg(update.Message.Text)
	if err != nil {
		h.sendMessage(ctx, b, chatID, "Usage: /cancel <slot>", nil)
		return
	}

	if err := h.bookingService.CancelBooking(ctx, user.ID, slotID); err != nil {
		h.replyError(ctx, b, chatID, "cancel_booking", err)
		return
	}

	h.logger.Info("Booking cancelled by command",
		zap.Int64("slot_id", slotID),
		zap.Int64("user_id", user.ID),
	)
	h.sendMessage(ctx, b, chatID, fmt.Sprintf("❌ Session for slot #%d cancelled.", slotID), nil)
}
