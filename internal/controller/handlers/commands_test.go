package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/trainup/internal/controller/state"
	"github.com/Freeeeeet/trainup/internal/model"
	"github.com/Freeeeeet/trainup/internal/notify"
	"github.com/Freeeeeet/trainup/internal/repository/memory"
	"github.com/Freeeeeet/trainup/internal/service"
	"github.com/Freeeeeet/trainup/internal/session"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const (
	trainerChat int64 = 1001
	annaChat    int64 = 1002
)

type testBot struct {
	bot *bot.Bot

	mu     sync.Mutex
	bodies []string
}

// sent возвращает тела запросов sendMessage
func (tb *testBot) sent() []string {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return append([]string(nil), tb.bodies...)
}

// newTestBot поднимает фейковый Bot API
func newTestBot(t *testing.T) *testBot {
	t.Helper()

	tb := &testBot{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.HasSuffix(r.URL.Path, "/sendMessage") {
			tb.mu.Lock()
			tb.bodies = append(tb.bodies, string(body))
			tb.mu.Unlock()
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`)
	}))
	t.Cleanup(srv.Close)

	b, err := bot.New("123:test", bot.WithServerURL(srv.URL), bot.WithSkipGetMe())
	if err != nil {
		t.Fatalf("bot.New: %v", err)
	}
	tb.bot = b
	return tb
}

type handlersEnv struct {
	h       *Handlers
	bot     *testBot
	store   *memory.Store
	booking *service.BookingService
	states  *state.Manager
	request *model.SessionRequest
}

// setupHandlers готовит тренера, пользователя и pending заявку на слот
func setupHandlers(t *testing.T) *handlersEnv {
	t.Helper()

	store := memory.NewStore()
	store.AddUser(&model.User{ID: 1, TelegramID: trainerChat, FirstName: "Tom", IsTrainer: true})
	store.AddUser(&model.User{ID: 2, TelegramID: annaChat, FirstName: "Anna"})

	now := func() time.Time { return time.Date(2024, 5, 30, 12, 0, 0, 0, time.UTC) }
	logger := zap.NewNop()

	users := service.NewUserService(store.Repository().Users, logger)
	booking := service.NewBookingService(store.Repository(), store,
		session.NewLifecycle(time.UTC, now), notify.Nop{}, now, logger)

	ctx := context.Background()
	slot, err := booking.CreateSlot(ctx, 1, "2024-06-01", "10:00", "11:00")
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	req, err := booking.RequestSlot(ctx, 2, slot.ID)
	if err != nil {
		t.Fatalf("RequestSlot: %v", err)
	}

	states := state.NewManager(state.DefaultTTL)
	h := NewHandlers(users, booking, states, func(id string) string { return "https://meet.test/" + id }, logger)

	return &handlersEnv{
		h:       h,
		bot:     newTestBot(t),
		store:   store,
		booking: booking,
		states:  states,
		request: req,
	}
}

func textUpdate(chatID int64, text string) *models.Update {
	return &models.Update{Message: &models.Message{
		ID:   1,
		From: &models.User{ID: chatID},
		Chat: models.Chat{ID: chatID},
		Text: text,
	}}
}

func (e *handlersEnv) storedRequest(t *testing.T) *model.SessionRequest {
	t.Helper()
	req, err := e.store.Repository().Requests.GetByID(context.Background(), e.request.ID)
	if err != nil || req == nil {
		t.Fatalf("GetByID: %v", err)
	}
	return req
}

func (e *handlersEnv) beginReject() {
	e.states.Begin(trainerChat, state.StateRejectReason, map[string]any{
		state.KeyRequestID: e.request.ID,
	})
}

func TestHandleTextMessage_RejectReason(t *testing.T) {
	env := setupHandlers(t)
	ctx := context.Background()
	env.beginReject()

	env.h.HandleTextMessage(ctx, env.bot.bot, textUpdate(trainerChat, "Injured this week"))

	req := env.storedRequest(t)
	if !req.IsRejected() || req.RejectionReason != "Injured this week" {
		t.Errorf("заявка должна быть отклонена с причиной: %+v", req)
	}
	if got := env.states.GetState(trainerChat); got != state.StateNone {
		t.Errorf("диалог должен завершиться, состояние %q", got)
	}

	sent := env.bot.sent()
	if len(sent) != 1 || !strings.Contains(sent[0], "Injured this week") {
		t.Errorf("тренер должен получить подтверждение: %v", sent)
	}
}

func TestHandleTextMessage_EmptyReasonKeepsDialog(t *testing.T) {
	env := setupHandlers(t)
	ctx := context.Background()
	env.beginReject()

	env.h.HandleTextMessage(ctx, env.bot.bot, textUpdate(trainerChat, "   "))

	if req := env.storedRequest(t); !req.IsPending() {
		t.Errorf("заявка должна остаться pending, получено %s", req.Status)
	}
	if got := env.states.GetState(trainerChat); got != state.StateRejectReason {
		t.Errorf("диалог должен продолжаться, состояние %q", got)
	}
	sent := env.bot.sent()
	if len(sent) != 1 || !strings.Contains(sent[0], "reason") {
		t.Errorf("тренер должен получить просьбу указать причину: %v", sent)
	}

	// Следующее сообщение с причиной завершает отклонение
	env.h.HandleTextMessage(ctx, env.bot.bot, textUpdate(trainerChat, "Fully booked"))
	if req := env.storedRequest(t); !req.IsRejected() {
		t.Errorf("заявка должна быть отклонена, получено %s", req.Status)
	}
}

func TestHandleTextMessage_NoDialogIgnored(t *testing.T) {
	env := setupHandlers(t)

	env.h.HandleTextMessage(context.Background(), env.bot.bot, textUpdate(trainerChat, "hello"))

	if req := env.storedRequest(t); !req.IsPending() {
		t.Errorf("без диалога заявка не меняется, получено %s", req.Status)
	}
	if sent := env.bot.sent(); len(sent) != 0 {
		t.Errorf("без диалога ответа нет: %v", sent)
	}
}

func TestHandleCancel_AbortsDialog(t *testing.T) {
	env := setupHandlers(t)
	ctx := context.Background()
	env.beginReject()

	env.h.HandleCancel(ctx, env.bot.bot, textUpdate(trainerChat, "/cancel"))

	if got := env.states.GetState(trainerChat); got != state.StateNone {
		t.Errorf("/cancel должен сбросить диалог, состояние %q", got)
	}
	if req := env.storedRequest(t); !req.IsPending() {
		t.Errorf("сброс диалога не трогает заявку, получено %s", req.Status)
	}
	sent := env.bot.sent()
	if len(sent) != 1 || !strings.Contains(sent[0], "Cancelled") {
		t.Errorf("ожидалось подтверждение отмены: %v", sent)
	}

	// Текст после отмены уже не считается причиной
	env.h.HandleTextMessage(ctx, env.bot.bot, textUpdate(trainerChat, "late reason"))
	if req := env.storedRequest(t); !req.IsPending() {
		t.Errorf("после /cancel заявка не отклоняется, получено %s", req.Status)
	}
}

func TestHandleCancel_NothingToCancel(t *testing.T) {
	env := setupHandlers(t)

	env.h.HandleCancel(context.Background(), env.bot.bot, textUpdate(annaChat, "/cancel"))

	sent := env.bot.sent()
	if len(sent) != 1 || !strings.Contains(sent[0], "Nothing to cancel") {
		t.Errorf("ожидалось сообщение об отсутствии диалога: %v", sent)
	}
}
