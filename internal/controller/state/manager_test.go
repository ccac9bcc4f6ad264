package state

import (
	"testing"
	"time"
)

func newTestManager(clock *time.Time) *Manager {
	m := NewManager(time.Minute)
	m.now = func() time.Time { return *clock }
	return m
}

func TestManager_BeginAndClear(t *testing.T) {
	clock := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	m := newTestManager(&clock)

	if got := m.GetState(42); got != StateNone {
		t.Fatalf("ожидалось пустое состояние, получено %q", got)
	}

	m.Begin(42, StateRejectReason, map[string]any{KeyRequestID: int64(7)})

	if got := m.GetState(42); got != StateRejectReason {
		t.Errorf("ожидалось %q, получено %q", StateRejectReason, got)
	}
	if id, ok := m.GetInt64(42, KeyRequestID); !ok || id != 7 {
		t.Errorf("ожидался request_id=7, получено %d (%v)", id, ok)
	}
	if _, ok := m.GetInt64(43, KeyRequestID); ok {
		t.Error("данные другого пользователя не должны быть видны")
	}

	m.ClearState(42)
	if got := m.GetState(42); got != StateNone {
		t.Errorf("после ClearState ожидалось пустое состояние, получено %q", got)
	}
}

func TestManager_BeginReplacesData(t *testing.T) {
	clock := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	m := newTestManager(&clock)

	m.Begin(1, StateRejectReason, map[string]any{KeyRequestID: int64(1), "extra": "x"})
	m.Begin(1, StateRejectReason, map[string]any{KeyRequestID: int64(2)})

	if id, _ := m.GetInt64(1, KeyRequestID); id != 2 {
		t.Errorf("ожидался request_id=2, получено %d", id)
	}
	if _, ok := m.GetData(1, "extra"); ok {
		t.Error("данные прошлого диалога должны быть заменены")
	}

	m.Begin(1, StateNone, nil)
	if got := m.GetState(1); got != StateNone {
		t.Errorf("StateNone должен сбрасывать диалог, получено %q", got)
	}
}

func TestManager_Expiry(t *testing.T) {
	clock := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	m := newTestManager(&clock)

	m.Begin(1, StateRejectReason, map[string]any{KeyRequestID: int64(1)})
	m.Begin(2, StateRejectReason, map[string]any{KeyRequestID: int64(2)})

	clock = clock.Add(time.Minute)
	if got := m.GetState(1); got != StateRejectReason {
		t.Errorf("на границе ttl диалог ещё жив, получено %q", got)
	}

	clock = clock.Add(time.Second)
	if got := m.GetState(1); got != StateNone {
		t.Errorf("просроченный диалог должен сброситься, получено %q", got)
	}
	if _, ok := m.GetInt64(1, KeyRequestID); ok {
		t.Error("данные просроченного диалога не должны быть видны")
	}

	if removed := m.Cleanup(); removed != 2 {
		t.Errorf("ожидалось удаление 2 диалогов, удалено %d", removed)
	}
}
