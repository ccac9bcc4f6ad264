package state

import (
	"sync"
	"time"
)

// Manager управляет состояниями диалогов по Telegram ID.
// Состояние, не менявшееся дольше ttl, считается сброшенным.
type Manager struct {
	mu     sync.RWMutex
	states map[int64]*UserData // telegramID -> UserData
	ttl    time.Duration
	now    func() time.Time
}

// NewManager создаёт новый менеджер состояний
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		states: make(map[int64]*UserData),
		ttl:    ttl,
		now:    time.Now,
	}
}

// get возвращает живую запись; вызывать под блокировкой
func (sm *Manager) get(telegramID int64) (*UserData, bool) {
	userData, exists := sm.states[telegramID]
	if !exists {
		return nil, false
	}
	if sm.now().Sub(userData.UpdatedAt) > sm.ttl {
		return nil, false
	}
	return userData, true
}

// GetState получает текущее состояние пользователя
func (sm *Manager) GetState(telegramID int64) UserState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, ok := sm.get(telegramID); ok {
		return userData.State
	}
	return StateNone
}

// Begin начинает диалог: ставит состояние и заменяет данные
func (sm *Manager) Begin(telegramID int64, state UserState, data map[string]any) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if state == StateNone {
		delete(sm.states, telegramID)
		return
	}

	copied := make(map[string]any, len(data))
	for k, v := range data {
		copied[k] = v
	}
	sm.states[telegramID] = &UserData{
		State:     state,
		Data:      copied,
		UpdatedAt: sm.now(),
	}
}

// GetData получает временные данные пользователя
func (sm *Manager) GetData(telegramID int64, key string) (any, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if userData, ok := sm.get(telegramID); ok {
		value, ok := userData.Data[key]
		return value, ok
	}
	return nil, false
}

// GetInt64 получает числовое значение из данных диалога
func (sm *Manager) GetInt64(telegramID int64, key string) (int64, bool) {
	value, ok := sm.GetData(telegramID, key)
	if !ok {
		return 0, false
	}
	id, ok := value.(int64)
	return id, ok
}

// ClearState очищает состояние и данные пользователя
func (sm *Manager) ClearState(telegramID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.states, telegramID)
}

// Cleanup удаляет просроченные диалоги, возвращает число удалённых
func (sm *Manager) Cleanup() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	removed := 0
	for id := range sm.states {
		if _, ok := sm.get(id); !ok {
			delete(sm.states, id)
			removed++
		}
	}
	return removed
}
