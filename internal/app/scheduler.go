package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ReminderSender рассылает напоминания об открытии окна входа в звонок
type ReminderSender interface {
	NotifyJoinWindows(ctx context.Context, from, to time.Time) (int, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	reminders ReminderSender
	interval  time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewScheduler создаёт новый планировщик
func NewScheduler(reminders ReminderSender, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		reminders: reminders,
		interval:  interval,
		now:       time.Now,
		logger:    logger,
	}
}

// Run выполняет фоновые задачи до отмены ctx
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	// Окна, открывшиеся до старта, не напоминаем
	last := s.now()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := s.now()
			// При ошибке диапазон повторяется на следующем тике
			if s.sendReminders(ctx, last, now) {
				last = now
			}
		case <-ctx.Done():
			s.logger.Info("Background scheduler stopped")
			return nil
		}
	}
}

// sendReminders уведомляет участников, чьё окно входа открылось в (from, to].
// Возвращает false, если диапазон не обработан до конца.
func (s *Scheduler) sendReminders(ctx context.Context, from, to time.Time) bool {
	sent, err := s.reminders.NotifyJoinWindows(ctx, from, to)
	if err != nil {
		s.logger.Error("Failed to send join reminders",
			zap.Time("from", from),
			zap.Time("to", to),
			zap.Error(err),
		)
		return false
	}

	if sent > 0 {
		s.logger.Info("Join reminders sent", zap.Int("count", sent))
	}
	return true
}
