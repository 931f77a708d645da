package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"appointment_bot/internal/scheduler"
	"appointment_bot/internal/storage/models"
	"appointment_bot/pkg/logger"
	"appointment_bot/pkg/metrics"
)

// MemoryScheduler реализует планировщик напоминаний в памяти.
// Доставка at-least-once: потерянный ответ после успешной отправки
// может привести к повтору, для напоминаний это приемлемо
type MemoryScheduler struct {
	timers   map[int64]*time.Timer
	mu       sync.Mutex
	sender   scheduler.ReminderSender
	log      *logger.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	stopped  bool
	stopOnce sync.Once
}

// NewMemoryScheduler создает новый планировщик в памяти
func NewMemoryScheduler(sender scheduler.ReminderSender, log *logger.Logger) *MemoryScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &MemoryScheduler{
		timers: make(map[int64]*time.Timer),
		sender: sender,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule планирует напоминание о записи.
// Существующий таймер для той же записи заменяется
func (s *MemoryScheduler) Schedule(ctx context.Context, booking *models.Booking, remindAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return fmt.Errorf("scheduler is stopped")
	}

	if timer, exists := s.timers[booking.ID]; exists {
		timer.Stop()
		delete(s.timers, booking.ID)
	}

	delay := time.Until(remindAt)
	if delay <= 0 {
		// Момент уже прошел — отправляем немедленно
		go s.handleReminder(booking)
		return nil
	}

	s.timers[booking.ID] = time.AfterFunc(delay, func() {
		s.handleReminder(booking)
	})

	return nil
}

// Cancel отменяет запланированное напоминание
func (s *MemoryScheduler) Cancel(ctx context.Context, bookingID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, exists := s.timers[bookingID]; exists {
		timer.Stop()
		delete(s.timers, bookingID)
	}

	return nil
}

// Stop останавливает планировщик и снимает все таймеры
func (s *MemoryScheduler) Stop() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.stopped = true

		for bookingID, timer := range s.timers {
			timer.Stop()
			delete(s.timers, bookingID)
		}

		s.cancel()
	})

	return nil
}

// handleReminder обрабатывает срабатывание таймера
func (s *MemoryScheduler) handleReminder(booking *models.Booking) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.timers, booking.ID)
	s.mu.Unlock()

	if err := s.sender.SendBookingReminder(s.ctx, booking); err != nil {
		metrics.RecordReminderSent("error")
		s.log.Error("Failed to send reminder",
			logger.Int64("booking_id", booking.ID),
			logger.Int64("user_id", booking.UserID),
			logger.Error(err),
		)
		return
	}

	metrics.RecordReminderSent("ok")
}

// ActiveTimersCount возвращает количество активных таймеров
func (s *MemoryScheduler) ActiveTimersCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.timers)
}
