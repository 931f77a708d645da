package scheduler

import (
	"context"
	"time"

	"appointment_bot/internal/storage/models"
)

// ReminderScheduler определяет интерфейс для планирования напоминаний.
// Регистрация выполняется по принципу fire-and-forget: сбой планирования
// не должен отменять уже совершенное бронирование
type ReminderScheduler interface {
	// Schedule планирует напоминание о записи на указанный момент.
	// Повторное планирование для той же записи заменяет прежнее
	Schedule(ctx context.Context, booking *models.Booking, remindAt time.Time) error

	// Cancel отменяет запланированное напоминание
	Cancel(ctx context.Context, bookingID int64) error

	// Stop останавливает планировщик и снимает все таймеры
	Stop() error
}

// ReminderSender определяет интерфейс для доставки напоминаний
type ReminderSender interface {
	// SendBookingReminder отправляет пользователю напоминание о записи
	SendBookingReminder(ctx context.Context, booking *models.Booking) error
}
