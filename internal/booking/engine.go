package booking

import (
	"context"
	"fmt"
	"time"

	"appointment_bot/internal/clock"
	"appointment_bot/internal/config"
	"appointment_bot/internal/scheduler"
	"appointment_bot/internal/storage"
	"appointment_bot/internal/storage/models"
	boterrors "appointment_bot/pkg/errors"
	"appointment_bot/pkg/logger"
	"appointment_bot/pkg/metrics"
)

// Пороги напоминаний: выбирается наибольший помещающийся офсет
var reminderOffsets = []time.Duration{
	24 * time.Hour,
	2 * time.Hour,
	time.Hour,
}

// Engine — движок бронирования, единственный писатель записей.
// Гарантирует отсутствие двойного бронирования и соблюдение лимита:
// проверка и запись выполняются в одной транзакции хранилища
type Engine struct {
	storage   storage.Storage
	clock     clock.Clock
	reminders scheduler.ReminderScheduler
	cfg       config.BookingConfig
	log       *logger.Logger
}

// NewEngine создает движок бронирования
func NewEngine(
	st storage.Storage,
	clk clock.Clock,
	reminders scheduler.ReminderScheduler,
	cfg config.BookingConfig,
	log *logger.Logger,
) *Engine {
	return &Engine{
		storage:   st,
		clock:     clk,
		reminders: reminders,
		cfg:       cfg,
		log:       log,
	}
}

// validateSlot проверяет, что слот не в прошлом.
// Прошедшая дата и прошедшее время сегодня — разные отказы:
// PAST_DATE и PAST_TIME соответственно
func (e *Engine) validateSlot(date, timeOfDay string) error {
	slotAt, err := clock.ParseSlot(date, timeOfDay, e.clock.Location())
	if err != nil {
		return boterrors.ErrInvalidDate.WithError(err)
	}

	now := e.clock.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, e.clock.Location())
	slotDay := time.Date(slotAt.Year(), slotAt.Month(), slotAt.Day(), 0, 0, 0, 0, e.clock.Location())

	if slotDay.Before(today) {
		return boterrors.ErrPastDate
	}

	// Слот ровно в текущий момент уже не бронируется
	if !slotAt.After(now) {
		return boterrors.ErrPastTime
	}

	return nil
}

// CreateBooking создает запись на слот.
// Отказы SlotTaken, QuotaExceeded, PastDate, PastTime — ожидаемые
// исходы, возвращаются как типизированные ошибки. Журнал и напоминание
// — побочные эффекты после коммита, их сбой не откатывает бронирование
func (e *Engine) CreateBooking(ctx context.Context, date, timeOfDay string, userID int64, username string) (*models.Booking, error) {
	if err := e.validateSlot(date, timeOfDay); err != nil {
		metrics.RecordRejection(boterrors.ReasonCode(err))
		return nil, err
	}

	now := e.clock.Now()
	booking := &models.Booking{
		Date:      date,
		Time:      timeOfDay,
		UserID:    userID,
		Username:  username,
		CreatedAt: now,
	}

	_, err := e.storage.CreateBooking(ctx, booking, e.cfg.MaxPerUser, now.Format(clock.DateLayout))
	if err != nil {
		metrics.RecordRejection(boterrors.ReasonCode(err))
		return nil, err
	}

	metrics.RecordBookingCreated()
	e.log.Info("Booking created",
		logger.Int64("booking_id", booking.ID),
		logger.Int64("user_id", userID),
		logger.String("slot", date+" "+timeOfDay),
	)

	e.auditEvent(ctx, userID, models.EventBookingCreated, date+" "+timeOfDay)
	e.scheduleReminder(ctx, booking)

	return booking, nil
}

// CancelBooking отменяет запись пользователя.
// Чужая и несуществующая запись дают одинаковый отказ NotFound;
// повторная отмена того же ID — NotFound, не ошибка
func (e *Engine) CancelBooking(ctx context.Context, bookingID, userID int64) (*models.Booking, error) {
	booking, err := e.storage.DeleteBooking(ctx, bookingID, userID)
	if err != nil {
		metrics.RecordRejection(boterrors.ReasonCode(err))
		return nil, err
	}

	metrics.RecordBookingCancelled()
	e.log.Info("Booking cancelled",
		logger.Int64("booking_id", bookingID),
		logger.Int64("user_id", userID),
	)

	if err := e.reminders.Cancel(ctx, bookingID); err != nil {
		e.log.Warn("Failed to cancel reminder", logger.Int64("booking_id", bookingID), logger.Error(err))
	}

	e.auditEvent(ctx, userID, models.EventBookingCancelled, booking.Date+" "+booking.Time)

	return booking, nil
}

// RescheduleBooking переносит запись на новый слот.
// Проверка владельца, валидность нового слота и перенос выполняются
// в одной транзакции хранилища: сбой не оставит пользователя
// с нулем или двумя записями. Идентичность записи сохраняется
func (e *Engine) RescheduleBooking(ctx context.Context, bookingID, userID int64, newDate, newTime string) (*models.Booking, error) {
	if err := e.validateSlot(newDate, newTime); err != nil {
		metrics.RecordRejection(boterrors.ReasonCode(err))
		return nil, err
	}

	old, err := e.storage.GetBooking(ctx, bookingID, userID)
	if err != nil {
		metrics.RecordRejection(boterrors.ReasonCode(err))
		return nil, err
	}

	booking, err := e.storage.RescheduleBooking(ctx, bookingID, userID, newDate, newTime, e.clock.Now())
	if err != nil {
		metrics.RecordRejection(boterrors.ReasonCode(err))
		return nil, err
	}

	metrics.RecordBookingRescheduled()
	e.log.Info("Booking rescheduled",
		logger.Int64("booking_id", bookingID),
		logger.Int64("user_id", userID),
		logger.String("from", old.Date+" "+old.Time),
		logger.String("to", newDate+" "+newTime),
	)

	if err := e.reminders.Cancel(ctx, bookingID); err != nil {
		e.log.Warn("Failed to cancel reminder", logger.Int64("booking_id", bookingID), logger.Error(err))
	}
	e.scheduleReminder(ctx, booking)

	e.auditEvent(ctx, userID, models.EventBookingRescheduled,
		fmt.Sprintf("%s %s -> %s %s", old.Date, old.Time, newDate, newTime))

	return booking, nil
}

// ListUserBookings возвращает активные записи пользователя
func (e *Engine) ListUserBookings(ctx context.Context, userID int64) ([]*models.Booking, error) {
	return e.storage.GetUserBookings(ctx, userID, e.clock.Now().Format(clock.DateLayout))
}

// WeekSchedule возвращает записи на ближайшие days дней
func (e *Engine) WeekSchedule(ctx context.Context, days int) ([]*models.Booking, error) {
	now := e.clock.Now()
	return e.storage.GetScheduleRange(ctx,
		now.Format(clock.DateLayout),
		now.AddDate(0, 0, days).Format(clock.DateLayout))
}

// BlockSlot закрывает слот административной блокировкой
func (e *Engine) BlockSlot(ctx context.Context, date, timeOfDay, reason string, adminID int64) error {
	slot := &models.BlockedSlot{
		Date:      date,
		Time:      timeOfDay,
		Reason:    reason,
		BlockedBy: adminID,
		BlockedAt: e.clock.Now(),
	}

	if err := e.storage.BlockSlot(ctx, slot); err != nil {
		return err
	}

	e.log.Info("Slot blocked",
		logger.String("slot", date+" "+timeOfDay),
		logger.Int64("admin_id", adminID),
	)
	e.auditEvent(ctx, adminID, models.EventSlotBlocked, date+" "+timeOfDay)

	return nil
}

// UnblockSlot снимает административную блокировку
func (e *Engine) UnblockSlot(ctx context.Context, date, timeOfDay string, adminID int64) (bool, error) {
	unblocked, err := e.storage.UnblockSlot(ctx, date, timeOfDay)
	if err != nil {
		return false, err
	}

	if unblocked {
		e.auditEvent(ctx, adminID, models.EventSlotUnblocked, date+" "+timeOfDay)
	}

	return unblocked, nil
}

// BlockedSlotsRange возвращает блокировки на ближайшие days дней
func (e *Engine) BlockedSlotsRange(ctx context.Context, days int) ([]*models.BlockedSlot, error) {
	now := e.clock.Now()

	var blocked []*models.BlockedSlot
	for i := 0; i < days; i++ {
		date := now.AddDate(0, 0, i).Format(clock.DateLayout)
		slots, err := e.storage.GetBlockedSlots(ctx, date)
		if err != nil {
			return nil, err
		}
		blocked = append(blocked, slots...)
	}

	return blocked, nil
}

// RecentAuditEvents возвращает последние события журнала, новые первыми
func (e *Engine) RecentAuditEvents(ctx context.Context, limit int) ([]*models.AuditEvent, error) {
	return e.storage.GetRecentEvents(ctx, limit)
}

// RestoreReminders восстанавливает напоминания после рестарта процесса
func (e *Engine) RestoreReminders(ctx context.Context) (int, error) {
	bookings, err := e.storage.GetAllBookingsFrom(ctx, e.clock.Now().Format(clock.DateLayout))
	if err != nil {
		return 0, err
	}

	restored := 0
	for _, booking := range bookings {
		if e.scheduleReminder(ctx, booking) {
			restored++
		}
	}

	e.log.Info("Reminders restored", logger.Int("count", restored))
	return restored, nil
}

// CleanupOldBookings удаляет записи старше настроенного срока хранения
func (e *Engine) CleanupOldBookings(ctx context.Context) (int64, error) {
	cutoff := e.clock.Now().AddDate(0, 0, -e.cfg.CleanupAfterDays)

	deleted, err := e.storage.DeleteBookingsBefore(ctx, cutoff.Format(clock.DateLayout))
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		e.log.Info("Old bookings cleaned up", logger.Int64("deleted", deleted))
	}
	return deleted, nil
}

// scheduleReminder регистрирует напоминание о записи.
// Fire-and-forget: ошибка логируется и не распространяется
func (e *Engine) scheduleReminder(ctx context.Context, booking *models.Booking) bool {
	slotAt, err := clock.ParseSlot(booking.Date, booking.Time, e.clock.Location())
	if err != nil {
		e.log.Error("Failed to parse booking slot for reminder",
			logger.Int64("booking_id", booking.ID), logger.Error(err))
		return false
	}

	until := slotAt.Sub(e.clock.Now())
	for _, offset := range reminderOffsets {
		if until > offset {
			if err := e.reminders.Schedule(ctx, booking, slotAt.Add(-offset)); err != nil {
				e.log.Warn("Failed to schedule reminder",
					logger.Int64("booking_id", booking.ID), logger.Error(err))
				return false
			}
			metrics.RecordReminderScheduled()
			return true
		}
	}

	// До слота меньше часа — напоминание не планируется
	return false
}

// auditEvent добавляет событие в журнал действий.
// Журнал append-only и best-effort: сбой не влияет на операцию
func (e *Engine) auditEvent(ctx context.Context, userID int64, event, data string) {
	if err := e.storage.LogEvent(ctx, userID, event, data); err != nil {
		e.log.Warn("Failed to log audit event",
			logger.String("event", event),
			logger.Int64("user_id", userID),
			logger.Error(err),
		)
	}
}
