package storage

import (
	"context"
	"time"

	"appointment_bot/internal/storage/models"
)

// BookingRepository определяет интерфейс для работы с записями.
// Мутирующие операции атомарны: проверка и запись выполняются
// в одной транзакции
type BookingRepository interface {
	// CreateBooking создает запись, если слот свободен и лимит
	// пользователя не превышен. Возвращает ErrSlotTaken или
	// ErrQuotaExceeded в качестве типизированного отказа
	CreateBooking(ctx context.Context, booking *models.Booking, maxPerUser int, today string) (int64, error)

	// DeleteBooking удаляет запись, если она принадлежит пользователю.
	// Возвращает удаленную запись и ErrBookingNotFound, если записи нет
	// или она принадлежит другому пользователю
	DeleteBooking(ctx context.Context, bookingID, userID int64) (*models.Booking, error)

	// RescheduleBooking переносит запись на новый слот в одной транзакции.
	// Идентичность записи сохраняется
	RescheduleBooking(ctx context.Context, bookingID, userID int64, newDate, newTime string, now time.Time) (*models.Booking, error)

	// GetBooking возвращает запись по ID с проверкой владельца
	GetBooking(ctx context.Context, bookingID, userID int64) (*models.Booking, error)

	// GetUserBookings возвращает записи пользователя начиная с даты
	GetUserBookings(ctx context.Context, userID int64, fromDate string) ([]*models.Booking, error)

	// GetAllBookingsFrom возвращает все записи начиная с даты
	GetAllBookingsFrom(ctx context.Context, fromDate string) ([]*models.Booking, error)

	// GetScheduleRange возвращает записи в диапазоне дат включительно
	GetScheduleRange(ctx context.Context, fromDate, toDate string) ([]*models.Booking, error)

	// DeleteBookingsBefore удаляет записи старше даты, возвращает количество
	DeleteBookingsBefore(ctx context.Context, beforeDate string) (int64, error)
}

// OccupancyRepository определяет read-путь для занятости слотов
type OccupancyRepository interface {
	// GetOccupiedTimes возвращает занятые времена дня:
	// объединение записей и заблокированных слотов
	GetOccupiedTimes(ctx context.Context, date string) (map[string]bool, error)

	// GetOccupancyCounts возвращает количество занятых слотов по датам
	// диапазона одним запросом
	GetOccupancyCounts(ctx context.Context, fromDate, toDate string) (map[string]int, error)
}

// BlockedSlotRepository определяет интерфейс для административной
// блокировки слотов
type BlockedSlotRepository interface {
	// BlockSlot закрывает слот. Возвращает ErrSlotTaken, если слот
	// уже занят записью или блокировкой
	BlockSlot(ctx context.Context, slot *models.BlockedSlot) error

	// UnblockSlot снимает блокировку, возвращает false если ее не было
	UnblockSlot(ctx context.Context, date, timeOfDay string) (bool, error)

	// GetBlockedSlots возвращает блокировки на дату
	GetBlockedSlots(ctx context.Context, date string) ([]*models.BlockedSlot, error)
}

// AuditRepository определяет append-only журнал действий
type AuditRepository interface {
	// LogEvent добавляет событие в журнал
	LogEvent(ctx context.Context, userID int64, event, data string) error

	// GetRecentEvents возвращает последние события журнала
	GetRecentEvents(ctx context.Context, limit int) ([]*models.AuditEvent, error)
}

// Storage объединяет все репозитории в единый интерфейс
type Storage interface {
	BookingRepository
	OccupancyRepository
	BlockedSlotRepository
	AuditRepository
	Close() error
	Ping(ctx context.Context) error
}
