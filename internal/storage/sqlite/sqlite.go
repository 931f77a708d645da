package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"appointment_bot/internal/storage/models"
	boterrors "appointment_bot/pkg/errors"
	"appointment_bot/pkg/metrics"

	_ "modernc.org/sqlite"
)

// SQLiteStorage реализует интерфейс Storage для SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// New создает новое подключение к SQLite базе данных
func New(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Одно write-подключение: пул сериализует транзакции,
	// read-check-write внутри транзакции атомарен
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	storage := &SQLiteStorage{db: db}

	if err := storage.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return storage, nil
}

// migrate выполняет миграции базы данных
func (s *SQLiteStorage) migrate() error {
	// Включаем WAL mode для лучшей конкурентности
	if _, err := s.db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return fmt.Errorf("failed to set WAL mode: %w", err)
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			username TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			UNIQUE(date, time)
		)`,
		`CREATE TABLE IF NOT EXISTS blocked_slots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			blocked_by INTEGER NOT NULL,
			blocked_at DATETIME NOT NULL,
			UNIQUE(date, time)
		)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			event TEXT NOT NULL,
			data TEXT NOT NULL DEFAULT '',
			timestamp DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_date_time ON bookings(date, time)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_blocked_date_time ON blocked_slots(date, time)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_log(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_user ON audit_log(user_id)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration query: %w", err)
		}
	}

	return nil
}

// Close закрывает подключение к базе данных
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping проверяет подключение к базе данных
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// isUniqueViolation распознает нарушение UNIQUE индекса.
// Остаточная гонка, которую read-check-write не закрывает без
// сериализуемой изоляции, проявляется именно так и трактуется
// как занятый слот, а не как фатальная ошибка
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// slotOccupiedTx проверяет занятость слота внутри транзакции:
// запись или блокировка на ту же пару (date, time).
// excludeBookingID исключает собственную запись при переносе
func slotOccupiedTx(ctx context.Context, tx *sql.Tx, date, timeOfDay string, excludeBookingID int64) (bool, error) {
	var occupied int
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM bookings WHERE date = ? AND time = ? AND id != ?
		) OR EXISTS(
			SELECT 1 FROM blocked_slots WHERE date = ? AND time = ?
		)`,
		date, timeOfDay, excludeBookingID, date, timeOfDay,
	).Scan(&occupied)
	if err != nil {
		return false, fmt.Errorf("failed to check slot occupancy: %w", err)
	}
	return occupied == 1, nil
}

// CreateBooking создает запись с атомарной проверкой лимита и занятости.
// Проверка и вставка выполняются в одной транзакции; нарушение UNIQUE
// индекса при вставке трактуется как ErrSlotTaken
func (s *SQLiteStorage) CreateBooking(ctx context.Context, booking *models.Booking, maxPerUser int, today string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		metrics.RecordDatabaseOperation("create_booking", "error")
		return 0, boterrors.ErrStorageUnavailable.WithError(err)
	}
	defer tx.Rollback()

	// Лимит считается по актуальным записям, отдельный счетчик
	// не хранится, чтобы не было второго источника истины
	var userCount int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE user_id = ? AND date >= ?`,
		booking.UserID, today,
	).Scan(&userCount)
	if err != nil {
		metrics.RecordDatabaseOperation("create_booking", "error")
		return 0, boterrors.ErrStorageUnavailable.WithError(err)
	}

	if userCount >= maxPerUser {
		return 0, boterrors.ErrQuotaExceeded
	}

	occupied, err := slotOccupiedTx(ctx, tx, booking.Date, booking.Time, 0)
	if err != nil {
		metrics.RecordDatabaseOperation("create_booking", "error")
		return 0, boterrors.ErrStorageUnavailable.WithError(err)
	}
	if occupied {
		return 0, boterrors.ErrSlotTaken
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (date, time, user_id, username, created_at) VALUES (?, ?, ?, ?, ?)`,
		booking.Date, booking.Time, booking.UserID, booking.Username, booking.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, boterrors.ErrSlotTaken
		}
		metrics.RecordDatabaseOperation("create_booking", "error")
		return 0, boterrors.ErrStorageUnavailable.WithError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		metrics.RecordDatabaseOperation("create_booking", "error")
		return 0, boterrors.ErrStorageUnavailable.WithError(err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return 0, boterrors.ErrSlotTaken
		}
		metrics.RecordDatabaseOperation("create_booking", "error")
		return 0, boterrors.ErrStorageUnavailable.WithError(err)
	}

	booking.ID = id
	metrics.RecordDatabaseOperation("create_booking", "ok")
	return id, nil
}

// DeleteBooking удаляет запись с проверкой владельца.
// Несуществующая и чужая запись неразличимы для вызывающего
func (s *SQLiteStorage) DeleteBooking(ctx context.Context, bookingID, userID int64) (*models.Booking, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, boterrors.ErrStorageUnavailable.WithError(err)
	}
	defer tx.Rollback()

	booking := &models.Booking{}
	err = tx.QueryRowContext(ctx,
		`SELECT id, date, time, user_id, username, created_at FROM bookings WHERE id = ? AND user_id = ?`,
		bookingID, userID,
	).Scan(&booking.ID, &booking.Date, &booking.Time, &booking.UserID, &booking.Username, &booking.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, boterrors.ErrBookingNotFound
		}
		return nil, boterrors.ErrStorageUnavailable.WithError(err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, bookingID); err != nil {
		metrics.RecordDatabaseOperation("delete_booking", "error")
		return nil, boterrors.ErrStorageUnavailable.WithError(err)
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordDatabaseOperation("delete_booking", "error")
		return nil, boterrors.ErrStorageUnavailable.WithError(err)
	}

	metrics.RecordDatabaseOperation("delete_booking", "ok")
	return booking, nil
}

// RescheduleBooking переносит запись на новый слот в одной транзакции.
// Запись обновляется на месте: идентичность сохраняется, при сбое
// между проверкой и коммитом у пользователя остается ровно одна запись
func (s *SQLiteStorage) RescheduleBooking(ctx context.Context, bookingID, userID int64, newDate, newTime string, now time.Time) (*models.Booking, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, boterrors.ErrStorageUnavailable.WithError(err)
	}
	defer tx.Rollback()

	booking := &models.Booking{}
	err = tx.QueryRowContext(ctx,
		`SELECT id, date, time, user_id, username, created_at FROM bookings WHERE id = ? AND user_id = ?`,
		bookingID, userID,
	).Scan(&booking.ID, &booking.Date, &booking.Time, &booking.UserID, &booking.Username, &booking.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, boterrors.ErrBookingNotFound
		}
		return nil, boterrors.ErrStorageUnavailable.WithError(err)
	}

	occupied, err := slotOccupiedTx(ctx, tx, newDate, newTime, bookingID)
	if err != nil {
		return nil, boterrors.ErrStorageUnavailable.WithError(err)
	}
	if occupied {
		return nil, boterrors.ErrSlotTaken
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE bookings SET date = ?, time = ?, created_at = ? WHERE id = ?`,
		newDate, newTime, now, bookingID,
	); err != nil {
		if isUniqueViolation(err) {
			return nil, boterrors.ErrSlotTaken
		}
		metrics.RecordDatabaseOperation("reschedule_booking", "error")
		return nil, boterrors.ErrStorageUnavailable.WithError(err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, boterrors.ErrSlotTaken
		}
		metrics.RecordDatabaseOperation("reschedule_booking", "error")
		return nil, boterrors.ErrStorageUnavailable.WithError(err)
	}

	booking.Date = newDate
	booking.Time = newTime
	booking.CreatedAt = now
	metrics.RecordDatabaseOperation("reschedule_booking", "ok")
	return booking, nil
}

// GetBooking возвращает запись по ID с проверкой владельца
func (s *SQLiteStorage) GetBooking(ctx context.Context, bookingID, userID int64) (*models.Booking, error) {
	booking := &models.Booking{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, date, time, user_id, username, created_at FROM bookings WHERE id = ? AND user_id = ?`,
		bookingID, userID,
	).Scan(&booking.ID, &booking.Date, &booking.Time, &booking.UserID, &booking.Username, &booking.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, boterrors.ErrBookingNotFound
		}
		return nil, boterrors.ErrStorageUnavailable.WithError(err)
	}
	return booking, nil
}

// GetUserBookings возвращает записи пользователя начиная с даты
func (s *SQLiteStorage) GetUserBookings(ctx context.Context, userID int64, fromDate string) ([]*models.Booking, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, time, user_id, username, created_at FROM bookings
		 WHERE user_id = ? AND date >= ? ORDER BY date, time`,
		userID, fromDate,
	)
	if err != nil {
		return nil, boterrors.ErrStorageUnavailable.WithError(err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// GetAllBookingsFrom возвращает все записи начиная с даты
func (s *SQLiteStorage) GetAllBookingsFrom(ctx context.Context, fromDate string) ([]*models.Booking, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, time, user_id, username, created_at FROM bookings
		 WHERE date >= ? ORDER BY date, time`,
		fromDate,
	)
	if err != nil {
		return nil, boterrors.ErrStorageUnavailable.WithError(err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// GetScheduleRange возвращает записи в диапазоне дат включительно
func (s *SQLiteStorage) GetScheduleRange(ctx context.Context, fromDate, toDate string) ([]*models.Booking, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, time, user_id, username, created_at FROM bookings
		 WHERE date >= ? AND date <= ? ORDER BY date, time`,
		fromDate, toDate,
	)
	if err != nil {
		return nil, boterrors.ErrStorageUnavailable.WithError(err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// DeleteBookingsBefore удаляет записи старше даты
func (s *SQLiteStorage) DeleteBookingsBefore(ctx context.Context, beforeDate string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM bookings WHERE date < ?`, beforeDate)
	if err != nil {
		metrics.RecordDatabaseOperation("cleanup_bookings", "error")
		return 0, boterrors.ErrStorageUnavailable.WithError(err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, boterrors.ErrStorageUnavailable.WithError(err)
	}

	metrics.RecordDatabaseOperation("cleanup_bookings", "ok")
	return deleted, nil
}

// scanBookings читает список записей из результата запроса
func scanBookings(rows *sql.Rows) ([]*models.Booking, error) {
	var bookings []*models.Booking
	for rows.Next() {
		booking := &models.Booking{}
		err := rows.Scan(&booking.ID, &booking.Date, &booking.Time,
			&booking.UserID, &booking.Username, &booking.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

// GetOccupiedTimes возвращает занятые времена дня:
// объединение записей и заблокированных слотов
func (s *SQLiteStorage) GetOccupiedTimes(ctx context.Context, date string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT time FROM bookings WHERE date = ?
		 UNION
		 SELECT time FROM blocked_slots WHERE date = ?`,
		date, date,
	)
	if err != nil {
		return nil, boterrors.ErrStorageUnavailable.WithError(err)
	}
	defer rows.Close()

	occupied := make(map[string]bool)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan occupied time: %w", err)
		}
		occupied[t] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate occupied times: %w", err)
	}

	return occupied, nil
}

// GetOccupancyCounts возвращает количество занятых слотов по датам
// диапазона одним запросом — календарь месяца не должен порождать
// запрос на каждый день
func (s *SQLiteStorage) GetOccupancyCounts(ctx context.Context, fromDate, toDate string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, SUM(cnt) FROM (
			SELECT date, COUNT(*) AS cnt FROM bookings
			WHERE date >= ? AND date <= ? GROUP BY date
			UNION ALL
			SELECT date, COUNT(*) AS cnt FROM blocked_slots
			WHERE date >= ? AND date <= ? GROUP BY date
		) GROUP BY date`,
		fromDate, toDate, fromDate, toDate,
	)
	if err != nil {
		return nil, boterrors.ErrStorageUnavailable.WithError(err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var date string
		var count int
		if err := rows.Scan(&date, &count); err != nil {
			return nil, fmt.Errorf("failed to scan occupancy count: %w", err)
		}
		counts[date] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate occupancy counts: %w", err)
	}

	return counts, nil
}

// BlockSlot закрывает слот административной блокировкой
func (s *SQLiteStorage) BlockSlot(ctx context.Context, slot *models.BlockedSlot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return boterrors.ErrStorageUnavailable.WithError(err)
	}
	defer tx.Rollback()

	occupied, err := slotOccupiedTx(ctx, tx, slot.Date, slot.Time, 0)
	if err != nil {
		return boterrors.ErrStorageUnavailable.WithError(err)
	}
	if occupied {
		return boterrors.ErrSlotTaken
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO blocked_slots (date, time, reason, blocked_by, blocked_at) VALUES (?, ?, ?, ?, ?)`,
		slot.Date, slot.Time, slot.Reason, slot.BlockedBy, slot.BlockedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return boterrors.ErrSlotTaken
		}
		metrics.RecordDatabaseOperation("block_slot", "error")
		return boterrors.ErrStorageUnavailable.WithError(err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return boterrors.ErrSlotTaken
		}
		metrics.RecordDatabaseOperation("block_slot", "error")
		return boterrors.ErrStorageUnavailable.WithError(err)
	}

	if id, err := result.LastInsertId(); err == nil {
		slot.ID = id
	}

	metrics.RecordDatabaseOperation("block_slot", "ok")
	return nil
}

// UnblockSlot снимает блокировку
func (s *SQLiteStorage) UnblockSlot(ctx context.Context, date, timeOfDay string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM blocked_slots WHERE date = ? AND time = ?`,
		date, timeOfDay,
	)
	if err != nil {
		metrics.RecordDatabaseOperation("unblock_slot", "error")
		return false, boterrors.ErrStorageUnavailable.WithError(err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return false, boterrors.ErrStorageUnavailable.WithError(err)
	}

	metrics.RecordDatabaseOperation("unblock_slot", "ok")
	return deleted > 0, nil
}

// GetBlockedSlots возвращает блокировки на дату
func (s *SQLiteStorage) GetBlockedSlots(ctx context.Context, date string) ([]*models.BlockedSlot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, time, reason, blocked_by, blocked_at FROM blocked_slots
		 WHERE date = ? ORDER BY time`,
		date,
	)
	if err != nil {
		return nil, boterrors.ErrStorageUnavailable.WithError(err)
	}
	defer rows.Close()

	var slots []*models.BlockedSlot
	for rows.Next() {
		slot := &models.BlockedSlot{}
		err := rows.Scan(&slot.ID, &slot.Date, &slot.Time, &slot.Reason, &slot.BlockedBy, &slot.BlockedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blocked slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blocked slots: %w", err)
	}

	return slots, nil
}

// LogEvent добавляет событие в журнал действий
func (s *SQLiteStorage) LogEvent(ctx context.Context, userID int64, event, data string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (user_id, event, data, timestamp) VALUES (?, ?, ?, ?)`,
		userID, event, data, time.Now().UTC(),
	)
	if err != nil {
		metrics.RecordDatabaseOperation("log_event", "error")
		return boterrors.ErrStorageUnavailable.WithError(err)
	}

	metrics.RecordDatabaseOperation("log_event", "ok")
	return nil
}

// GetRecentEvents возвращает последние события журнала
func (s *SQLiteStorage) GetRecentEvents(ctx context.Context, limit int) ([]*models.AuditEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, event, data, timestamp FROM audit_log
		 ORDER BY timestamp DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, boterrors.ErrStorageUnavailable.WithError(err)
	}
	defer rows.Close()

	var events []*models.AuditEvent
	for rows.Next() {
		event := &models.AuditEvent{}
		err := rows.Scan(&event.ID, &event.UserID, &event.Event, &event.Data, &event.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit events: %w", err)
	}

	return events, nil
}
