package sqlite

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"appointment_bot/internal/storage/models"
	boterrors "appointment_bot/pkg/errors"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	storage, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })

	return storage
}

func testBooking(date, timeOfDay string, userID int64) *models.Booking {
	return &models.Booking{
		Date:      date,
		Time:      timeOfDay,
		UserID:    userID,
		Username:  "testuser",
		CreatedAt: time.Now(),
	}
}

func TestCreateBooking_Success(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	booking := testBooking("2030-06-15", "10:00", 100)
	id, err := storage.CreateBooking(ctx, booking, 3, "2030-06-01")
	if err != nil {
		t.Fatalf("Failed to create booking: %v", err)
	}

	if id <= 0 {
		t.Errorf("Expected positive booking ID, got %d", id)
	}
	if booking.ID != id {
		t.Errorf("Expected booking.ID to be set to %d, got %d", id, booking.ID)
	}
}

func TestCreateBooking_SlotTaken(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	if _, err := storage.CreateBooking(ctx, testBooking("2030-06-15", "10:00", 100), 3, "2030-06-01"); err != nil {
		t.Fatalf("Failed to create first booking: %v", err)
	}

	// Второй пользователь на тот же слот
	_, err := storage.CreateBooking(ctx, testBooking("2030-06-15", "10:00", 200), 3, "2030-06-01")
	if !stderrors.Is(err, boterrors.ErrSlotTaken) {
		t.Errorf("Expected ErrSlotTaken, got %v", err)
	}
}

func TestCreateBooking_QuotaExceeded(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	slots := []string{"10:00", "11:00", "12:00"}
	for _, slot := range slots {
		if _, err := storage.CreateBooking(ctx, testBooking("2030-06-15", slot, 100), 3, "2030-06-01"); err != nil {
			t.Fatalf("Failed to create booking at %s: %v", slot, err)
		}
	}

	_, err := storage.CreateBooking(ctx, testBooking("2030-06-15", "13:00", 100), 3, "2030-06-01")
	if !stderrors.Is(err, boterrors.ErrQuotaExceeded) {
		t.Errorf("Expected ErrQuotaExceeded, got %v", err)
	}
}

func TestCreateBooking_QuotaCountsOnlyActiveBookings(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	// Две записи в прошлом не должны учитываться в квоте
	if _, err := storage.CreateBooking(ctx, testBooking("2030-05-01", "10:00", 100), 3, "2030-04-01"); err != nil {
		t.Fatalf("Failed to create past booking: %v", err)
	}
	if _, err := storage.CreateBooking(ctx, testBooking("2030-05-02", "10:00", 100), 3, "2030-04-01"); err != nil {
		t.Fatalf("Failed to create past booking: %v", err)
	}

	for _, slot := range []string{"10:00", "11:00", "12:00"} {
		if _, err := storage.CreateBooking(ctx, testBooking("2030-06-15", slot, 100), 3, "2030-06-01"); err != nil {
			t.Fatalf("Failed to create booking at %s: %v", slot, err)
		}
	}
}

func TestDeleteBooking_OwnerOnly(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	booking := testBooking("2030-06-15", "10:00", 100)
	id, err := storage.CreateBooking(ctx, booking, 3, "2030-06-01")
	if err != nil {
		t.Fatalf("Failed to create booking: %v", err)
	}

	// Чужой пользователь не может удалить запись
	if _, err := storage.DeleteBooking(ctx, id, 999); !stderrors.Is(err, boterrors.ErrBookingNotFound) {
		t.Errorf("Expected ErrBookingNotFound for foreign user, got %v", err)
	}

	deleted, err := storage.DeleteBooking(ctx, id, 100)
	if err != nil {
		t.Fatalf("Failed to delete booking: %v", err)
	}
	if deleted.Date != "2030-06-15" || deleted.Time != "10:00" {
		t.Errorf("Deleted booking has wrong slot: %s %s", deleted.Date, deleted.Time)
	}

	// Повторное удаление того же ID — NotFound
	if _, err := storage.DeleteBooking(ctx, id, 100); !stderrors.Is(err, boterrors.ErrBookingNotFound) {
		t.Errorf("Expected ErrBookingNotFound on second delete, got %v", err)
	}
}

func TestDeleteBooking_FreesSlot(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	id, err := storage.CreateBooking(ctx, testBooking("2030-06-15", "10:00", 100), 3, "2030-06-01")
	if err != nil {
		t.Fatalf("Failed to create booking: %v", err)
	}

	if _, err := storage.DeleteBooking(ctx, id, 100); err != nil {
		t.Fatalf("Failed to delete booking: %v", err)
	}

	// Слот снова доступен
	if _, err := storage.CreateBooking(ctx, testBooking("2030-06-15", "10:00", 200), 3, "2030-06-01"); err != nil {
		t.Errorf("Slot should be free after deletion, got %v", err)
	}
}

func TestRescheduleBooking_PreservesIdentity(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	booking := testBooking("2030-06-15", "10:00", 100)
	id, err := storage.CreateBooking(ctx, booking, 3, "2030-06-01")
	if err != nil {
		t.Fatalf("Failed to create booking: %v", err)
	}

	moved, err := storage.RescheduleBooking(ctx, id, 100, "2030-06-16", "11:00", time.Now())
	if err != nil {
		t.Fatalf("Failed to reschedule booking: %v", err)
	}

	if moved.ID != id {
		t.Errorf("Reschedule must preserve booking ID: expected %d, got %d", id, moved.ID)
	}
	if moved.Date != "2030-06-16" || moved.Time != "11:00" {
		t.Errorf("Booking not moved: %s %s", moved.Date, moved.Time)
	}

	// Старый слот освобожден
	if _, err := storage.CreateBooking(ctx, testBooking("2030-06-15", "10:00", 200), 3, "2030-06-01"); err != nil {
		t.Errorf("Old slot should be free after reschedule, got %v", err)
	}
}

func TestRescheduleBooking_TargetTaken(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	id, err := storage.CreateBooking(ctx, testBooking("2030-06-15", "10:00", 100), 3, "2030-06-01")
	if err != nil {
		t.Fatalf("Failed to create booking: %v", err)
	}
	if _, err := storage.CreateBooking(ctx, testBooking("2030-06-15", "11:00", 200), 3, "2030-06-01"); err != nil {
		t.Fatalf("Failed to create second booking: %v", err)
	}

	_, err = storage.RescheduleBooking(ctx, id, 100, "2030-06-15", "11:00", time.Now())
	if !stderrors.Is(err, boterrors.ErrSlotTaken) {
		t.Errorf("Expected ErrSlotTaken, got %v", err)
	}

	// Исходная запись не изменилась
	booking, err := storage.GetBooking(ctx, id, 100)
	if err != nil {
		t.Fatalf("Failed to get booking: %v", err)
	}
	if booking.Date != "2030-06-15" || booking.Time != "10:00" {
		t.Errorf("Failed reschedule must not move booking: %s %s", booking.Date, booking.Time)
	}
}

func TestRescheduleBooking_SameSlotAllowed(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	id, err := storage.CreateBooking(ctx, testBooking("2030-06-15", "10:00", 100), 3, "2030-06-01")
	if err != nil {
		t.Fatalf("Failed to create booking: %v", err)
	}

	// Перенос на тот же слот не конфликтует сам с собой
	if _, err := storage.RescheduleBooking(ctx, id, 100, "2030-06-15", "10:00", time.Now()); err != nil {
		t.Errorf("Reschedule to same slot should succeed, got %v", err)
	}
}

func TestBlockedSlot_CountsAsOccupied(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	blocked := &models.BlockedSlot{
		Date:      "2030-06-15",
		Time:      "10:00",
		Reason:    "обед",
		BlockedBy: 1,
		BlockedAt: time.Now(),
	}
	if err := storage.BlockSlot(ctx, blocked); err != nil {
		t.Fatalf("Failed to block slot: %v", err)
	}

	occupied, err := storage.GetOccupiedTimes(ctx, "2030-06-15")
	if err != nil {
		t.Fatalf("Failed to get occupied times: %v", err)
	}
	if !occupied["10:00"] {
		t.Error("Blocked slot must count as occupied")
	}

	// Запись на заблокированный слот отклоняется как занятая
	_, err = storage.CreateBooking(ctx, testBooking("2030-06-15", "10:00", 100), 3, "2030-06-01")
	if !stderrors.Is(err, boterrors.ErrSlotTaken) {
		t.Errorf("Expected ErrSlotTaken for blocked slot, got %v", err)
	}
}

func TestUnblockSlot(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	blocked := &models.BlockedSlot{
		Date:      "2030-06-15",
		Time:      "10:00",
		BlockedBy: 1,
		BlockedAt: time.Now(),
	}
	if err := storage.BlockSlot(ctx, blocked); err != nil {
		t.Fatalf("Failed to block slot: %v", err)
	}

	unblocked, err := storage.UnblockSlot(ctx, "2030-06-15", "10:00")
	if err != nil {
		t.Fatalf("Failed to unblock slot: %v", err)
	}
	if !unblocked {
		t.Error("Expected unblocked=true for existing block")
	}

	// Повторное снятие несуществующей блокировки
	unblocked, err = storage.UnblockSlot(ctx, "2030-06-15", "10:00")
	if err != nil {
		t.Fatalf("Failed on second unblock: %v", err)
	}
	if unblocked {
		t.Error("Expected unblocked=false for missing block")
	}

	// Слот снова доступен для записи
	if _, err := storage.CreateBooking(ctx, testBooking("2030-06-15", "10:00", 100), 3, "2030-06-01"); err != nil {
		t.Errorf("Slot should be bookable after unblock, got %v", err)
	}
}

func TestGetOccupancyCounts(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	// Две записи и одна блокировка в одном дне, одна запись в другом
	if _, err := storage.CreateBooking(ctx, testBooking("2030-06-15", "10:00", 100), 3, "2030-06-01"); err != nil {
		t.Fatalf("Failed to create booking: %v", err)
	}
	if _, err := storage.CreateBooking(ctx, testBooking("2030-06-15", "11:00", 200), 3, "2030-06-01"); err != nil {
		t.Fatalf("Failed to create booking: %v", err)
	}
	if err := storage.BlockSlot(ctx, &models.BlockedSlot{
		Date: "2030-06-15", Time: "12:00", BlockedBy: 1, BlockedAt: time.Now(),
	}); err != nil {
		t.Fatalf("Failed to block slot: %v", err)
	}
	if _, err := storage.CreateBooking(ctx, testBooking("2030-06-20", "10:00", 100), 3, "2030-06-01"); err != nil {
		t.Fatalf("Failed to create booking: %v", err)
	}

	counts, err := storage.GetOccupancyCounts(ctx, "2030-06-01", "2030-06-30")
	if err != nil {
		t.Fatalf("Failed to get occupancy counts: %v", err)
	}

	if counts["2030-06-15"] != 3 {
		t.Errorf("Expected 3 occupied slots on 2030-06-15, got %d", counts["2030-06-15"])
	}
	if counts["2030-06-20"] != 1 {
		t.Errorf("Expected 1 occupied slot on 2030-06-20, got %d", counts["2030-06-20"])
	}
	if counts["2030-06-10"] != 0 {
		t.Errorf("Expected 0 occupied slots on 2030-06-10, got %d", counts["2030-06-10"])
	}
}

func TestGetUserBookings_FiltersAndSorts(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	// Прошлая запись не попадает в выборку
	if _, err := storage.CreateBooking(ctx, testBooking("2030-05-01", "10:00", 100), 3, "2030-04-01"); err != nil {
		t.Fatalf("Failed to create past booking: %v", err)
	}
	if _, err := storage.CreateBooking(ctx, testBooking("2030-06-16", "09:00", 100), 3, "2030-06-01"); err != nil {
		t.Fatalf("Failed to create booking: %v", err)
	}
	if _, err := storage.CreateBooking(ctx, testBooking("2030-06-15", "18:00", 100), 3, "2030-06-01"); err != nil {
		t.Fatalf("Failed to create booking: %v", err)
	}

	bookings, err := storage.GetUserBookings(ctx, 100, "2030-06-01")
	if err != nil {
		t.Fatalf("Failed to get user bookings: %v", err)
	}

	if len(bookings) != 2 {
		t.Fatalf("Expected 2 active bookings, got %d", len(bookings))
	}
	if bookings[0].Date != "2030-06-15" || bookings[1].Date != "2030-06-16" {
		t.Errorf("Bookings not sorted by date: %s, %s", bookings[0].Date, bookings[1].Date)
	}
}

func TestDeleteBookingsBefore(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	if _, err := storage.CreateBooking(ctx, testBooking("2030-01-10", "10:00", 100), 3, "2030-01-01"); err != nil {
		t.Fatalf("Failed to create booking: %v", err)
	}
	if _, err := storage.CreateBooking(ctx, testBooking("2030-06-15", "10:00", 100), 3, "2030-06-01"); err != nil {
		t.Fatalf("Failed to create booking: %v", err)
	}

	deleted, err := storage.DeleteBookingsBefore(ctx, "2030-06-01")
	if err != nil {
		t.Fatalf("Failed to delete old bookings: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted booking, got %d", deleted)
	}

	remaining, err := storage.GetAllBookingsFrom(ctx, "2030-01-01")
	if err != nil {
		t.Fatalf("Failed to list bookings: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Date != "2030-06-15" {
		t.Errorf("Wrong bookings remain after cleanup: %+v", remaining)
	}
}

func TestAuditLog(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	events := []struct {
		userID int64
		event  string
		data   string
	}{
		{100, models.EventBookingCreated, "2030-06-15 10:00"},
		{100, models.EventBookingCancelled, "2030-06-15 10:00"},
		{1, models.EventSlotBlocked, "2030-06-16 12:00"},
	}
	for _, e := range events {
		if err := storage.LogEvent(ctx, e.userID, e.event, e.data); err != nil {
			t.Fatalf("Failed to log event %s: %v", e.event, err)
		}
	}

	recent, err := storage.GetRecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("Failed to get recent events: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(recent))
	}

	// Последние события первыми
	if recent[0].Event != models.EventSlotBlocked {
		t.Errorf("Expected newest event first, got %s", recent[0].Event)
	}
}
