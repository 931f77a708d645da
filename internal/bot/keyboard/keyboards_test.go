package keyboard

import (
	"strings"
	"testing"
	"time"

	"appointment_bot/internal/storage/models"
)

func TestMonthCalendar_Grid(t *testing.T) {
	today := time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)
	statuses := map[string]models.DayStatus{
		"2030-06-20": models.StatusPartial,
		"2030-06-25": models.StatusFull,
	}

	kb := MonthCalendar(2030, time.June, statuses, today, 3, "day", "cal")

	// Заголовок, шапка дней недели, недели, навигация
	if len(kb.InlineKeyboard) < 4 {
		t.Fatalf("Expected at least 4 rows, got %d", len(kb.InlineKeyboard))
	}
	if len(kb.InlineKeyboard[1]) != 7 {
		t.Errorf("Expected 7 weekday header cells, got %d", len(kb.InlineKeyboard[1]))
	}

	var dayButtons, noopDays int
	var fullCallback, pastCallback, partialCallback string
	for _, row := range kb.InlineKeyboard[2:] {
		for _, btn := range row {
			if !strings.ContainsAny(btn.Text, "0123456789") {
				continue
			}
			dayButtons++
			if btn.CallbackData == NoopCallback {
				noopDays++
			}
			switch {
			case strings.Contains(btn.Text, "25"):
				fullCallback = btn.CallbackData
			case strings.Contains(btn.Text, "20"):
				partialCallback = btn.CallbackData
			case btn.Text == "⚫1":
				pastCallback = btn.CallbackData
			}
		}
	}

	if dayButtons != 30 {
		t.Errorf("Expected 30 day buttons for June, got %d", dayButtons)
	}

	// Прошедшие дни 1..14 и полный день 25 некликабельны
	if noopDays != 15 {
		t.Errorf("Expected 15 non-clickable days (14 past + 1 full), got %d", noopDays)
	}
	if fullCallback != NoopCallback {
		t.Errorf("Full day must be non-clickable, got %q", fullCallback)
	}
	if pastCallback != NoopCallback {
		t.Errorf("Past day must be non-clickable, got %q", pastCallback)
	}
	if partialCallback != "day:2030-06-20" {
		t.Errorf("Partial day callback: expected day:2030-06-20, got %q", partialCallback)
	}
}

func TestMonthCalendar_Navigation(t *testing.T) {
	today := time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)
	statuses := map[string]models.DayStatus{}

	// Текущий месяц: только кнопка вперед
	kb := MonthCalendar(2030, time.June, statuses, today, 3, "day", "cal")
	nav := kb.InlineKeyboard[len(kb.InlineKeyboard)-1]
	if len(nav) != 1 || nav[0].CallbackData != "cal:2030-07" {
		t.Errorf("Expected single forward nav cal:2030-07, got %+v", nav)
	}

	// Середина горизонта: обе кнопки
	kb = MonthCalendar(2030, time.July, statuses, today, 3, "day", "cal")
	nav = kb.InlineKeyboard[len(kb.InlineKeyboard)-1]
	if len(nav) != 2 {
		t.Fatalf("Expected both nav buttons, got %+v", nav)
	}
	if nav[0].CallbackData != "cal:2030-06" || nav[1].CallbackData != "cal:2030-08" {
		t.Errorf("Unexpected nav callbacks: %q, %q", nav[0].CallbackData, nav[1].CallbackData)
	}

	// Край горизонта (3 месяца вперед): только назад
	kb = MonthCalendar(2030, time.September, statuses, today, 3, "day", "cal")
	nav = kb.InlineKeyboard[len(kb.InlineKeyboard)-1]
	if len(nav) != 1 || nav[0].CallbackData != "cal:2030-08" {
		t.Errorf("Expected single back nav cal:2030-08, got %+v", nav)
	}
}

func TestTimeSlots(t *testing.T) {
	slots := []string{"09:00", "10:00", "11:00", "12:00", "13:00"}

	kb := TimeSlots("2030-06-20", slots, "time")

	// 5 слотов по 3 в ряд — 2 ряда
	if len(kb.InlineKeyboard) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(kb.InlineKeyboard))
	}
	if len(kb.InlineKeyboard[0]) != 3 || len(kb.InlineKeyboard[1]) != 2 {
		t.Errorf("Unexpected row sizes: %d, %d", len(kb.InlineKeyboard[0]), len(kb.InlineKeyboard[1]))
	}

	first := kb.InlineKeyboard[0][0]
	if first.Text != "09:00" || first.CallbackData != "time:2030-06-20:09:00" {
		t.Errorf("Unexpected first button: %q %q", first.Text, first.CallbackData)
	}
}

func TestMyBookings(t *testing.T) {
	bookings := []*models.Booking{
		{ID: 1, Date: "2030-06-20", Time: "10:00"},
		{ID: 2, Date: "2030-06-21", Time: "11:00"},
	}

	kb := MyBookings(bookings)

	if len(kb.InlineKeyboard) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(kb.InlineKeyboard))
	}

	row := kb.InlineKeyboard[0]
	if len(row) != 2 {
		t.Fatalf("Expected cancel and reschedule buttons, got %d", len(row))
	}
	if row[0].CallbackData != "cancel:1" {
		t.Errorf("Expected cancel:1, got %q", row[0].CallbackData)
	}
	if row[1].CallbackData != "resch:1" {
		t.Errorf("Expected resch:1, got %q", row[1].CallbackData)
	}
}
