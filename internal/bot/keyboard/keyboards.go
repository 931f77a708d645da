package keyboard

import (
	"fmt"
	"time"

	"appointment_bot/internal/clock"
	"appointment_bot/internal/storage/models"

	tgmodels "github.com/go-telegram/bot/models"
)

// Названия месяцев и дней недели для календаря
var monthNames = []string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

var dayNamesShort = []string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

// Эмодзи статусов дня
var statusEmoji = map[models.DayStatus]string{
	models.StatusFree:    "🟢",
	models.StatusPartial: "🟡",
	models.StatusFull:    "🔴",
}

// NoopCallback — callback неактивных ячеек календаря
const NoopCallback = "noop"

// MainMenu создает основную reply клавиатуру
func MainMenu() *tgmodels.ReplyKeyboardMarkup {
	return &tgmodels.ReplyKeyboardMarkup{
		Keyboard: [][]tgmodels.KeyboardButton{
			{
				{Text: "📅 Записаться"},
				{Text: "📋 Мои записи"},
			},
		},
		ResizeKeyboard: true,
	}
}

// MonthCalendar создает inline календарь месяца со статусами дней.
// dayPrefix и navPrefix позволяют переиспользовать календарь
// для переноса записи (другие callback data)
func MonthCalendar(
	year int,
	month time.Month,
	statuses map[string]models.DayStatus,
	today time.Time,
	maxMonthsAhead int,
	dayPrefix, navPrefix string,
) *tgmodels.InlineKeyboardMarkup {
	var rows [][]tgmodels.InlineKeyboardButton

	// Заголовок с названием месяца
	rows = append(rows, []tgmodels.InlineKeyboardButton{
		{Text: fmt.Sprintf("%s %d", monthNames[month-1], year), CallbackData: NoopCallback},
	})

	// Шапка дней недели
	var header []tgmodels.InlineKeyboardButton
	for _, name := range dayNamesShort {
		header = append(header, tgmodels.InlineKeyboardButton{Text: name, CallbackData: NoopCallback})
	}
	rows = append(rows, header)

	firstDay := time.Date(year, month, 1, 0, 0, 0, 0, today.Location())
	lastDay := firstDay.AddDate(0, 1, -1)
	todayMidnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	// Понедельник = 0
	offset := (int(firstDay.Weekday()) + 6) % 7

	row := make([]tgmodels.InlineKeyboardButton, 0, 7)
	for i := 0; i < offset; i++ {
		row = append(row, tgmodels.InlineKeyboardButton{Text: " ", CallbackData: NoopCallback})
	}

	for d := firstDay; !d.After(lastDay); d = d.AddDate(0, 0, 1) {
		date := d.Format(clock.DateLayout)

		var btn tgmodels.InlineKeyboardButton
		switch {
		case d.Before(todayMidnight):
			btn = tgmodels.InlineKeyboardButton{
				Text:         fmt.Sprintf("⚫%d", d.Day()),
				CallbackData: NoopCallback,
			}
		case statuses[date] == models.StatusFull:
			btn = tgmodels.InlineKeyboardButton{
				Text:         fmt.Sprintf("🔴%d", d.Day()),
				CallbackData: NoopCallback,
			}
		default:
			emoji := statusEmoji[statuses[date]]
			if emoji == "" {
				emoji = statusEmoji[models.StatusFree]
			}
			btn = tgmodels.InlineKeyboardButton{
				Text:         fmt.Sprintf("%s%d", emoji, d.Day()),
				CallbackData: fmt.Sprintf("%s:%s", dayPrefix, date),
			}
		}

		row = append(row, btn)
		if len(row) == 7 {
			rows = append(rows, row)
			row = make([]tgmodels.InlineKeyboardButton, 0, 7)
		}
	}

	if len(row) > 0 {
		for len(row) < 7 {
			row = append(row, tgmodels.InlineKeyboardButton{Text: " ", CallbackData: NoopCallback})
		}
		rows = append(rows, row)
	}

	// Навигация по месяцам в пределах горизонта бронирования
	var nav []tgmodels.InlineKeyboardButton
	currentMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	horizon := currentMonth.AddDate(0, maxMonthsAhead, 0)

	if firstDay.After(currentMonth) {
		prev := firstDay.AddDate(0, -1, 0)
		nav = append(nav, tgmodels.InlineKeyboardButton{
			Text:         "◀️",
			CallbackData: fmt.Sprintf("%s:%s", navPrefix, prev.Format("2006-01")),
		})
	}
	if firstDay.Before(horizon) {
		next := firstDay.AddDate(0, 1, 0)
		nav = append(nav, tgmodels.InlineKeyboardButton{
			Text:         "▶️",
			CallbackData: fmt.Sprintf("%s:%s", navPrefix, next.Format("2006-01")),
		})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	return &tgmodels.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// TimeSlots создает inline клавиатуру свободных слотов дня.
// slotPrefix позволяет переиспользовать клавиатуру для переноса
func TimeSlots(date string, slots []string, slotPrefix string) *tgmodels.InlineKeyboardMarkup {
	var rows [][]tgmodels.InlineKeyboardButton

	row := make([]tgmodels.InlineKeyboardButton, 0, 3)
	for _, slot := range slots {
		row = append(row, tgmodels.InlineKeyboardButton{
			Text:         slot,
			CallbackData: fmt.Sprintf("%s:%s:%s", slotPrefix, date, slot),
		})
		if len(row) == 3 {
			rows = append(rows, row)
			row = make([]tgmodels.InlineKeyboardButton, 0, 3)
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return &tgmodels.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// MyBookings создает клавиатуру списка записей пользователя:
// по строке на запись с кнопками отмены и переноса
func MyBookings(bookings []*models.Booking) *tgmodels.InlineKeyboardMarkup {
	var rows [][]tgmodels.InlineKeyboardButton

	for _, b := range bookings {
		rows = append(rows, []tgmodels.InlineKeyboardButton{
			{
				Text:         fmt.Sprintf("❌ %s %s", b.Date, b.Time),
				CallbackData: fmt.Sprintf("cancel:%d", b.ID),
			},
			{
				Text:         "🔄 Перенести",
				CallbackData: fmt.Sprintf("resch:%d", b.ID),
			},
		})
	}

	return &tgmodels.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// ConfirmCancel создает клавиатуру подтверждения отмены записи
func ConfirmCancel(bookingID int64) *tgmodels.InlineKeyboardMarkup {
	return &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
			{
				{Text: "✅ Да, отменить", CallbackData: fmt.Sprintf("cancelok:%d", bookingID)},
				{Text: "↩️ Нет", CallbackData: "cancelno"},
			},
		},
	}
}
