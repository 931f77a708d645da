package handlers

import (
	"context"
	"fmt"
	"time"

	"appointment_bot/internal/booking"
	"appointment_bot/internal/bot/keyboard"
	botservice "appointment_bot/internal/bot/service"
	"appointment_bot/internal/clock"
	"appointment_bot/internal/config"
	"appointment_bot/pkg/logger"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

// Deps — общие зависимости обработчиков
type Deps struct {
	Service      *botservice.Service
	Engine       *booking.Engine
	Availability *booking.Availability
	Cfg          *config.Config
	Clock        clock.Clock
	Log          *logger.Logger
}

// sendCalendar отправляет календарь месяца со статусами дней.
// editMessageID > 0 — редактируем существующее сообщение (навигация)
func (d *Deps) sendCalendar(
	ctx context.Context,
	chatID int64,
	year int,
	month time.Month,
	dayPrefix, navPrefix string,
	editMessageID int,
) {
	statuses, err := d.Availability.MonthStatuses(ctx, year, month)
	if err != nil {
		d.Log.Error("Failed to get month statuses", logger.Error(err))
		d.Service.SendText(ctx, chatID, botservice.ReasonText(err))
		return
	}

	kb := keyboard.MonthCalendar(year, month, statuses, d.Clock.Now(), d.Cfg.Booking.MaxMonthsAhead, dayPrefix, navPrefix)
	text := "Выберите дату:\n🟢 — свободно, 🟡 — частично занято, 🔴 — занято"

	if editMessageID > 0 {
		d.Service.EditMessageText(ctx, &tgbot.EditMessageTextParams{
			ChatID:      chatID,
			MessageID:   editMessageID,
			Text:        text,
			ReplyMarkup: kb,
		})
		return
	}

	d.Service.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: kb,
	})
}

// sendTimeSlots отправляет свободные слоты на дату
func (d *Deps) sendTimeSlots(ctx context.Context, chatID int64, date, slotPrefix string, editMessageID int) {
	slots, err := d.Availability.AvailableSlots(ctx, date)
	if err != nil {
		d.Log.Error("Failed to get available slots", logger.String("date", date), logger.Error(err))
		d.Service.SendText(ctx, chatID, botservice.ReasonText(err))
		return
	}

	if len(slots) == 0 {
		text := fmt.Sprintf("На %s нет свободных слотов. Выберите другую дату.", date)
		if editMessageID > 0 {
			d.Service.EditMessageText(ctx, &tgbot.EditMessageTextParams{
				ChatID:    chatID,
				MessageID: editMessageID,
				Text:      text,
			})
		} else {
			d.Service.SendText(ctx, chatID, text)
		}
		return
	}

	kb := keyboard.TimeSlots(date, slots, slotPrefix)
	text := fmt.Sprintf("Свободное время на %s:", date)

	if editMessageID > 0 {
		d.Service.EditMessageText(ctx, &tgbot.EditMessageTextParams{
			ChatID:      chatID,
			MessageID:   editMessageID,
			Text:        text,
			ReplyMarkup: kb,
		})
		return
	}

	d.Service.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: kb,
	})
}

// sendUserBookings отправляет список активных записей пользователя
func (d *Deps) sendUserBookings(ctx context.Context, chatID, userID int64) {
	bookings, err := d.Engine.ListUserBookings(ctx, userID)
	if err != nil {
		d.Log.Error("Failed to list user bookings", logger.Int64("user_id", userID), logger.Error(err))
		d.Service.SendText(ctx, chatID, botservice.ReasonText(err))
		return
	}

	if len(bookings) == 0 {
		d.Service.SendText(ctx, chatID, "У вас нет активных записей.")
		return
	}

	text := "📋 Ваши записи:\n"
	for _, b := range bookings {
		text += fmt.Sprintf("\n📅 %s в %s", b.Date, b.Time)
	}
	text += "\n\nНажмите ❌, чтобы отменить, или 🔄, чтобы перенести."

	d.Service.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: keyboard.MyBookings(bookings),
	})
}

// username извлекает username или имя отправителя
func username(from *tgmodels.User) string {
	if from == nil {
		return ""
	}
	if from.Username != "" {
		return from.Username
	}
	return from.FirstName
}

