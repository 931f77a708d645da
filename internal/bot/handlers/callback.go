package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"appointment_bot/internal/bot/keyboard"
	botservice "appointment_bot/internal/bot/service"
	"appointment_bot/internal/validation"
	boterrors "appointment_bot/pkg/errors"
	"appointment_bot/pkg/logger"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

// CallbackHandler обрабатывает callback query от inline кнопок.
// Формат callback data: "префикс:аргументы", префикс определяет шаг
// сценария бронирования, отмены или переноса
type CallbackHandler struct {
	deps *Deps
}

// NewCallbackHandler создает обработчик callback query
func NewCallbackHandler(deps *Deps) *CallbackHandler {
	return &CallbackHandler{deps: deps}
}

// Handle разбирает callback data и выполняет шаг сценария
func (h *CallbackHandler) Handle(ctx context.Context, update *tgmodels.Update) {
	cb := update.CallbackQuery
	data := cb.Data

	prefix := data
	rest := ""
	if idx := strings.Index(data, ":"); idx >= 0 {
		prefix = data[:idx]
		rest = data[idx+1:]
	}

	chatID := cb.Message.Message.Chat.ID
	messageID := cb.Message.Message.ID
	userID := cb.From.ID

	switch prefix {
	case keyboard.NoopCallback:
		h.deps.Service.AnswerCallback(ctx, cb.ID, "", false)

	case "cal":
		h.handleCalendarNav(ctx, cb, chatID, messageID, rest, "day", "cal")

	case "day":
		h.deps.Service.AnswerCallback(ctx, cb.ID, "", false)
		h.deps.sendTimeSlots(ctx, chatID, rest, "time", messageID)

	case "time":
		h.handleBook(ctx, cb, chatID, messageID, userID, rest)

	case "cancel":
		h.handleCancelConfirm(ctx, cb, chatID, messageID, rest)

	case "cancelok":
		h.handleCancel(ctx, cb, chatID, messageID, userID, rest)

	case "cancelno":
		h.deps.Service.AnswerCallback(ctx, cb.ID, "", false)
		h.deps.Service.EditMessageText(ctx, &tgbot.EditMessageTextParams{
			ChatID:    chatID,
			MessageID: messageID,
			Text:      "Запись сохранена.",
		})

	case "resch":
		h.handleRescheduleStart(ctx, cb, chatID, messageID, rest)

	case "rcal":
		bookingID, monthArg, ok := splitIDArg(rest)
		if !ok {
			h.deps.Service.AnswerCallback(ctx, cb.ID, "", false)
			return
		}
		h.handleCalendarNav(ctx, cb, chatID, messageID, monthArg,
			"rday:"+bookingID, "rcal:"+bookingID)

	case "rday":
		bookingID, date, ok := splitIDArg(rest)
		if !ok {
			h.deps.Service.AnswerCallback(ctx, cb.ID, "", false)
			return
		}
		h.deps.Service.AnswerCallback(ctx, cb.ID, "", false)
		h.deps.sendTimeSlots(ctx, chatID, date, "rtime:"+bookingID, messageID)

	case "rtime":
		h.handleReschedule(ctx, cb, chatID, messageID, userID, rest)

	default:
		h.deps.Log.Warn("Unknown callback data", logger.String("data", data))
		h.deps.Service.AnswerCallback(ctx, cb.ID, "", false)
	}
}

// splitIDArg разбирает "ID:остаток" из callback data
func splitIDArg(rest string) (id, arg string, ok bool) {
	idx := strings.Index(rest, ":")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", false
	}
	return rest[:idx], rest[idx+1:], true
}

// handleCalendarNav перерисовывает календарь на другой месяц
func (h *CallbackHandler) handleCalendarNav(
	ctx context.Context,
	cb *tgmodels.CallbackQuery,
	chatID int64,
	messageID int,
	monthArg, dayPrefix, navPrefix string,
) {
	month, err := time.ParseInLocation("2006-01", monthArg, h.deps.Clock.Location())
	if err != nil {
		h.deps.Log.Warn("Invalid calendar month in callback", logger.String("month", monthArg))
		h.deps.Service.AnswerCallback(ctx, cb.ID, "", false)
		return
	}

	h.deps.Service.AnswerCallback(ctx, cb.ID, "", false)
	h.deps.sendCalendar(ctx, chatID, month.Year(), month.Month(), dayPrefix, navPrefix, messageID)
}

// handleBook создает запись на выбранный слот
func (h *CallbackHandler) handleBook(
	ctx context.Context,
	cb *tgmodels.CallbackQuery,
	chatID int64,
	messageID int,
	userID int64,
	rest string,
) {
	date, timeOfDay, ok := splitDateTime(rest)
	if !ok {
		h.deps.Service.AnswerCallback(ctx, cb.ID, "", false)
		return
	}

	booking, err := h.deps.Engine.CreateBooking(ctx, date, timeOfDay, userID, username(&cb.From))
	if err != nil {
		h.deps.Service.AnswerCallback(ctx, cb.ID, botservice.ReasonText(err), true)

		// Слот перехвачен — показываем актуальные свободные времена
		if boterrors.ReasonCode(err) == boterrors.ReasonSlotTaken {
			h.deps.sendTimeSlots(ctx, chatID, date, "time", messageID)
		}
		return
	}

	h.deps.Service.AnswerCallback(ctx, cb.ID, "✅ Запись создана!", false)
	h.deps.Service.EditMessageText(ctx, &tgbot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text: fmt.Sprintf("✅ Вы записаны!\n\n📅 Дата: %s\n🕐 Время: %s\n\nЗа день и за час до приема придет напоминание.",
			booking.Date, booking.Time),
	})

	h.deps.Service.NotifyAdmins(ctx, fmt.Sprintf("🆕 Новая запись: %s %s (@%s)",
		booking.Date, booking.Time, booking.Username))
}

// handleCancelConfirm показывает подтверждение отмены
func (h *CallbackHandler) handleCancelConfirm(
	ctx context.Context,
	cb *tgmodels.CallbackQuery,
	chatID int64,
	messageID int,
	idArg string,
) {
	bookingID, err := validation.ValidateBookingID(idArg)
	if err != nil {
		h.deps.Service.AnswerCallback(ctx, cb.ID, "", false)
		return
	}

	h.deps.Service.AnswerCallback(ctx, cb.ID, "", false)
	h.deps.Service.EditMessageText(ctx, &tgbot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        "Отменить эту запись?",
		ReplyMarkup: keyboard.ConfirmCancel(bookingID),
	})
}

// handleCancel отменяет запись после подтверждения
func (h *CallbackHandler) handleCancel(
	ctx context.Context,
	cb *tgmodels.CallbackQuery,
	chatID int64,
	messageID int,
	userID int64,
	idArg string,
) {
	bookingID, err := validation.ValidateBookingID(idArg)
	if err != nil {
		h.deps.Service.AnswerCallback(ctx, cb.ID, "", false)
		return
	}

	booking, err := h.deps.Engine.CancelBooking(ctx, bookingID, userID)
	if err != nil {
		h.deps.Service.AnswerCallback(ctx, cb.ID, botservice.ReasonText(err), true)
		return
	}

	h.deps.Service.AnswerCallback(ctx, cb.ID, "Запись отменена", false)
	h.deps.Service.EditMessageText(ctx, &tgbot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      fmt.Sprintf("❌ Запись на %s %s отменена.", booking.Date, booking.Time),
	})

	h.deps.Service.NotifyAdmins(ctx, fmt.Sprintf("❌ Отмена записи: %s %s (@%s)",
		booking.Date, booking.Time, booking.Username))
}

// handleRescheduleStart показывает календарь для выбора нового слота
func (h *CallbackHandler) handleRescheduleStart(
	ctx context.Context,
	cb *tgmodels.CallbackQuery,
	chatID int64,
	messageID int,
	idArg string,
) {
	if _, err := validation.ValidateBookingID(idArg); err != nil {
		h.deps.Service.AnswerCallback(ctx, cb.ID, "", false)
		return
	}

	now := h.deps.Clock.Now()
	h.deps.Service.AnswerCallback(ctx, cb.ID, "", false)
	h.deps.sendCalendar(ctx, chatID, now.Year(), now.Month(),
		"rday:"+idArg, "rcal:"+idArg, messageID)
}

// handleReschedule переносит запись на выбранный слот
func (h *CallbackHandler) handleReschedule(
	ctx context.Context,
	cb *tgmodels.CallbackQuery,
	chatID int64,
	messageID int,
	userID int64,
	rest string,
) {
	idArg, slotArg, ok := splitIDArg(rest)
	if !ok {
		h.deps.Service.AnswerCallback(ctx, cb.ID, "", false)
		return
	}

	bookingID, err := validation.ValidateBookingID(idArg)
	if err != nil {
		h.deps.Service.AnswerCallback(ctx, cb.ID, "", false)
		return
	}

	date, timeOfDay, ok := splitDateTime(slotArg)
	if !ok {
		h.deps.Service.AnswerCallback(ctx, cb.ID, "", false)
		return
	}

	booking, err := h.deps.Engine.RescheduleBooking(ctx, bookingID, userID, date, timeOfDay)
	if err != nil {
		h.deps.Service.AnswerCallback(ctx, cb.ID, botservice.ReasonText(err), true)

		if boterrors.ReasonCode(err) == boterrors.ReasonSlotTaken {
			h.deps.sendTimeSlots(ctx, chatID, date, "rtime:"+idArg, messageID)
		}
		return
	}

	h.deps.Service.AnswerCallback(ctx, cb.ID, "✅ Запись перенесена!", false)
	h.deps.Service.EditMessageText(ctx, &tgbot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text: fmt.Sprintf("🔄 Запись перенесена!\n\n📅 Новая дата: %s\n🕐 Новое время: %s",
			booking.Date, booking.Time),
	})

	h.deps.Service.NotifyAdmins(ctx, fmt.Sprintf("🔄 Перенос записи: %s %s (@%s)",
		booking.Date, booking.Time, booking.Username))
}

// splitDateTime разбирает "YYYY-MM-DD:HH:MM" из callback data
func splitDateTime(arg string) (date, timeOfDay string, ok bool) {
	idx := strings.Index(arg, ":")
	if idx <= 0 || idx == len(arg)-1 {
		return "", "", false
	}

	date, timeOfDay = arg[:idx], arg[idx+1:]
	if validation.ValidateDate(date) != nil || validation.ValidateTime(timeOfDay) != nil {
		return "", "", false
	}
	return date, timeOfDay, true
}
