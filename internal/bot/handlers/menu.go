package handlers

import (
	"context"

	tgmodels "github.com/go-telegram/bot/models"
)

// Кнопки основного меню
const (
	MenuBook       = "📅 Записаться"
	MenuMyBookings = "📋 Мои записи"
)

// MenuHandler обрабатывает кнопки основного меню
type MenuHandler struct {
	deps *Deps
}

// NewMenuHandler создает обработчик меню
func NewMenuHandler(deps *Deps) *MenuHandler {
	return &MenuHandler{deps: deps}
}

// Handle обрабатывает нажатие кнопки меню.
// Возвращает false, если текст не является кнопкой меню
func (h *MenuHandler) Handle(ctx context.Context, update *tgmodels.Update) bool {
	chatID := update.Message.Chat.ID

	switch update.Message.Text {
	case MenuBook:
		now := h.deps.Clock.Now()
		h.deps.sendCalendar(ctx, chatID, now.Year(), now.Month(), "day", "cal", 0)
		return true

	case MenuMyBookings:
		h.deps.sendUserBookings(ctx, chatID, update.Message.From.ID)
		return true
	}

	return false
}

// DefaultHandler обрабатывает нераспознанные сообщения
type DefaultHandler struct {
	deps *Deps
}

// NewDefaultHandler создает обработчик по умолчанию
func NewDefaultHandler(deps *Deps) *DefaultHandler {
	return &DefaultHandler{deps: deps}
}

// Handle отвечает подсказкой на нераспознанное сообщение
func (h *DefaultHandler) Handle(ctx context.Context, update *tgmodels.Update) {
	h.deps.Service.SendText(ctx, update.Message.Chat.ID,
		"Не понимаю эту команду. Используйте кнопки меню или /start.")
}
