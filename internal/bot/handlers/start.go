package handlers

import (
	"context"

	"appointment_bot/internal/bot/keyboard"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

// StartHandler обрабатывает команду /start
type StartHandler struct {
	deps *Deps
}

// NewStartHandler создает обработчик команды /start
func NewStartHandler(deps *Deps) *StartHandler {
	return &StartHandler{deps: deps}
}

// Handle обрабатывает команду /start
func (h *StartHandler) Handle(ctx context.Context, update *tgmodels.Update) {
	chatID := update.Message.Chat.ID

	text := "👋 Здравствуйте! Я бот для записи на прием.\n\n" +
		"📅 Записаться — выбрать дату и время\n" +
		"📋 Мои записи — посмотреть, отменить или перенести запись"

	if h.deps.Cfg.IsAdmin(chatID) {
		text += "\n\nКоманды администратора:\n" +
			"/schedule — расписание на неделю\n" +
			"/block YYYY-MM-DD HH:MM [причина] — закрыть слот\n" +
			"/unblock YYYY-MM-DD HH:MM — открыть слот\n" +
			"/audit — последние события журнала"
	}

	h.deps.Service.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: keyboard.MainMenu(),
	})
}
