package bot

import (
	"context"
	"strings"

	"appointment_bot/internal/bot/handlers"
	"appointment_bot/internal/middleware"
	"appointment_bot/pkg/logger"

	tgmodels "github.com/go-telegram/bot/models"
)

// Dispatcher маршрутизирует входящие обновления от Telegram.
// Перед каждым обработчиком стоит ограничитель частоты: отклоненные
// запросы не доходят до движка бронирования
type Dispatcher struct {
	limiter *middleware.RateLimiter
	log     *logger.Logger

	startHandler    *handlers.StartHandler
	menuHandler     *handlers.MenuHandler
	adminHandler    *handlers.AdminHandler
	callbackHandler *handlers.CallbackHandler
	defaultHandler  *handlers.DefaultHandler
}

// NewDispatcher создает диспетчер обновлений
func NewDispatcher(deps *handlers.Deps, limiter *middleware.RateLimiter, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		limiter:         limiter,
		log:             log,
		startHandler:    handlers.NewStartHandler(deps),
		menuHandler:     handlers.NewMenuHandler(deps),
		adminHandler:    handlers.NewAdminHandler(deps),
		callbackHandler: handlers.NewCallbackHandler(deps),
		defaultHandler:  handlers.NewDefaultHandler(deps),
	}
}

// HandleUpdate обрабатывает входящее обновление
func (d *Dispatcher) HandleUpdate(ctx context.Context, update *tgmodels.Update) {
	if update.CallbackQuery != nil {
		d.handleCallback(ctx, update)
		return
	}

	if update.Message != nil {
		d.handleMessage(ctx, update)
		return
	}

	d.log.Debug("Ignoring unsupported update type")
}

func (d *Dispatcher) handleCallback(ctx context.Context, update *tgmodels.Update) {
	cb := update.CallbackQuery

	if cb.Message.Message == nil {
		d.log.Debug("Callback query without accessible message")
		return
	}

	if !d.limiter.Admit(cb.From.ID, middleware.ClassCallback) {
		// Тихая деградация: кнопка просто не срабатывает
		return
	}

	d.log.Debug("Callback query received",
		logger.Int64("user_id", cb.From.ID),
		logger.String("data", cb.Data),
	)

	d.callbackHandler.Handle(ctx, update)
}

func (d *Dispatcher) handleMessage(ctx context.Context, update *tgmodels.Update) {
	msg := update.Message

	if msg.From == nil || msg.Text == "" {
		return
	}

	if !d.limiter.Admit(msg.From.ID, middleware.ClassMessage) {
		return
	}

	d.log.Debug("Message received",
		logger.Int64("user_id", msg.From.ID),
		logger.String("text", msg.Text),
	)

	if strings.HasPrefix(msg.Text, "/start") {
		d.startHandler.Handle(ctx, update)
		return
	}

	if d.adminHandler.Handle(ctx, update) {
		return
	}

	if d.menuHandler.Handle(ctx, update) {
		return
	}

	d.defaultHandler.Handle(ctx, update)
}
