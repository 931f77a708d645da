package service

import (
	"context"
	stderrors "errors"
	"net"
	"strings"

	"appointment_bot/internal/config"
	"appointment_bot/internal/storage/models"
	boterrors "appointment_bot/pkg/errors"
	"appointment_bot/pkg/logger"
	"appointment_bot/pkg/metrics"
	"appointment_bot/pkg/retry"

	tgbot "github.com/go-telegram/bot"
)

// Тексты отказов по кодам причин
var reasonTexts = map[string]string{
	boterrors.ReasonSlotTaken:     "⚠️ Это время уже занято. Выберите другое.",
	boterrors.ReasonQuotaExceeded: "⚠️ У вас уже максимум активных записей. Отмените одну, чтобы создать новую.",
	boterrors.ReasonPastDate:      "⚠️ Эта дата уже прошла.",
	boterrors.ReasonPastTime:      "⚠️ Это время уже прошло.",
	boterrors.ReasonNotFound:      "⚠️ Запись не найдена. Возможно, она уже отменена.",
}

// Service — транспортный слой поверх Telegram Bot API.
// Все исходящие вызовы оборачиваются в retry с экспоненциальной
// задержкой, повторяются только временные сбои сети и API
type Service struct {
	bot      *tgbot.Bot
	cfg      *config.Config
	retryCfg retry.Config
	log      *logger.Logger
}

// NewService создает транспортный сервис
func NewService(b *tgbot.Bot, cfg *config.Config, log *logger.Logger) *Service {
	return &Service{
		bot: b,
		cfg: cfg,
		retryCfg: retry.Config{
			MaxAttempts:   cfg.Retry.MaxAttempts,
			InitialDelay:  cfg.Retry.InitialDelay,
			BackoffFactor: cfg.Retry.BackoffFactor,
		},
		log: log,
	}
}

// isTransient классифицирует ошибку отправки.
// Временные: сетевые сбои, таймауты, rate limit Telegram.
// Остальные (невалидный chat_id, бот заблокирован) повторять бессмысленно
func isTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "Too Many Requests"),
		strings.Contains(msg, "retry after"),
		strings.Contains(msg, "Bad Gateway"),
		strings.Contains(msg, "Gateway Timeout"),
		strings.Contains(msg, "Internal Server Error"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "timeout"):
		return true
	}

	return false
}

// SendMessage отправляет сообщение с повторами при временных сбоях
func (s *Service) SendMessage(ctx context.Context, params *tgbot.SendMessageParams) error {
	err := retry.Do(ctx, s.log, s.retryCfg, isTransient, func(ctx context.Context) error {
		_, err := s.bot.SendMessage(ctx, params)
		return err
	})
	if err != nil {
		metrics.RecordTransportFailure("send")
		s.log.Error("Failed to send message",
			logger.Any("chat_id", params.ChatID),
			logger.Error(err),
		)
		return err
	}
	return nil
}

// SendText отправляет простое текстовое сообщение
func (s *Service) SendText(ctx context.Context, chatID int64, text string) error {
	return s.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
}

// EditMessageText редактирует текст и клавиатуру сообщения
func (s *Service) EditMessageText(ctx context.Context, params *tgbot.EditMessageTextParams) error {
	err := retry.Do(ctx, s.log, s.retryCfg, isTransient, func(ctx context.Context) error {
		_, err := s.bot.EditMessageText(ctx, params)
		return err
	})
	if err != nil {
		// Telegram отвечает ошибкой, если содержимое не изменилось —
		// для навигации по календарю это не сбой
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		metrics.RecordTransportFailure("edit")
		s.log.Error("Failed to edit message",
			logger.Any("chat_id", params.ChatID),
			logger.Error(err),
		)
		return err
	}
	return nil
}

// AnswerCallback подтверждает callback query, опционально с текстом
func (s *Service) AnswerCallback(ctx context.Context, callbackID, text string, showAlert bool) {
	_, err := s.bot.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       showAlert,
	})
	if err != nil {
		s.log.Debug("Failed to answer callback query", logger.Error(err))
	}
}

// ReasonText возвращает текст отказа для пользователя по ошибке движка.
// Неожиданные ошибки получают общий текст
func ReasonText(err error) string {
	if text, ok := reasonTexts[boterrors.ReasonCode(err)]; ok {
		return text
	}
	return "⚠️ Произошла ошибка. Попробуйте позже."
}

// NotifyAdmins отправляет уведомление всем администраторам.
// Best-effort: сбой отправки одному не прерывает остальных
func (s *Service) NotifyAdmins(ctx context.Context, text string) {
	for _, adminID := range s.cfg.Telegram.AdminIDs {
		if err := s.SendText(ctx, adminID, text); err != nil {
			s.log.Warn("Failed to notify admin",
				logger.Int64("admin_id", adminID),
				logger.Error(err),
			)
		}
	}
}

// SendBookingReminder отправляет пользователю напоминание о записи
func (s *Service) SendBookingReminder(ctx context.Context, booking *models.Booking) error {
	text := "🔔 Напоминание о записи!\n\n" +
		"📅 Дата: " + booking.Date + "\n" +
		"🕐 Время: " + booking.Time + "\n\n" +
		"Ждем вас!"

	err := s.SendText(ctx, booking.UserID, text)
	if err != nil {
		metrics.RecordTransportFailure("reminder")
		return err
	}
	return nil
}

// SetWebhook регистрирует webhook в Telegram
func (s *Service) SetWebhook(ctx context.Context, url string) error {
	return retry.Do(ctx, s.log, s.retryCfg, isTransient, func(ctx context.Context) error {
		_, err := s.bot.SetWebhook(ctx, &tgbot.SetWebhookParams{URL: url})
		return err
	})
}

// DeleteWebhook снимает webhook
func (s *Service) DeleteWebhook(ctx context.Context) error {
	_, err := s.bot.DeleteWebhook(ctx, &tgbot.DeleteWebhookParams{DropPendingUpdates: false})
	return err
}
