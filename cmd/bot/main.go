package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"appointment_bot/internal/booking"
	"appointment_bot/internal/bot"
	"appointment_bot/internal/bot/handlers"
	botservice "appointment_bot/internal/bot/service"
	"appointment_bot/internal/clock"
	"appointment_bot/internal/config"
	"appointment_bot/internal/middleware"
	"appointment_bot/internal/scheduler/memory"
	"appointment_bot/internal/server"
	"appointment_bot/internal/storage"
	"appointment_bot/internal/storage/models"
	"appointment_bot/internal/storage/sqlite"
	"appointment_bot/pkg/logger"

	tgbot "github.com/go-telegram/bot"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog := logger.New(logger.LevelInfo)
	appLog.Info("Configuration loaded")

	loc, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		log.Fatalf("Failed to load timezone %q: %v", cfg.Booking.Timezone, err)
	}
	clk := clock.NewSystem(loc)

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			appLog.Error("Error closing storage", logger.Error(err))
		}
	}()
	appLog.Info("Storage initialized", logger.String("path", cfg.Database.Path))

	telegramBot, err := tgbot.New(cfg.Telegram.Token)
	if err != nil {
		log.Fatalf("Failed to create Telegram bot: %v", err)
	}

	svc := botservice.NewService(telegramBot, cfg, appLog)

	sender := &auditedReminderSender{svc: svc, store: store, log: appLog}
	reminderScheduler := memory.NewMemoryScheduler(sender, appLog)
	defer reminderScheduler.Stop()

	engine := booking.NewEngine(store, clk, reminderScheduler, cfg.Booking, appLog)
	availability := booking.NewAvailability(store, clk, cfg.Booking)

	limiter := middleware.NewRateLimiter(cfg.Limits, clk, appLog)
	defer limiter.Close()

	deps := &handlers.Deps{
		Service:      svc,
		Engine:       engine,
		Availability: availability,
		Cfg:          cfg,
		Clock:        clk,
		Log:          appLog,
	}
	dispatcher := bot.NewDispatcher(deps, limiter, appLog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Снимаем старый webhook и регистрируем новый
	if err := svc.DeleteWebhook(ctx); err != nil {
		appLog.Warn("Failed to delete existing webhook", logger.Error(err))
	}
	if err := svc.SetWebhook(ctx, cfg.Telegram.WebhookURL); err != nil {
		log.Fatalf("Failed to set webhook: %v", err)
	}
	appLog.Info("Webhook configured", logger.String("url", cfg.Telegram.WebhookURL))

	// Восстанавливаем напоминания о будущих записях после рестарта
	if restored, err := engine.RestoreReminders(ctx); err != nil {
		appLog.Warn("Failed to restore reminders", logger.Error(err))
	} else {
		appLog.Info("Reminders restored", logger.Int("count", restored))
	}

	// Фоновая очистка старых записей раз в сутки
	go cleanupRoutine(ctx, engine, appLog)

	health := server.NewHealthChecker(store, version)
	srv := server.New(cfg, appLog, dispatcher, health)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		appLog.Info("Shutdown signal received")
		cancel()
	}()

	appLog.Info("Starting appointment bot", logger.String("version", version))
	if err := srv.Start(ctx); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	appLog.Info("Server stopped gracefully")
}

// auditedReminderSender отправляет напоминание и фиксирует отправку
// в журнале действий. Сбой журнала не считается сбоем отправки
type auditedReminderSender struct {
	svc   *botservice.Service
	store storage.Storage
	log   *logger.Logger
}

func (s *auditedReminderSender) SendBookingReminder(ctx context.Context, booking *models.Booking) error {
	if err := s.svc.SendBookingReminder(ctx, booking); err != nil {
		return err
	}

	if err := s.store.LogEvent(ctx, booking.UserID, models.EventReminderSent, booking.Date+" "+booking.Time); err != nil {
		s.log.Warn("Failed to log reminder event",
			logger.Int64("booking_id", booking.ID),
			logger.Error(err),
		)
	}
	return nil
}

// cleanupRoutine раз в сутки удаляет записи старше срока хранения
func cleanupRoutine(ctx context.Context, engine *booking.Engine, appLog *logger.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := engine.CleanupOldBookings(ctx); err != nil {
				appLog.Warn("Cleanup of old bookings failed", logger.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}
