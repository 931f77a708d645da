package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"appointment_bot/internal/bot"
	"appointment_bot/internal/config"
	"appointment_bot/pkg/logger"

	tgmodels "github.com/go-telegram/bot/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server — HTTP сервер: принимает webhook от Telegram,
// отдает health check и метрики Prometheus
type Server struct {
	httpServer    *http.Server
	cfg           *config.Config
	log           *logger.Logger
	dispatcher    *bot.Dispatcher
	healthChecker *HealthChecker
}

// New создает HTTP сервер
func New(cfg *config.Config, log *logger.Logger, dispatcher *bot.Dispatcher, health *HealthChecker) *Server {
	s := &Server{
		cfg:           cfg,
		log:           log,
		dispatcher:    dispatcher,
		healthChecker: health,
	}

	s.httpServer = &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        s.routes(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	return s
}

// routes настраивает маршруты и middleware
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.healthChecker.HealthHandler)
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.Handle("/metrics", promhttp.Handler())

	h := http.Handler(mux)
	h = metricsMiddleware(h)
	h = s.loggingMiddleware(h)
	h = requestIDMiddleware(h)

	return h
}

// handleWebhook принимает обновление от Telegram.
// Всегда отвечаем 200 на валидный JSON: Telegram повторяет доставку
// при любом другом статусе, а повторная обработка нам не нужна
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var update tgmodels.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.log.Warn("Failed to decode webhook update",
			logger.String("request_id", requestIDFromContext(r.Context())),
			logger.Error(err),
		)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	s.dispatcher.HandleUpdate(ctx, &update)

	w.WriteHeader(http.StatusOK)
}

// Start запускает сервер и блокируется до отмены контекста
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("Starting HTTP server", logger.String("addr", s.httpServer.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server failed: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown корректно завершает работу сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Error during server shutdown", logger.Error(err))
		return err
	}

	return nil
}
