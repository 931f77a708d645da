package middleware

import (
	"fmt"
	"sync"
	"time"

	"appointment_bot/internal/clock"
	"appointment_bot/internal/config"
	"appointment_bot/pkg/logger"
	"appointment_bot/pkg/metrics"
)

// RequestClass различает классы входящих запросов:
// у обычных сообщений и callback от inline кнопок разные окна
type RequestClass string

const (
	ClassMessage  RequestClass = "message"
	ClassCallback RequestClass = "callback"
)

// RateLimiter ограничивает частоту запросов на пользователя.
// Запрос отклоняется, если с момента последнего допущенного прошло
// меньше окна его класса. Отклоненный запрос не сдвигает окно.
// Записи о неактивных пользователях вытесняются фоновой очисткой,
// память ограничена недавно активными пользователями
type RateLimiter struct {
	windows map[RequestClass]time.Duration
	clock   clock.Clock
	logger  *logger.Logger

	mu           sync.Mutex
	lastAdmitted map[string]time.Time

	cleanupInterval time.Duration
	done            chan struct{}
	closeOnce       sync.Once
}

// NewRateLimiter создает ограничитель с окнами из конфигурации
func NewRateLimiter(cfg config.LimitsConfig, clk clock.Clock, log *logger.Logger) *RateLimiter {
	rl := &RateLimiter{
		windows: map[RequestClass]time.Duration{
			ClassMessage:  cfg.MessageWindow,
			ClassCallback: cfg.CallbackWindow,
		},
		clock:           clk,
		logger:          log,
		lastAdmitted:    make(map[string]time.Time),
		cleanupInterval: 5 * time.Minute,
		done:            make(chan struct{}),
	}

	// Запускаем goroutine для вытеснения неактивных записей
	go rl.cleanupRoutine()

	return rl
}

// Admit решает, допускать ли запрос пользователя.
// false — запрос отклонен и не должен дойти до движка бронирования;
// это сигнал для деградации, не ошибка
func (rl *RateLimiter) Admit(userID int64, class RequestClass) bool {
	window, ok := rl.windows[class]
	if !ok || window <= 0 {
		return true
	}

	key := fmt.Sprintf("%s:%d", class, userID)
	now := rl.clock.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if last, exists := rl.lastAdmitted[key]; exists && now.Sub(last) < window {
		metrics.RecordThrottled(string(class))
		rl.logger.Debug("Request throttled",
			logger.Int64("user_id", userID),
			logger.String("class", string(class)),
		)
		return false
	}

	rl.lastAdmitted[key] = now
	return true
}

// cleanupRoutine периодически вытесняет неактивные записи
func (rl *RateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.done:
			return
		}
	}
}

// maxWindow возвращает наибольшее из настроенных окон
func (rl *RateLimiter) maxWindow() time.Duration {
	var max time.Duration
	for _, w := range rl.windows {
		if w > max {
			max = w
		}
	}
	return max
}

// cleanup удаляет записи, неактивные дольше одного окна
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.clock.Now().Add(-rl.maxWindow())
	var cleaned int

	for key, last := range rl.lastAdmitted {
		if last.Before(cutoff) {
			delete(rl.lastAdmitted, key)
			cleaned++
		}
	}

	if cleaned > 0 {
		rl.logger.Debug("Cleaned up rate limiter entries",
			logger.Int("cleaned_count", cleaned),
			logger.Int("remaining_count", len(rl.lastAdmitted)),
		)
	}
}

// Evict принудительно запускает очистку (для тестов и обслуживания)
func (rl *RateLimiter) Evict() {
	rl.cleanup()
}

// Size возвращает количество отслеживаемых записей
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.lastAdmitted)
}

// Close останавливает cleanup routine
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() {
		close(rl.done)
	})
}
