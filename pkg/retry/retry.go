package retry

import (
	"context"
	"time"

	"appointment_bot/pkg/errors"
	"appointment_bot/pkg/logger"
	"appointment_bot/pkg/metrics"
)

// Classifier определяет, стоит ли повторять операцию после ошибки.
// true — ошибка временная, повтор имеет смысл
type Classifier func(err error) bool

// Config задает бюджет повторных попыток
type Config struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	BackoffFactor float64
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		InitialDelay:  time.Second,
		BackoffFactor: 2.0,
	}
}

// Do выполняет операцию с повторными попытками и экспоненциальной задержкой.
// Повторяются только временные ошибки по решению classify; неустранимые
// ошибки возвращаются сразу. После исчерпания бюджета последняя ошибка
// оборачивается в ErrFatalTransport и логируется на уровне Error —
// исчерпание не должно проходить незамеченным для оператора
func Do(ctx context.Context, log *logger.Logger, cfg Config, classify Classifier, op func(ctx context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if !classify(lastErr) {
			// Неустранимая ошибка — повторять бессмысленно
			return lastErr
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		metrics.RecordTransportRetry()
		log.Warn("Transient error, retrying",
			logger.Int("attempt", attempt),
			logger.Int("max_attempts", cfg.MaxAttempts),
			logger.Duration("delay", delay),
			logger.Error(lastErr),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
	}

	log.Error("Retry budget exhausted",
		logger.Int("attempts", cfg.MaxAttempts),
		logger.Error(lastErr),
	)

	return errors.ErrFatalTransport.WithError(lastErr)
}
