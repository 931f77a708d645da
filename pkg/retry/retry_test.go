package retry

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"appointment_bot/pkg/errors"
	"appointment_bot/pkg/logger"
)

var errTransient = stderrors.New("connection reset")
var errFatal = stderrors.New("unauthorized")

func alwaysTransient(err error) bool { return stderrors.Is(err, errTransient) }

func testConfig() Config {
	return Config{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	log := logger.New(logger.LevelFatal)

	// Операция всегда падает с временной ошибкой
	calls := 0
	err := Do(context.Background(), log, testConfig(), alwaysTransient, func(ctx context.Context) error {
		calls++
		return errTransient
	})

	if calls != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", calls)
	}

	if !stderrors.Is(err, errors.ErrFatalTransport) {
		t.Errorf("Expected ErrFatalTransport after exhaustion, got %v", err)
	}

	// Исходная ошибка должна быть доступна через Unwrap
	if !stderrors.Is(err, errTransient) {
		t.Errorf("Expected wrapped transient error, got %v", err)
	}
}

func TestDo_SucceedsOnThirdAttempt(t *testing.T) {
	log := logger.New(logger.LevelFatal)

	// Две неудачи, затем успех
	calls := 0
	err := Do(context.Background(), log, testConfig(), alwaysTransient, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})

	if err != nil {
		t.Errorf("Expected success on third attempt, got %v", err)
	}

	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
}

func TestDo_FatalErrorNotRetried(t *testing.T) {
	log := logger.New(logger.LevelFatal)

	// Неустранимая ошибка возвращается сразу, без повторов
	calls := 0
	err := Do(context.Background(), log, testConfig(), alwaysTransient, func(ctx context.Context) error {
		calls++
		return errFatal
	})

	if calls != 1 {
		t.Errorf("Expected exactly 1 attempt for fatal error, got %d", calls)
	}

	if !stderrors.Is(err, errFatal) {
		t.Errorf("Expected fatal error to propagate, got %v", err)
	}

	if stderrors.Is(err, errors.ErrFatalTransport) {
		t.Errorf("Fatal error must not be wrapped as retry exhaustion")
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	log := logger.New(logger.LevelFatal)

	ctx, cancel := context.WithCancel(context.Background())

	cfg := Config{
		MaxAttempts:   5,
		InitialDelay:  time.Hour, // задержка заведомо дольше теста
		BackoffFactor: 2.0,
	}

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, log, cfg, alwaysTransient, func(ctx context.Context) error {
			calls++
			return errTransient
		})
	}()

	cancel()

	select {
	case err := <-done:
		if !stderrors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after context cancellation")
	}

	if calls != 1 {
		t.Errorf("Expected 1 attempt before cancellation, got %d", calls)
	}
}

func TestDo_ZeroAttemptsNormalized(t *testing.T) {
	log := logger.New(logger.LevelFatal)

	calls := 0
	cfg := Config{MaxAttempts: 0, InitialDelay: time.Millisecond, BackoffFactor: 2.0}
	Do(context.Background(), log, cfg, alwaysTransient, func(ctx context.Context) error {
		calls++
		return errTransient
	})

	if calls != 1 {
		t.Errorf("Expected MaxAttempts=0 to normalize to 1 attempt, got %d", calls)
	}
}
