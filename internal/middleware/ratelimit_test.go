package middleware

import (
	"testing"
	"time"

	"appointment_bot/internal/clock"
	"appointment_bot/internal/config"
	"appointment_bot/pkg/logger"
)

func newTestLimiter(t *testing.T) (*RateLimiter, *clock.Fixed) {
	t.Helper()

	clk := clock.NewFixed(time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC))
	cfg := config.LimitsConfig{
		MessageWindow:  time.Second,
		CallbackWindow: 500 * time.Millisecond,
	}

	rl := NewRateLimiter(cfg, clk, logger.New(logger.LevelError))
	t.Cleanup(rl.Close)

	return rl, clk
}

func TestAdmit_WithinWindowThrottled(t *testing.T) {
	rl, clk := newTestLimiter(t)

	if !rl.Admit(100, ClassMessage) {
		t.Fatal("First request must be admitted")
	}

	clk.Set(clk.Now().Add(200 * time.Millisecond))
	if rl.Admit(100, ClassMessage) {
		t.Error("Request within window must be throttled")
	}
}

func TestAdmit_AfterWindowAllowed(t *testing.T) {
	rl, clk := newTestLimiter(t)

	if !rl.Admit(100, ClassMessage) {
		t.Fatal("First request must be admitted")
	}

	clk.Set(clk.Now().Add(1100 * time.Millisecond))
	if !rl.Admit(100, ClassMessage) {
		t.Error("Request after window must be admitted")
	}
}

func TestAdmit_ThrottledDoesNotResetWindow(t *testing.T) {
	rl, clk := newTestLimiter(t)

	start := clk.Now()
	if !rl.Admit(100, ClassMessage) {
		t.Fatal("First request must be admitted")
	}

	// Отклоненные запросы не сдвигают окно: через 0.6s и 0.9s
	// после допуска — throttled, через 1.1s после допуска — allowed
	clk.Set(start.Add(600 * time.Millisecond))
	if rl.Admit(100, ClassMessage) {
		t.Error("Request at 0.6s must be throttled")
	}

	clk.Set(start.Add(900 * time.Millisecond))
	if rl.Admit(100, ClassMessage) {
		t.Error("Request at 0.9s must be throttled")
	}

	clk.Set(start.Add(1100 * time.Millisecond))
	if !rl.Admit(100, ClassMessage) {
		t.Error("Request at 1.1s after admission must be allowed")
	}
}

func TestAdmit_ClassesIndependent(t *testing.T) {
	rl, clk := newTestLimiter(t)

	if !rl.Admit(100, ClassMessage) {
		t.Fatal("Message must be admitted")
	}
	if !rl.Admit(100, ClassCallback) {
		t.Error("Callback window is independent from message window")
	}

	// Окно callback 500ms: через 600ms callback проходит, сообщение нет
	clk.Set(clk.Now().Add(600 * time.Millisecond))
	if !rl.Admit(100, ClassCallback) {
		t.Error("Callback after its window must be admitted")
	}
	if rl.Admit(100, ClassMessage) {
		t.Error("Message within its window must be throttled")
	}
}

func TestAdmit_UsersIndependent(t *testing.T) {
	rl, _ := newTestLimiter(t)

	if !rl.Admit(100, ClassMessage) {
		t.Fatal("First user must be admitted")
	}
	if !rl.Admit(200, ClassMessage) {
		t.Error("Second user must not be affected by first user's window")
	}
}

func TestAdmit_ZeroWindowDisablesLimit(t *testing.T) {
	clk := clock.NewFixed(time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC))
	rl := NewRateLimiter(config.LimitsConfig{}, clk, logger.New(logger.LevelError))
	defer rl.Close()

	for i := 0; i < 5; i++ {
		if !rl.Admit(100, ClassMessage) {
			t.Fatal("Zero window must admit every request")
		}
	}
}

func TestCleanup_EvictsIdleEntries(t *testing.T) {
	rl, clk := newTestLimiter(t)

	rl.Admit(100, ClassMessage)
	rl.Admit(200, ClassMessage)
	if rl.Size() != 2 {
		t.Fatalf("Expected 2 tracked entries, got %d", rl.Size())
	}

	// Пользователь 100 неактивен дольше максимального окна
	clk.Set(clk.Now().Add(2 * time.Second))
	rl.Admit(200, ClassMessage)

	rl.Evict()
	if rl.Size() != 1 {
		t.Errorf("Expected 1 entry after eviction, got %d", rl.Size())
	}
}
