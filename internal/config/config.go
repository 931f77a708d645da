package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Booking  BookingConfig  `json:"booking"`
	Limits   LimitsConfig   `json:"limits"`
	Retry    RetryConfig    `json:"retry"`
}

// TelegramConfig содержит настройки Telegram бота
type TelegramConfig struct {
	Token      string  `json:"token"`
	WebhookURL string  `json:"webhook_url"`
	AdminIDs   []int64 `json:"admin_ids"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string        `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig содержит настройки базы данных
type DatabaseConfig struct {
	Path string `json:"path"`
}

// BookingConfig содержит настройки бронирования
type BookingConfig struct {
	WorkHoursStart   int    `json:"work_hours_start"`
	WorkHoursEnd     int    `json:"work_hours_end"`
	SlotDurationMins int    `json:"slot_duration_mins"`
	MaxPerUser       int    `json:"max_per_user"`
	Timezone         string `json:"timezone"`
	CleanupAfterDays int    `json:"cleanup_after_days"`
	MaxMonthsAhead   int    `json:"max_months_ahead"`
}

// LimitsConfig содержит окна ограничителя частоты запросов
// по классам: обычные сообщения и callback от inline кнопок
type LimitsConfig struct {
	MessageWindow  time.Duration `json:"message_window"`
	CallbackWindow time.Duration `json:"callback_window"`
}

// RetryConfig содержит бюджет повторных попыток для транспорта
type RetryConfig struct {
	MaxAttempts   int           `json:"max_attempts"`
	InitialDelay  time.Duration `json:"initial_delay"`
	BackoffFactor float64       `json:"backoff_factor"`
}

// Load загружает конфигурацию из переменных окружения.
// Файл .env подхватывается, если существует
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Telegram: TelegramConfig{
			Token:      os.Getenv("BOT_TOKEN"),
			WebhookURL: os.Getenv("WEBHOOK_URL"),
			AdminIDs:   parseAdminIDs(os.Getenv("ADMIN_IDS")),
		},
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_FILE", "bookings.db"),
		},
		Booking: BookingConfig{
			WorkHoursStart:   getEnvAsInt("WORK_HOURS_START", 9),
			WorkHoursEnd:     getEnvAsInt("WORK_HOURS_END", 19),
			SlotDurationMins: getEnvAsInt("SLOT_DURATION", 60),
			MaxPerUser:       getEnvAsInt("MAX_BOOKINGS_PER_USER", 3),
			Timezone:         getEnv("TIMEZONE", "Europe/Moscow"),
			CleanupAfterDays: getEnvAsInt("CLEANUP_AFTER_DAYS", 30),
			MaxMonthsAhead:   getEnvAsInt("CALENDAR_MAX_MONTHS_AHEAD", 3),
		},
		Limits: LimitsConfig{
			MessageWindow:  getEnvAsDuration("RATE_LIMIT_MESSAGE", time.Second),
			CallbackWindow: getEnvAsDuration("RATE_LIMIT_CALLBACK", 500*time.Millisecond),
		},
		Retry: RetryConfig{
			MaxAttempts:   getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			InitialDelay:  getEnvAsDuration("RETRY_INITIAL_DELAY", time.Second),
			BackoffFactor: getEnvAsFloat("RETRY_BACKOFF_FACTOR", 2.0),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.Telegram.WebhookURL == "" {
		return fmt.Errorf("WEBHOOK_URL is required")
	}
	if len(c.Telegram.AdminIDs) == 0 {
		return fmt.Errorf("ADMIN_IDS is required")
	}

	if c.Booking.WorkHoursStart < 0 || c.Booking.WorkHoursStart > 23 {
		return fmt.Errorf("WORK_HOURS_START must be within 0..23")
	}
	if c.Booking.WorkHoursEnd <= c.Booking.WorkHoursStart || c.Booking.WorkHoursEnd > 24 {
		return fmt.Errorf("WORK_HOURS_END must be greater than WORK_HOURS_START and at most 24")
	}
	if c.Booking.SlotDurationMins <= 0 {
		return fmt.Errorf("SLOT_DURATION must be positive")
	}
	if c.Booking.MaxPerUser <= 0 {
		return fmt.Errorf("MAX_BOOKINGS_PER_USER must be positive")
	}
	if c.Booking.MaxMonthsAhead <= 0 {
		return fmt.Errorf("CALENDAR_MAX_MONTHS_AHEAD must be positive")
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Booking.Timezone, err)
	}

	if c.Limits.MessageWindow < 0 || c.Limits.CallbackWindow < 0 {
		return fmt.Errorf("rate limit windows must be non-negative")
	}

	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be positive")
	}
	if c.Retry.BackoffFactor < 1.0 {
		return fmt.Errorf("RETRY_BACKOFF_FACTOR must be at least 1.0")
	}

	return nil
}

// IsAdmin проверяет права администратора
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Telegram.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// TotalSlotsPerDay возвращает количество слотов в рабочем дне
func (c *BookingConfig) TotalSlotsPerDay() int {
	workMins := (c.WorkHoursEnd - c.WorkHoursStart) * 60
	return workMins / c.SlotDurationMins
}

// parseAdminIDs разбирает список ID администраторов через запятую
func parseAdminIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// getEnv получает переменную окружения или возвращает значение по умолчанию
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvAsInt получает переменную окружения как число
func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvAsFloat получает переменную окружения как float64
func getEnvAsFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvAsDuration получает переменную окружения как duration
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
