package models

import "time"

// Booking представляет запись пользователя на слот.
// Инвариант: на пару (date, time) существует не более одной записи,
// обеспечивается UNIQUE индексом и проверкой внутри транзакции
type Booking struct {
	ID        int64     `json:"id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Time      string    `json:"time"` // HH:MM
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// BlockedSlot представляет слот, закрытый администратором.
// Считается занятым наравне с записью, но не принадлежит пользователю
// и не учитывается в его лимите
type BlockedSlot struct {
	ID        int64     `json:"id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Reason    string    `json:"reason"`
	BlockedBy int64     `json:"blocked_by"`
	BlockedAt time.Time `json:"blocked_at"`
}

// AuditEvent представляет запись в журнале действий
type AuditEvent struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Event     string    `json:"event"`
	Data      string    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// События журнала
const (
	EventBookingCreated     = "booking_created"
	EventBookingCancelled   = "booking_cancelled"
	EventBookingRescheduled = "booking_rescheduled"
	EventSlotBlocked        = "slot_blocked"
	EventSlotUnblocked      = "slot_unblocked"
	EventReminderSent       = "reminder_sent"
)

// DayStatus описывает загрузку дня
type DayStatus string

const (
	StatusFree    DayStatus = "free"    // ни одного занятого слота
	StatusPartial DayStatus = "partial" // заняты не все слоты
	StatusFull    DayStatus = "full"    // заняты все слоты
)
