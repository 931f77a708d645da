package booking

import (
	"fmt"

	"appointment_bot/internal/config"
)

// DaySlots перечисляет слоты рабочего дня.
// Слоты не хранятся в базе — это чистая функция от рабочих часов
// и длительности слота, поэтому конфигурация и данные не расходятся
func DaySlots(cfg config.BookingConfig) []string {
	startMins := cfg.WorkHoursStart * 60
	endMins := cfg.WorkHoursEnd * 60

	var slots []string
	for m := startMins; m+cfg.SlotDurationMins <= endMins; m += cfg.SlotDurationMins {
		slots = append(slots, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return slots
}
