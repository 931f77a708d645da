package booking

import (
	"context"
	"fmt"
	"time"

	"appointment_bot/internal/clock"
	"appointment_bot/internal/config"
	"appointment_bot/internal/storage"
	"appointment_bot/internal/storage/models"
)

// Availability вычисляет занятость слотов: read-путь ядра.
// Не блокирует ничего сверх изоляции хранилища и не изменяет состояние
type Availability struct {
	storage storage.Storage
	clock   clock.Clock
	cfg     config.BookingConfig
}

// NewAvailability создает индекс доступности слотов
func NewAvailability(st storage.Storage, clk clock.Clock, cfg config.BookingConfig) *Availability {
	return &Availability{
		storage: st,
		clock:   clk,
		cfg:     cfg,
	}
}

// OccupiedSlots возвращает занятые времена дня:
// записи и административные блокировки вместе
func (a *Availability) OccupiedSlots(ctx context.Context, date string) (map[string]bool, error) {
	return a.storage.GetOccupiedTimes(ctx, date)
}

// AvailableSlots возвращает свободные слоты на дату по порядку.
// Для сегодняшней даты дополнительно отсекаются времена, не позднее
// текущего момента; пустой список для "сегодня без слотов" — не ошибка
func (a *Availability) AvailableSlots(ctx context.Context, date string) ([]string, error) {
	occupied, err := a.storage.GetOccupiedTimes(ctx, date)
	if err != nil {
		return nil, err
	}

	now := a.clock.Now()
	today := now.Format(clock.DateLayout)

	var available []string
	for _, slot := range DaySlots(a.cfg) {
		if occupied[slot] {
			continue
		}

		if date == today {
			slotAt, err := clock.ParseSlot(date, slot, a.clock.Location())
			if err != nil {
				return nil, err
			}
			if !slotAt.After(now) {
				continue
			}
		}

		available = append(available, slot)
	}

	return available, nil
}

// MonthStatuses возвращает статус каждого дня месяца:
// free / partial / full. Занятость всего месяца читается одним
// запросом, не по запросу на день
func (a *Availability) MonthStatuses(ctx context.Context, year int, month time.Month) (map[string]models.DayStatus, error) {
	firstDay := time.Date(year, month, 1, 0, 0, 0, 0, a.clock.Location())
	lastDay := firstDay.AddDate(0, 1, -1)

	counts, err := a.storage.GetOccupancyCounts(ctx,
		firstDay.Format(clock.DateLayout), lastDay.Format(clock.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to get occupancy for %d-%02d: %w", year, month, err)
	}

	totalSlots := a.cfg.TotalSlotsPerDay()

	statuses := make(map[string]models.DayStatus, lastDay.Day())
	for d := firstDay; !d.After(lastDay); d = d.AddDate(0, 0, 1) {
		date := d.Format(clock.DateLayout)
		switch occupied := counts[date]; {
		case occupied == 0:
			statuses[date] = models.StatusFree
		case occupied < totalSlots:
			statuses[date] = models.StatusPartial
		default:
			statuses[date] = models.StatusFull
		}
	}

	return statuses, nil
}
