package clock

import (
	"fmt"
	"time"
)

// Форматы даты и времени слота
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Clock предоставляет текущее время в таймзоне приложения.
// Инжектируется как зависимость, чтобы тесты могли подставить
// фиксированный момент (включая границы перехода на летнее время)
type Clock interface {
	// Now возвращает текущий момент в таймзоне приложения
	Now() time.Time

	// Location возвращает таймзону приложения
	Location() *time.Location
}

// System реализует Clock поверх системных часов
type System struct {
	loc *time.Location
}

// NewSystem создает системные часы в указанной таймзоне
func NewSystem(loc *time.Location) *System {
	return &System{loc: loc}
}

// Now возвращает текущее время в таймзоне приложения
func (c *System) Now() time.Time {
	return time.Now().In(c.loc)
}

// Location возвращает таймзону приложения
func (c *System) Location() *time.Location {
	return c.loc
}

// Fixed реализует Clock с фиксированным моментом для тестов
type Fixed struct {
	now time.Time
}

// NewFixed создает часы, всегда возвращающие указанный момент
func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

// Now возвращает фиксированный момент
func (c *Fixed) Now() time.Time {
	return c.now
}

// Location возвращает таймзону фиксированного момента
func (c *Fixed) Location() *time.Location {
	return c.now.Location()
}

// Set сдвигает фиксированный момент
func (c *Fixed) Set(now time.Time) {
	c.now = now
}

// ParseSlot преобразует наивную пару (дата, время) в момент
// в указанной таймзоне. time.ParseInLocation корректно обрабатывает
// смещение зоны на дату, включая дни перехода на летнее время
func ParseSlot(date, timeOfDay string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+timeOfDay, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse slot %s %s: %w", date, timeOfDay, err)
	}
	return t, nil
}
