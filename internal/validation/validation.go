package validation

import (
	"regexp"
	"strconv"
	"time"

	"appointment_bot/pkg/errors"
)

// Регулярные выражения для валидации
var (
	dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRegex = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// ValidateDate валидирует дату в формате YYYY-MM-DD
func ValidateDate(dateStr string) error {
	if dateStr == "" {
		return errors.ErrInvalidDate.WithContext("дата не может быть пустой")
	}

	if !dateRegex.MatchString(dateStr) {
		return errors.ErrInvalidDate.WithContext(map[string]interface{}{
			"input":  dateStr,
			"reason": "ожидается формат YYYY-MM-DD",
		})
	}

	if _, err := time.Parse("2006-01-02", dateStr); err != nil {
		return errors.ErrInvalidDate.WithError(err).WithContext(map[string]interface{}{
			"input": dateStr,
		})
	}

	return nil
}

// ValidateTime валидирует время в формате HH:MM
func ValidateTime(timeStr string) error {
	if timeStr == "" {
		return errors.ErrInvalidTime.WithContext("время не может быть пустым")
	}

	if !timeRegex.MatchString(timeStr) {
		return errors.ErrInvalidTime.WithContext(map[string]interface{}{
			"input":  timeStr,
			"reason": "ожидается формат HH:MM",
		})
	}

	if _, err := time.Parse("15:04", timeStr); err != nil {
		return errors.ErrInvalidTime.WithError(err).WithContext(map[string]interface{}{
			"input": timeStr,
		})
	}

	return nil
}

// ValidateBookingID валидирует ID записи
func ValidateBookingID(idStr string) (int64, error) {
	if idStr == "" {
		return 0, errors.ErrInvalidBookingID.WithContext("ID записи не может быть пустым")
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, errors.ErrInvalidBookingID.WithError(err).WithContext(map[string]interface{}{
			"input": idStr,
		})
	}

	if id <= 0 {
		return 0, errors.ErrInvalidBookingID.WithContext(map[string]interface{}{
			"input":  idStr,
			"reason": "ID должен быть положительным числом",
		})
	}

	return id, nil
}
