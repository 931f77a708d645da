package errors

import (
	stderrors "errors"
	"fmt"
)

// BotError представляет ошибку бота с кодом и контекстом
type BotError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Err     error       `json:"-"`
	Context interface{} `json:"context,omitempty"`
}

// Error реализует интерфейс error
func (e *BotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap позволяет использовать errors.Is и errors.As
func (e *BotError) Unwrap() error {
	return e.Err
}

// Is сравнивает ошибки по коду, чтобы errors.Is работал
// для производных копий предопределенных ошибок
func (e *BotError) Is(target error) bool {
	t, ok := target.(*BotError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithContext добавляет контекст к ошибке
func (e *BotError) WithContext(ctx interface{}) *BotError {
	return &BotError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Context: ctx,
	}
}

// WithError добавляет underlying ошибку
func (e *BotError) WithError(err error) *BotError {
	return &BotError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
		Context: e.Context,
	}
}

// Предопределенные ошибки
var (
	// Отказы бронирования — ожидаемые исходы, возвращаются вызывающему
	// как типизированные отказы, не как фатальные ошибки
	ErrSlotTaken = &BotError{
		Code:    "SLOT_TAKEN",
		Message: "слот уже занят",
	}

	ErrQuotaExceeded = &BotError{
		Code:    "QUOTA_EXCEEDED",
		Message: "превышен лимит активных записей",
	}

	ErrPastDate = &BotError{
		Code:    "PAST_DATE",
		Message: "дата уже прошла",
	}

	ErrPastTime = &BotError{
		Code:    "PAST_TIME",
		Message: "время уже прошло",
	}

	ErrBookingNotFound = &BotError{
		Code:    "NOT_FOUND",
		Message: "запись не найдена",
	}

	// Ошибки ограничителя частоты запросов
	ErrThrottled = &BotError{
		Code:    "THROTTLED",
		Message: "слишком частые запросы",
	}

	// Ошибки валидации
	ErrInvalidDate = &BotError{
		Code:    "INVALID_DATE",
		Message: "некорректная дата",
	}

	ErrInvalidTime = &BotError{
		Code:    "INVALID_TIME",
		Message: "некорректное время",
	}

	ErrInvalidBookingID = &BotError{
		Code:    "INVALID_BOOKING_ID",
		Message: "некорректный ID записи",
	}

	// Системные ошибки
	ErrStorageUnavailable = &BotError{
		Code:    "STORAGE_UNAVAILABLE",
		Message: "хранилище недоступно",
	}

	ErrTransientTransport = &BotError{
		Code:    "TRANSIENT_TRANSPORT",
		Message: "временная ошибка транспорта",
	}

	ErrFatalTransport = &BotError{
		Code:    "FATAL_TRANSPORT",
		Message: "неустранимая ошибка транспорта",
	}

	ErrConfigurationInvalid = &BotError{
		Code:    "CONFIGURATION_INVALID",
		Message: "некорректная конфигурация",
	}
)

// Коды причин для транспортного слоя. Ядро возвращает только эти коды,
// текст для пользователя формирует транспорт
const (
	ReasonSuccess       = "success"
	ReasonSlotTaken     = "slot_taken"
	ReasonQuotaExceeded = "quota_exceeded"
	ReasonPastDate      = "past_date"
	ReasonPastTime      = "past_time"
	ReasonNotFound      = "not_found"
	ReasonUnknown       = "unknown_error"
)

// ReasonCode преобразует ошибку движка бронирования в код причины
// для исходящего ответа
func ReasonCode(err error) string {
	switch {
	case err == nil:
		return ReasonSuccess
	case stderrors.Is(err, ErrSlotTaken):
		return ReasonSlotTaken
	case stderrors.Is(err, ErrQuotaExceeded):
		return ReasonQuotaExceeded
	case stderrors.Is(err, ErrPastDate):
		return ReasonPastDate
	case stderrors.Is(err, ErrPastTime):
		return ReasonPastTime
	case stderrors.Is(err, ErrBookingNotFound):
		return ReasonNotFound
	default:
		return ReasonUnknown
	}
}

// NewBotError создает новую ошибку бота
func NewBotError(code, message string) *BotError {
	return &BotError{
		Code:    code,
		Message: message,
	}
}

// Wrap оборачивает обычную ошибку в BotError
func Wrap(err error, code, message string) *BotError {
	return &BotError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// GetBotError извлекает BotError из ошибки
func GetBotError(err error) (*BotError, bool) {
	var botErr *BotError
	if stderrors.As(err, &botErr) {
		return botErr, true
	}
	return nil, false
}
