package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики бота записи на прием
var (
	// Метрики бронирования
	BookingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_bot_bookings_created_total",
			Help: "Общее количество созданных записей",
		},
	)

	BookingsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_bot_bookings_cancelled_total",
			Help: "Общее количество отмененных записей",
		},
	)

	BookingsRescheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_bot_bookings_rescheduled_total",
			Help: "Общее количество перенесенных записей",
		},
	)

	BookingRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_bot_booking_rejections_total",
			Help: "Отказы бронирования по кодам причин",
		},
		[]string{"reason"},
	)

	// Метрики ограничителя частоты
	ThrottledRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_bot_throttled_requests_total",
			Help: "Количество отклоненных ограничителем запросов",
		},
		[]string{"class"},
	)

	// Метрики транспорта
	TransportRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_bot_transport_retries_total",
			Help: "Количество повторных попыток отправки",
		},
	)

	TransportFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_bot_transport_failures_total",
			Help: "Количество неудачных отправок по типу",
		},
		[]string{"kind"}, // transient, fatal
	)

	// Метрики напоминаний
	RemindersScheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_bot_reminders_scheduled_total",
			Help: "Общее количество запланированных напоминаний",
		},
	)

	RemindersSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_bot_reminders_sent_total",
			Help: "Общее количество отправленных напоминаний",
		},
		[]string{"status"},
	)

	// Метрики базы данных
	DatabaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_bot_database_operations_total",
			Help: "Общее количество операций с базой данных",
		},
		[]string{"operation", "status"},
	)

	// Метрики HTTP сервера
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_bot_http_requests_total",
			Help: "Общее количество HTTP запросов",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "booking_bot_http_request_duration_seconds",
			Help:    "Время обработки HTTP запросов в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// RecordBookingCreated записывает метрику создания записи
func RecordBookingCreated() {
	BookingsCreated.Inc()
}

// RecordBookingCancelled записывает метрику отмены записи
func RecordBookingCancelled() {
	BookingsCancelled.Inc()
}

// RecordBookingRescheduled записывает метрику переноса записи
func RecordBookingRescheduled() {
	BookingsRescheduled.Inc()
}

// RecordRejection записывает метрику отказа бронирования
func RecordRejection(reason string) {
	BookingRejections.WithLabelValues(reason).Inc()
}

// RecordThrottled записывает метрику отклоненного запроса
func RecordThrottled(class string) {
	ThrottledRequests.WithLabelValues(class).Inc()
}

// RecordTransportRetry записывает метрику повторной попытки
func RecordTransportRetry() {
	TransportRetries.Inc()
}

// RecordTransportFailure записывает метрику неудачной отправки
func RecordTransportFailure(kind string) {
	TransportFailures.WithLabelValues(kind).Inc()
}

// RecordReminderScheduled записывает метрику планирования напоминания
func RecordReminderScheduled() {
	RemindersScheduled.Inc()
}

// RecordReminderSent записывает метрику отправки напоминания
func RecordReminderSent(status string) {
	RemindersSent.WithLabelValues(status).Inc()
}

// RecordDatabaseOperation записывает метрику операции с БД
func RecordDatabaseOperation(operation, status string) {
	DatabaseOperations.WithLabelValues(operation, status).Inc()
}

// RecordHTTPRequest записывает метрику HTTP запроса
func RecordHTTPRequest(method, endpoint, status string) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
}
