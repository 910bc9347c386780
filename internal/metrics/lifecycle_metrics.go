package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Операции жизненного цикла для label "op".
const (
	OpCreate  = "create"
	OpConfirm = "confirm"
	OpClose   = "close"
	OpList    = "list"
)

// Результаты операций для label "result".
const (
	ResultOK = "ok"
	// ResultDeduplicated — повтор create вернул исходный заказ из кэша.
	ResultDeduplicated = "deduplicated"
	// ResultConflict — конфликт версии или idempotency-ключа.
	ResultConflict = "conflict"
	// ResultRejected — отказ бизнес-правила (недопустимый переход статуса).
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	lifecycleOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_lifecycle_operations_total",
		Help: "Total number of order lifecycle operations grouped by operation and result.",
	}, []string{"op", "result"})
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orders_http_request_duration_seconds",
		Help:    "Duration of HTTP requests grouped by route and status code.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "status"})
)

// ObserveOperation увеличивает счётчик операции жизненного цикла.
func ObserveOperation(op, result string) {
	lifecycleOperations.WithLabelValues(op, result).Inc()
}

// ObserveHTTPRequest записывает длительность HTTP-запроса.
func ObserveHTTPRequest(route, status string, duration time.Duration) {
	httpRequestDuration.WithLabelValues(route, status).Observe(duration.Seconds())
}
