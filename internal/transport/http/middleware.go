package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/metrics"
)

const headerRequestID = "X-Request-ID"

// statusRecorder запоминает код ответа для логов и метрик.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequireTenant отклоняет запросы без заголовка X-Tenant-Id.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(headerTenantID) == "" {
			writeBadRequest(w, r, "X-Tenant-Id header is required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithRequestID принимает X-Request-ID от клиента или генерирует новый
// и возвращает его в ответе.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
			r.Header.Set(headerRequestID, requestID)
		}
		w.Header().Set(headerRequestID, requestID)
		next.ServeHTTP(w, r)
	})
}

// WithObservability логирует запрос и записывает метрику длительности.
// route — шаблон маршрута, чтобы не раздувать кардинальность метрик.
func WithObservability(route string, logger *log.Entry, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		duration := time.Since(started)
		metrics.ObserveHTTPRequest(route, strconv.Itoa(recorder.status), duration)
		logger.WithFields(log.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      recorder.status,
			"duration_ms": duration.Milliseconds(),
			"tenant_id":   r.Header.Get(headerTenantID),
			"request_id":  r.Header.Get(headerRequestID),
		}).Info("http запрос обработан")
	})
}
