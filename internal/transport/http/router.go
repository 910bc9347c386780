package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/health"
)

// NewRouter собирает маршруты сервиса заказов.
// API-маршруты защищены проверкой арендатора; служебные (/healthz,
// /readyz, /metrics) доступны без заголовков.
func NewRouter(svc OrderService, healthHandler *health.Handler) http.Handler {
	logger := log.WithField("component", "http")
	mux := http.NewServeMux()

	api := func(route string, handler http.Handler) http.Handler {
		return WithRequestID(RequireTenant(WithObservability(route, logger, handler)))
	}

	mux.Handle("POST /api/v1/orders", api("POST /api/v1/orders", HandleCreateOrder(svc)))
	mux.Handle("GET /api/v1/orders", api("GET /api/v1/orders", HandleListOrders(svc)))
	mux.Handle("PATCH /api/v1/orders/{id}/confirm", api("PATCH /api/v1/orders/{id}/confirm", HandleConfirmOrder(svc)))
	mux.Handle("POST /api/v1/orders/{id}/close", api("POST /api/v1/orders/{id}/close", HandleCloseOrder(svc)))

	mux.HandleFunc("GET /healthz", health.LivenessHandler)
	if healthHandler != nil {
		mux.Handle("GET /health", healthHandler)
		mux.HandleFunc("GET /readyz", healthHandler.ReadinessHandler)
	}
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}
