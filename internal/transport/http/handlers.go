package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/service/orders"
)

const (
	headerTenantID       = "X-Tenant-Id"
	headerIdempotencyKey = "Idempotency-Key"
	headerIfMatch        = "If-Match"

	defaultPageLimit = 20
	maxPageLimit     = 100
)

// OrderService — минимальный интерфейс движка заказов,
// который нужен транспортному слою.
type OrderService interface {
	Create(ctx context.Context, tenantID, clientKey string, body map[string]any) (domain.Order, error)
	Confirm(ctx context.Context, orderID, tenantID string, expectedVersion, totalCents int64) (domain.Order, error)
	Close(ctx context.Context, orderID, tenantID string) (domain.Order, error)
	List(ctx context.Context, tenantID string, limit int, cursor string) (orders.Page, error)
}

type orderResponse struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	Status     string    `json:"status"`
	Version    int64     `json:"version"`
	TotalCents *int64    `json:"total_cents"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type listResponse struct {
	Items      []orderResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func toOrderResponse(order domain.Order) orderResponse {
	return orderResponse{
		ID:         order.ID,
		TenantID:   order.TenantID,
		Status:     string(order.Status),
		Version:    order.Version,
		TotalCents: order.TotalCents,
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
	}
}

// HandleCreateOrder возвращает handler идемпотентного создания заказа.
// Ключ дедупликации передаётся заголовком Idempotency-Key.
func HandleCreateOrder(svc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get(headerTenantID)
		clientKey := r.Header.Get(headerIdempotencyKey)
		if clientKey == "" {
			writeBadRequest(w, r, "Idempotency-Key header is required")
			return
		}

		body := map[string]any{}
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			writeBadRequest(w, r, "failed to read request body")
			return
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &body); err != nil {
				writeBadRequest(w, r, "request body must be a JSON object")
				return
			}
		}

		order, err := svc.Create(r.Context(), tenantID, clientKey, body)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toOrderResponse(order))
	}
}

type confirmRequest struct {
	TotalCents *int64 `json:"total_cents"`
}

// HandleConfirmOrder возвращает handler подтверждения заказа.
// Наблюдаемая версия передаётся заголовком If-Match.
func HandleConfirmOrder(svc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get(headerTenantID)
		orderID := r.PathValue("id")

		expectedVersion, err := parseIfMatch(r)
		if err != nil {
			writeBadRequest(w, r, err.Error())
			return
		}

		var req confirmRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeBadRequest(w, r, "invalid request body")
			return
		}
		if req.TotalCents == nil {
			writeBadRequest(w, r, "total_cents is required")
			return
		}

		order, err := svc.Confirm(r.Context(), orderID, tenantID, expectedVersion, *req.TotalCents)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}

// HandleCloseOrder возвращает handler закрытия заказа.
func HandleCloseOrder(svc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get(headerTenantID)
		orderID := r.PathValue("id")

		order, err := svc.Close(r.Context(), orderID, tenantID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toOrderResponse(order))
	}
}

// HandleListOrders возвращает handler keyset-листинга заказов.
func HandleListOrders(svc OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get(headerTenantID)

		limit := defaultPageLimit
		if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
			parsed, err := strconv.Atoi(rawLimit)
			if err != nil || parsed < 1 || parsed > maxPageLimit {
				writeBadRequest(w, r, "limit must be an integer between 1 and 100")
				return
			}
			limit = parsed
		}

		page, err := svc.List(r.Context(), tenantID, limit, r.URL.Query().Get("cursor"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		resp := listResponse{
			Items:      make([]orderResponse, 0, len(page.Items)),
			NextCursor: page.NextCursor,
		}
		for _, order := range page.Items {
			resp.Items = append(resp.Items, toOrderResponse(order))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func parseIfMatch(r *http.Request) (int64, error) {
	raw := r.Header.Get(headerIfMatch)
	if raw == "" {
		return 0, errors.New("If-Match header with observed version is required")
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || version < 1 {
		return 0, errors.New("If-Match header must be a positive integer version")
	}
	return version, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
