// Package http содержит HTTP-обвязку сервиса заказов:
// маршруты, middleware и маппинг доменных ошибок в ответы.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// Коды ошибок в теле ответа.
const (
	codeOrderNotFound       = "ORDER_NOT_FOUND"
	codeVersionMismatch     = "VERSION_MISMATCH"
	codeInvalidTransition   = "INVALID_STATUS_TRANSITION"
	codeIdempotencyConflict = "IDEMPOTENCY_KEY_CONFLICT"
	codeBadRequest          = "BAD_REQUEST"
	codeInternalServerError = "INTERNAL_SERVER_ERROR"
)

type errorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Path      string         `json:"path"`
	Details   map[string]any `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: errorBody{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Path:      r.URL.Path,
		Details:   details,
	}})
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	writeError(w, r, http.StatusBadRequest, codeBadRequest, message, nil)
}

// writeDomainError переводит доменную ошибку в HTTP-ответ.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var versionErr *domain.VersionMismatchError
	if errors.As(err, &versionErr) {
		writeError(w, r, http.StatusConflict, codeVersionMismatch, versionErr.Error(), map[string]any{
			"expected_version": versionErr.Expected,
			"current_version":  versionErr.Current,
		})
		return
	}

	var transitionErr *domain.StatusTransitionError
	if errors.As(err, &transitionErr) {
		writeError(w, r, http.StatusBadRequest, codeInvalidTransition, transitionErr.Error(), map[string]any{
			"from": string(transitionErr.From),
			"to":   string(transitionErr.To),
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, r, http.StatusNotFound, codeOrderNotFound, "order not found", nil)
	case errors.Is(err, domain.ErrIdempotencyKeyConflict):
		writeError(w, r, http.StatusConflict, codeIdempotencyConflict, err.Error(), nil)
	case errors.Is(err, domain.ErrVersionMismatch):
		writeError(w, r, http.StatusConflict, codeVersionMismatch, err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		writeError(w, r, http.StatusBadRequest, codeInvalidTransition, err.Error(), nil)
	case errors.Is(err, domain.ErrTenantRequired),
		errors.Is(err, domain.ErrIdempotencyKeyRequired),
		errors.Is(err, domain.ErrTotalCentsNegative),
		errors.Is(err, domain.ErrInvalidCursor):
		writeBadRequest(w, r, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, codeInternalServerError, "internal server error", nil)
	}
}
