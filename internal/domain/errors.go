package domain

import (
	"errors"
	"fmt"
)

var (
	// Ошибка отсутствующего идентификатора tenant.
	ErrTenantRequired = errors.New("tenant_id is required")
	// Ошибка отсутствующего idempotency-key при создании заказа.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// Ошибка некорректного статуса заказа.
	ErrStatusInvalid = errors.New("order status is invalid")
	// Ошибка некорректной версии заказа (< 1).
	ErrVersionInvalid = errors.New("order version must be positive")
	// Ошибка отрицательной суммы заказа.
	ErrTotalCentsNegative = errors.New("total_cents must be non-negative")
	// Ошибка установленной суммы до подтверждения заказа.
	ErrTotalCentsPremature = errors.New("total_cents must be unset until confirmation")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderAlreadyExists — попытка вставить заказ с занятым идентификатором.
	ErrOrderAlreadyExists = errors.New("order already exists")
	// ErrVersionMismatch сигнализирует о конфликте optimistic locking.
	ErrVersionMismatch = errors.New("order version mismatch")
	// ErrInvalidStatusTransition — недопустимый переход статуса.
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	// ErrIdempotencyKeyConflict — ключ переиспользован с другим телом запроса.
	ErrIdempotencyKeyConflict = errors.New("idempotency key reused with different request body")
	// ErrInvalidCursor — курсор пагинации не декодируется.
	ErrInvalidCursor = errors.New("invalid pagination cursor")
	// ErrOutboxPublish — ошибка при публикации записи из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// VersionMismatchError переносит наблюдаемую и фактическую версии,
// чтобы вызывающая сторона могла восстановить условие конфликта.
type VersionMismatchError struct {
	Expected int64
	Current  int64
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("order version mismatch: expected %d, current %d", e.Expected, e.Current)
}

// Is делает ошибку совместимой с errors.Is(err, ErrVersionMismatch).
func (e *VersionMismatchError) Is(target error) bool {
	return target == ErrVersionMismatch
}

// StatusTransitionError переносит текущий статус и запрошенный переход.
type StatusTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition: %s -> %s", e.From, e.To)
}

// Is делает ошибку совместимой с errors.Is(err, ErrInvalidStatusTransition).
func (e *StatusTransitionError) Is(target error) bool {
	return target == ErrInvalidStatusTransition
}

// IsVersionMismatch проверяет, является ли ошибка конфликтом версий.
func IsVersionMismatch(err error) bool {
	return errors.Is(err, ErrVersionMismatch)
}
