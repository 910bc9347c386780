package domain

import "time"

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusDraft — заказ создан, сумма ещё не зафиксирована.
	OrderStatusDraft OrderStatus = "draft"
	// OrderStatusConfirmed — заказ подтверждён, сумма зафиксирована.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusClosed — заказ закрыт, событие записано в outbox.
	OrderStatusClosed OrderStatus = "closed"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusConfirmed, OrderStatusClosed:
		return true
	default:
		return false
	}
}

// CanTransitionTo проверяет допустимость перехода статуса.
// Статус движется строго draft -> confirmed -> closed, без пропусков и откатов.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusDraft:
		return next == OrderStatusConfirmed
	case OrderStatusConfirmed:
		return next == OrderStatusClosed
	default:
		return false
	}
}

// Order агрегирует состояние заказа в рамках одного tenant.
type Order struct {
	ID       string
	TenantID string
	Status   OrderStatus
	// Version увеличивается ровно на 1 при каждой успешной мутации.
	Version int64
	// TotalCents равен nil до подтверждения, после — фиксируется.
	TotalCents *int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PageKey — позиция в тотальном порядке (created_at DESC, id DESC)
// для keyset-пагинации.
type PageKey struct {
	CreatedAt time.Time
	ID        string
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.TenantID == "" {
		errs = append(errs, ErrTenantRequired)
	}
	if !o.Status.Valid() {
		errs = append(errs, ErrStatusInvalid)
	}
	if o.Version < 1 {
		errs = append(errs, ErrVersionInvalid)
	}
	if o.TotalCents != nil && *o.TotalCents < 0 {
		errs = append(errs, ErrTotalCentsNegative)
	}
	// До подтверждения сумма неизвестна.
	if o.Status == OrderStatusDraft && o.TotalCents != nil {
		errs = append(errs, ErrTotalCentsPremature)
	}

	return errs
}
