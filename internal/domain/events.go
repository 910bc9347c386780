package domain

// Типы доменных событий заказа.
const (
	EventTypeOrderCreated   = "orders.created"
	EventTypeOrderConfirmed = "orders.confirmed"
	EventTypeOrderClosed    = "orders.closed"
)
