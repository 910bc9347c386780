package domain

import "time"

// OutboxEntry хранит намерение опубликовать доменное событие.
// Запись создаётся в одной транзакции с мутацией заказа; published_at = nil
// означает, что внешний relay ещё не доставил событие.
type OutboxEntry struct {
	ID        string
	EventType string
	OrderID   string
	TenantID  string
	// Payload — JSON-снимок данных заказа на момент события.
	Payload     []byte
	PublishedAt *time.Time
	CreatedAt   time.Time
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount int
	// OldestPendingAt равен nil, когда очередь пуста.
	OldestPendingAt *time.Time
}
