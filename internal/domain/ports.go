package domain

import (
	"context"
	"time"
)

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ошибку, если запись с таким ID уже существует.
	Create(ctx context.Context, order Order) error
	// Get возвращает заказ tenant-а по идентификатору или ErrOrderNotFound.
	Get(ctx context.Context, tenantID, id string) (Order, error)
	// UpdateVersioned применяет обновление условно: строка меняется только если
	// её версия равна expectedVersion. Ноль затронутых строк — ErrVersionMismatch.
	UpdateVersioned(ctx context.Context, order Order, expectedVersion int64) error
	// ListPage возвращает до limit+1 заказов tenant-а строго "до" before
	// в порядке (created_at DESC, id DESC); before=nil — с начала.
	ListPage(ctx context.Context, tenantID string, before *PageKey, limit int) ([]Order, error)
}

// OutboxRepository сохраняет события для последующей публикации.
type OutboxRepository interface {
	// Append добавляет запись. Если в ctx есть активная транзакция,
	// вставка выполняется внутри неё, а не в собственной.
	Append(ctx context.Context, entry OutboxEntry) error
	// PullUnpublished возвращает записи с published_at IS NULL.
	PullUnpublished(ctx context.Context, limit int) ([]OutboxEntry, error)
	// MarkPublished проставляет момент доставки события.
	MarkPublished(ctx context.Context, id string, at time.Time) error
	Stats(ctx context.Context) (OutboxStats, error)
}

// IdempotencyStore хранит записи дедупликации по (tenant, key) с TTL.
type IdempotencyStore interface {
	// Get возвращает запись и признак её наличия.
	Get(ctx context.Context, tenantID, key string) (IdempotencyRecord, bool, error)
	// Set сохраняет запись с заданным временем жизни.
	Set(ctx context.Context, tenantID, key string, record IdempotencyRecord, ttl time.Duration) error
}

// UnitOfWork объединяет несколько операций хранилища в одну атомарную единицу.
type UnitOfWork interface {
	// WithinTx выполняет fn в транзакции; ошибка fn откатывает всё целиком.
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventNotifier — best-effort публикация события после успешного коммита.
// Ошибки поглощаются движком и не влияют на результат операции.
type EventNotifier interface {
	Notify(eventType, tenantID string, payload map[string]any) error
}

// OutboxPublisher доставляет outbox-записи во внешний брокер.
type OutboxPublisher interface {
	Publish(entry OutboxEntry) error
}
