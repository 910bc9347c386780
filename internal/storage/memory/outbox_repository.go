package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// OutboxRepository реализует domain.OutboxRepository поверх Store.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository создаёт репозиторий outbox-записей.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

var _ domain.OutboxRepository = (*OutboxRepository)(nil)

// Append добавляет запись в outbox.
func (r *OutboxRepository) Append(ctx context.Context, entry domain.OutboxEntry) error {
	unlock := r.store.lock(ctx)
	defer unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.store.now().UTC()
	}
	r.store.outbox[entry.ID] = entry
	return nil
}

// PullUnpublished возвращает неопубликованные записи в порядке создания.
func (r *OutboxRepository) PullUnpublished(ctx context.Context, limit int) ([]domain.OutboxEntry, error) {
	unlock := r.store.lock(ctx)
	defer unlock()

	pending := make([]domain.OutboxEntry, 0, limit)
	for _, entry := range r.store.outbox {
		if entry.PublishedAt == nil {
			pending = append(pending, entry)
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.Before(pending[j].CreatedAt)
		}
		return pending[i].ID < pending[j].ID
	})

	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// MarkPublished помечает запись опубликованной.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, at time.Time) error {
	unlock := r.store.lock(ctx)
	defer unlock()

	entry, ok := r.store.outbox[id]
	if !ok || entry.PublishedAt != nil {
		return domain.ErrOutboxPublish
	}
	published := at.UTC()
	entry.PublishedAt = &published
	r.store.outbox[id] = entry
	return nil
}

// Stats возвращает размер и возраст очереди неопубликованных записей.
func (r *OutboxRepository) Stats(ctx context.Context) (domain.OutboxStats, error) {
	unlock := r.store.lock(ctx)
	defer unlock()

	var stats domain.OutboxStats
	for _, entry := range r.store.outbox {
		if entry.PublishedAt != nil {
			continue
		}
		stats.PendingCount++
		if stats.OldestPendingAt == nil || entry.CreatedAt.Before(*stats.OldestPendingAt) {
			createdAt := entry.CreatedAt
			stats.OldestPendingAt = &createdAt
		}
	}
	return stats, nil
}
