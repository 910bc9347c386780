package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

type outboxRepository struct {
	store *Store
}

// NewOutboxRepository создаёт PostgreSQL-реализацию OutboxRepository.
func NewOutboxRepository(store *Store) domain.OutboxRepository {
	return &outboxRepository{store: store}
}

// Append вставляет запись через querier из ctx: внутри WithinTx вставка
// попадает в транзакцию вызывающей стороны.
func (r *outboxRepository) Append(ctx context.Context, entry domain.OutboxEntry) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.store.q(ctx).ExecContext(ctx, `
		INSERT INTO outbox (
			id, event_type, order_id, tenant_id, payload, published_at, created_at
		) VALUES ($1,$2,$3,$4,$5,NULL,$6)
	`,
		entry.ID, entry.EventType, entry.OrderID, entry.TenantID, entry.Payload, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append outbox entry: %w", err)
	}

	return nil
}

func (r *outboxRepository) PullUnpublished(ctx context.Context, limit int) ([]domain.OutboxEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	rows, err := r.store.q(ctx).QueryContext(ctx, `
		SELECT id, event_type, order_id, tenant_id, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("pull unpublished outbox entries: %w", err)
	}
	defer rows.Close()

	result := make([]domain.OutboxEntry, 0, limit)
	for rows.Next() {
		var entry domain.OutboxEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.EventType,
			&entry.OrderID,
			&entry.TenantID,
			&entry.Payload,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox rows: %w", err)
	}

	return result, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.store.q(ctx).ExecContext(ctx, `
		UPDATE outbox
		SET published_at = $2
		WHERE id = $1
		  AND published_at IS NULL
	`, id, at.UTC())
	if err != nil {
		return fmt.Errorf("mark outbox entry published: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for outbox publish: %w", err)
	}
	if affected == 0 {
		return domain.ErrOutboxPublish
	}

	return nil
}

func (r *outboxRepository) Stats(ctx context.Context) (domain.OutboxStats, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		stats  domain.OutboxStats
		oldest sql.NullTime
	)

	if err := r.store.q(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(created_at)
		FROM outbox
		WHERE published_at IS NULL
	`).Scan(&stats.PendingCount, &oldest); err != nil {
		return domain.OutboxStats{}, fmt.Errorf("outbox stats query failed: %w", err)
	}

	if oldest.Valid {
		oldestAt := oldest.Time.UTC()
		stats.OldestPendingAt = &oldestAt
	}

	return stats, nil
}

var _ domain.OutboxRepository = (*outboxRepository)(nil)
