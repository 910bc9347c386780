package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

const opTimeout = 5 * time.Second

type orderRepository struct {
	store *Store
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{store: store}
}

func (r *orderRepository) Create(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.store.q(ctx).ExecContext(ctx, `
		INSERT INTO orders (
			id, tenant_id, status, version, total_cents, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		order.ID, order.TenantID, string(order.Status), order.Version,
		totalCentsValue(order), order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderAlreadyExists
		}
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

func (r *orderRepository) Get(ctx context.Context, tenantID, id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	row := r.store.q(ctx).QueryRowContext(ctx, `
		SELECT id, tenant_id, status, version, total_cents, created_at, updated_at
		FROM orders
		WHERE id = $1
		  AND tenant_id = $2
	`, id, tenantID)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	return order, nil
}

func (r *orderRepository) UpdateVersioned(ctx context.Context, order domain.Order, expectedVersion int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	q := r.store.q(ctx)
	res, err := q.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    total_cents = $2,
		    version = $3,
		    updated_at = $4
		WHERE id = $5
		  AND tenant_id = $6
		  AND version = $7
	`,
		string(order.Status),
		totalCentsValue(order),
		order.Version,
		order.UpdatedAt,
		order.ID,
		order.TenantID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.orderExists(ctx, q, order.TenantID, order.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrOrderNotFound
		}
		return domain.ErrVersionMismatch
	}

	return nil
}

func (r *orderRepository) ListPage(ctx context.Context, tenantID string, before *domain.PageKey, limit int) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		rows *sql.Rows
		err  error
	)

	// Выбираем limit+1 строк: лишняя сигнализирует о следующей странице.
	// Предикат строго "до" курсора в тотальном порядке исключает дубликаты
	// и пропуски между страницами при конкурентных вставках.
	if before != nil {
		rows, err = r.store.q(ctx).QueryContext(ctx, `
			SELECT id, tenant_id, status, version, total_cents, created_at, updated_at
			FROM orders
			WHERE tenant_id = $1
			  AND (created_at < $2 OR (created_at = $2 AND id < $3))
			ORDER BY created_at DESC, id DESC
			LIMIT $4
		`, tenantID, before.CreatedAt, before.ID, limit+1)
	} else {
		rows, err = r.store.q(ctx).QueryContext(ctx, `
			SELECT id, tenant_id, status, version, total_cents, created_at, updated_at
			FROM orders
			WHERE tenant_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`, tenantID, limit+1)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, limit+1)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) orderExists(ctx context.Context, q querier, tenantID, orderID string) (bool, error) {
	var id string
	err := q.QueryRowContext(ctx, `
		SELECT id FROM orders WHERE id = $1 AND tenant_id = $2
	`, orderID, tenantID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check order exists: %w", err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order      domain.Order
		status     string
		totalCents sql.NullInt64
	)

	if err := row.Scan(
		&order.ID, &order.TenantID, &status, &order.Version,
		&totalCents, &order.CreatedAt, &order.UpdatedAt,
	); err != nil {
		return domain.Order{}, err
	}

	order.Status = domain.OrderStatus(status)
	if totalCents.Valid {
		value := totalCents.Int64
		order.TotalCents = &value
	}

	return order, nil
}

func totalCentsValue(order domain.Order) any {
	if order.TotalCents == nil {
		return nil
	}
	return *order.TotalCents
}

var _ domain.OrderRepository = (*orderRepository)(nil)
