package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// OrderRepository реализует domain.OrderRepository поверх Store.
type OrderRepository struct {
	store *Store
}

// NewOrderRepository создаёт репозиторий заказов.
func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{store: store}
}

var _ domain.OrderRepository = (*OrderRepository)(nil)

// Create сохраняет новый заказ.
func (r *OrderRepository) Create(ctx context.Context, order domain.Order) error {
	unlock := r.store.lock(ctx)
	defer unlock()

	if _, ok := r.store.orders[order.ID]; ok {
		return domain.ErrOrderAlreadyExists
	}
	r.store.orders[order.ID] = order
	return nil
}

// Get возвращает заказ арендатора по идентификатору.
func (r *OrderRepository) Get(ctx context.Context, tenantID, id string) (domain.Order, error) {
	unlock := r.store.lock(ctx)
	defer unlock()

	order, ok := r.store.orders[id]
	if !ok || order.TenantID != tenantID {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}

// UpdateVersioned обновляет заказ только при совпадении версии.
func (r *OrderRepository) UpdateVersioned(ctx context.Context, order domain.Order, expectedVersion int64) error {
	unlock := r.store.lock(ctx)
	defer unlock()

	current, ok := r.store.orders[order.ID]
	if !ok || current.TenantID != order.TenantID {
		return domain.ErrOrderNotFound
	}
	if current.Version != expectedVersion {
		return &domain.VersionMismatchError{Expected: expectedVersion, Current: current.Version}
	}
	r.store.orders[order.ID] = order
	return nil
}

// ListPage возвращает до limit+1 заказов арендатора,
// отсортированных по (created_at DESC, id DESC), начиная после before.
func (r *OrderRepository) ListPage(ctx context.Context, tenantID string, before *domain.PageKey, limit int) ([]domain.Order, error) {
	unlock := r.store.lock(ctx)
	defer unlock()

	matched := make([]domain.Order, 0, limit+1)
	for _, order := range r.store.orders {
		if order.TenantID != tenantID {
			continue
		}
		if before != nil && !beforeKey(order, *before) {
			continue
		}
		matched = append(matched, order)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	if len(matched) > limit+1 {
		matched = matched[:limit+1]
	}
	return matched, nil
}

// beforeKey проверяет, что заказ строго раньше ключа курсора
// в порядке (created_at DESC, id DESC).
func beforeKey(order domain.Order, key domain.PageKey) bool {
	if order.CreatedAt.Before(key.CreatedAt) {
		return true
	}
	return order.CreatedAt.Equal(key.CreatedAt) && order.ID < key.ID
}
