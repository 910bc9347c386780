package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

func newOrder(id, tenantID string, createdAt time.Time) domain.Order {
	return domain.Order{
		ID:        id,
		TenantID:  tenantID,
		Status:    domain.OrderStatusDraft,
		Version:   1,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	t.Parallel()

	store := NewStore()
	repo := NewOrderRepository(store)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, newOrder("order-1", "tenant-1", now)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, newOrder("order-1", "tenant-1", now)); !errors.Is(err, domain.ErrOrderAlreadyExists) {
		t.Fatalf("expected ErrOrderAlreadyExists, got %v", err)
	}

	order, err := repo.Get(ctx, "tenant-1", "order-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if order.ID != "order-1" {
		t.Fatalf("unexpected order id %s", order.ID)
	}

	// Чужой tenant не видит заказ.
	if _, err := repo.Get(ctx, "tenant-2", "order-1"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for foreign tenant, got %v", err)
	}
}

func TestOrderRepository_UpdateVersioned(t *testing.T) {
	t.Parallel()

	store := NewStore()
	repo := NewOrderRepository(store)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, newOrder("order-1", "tenant-1", now)); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated := newOrder("order-1", "tenant-1", now)
	updated.Status = domain.OrderStatusConfirmed
	updated.Version = 2

	if err := repo.UpdateVersioned(ctx, updated, 1); err != nil {
		t.Fatalf("update: %v", err)
	}

	// Повтор с той же наблюдаемой версией должен конфликтовать.
	err := repo.UpdateVersioned(ctx, updated, 1)
	var mismatch *domain.VersionMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected VersionMismatchError, got %v", err)
	}
	if mismatch.Current != 2 {
		t.Fatalf("expected current version 2, got %d", mismatch.Current)
	}

	if err := repo.UpdateVersioned(ctx, newOrder("missing", "tenant-1", now), 1); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_ListPage(t *testing.T) {
	t.Parallel()

	store := NewStore()
	repo := NewOrderRepository(store)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	ids := []string{"order-a", "order-b", "order-c", "order-d", "order-e"}
	for i, id := range ids {
		if err := repo.Create(ctx, newOrder(id, "tenant-1", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	// Первая страница: до limit+1 строк в порядке убывания created_at.
	rows, err := repo.ListPage(ctx, "tenant-1", nil, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected limit+1 rows, got %d", len(rows))
	}
	if rows[0].ID != "order-e" || rows[1].ID != "order-d" {
		t.Fatalf("unexpected page order: %s, %s", rows[0].ID, rows[1].ID)
	}

	// Следующая страница строго после ключа второй строки.
	key := domain.PageKey{CreatedAt: rows[1].CreatedAt, ID: rows[1].ID}
	rows, err = repo.ListPage(ctx, "tenant-1", &key, 2)
	if err != nil {
		t.Fatalf("list after cursor: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].ID != "order-c" {
		t.Fatalf("expected order-c first, got %s", rows[0].ID)
	}
}

func TestStore_WithinTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	store := NewStore()
	orderRepo := NewOrderRepository(store)
	outboxRepo := NewOutboxRepository(store)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := orderRepo.Create(ctx, newOrder("order-1", "tenant-1", now)); err != nil {
		t.Fatalf("create: %v", err)
	}

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(txCtx context.Context) error {
		updated := newOrder("order-1", "tenant-1", now)
		updated.Status = domain.OrderStatusConfirmed
		updated.Version = 2
		if err := orderRepo.UpdateVersioned(txCtx, updated, 1); err != nil {
			return err
		}
		if err := outboxRepo.Append(txCtx, domain.OutboxEntry{
			ID:        "entry-1",
			EventType: domain.EventTypeOrderClosed,
			OrderID:   "order-1",
			TenantID:  "tenant-1",
			Payload:   []byte(`{}`),
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error to propagate, got %v", err)
	}

	// Обе записи откатились.
	order, err := orderRepo.Get(ctx, "tenant-1", "order-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if order.Status != domain.OrderStatusDraft || order.Version != 1 {
		t.Fatalf("expected rollback to draft v1, got %s v%d", order.Status, order.Version)
	}

	entries, err := outboxRepo.PullUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty outbox after rollback, got %d entries", len(entries))
	}
}

func TestStore_WithinTxCommits(t *testing.T) {
	t.Parallel()

	store := NewStore()
	orderRepo := NewOrderRepository(store)
	ctx := context.Background()
	now := time.Now().UTC()

	err := store.WithinTx(ctx, func(txCtx context.Context) error {
		return orderRepo.Create(txCtx, newOrder("order-1", "tenant-1", now))
	})
	if err != nil {
		t.Fatalf("within tx: %v", err)
	}

	if _, err := orderRepo.Get(ctx, "tenant-1", "order-1"); err != nil {
		t.Fatalf("expected committed order, got %v", err)
	}
}

func TestOutboxRepository_MarkPublished(t *testing.T) {
	t.Parallel()

	store := NewStore()
	repo := NewOutboxRepository(store)
	ctx := context.Background()

	if err := repo.Append(ctx, domain.OutboxEntry{
		ID:        "entry-1",
		EventType: domain.EventTypeOrderClosed,
		OrderID:   "order-1",
		TenantID:  "tenant-1",
		Payload:   []byte(`{}`),
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := repo.MarkPublished(ctx, "entry-1", time.Now().UTC()); err != nil {
		t.Fatalf("mark published: %v", err)
	}
	// Повторная публикация одной записи — ошибка.
	if err := repo.MarkPublished(ctx, "entry-1", time.Now().UTC()); !errors.Is(err, domain.ErrOutboxPublish) {
		t.Fatalf("expected ErrOutboxPublish, got %v", err)
	}

	entries, err := repo.PullUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no unpublished entries, got %d", len(entries))
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.PendingCount != 0 {
		t.Fatalf("expected zero pending count, got %d", stats.PendingCount)
	}
}

func TestIdempotencyStore_TTLExpiry(t *testing.T) {
	t.Parallel()

	store := NewStore()
	current := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return current })

	idem := NewIdempotencyStore(store)
	ctx := context.Background()

	record := domain.IdempotencyRecord{ResultID: "order-1", BodyDigest: "digest"}
	if err := idem.Set(ctx, "tenant-1", "key-1", record, time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, found, err := idem.Get(ctx, "tenant-1", "key-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || got.ResultID != "order-1" {
		t.Fatalf("expected record to be found, found=%v record=%+v", found, got)
	}

	// Ключи разных tenant-ов независимы.
	if _, found, _ := idem.Get(ctx, "tenant-2", "key-1"); found {
		t.Fatal("expected key to be scoped by tenant")
	}

	// После истечения TTL запись исчезает.
	current = current.Add(time.Hour + time.Second)
	if _, found, _ := idem.Get(ctx, "tenant-1", "key-1"); found {
		t.Fatal("expected record to expire after TTL")
	}
}
