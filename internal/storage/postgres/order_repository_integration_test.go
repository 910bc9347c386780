package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

func TestOrderRepository_PostgresFlow(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	order := domain.Order{
		ID:        uuid.NewString(),
		TenantID:  "tenant-1",
		Status:    domain.OrderStatusDraft,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, order); !errors.Is(err, domain.ErrOrderAlreadyExists) {
		t.Fatalf("expected ErrOrderAlreadyExists, got %v", err)
	}

	loaded, err := repo.Get(ctx, "tenant-1", order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Status != domain.OrderStatusDraft || loaded.Version != 1 || loaded.TotalCents != nil {
		t.Fatalf("unexpected loaded order: %+v", loaded)
	}

	if _, err := repo.Get(ctx, "tenant-2", order.ID); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for foreign tenant, got %v", err)
	}

	total := int64(1234)
	order.Status = domain.OrderStatusConfirmed
	order.TotalCents = &total
	order.Version = 2
	order.UpdatedAt = now.Add(time.Second)
	if err := repo.UpdateVersioned(ctx, order, 1); err != nil {
		t.Fatalf("update versioned: %v", err)
	}

	// Повтор со старой версией конфликтует.
	if err := repo.UpdateVersioned(ctx, order, 1); !errors.Is(err, domain.ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}

	missing := order
	missing.ID = uuid.NewString()
	if err := repo.UpdateVersioned(ctx, missing, 1); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}

	loaded, err = repo.Get(ctx, "tenant-1", order.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if loaded.TotalCents == nil || *loaded.TotalCents != 1234 || loaded.Version != 2 {
		t.Fatalf("unexpected order after update: %+v", loaded)
	}
}

func TestOrderRepository_PostgresKeysetPagination(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	const total = 7
	created := make(map[string]bool, total)
	for i := 0; i < total; i++ {
		order := domain.Order{
			ID:        uuid.NewString(),
			TenantID:  "tenant-1",
			Status:    domain.OrderStatusDraft,
			Version:   1,
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
			UpdatedAt: base.Add(time.Duration(i) * time.Millisecond),
		}
		if err := repo.Create(ctx, order); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		created[order.ID] = true
	}

	seen := make(map[string]bool)
	var before *domain.PageKey
	const limit = 3

	for {
		rows, err := repo.ListPage(ctx, "tenant-1", before, limit)
		if err != nil {
			t.Fatalf("list page: %v", err)
		}
		if len(rows) == 0 {
			break
		}

		pageRows := rows
		hasMore := len(rows) > limit
		if hasMore {
			pageRows = rows[:limit]
		}
		for _, row := range pageRows {
			if seen[row.ID] {
				t.Fatalf("order %s returned twice", row.ID)
			}
			seen[row.ID] = true
		}
		if !hasMore {
			break
		}
		last := pageRows[len(pageRows)-1]
		before = &domain.PageKey{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	if len(seen) != total {
		t.Fatalf("expected %d orders across pages, got %d", total, len(seen))
	}
	for id := range created {
		if !seen[id] {
			t.Fatalf("order %s missing from pagination", id)
		}
	}
}

func TestStore_WithinTxPostgresRollback(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	orderRepo := NewOrderRepository(store)
	outboxRepo := NewOutboxRepository(store)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	total := int64(500)
	order := domain.Order{
		ID:         uuid.NewString(),
		TenantID:   "tenant-1",
		Status:     domain.OrderStatusConfirmed,
		Version:    2,
		TotalCents: &total,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := orderRepo.Create(ctx, order); err != nil {
		t.Fatalf("create: %v", err)
	}

	boom := fmt.Errorf("boom")
	err := store.WithinTx(ctx, func(txCtx context.Context) error {
		closed := order
		closed.Status = domain.OrderStatusClosed
		closed.Version = 3
		if err := orderRepo.UpdateVersioned(txCtx, closed, 2); err != nil {
			return err
		}
		if err := outboxRepo.Append(txCtx, domain.OutboxEntry{
			EventType: domain.EventTypeOrderClosed,
			OrderID:   order.ID,
			TenantID:  order.TenantID,
			Payload:   []byte(`{}`),
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error to propagate, got %v", err)
	}

	loaded, err := orderRepo.Get(ctx, "tenant-1", order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Status != domain.OrderStatusConfirmed || loaded.Version != 2 {
		t.Fatalf("expected rollback to confirmed v2, got %s v%d", loaded.Status, loaded.Version)
	}

	entries, err := outboxRepo.PullUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty outbox after rollback, got %d", len(entries))
	}
}
