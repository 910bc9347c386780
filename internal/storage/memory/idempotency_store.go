package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// IdempotencyStore хранит ключи идемпотентности в памяти
// с ленивой проверкой TTL при чтении.
type IdempotencyStore struct {
	store *Store
}

// NewIdempotencyStore создаёт in-memory хранилище ключей идемпотентности.
func NewIdempotencyStore(store *Store) *IdempotencyStore {
	return &IdempotencyStore{store: store}
}

var _ domain.IdempotencyStore = (*IdempotencyStore)(nil)

// Get возвращает запись по паре (tenant, key), если она не истекла.
func (s *IdempotencyStore) Get(ctx context.Context, tenantID, key string) (domain.IdempotencyRecord, bool, error) {
	unlock := s.store.lock(ctx)
	defer unlock()

	cacheKey := idemKey(tenantID, key)
	entry, ok := s.store.idem[cacheKey]
	if !ok {
		return domain.IdempotencyRecord{}, false, nil
	}
	if !entry.expiresAt.IsZero() && !s.store.now().Before(entry.expiresAt) {
		delete(s.store.idem, cacheKey)
		return domain.IdempotencyRecord{}, false, nil
	}
	return entry.record, true, nil
}

// Set сохраняет запись с TTL; ttl<=0 означает запись без срока жизни.
func (s *IdempotencyStore) Set(ctx context.Context, tenantID, key string, record domain.IdempotencyRecord, ttl time.Duration) error {
	unlock := s.store.lock(ctx)
	defer unlock()

	entry := idemEntry{record: record}
	if ttl > 0 {
		entry.expiresAt = s.store.now().Add(ttl)
	}
	s.store.idem[idemKey(tenantID, key)] = entry
	return nil
}

func idemKey(tenantID, key string) string {
	return fmt.Sprintf("idempotency:%s:%s", tenantID, key)
}
