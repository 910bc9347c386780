// Package memory содержит in-memory реализацию хранилища
// для тестов и локальной разработки без Postgres.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// txMarker помечает контекст, уже находящийся внутри транзакции,
// чтобы репозитории не пытались захватить мьютекс повторно.
type txMarker struct{}

// Store хранит все данные в памяти под одним мьютексом.
type Store struct {
	mu sync.Mutex

	orders map[string]domain.Order
	outbox map[string]domain.OutboxEntry
	idem   map[string]idemEntry

	now func() time.Time
}

type idemEntry struct {
	record    domain.IdempotencyRecord
	expiresAt time.Time
}

// NewStore создаёт пустое in-memory хранилище.
func NewStore() *Store {
	return &Store{
		orders: make(map[string]domain.Order),
		outbox: make(map[string]domain.OutboxEntry),
		idem:   make(map[string]idemEntry),
		now:    time.Now,
	}
}

// SetClock подменяет источник времени. Используется в тестах TTL.
func (s *Store) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithinTx выполняет fn атомарно: под мьютексом снимается снимок
// всех таблиц, и при ошибке fn состояние откатывается к снимку.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ordersSnapshot := maps.Clone(s.orders)
	outboxSnapshot := maps.Clone(s.outbox)
	idemSnapshot := maps.Clone(s.idem)

	if err := fn(context.WithValue(ctx, txMarker{}, struct{}{})); err != nil {
		s.orders = ordersSnapshot
		s.outbox = outboxSnapshot
		s.idem = idemSnapshot
		return err
	}
	return nil
}

// lock захватывает мьютекс, если вызов не находится внутри WithinTx.
// Возвращённая функция снимает блокировку (или ничего не делает).
func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txMarker{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

var _ domain.UnitOfWork = (*Store)(nil)
