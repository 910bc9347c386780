// Package redis содержит Redis-реализацию хранилища ключей идемпотентности.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

const opTimeout = 3 * time.Second

// IdempotencyStore хранит записи идемпотентности в Redis
// с TTL на стороне сервера.
type IdempotencyStore struct {
	client *redis.Client
}

// NewIdempotencyStore создаёт хранилище поверх готового клиента Redis.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

var _ domain.IdempotencyStore = (*IdempotencyStore)(nil)

type idempotencyPayload struct {
	OrderID    string `json:"order_id"`
	BodyDigest string `json:"body_digest"`
}

// Get возвращает запись по паре (tenant, key).
func (s *IdempotencyStore) Get(ctx context.Context, tenantID, key string) (domain.IdempotencyRecord, bool, error) {
	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := s.client.Get(queryCtx, idempotencyKey(tenantID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return domain.IdempotencyRecord{}, false, fmt.Errorf("get idempotency record: %w", err)
	}

	var payload idempotencyPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.IdempotencyRecord{}, false, fmt.Errorf("decode idempotency record: %w", err)
	}

	return domain.IdempotencyRecord{
		ResultID:   payload.OrderID,
		BodyDigest: payload.BodyDigest,
	}, true, nil
}

// Set сохраняет запись с TTL.
func (s *IdempotencyStore) Set(ctx context.Context, tenantID, key string, record domain.IdempotencyRecord, ttl time.Duration) error {
	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := json.Marshal(idempotencyPayload{
		OrderID:    record.ResultID,
		BodyDigest: record.BodyDigest,
	})
	if err != nil {
		return fmt.Errorf("encode idempotency record: %w", err)
	}

	if err := s.client.Set(queryCtx, idempotencyKey(tenantID, key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("set idempotency record: %w", err)
	}
	return nil
}

func idempotencyKey(tenantID, key string) string {
	return fmt.Sprintf("idempotency:%s:%s", tenantID, key)
}
