package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/metrics"
)

const defaultIdempotencyTTL = 24 * time.Hour

// Options задаёт параметры движка жизненного цикла заказов.
type Options struct {
	Logger         *log.Entry
	IdempotencyTTL time.Duration
	Clock          func() time.Time
}

// Option настраивает Service.
type Option func(*Options)

// WithLogger задаёт logger для движка.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithIdempotencyTTL задаёт время жизни записей дедупликации.
func WithIdempotencyTTL(ttl time.Duration) Option {
	return func(opts *Options) {
		opts.IdempotencyTTL = ttl
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(clock func() time.Time) Option {
	return func(opts *Options) {
		opts.Clock = clock
	}
}

// Service — движок жизненного цикла заказа. Владеет инвариантами:
// дедупликация create, optimistic locking на confirm/close и атомарность
// пары "смена статуса + запись в outbox" при закрытии.
type Service struct {
	repo     domain.OrderRepository
	outbox   domain.OutboxRepository
	idem     domain.IdempotencyStore
	uow      domain.UnitOfWork
	notifier domain.EventNotifier
	logger   *log.Entry
	idemTTL  time.Duration
	now      func() time.Time
}

// NewService конструирует движок с зависимостями.
func NewService(
	repo domain.OrderRepository,
	outbox domain.OutboxRepository,
	idem domain.IdempotencyStore,
	uow domain.UnitOfWork,
	notifier domain.EventNotifier,
	options ...Option,
) *Service {
	opts := Options{
		IdempotencyTTL: defaultIdempotencyTTL,
		Clock:          func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "order-lifecycle")
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = defaultIdempotencyTTL
	}

	return &Service{
		repo:     repo,
		outbox:   outbox,
		idem:     idem,
		uow:      uow,
		notifier: notifier,
		logger:   logger,
		idemTTL:  opts.IdempotencyTTL,
		now:      opts.Clock,
	}
}

// Create идемпотентно создаёт черновик заказа.
// Повтор с тем же (tenant, key, body) возвращает исходный заказ;
// тот же ключ с другим телом — ErrIdempotencyKeyConflict.
func (s *Service) Create(ctx context.Context, tenantID, clientKey string, body map[string]any) (domain.Order, error) {
	if tenantID == "" {
		return domain.Order{}, domain.ErrTenantRequired
	}
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		return domain.Order{}, domain.ErrIdempotencyKeyRequired
	}

	digest, err := BodyDigest(body)
	if err != nil {
		return domain.Order{}, err
	}

	record, found, err := s.idem.Get(ctx, tenantID, clientKey)
	if err != nil {
		return domain.Order{}, fmt.Errorf("idempotency lookup: %w", err)
	}
	if found {
		if record.BodyDigest != digest {
			metrics.ObserveOperation(metrics.OpCreate, metrics.ResultConflict)
			return domain.Order{}, domain.ErrIdempotencyKeyConflict
		}

		order, err := s.repo.Get(ctx, tenantID, record.ResultID)
		if err != nil {
			if errors.Is(err, domain.ErrOrderNotFound) {
				// Запись дедупликации указывает на несуществующий заказ:
				// нарушение инварианта, заказ не пересоздаём.
				metrics.ObserveOperation(metrics.OpCreate, metrics.ResultError)
				return domain.Order{}, fmt.Errorf("idempotency record for key %q references missing order %s", clientKey, record.ResultID)
			}
			return domain.Order{}, err
		}
		metrics.ObserveOperation(metrics.OpCreate, metrics.ResultDeduplicated)
		return order, nil
	}

	now := s.now()
	order := domain.Order{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Status:    domain.OrderStatusDraft,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, errs[0]
	}

	if err := s.repo.Create(ctx, order); err != nil {
		metrics.ObserveOperation(metrics.OpCreate, metrics.ResultError)
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	// Кэш best-effort: заказ уже сохранён, сбой записи ключа лишь сужает
	// дедупликацию до следующего успешного повтора.
	if err := s.idem.Set(ctx, tenantID, clientKey, domain.IdempotencyRecord{
		ResultID:   order.ID,
		BodyDigest: digest,
	}, s.idemTTL); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"tenant_id": tenantID,
			"order_id":  order.ID,
		}).Warn("failed to store idempotency record")
	}

	metrics.ObserveOperation(metrics.OpCreate, metrics.ResultOK)
	s.notify(domain.EventTypeOrderCreated, order, nil)

	return order, nil
}

// Confirm подтверждает заказ с optimistic locking по наблюдаемой версии.
func (s *Service) Confirm(ctx context.Context, orderID, tenantID string, expectedVersion, totalCents int64) (domain.Order, error) {
	if totalCents < 0 {
		return domain.Order{}, domain.ErrTotalCentsNegative
	}

	order, err := s.repo.Get(ctx, tenantID, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if order.Version != expectedVersion {
		metrics.ObserveOperation(metrics.OpConfirm, metrics.ResultConflict)
		return domain.Order{}, &domain.VersionMismatchError{
			Expected: expectedVersion,
			Current:  order.Version,
		}
	}
	if order.Status != domain.OrderStatusDraft {
		metrics.ObserveOperation(metrics.OpConfirm, metrics.ResultRejected)
		return domain.Order{}, &domain.StatusTransitionError{
			From: order.Status,
			To:   domain.OrderStatusConfirmed,
		}
	}

	total := totalCents
	order.Status = domain.OrderStatusConfirmed
	order.TotalCents = &total
	order.Version = expectedVersion + 1
	order.UpdatedAt = s.now()

	// Условный UPDATE закрывает гонку между чтением выше и записью.
	if err := s.repo.UpdateVersioned(ctx, order, expectedVersion); err != nil {
		if domain.IsVersionMismatch(err) {
			metrics.ObserveOperation(metrics.OpConfirm, metrics.ResultConflict)
		} else {
			metrics.ObserveOperation(metrics.OpConfirm, metrics.ResultError)
		}
		return domain.Order{}, err
	}

	metrics.ObserveOperation(metrics.OpConfirm, metrics.ResultOK)
	s.notify(domain.EventTypeOrderConfirmed, order, nil)

	return order, nil
}

// Close закрывает подтверждённый заказ: смена статуса и запись в outbox
// коммитятся одной транзакцией — либо обе, либо ни одной.
func (s *Service) Close(ctx context.Context, orderID, tenantID string) (domain.Order, error) {
	order, err := s.repo.Get(ctx, tenantID, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if order.Status != domain.OrderStatusConfirmed {
		metrics.ObserveOperation(metrics.OpClose, metrics.ResultRejected)
		return domain.Order{}, &domain.StatusTransitionError{
			From: order.Status,
			To:   domain.OrderStatusClosed,
		}
	}

	observedVersion := order.Version
	now := s.now()

	order.Status = domain.OrderStatusClosed
	order.Version = observedVersion + 1
	order.UpdatedAt = now

	entry, err := s.buildClosedEntry(order, now)
	if err != nil {
		return domain.Order{}, err
	}

	err = s.uow.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateVersioned(txCtx, order, observedVersion); err != nil {
			return err
		}
		return s.outbox.Append(txCtx, entry)
	})
	if err != nil {
		if domain.IsVersionMismatch(err) {
			metrics.ObserveOperation(metrics.OpClose, metrics.ResultConflict)
		} else {
			metrics.ObserveOperation(metrics.OpClose, metrics.ResultError)
		}
		return domain.Order{}, err
	}

	metrics.ObserveOperation(metrics.OpClose, metrics.ResultOK)
	s.notify(domain.EventTypeOrderClosed, order, map[string]any{
		"closed_at": now.Format(time.RFC3339Nano),
	})

	return order, nil
}

// Page — результат одной страницы листинга.
type Page struct {
	Items []domain.Order
	// NextCursor пуст, когда последовательность исчерпана.
	NextCursor string
}

// List возвращает страницу заказов tenant-а в порядке (created_at DESC, id DESC).
// Граница limit валидируется на транспортном уровне; здесь limit считается корректным.
func (s *Service) List(ctx context.Context, tenantID string, limit int, cursor string) (Page, error) {
	if tenantID == "" {
		return Page{}, domain.ErrTenantRequired
	}

	var before *domain.PageKey
	if cursor != "" {
		key, err := DecodeCursor(cursor)
		if err != nil {
			metrics.ObserveOperation(metrics.OpList, metrics.ResultRejected)
			return Page{}, err
		}
		before = &key
	}

	// Берём limit+1 строк: лишняя строка означает наличие следующей страницы.
	rows, err := s.repo.ListPage(ctx, tenantID, before, limit)
	if err != nil {
		metrics.ObserveOperation(metrics.OpList, metrics.ResultError)
		return Page{}, fmt.Errorf("list orders page: %w", err)
	}

	page := Page{Items: rows}
	if len(rows) > limit {
		last := rows[limit-1]
		page.Items = rows[:limit]
		page.NextCursor = EncodeCursor(domain.PageKey{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	metrics.ObserveOperation(metrics.OpList, metrics.ResultOK)
	return page, nil
}

// buildClosedEntry формирует outbox-запись со снимком заказа на момент закрытия.
func (s *Service) buildClosedEntry(order domain.Order, closedAt time.Time) (domain.OutboxEntry, error) {
	snapshot := struct {
		OrderID    string `json:"order_id"`
		TenantID   string `json:"tenant_id"`
		TotalCents *int64 `json:"total_cents"`
		ClosedAt   string `json:"closed_at"`
	}{
		OrderID:    order.ID,
		TenantID:   order.TenantID,
		TotalCents: order.TotalCents,
		ClosedAt:   closedAt.Format(time.RFC3339Nano),
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return domain.OutboxEntry{}, fmt.Errorf("marshal outbox payload: %w", err)
	}

	return domain.OutboxEntry{
		ID:        uuid.NewString(),
		EventType: domain.EventTypeOrderClosed,
		OrderID:   order.ID,
		TenantID:  order.TenantID,
		Payload:   payload,
		CreatedAt: closedAt,
	}, nil
}

// notify отправляет событие best-effort: сбой уведомления логируется
// и никогда не влияет на результат операции.
func (s *Service) notify(eventType string, order domain.Order, extra map[string]any) {
	if s.notifier == nil {
		return
	}

	payload := map[string]any{
		"order_id":  order.ID,
		"tenant_id": order.TenantID,
		"status":    string(order.Status),
		"version":   order.Version,
	}
	if order.TotalCents != nil {
		payload["total_cents"] = *order.TotalCents
	}
	for k, v := range extra {
		payload[k] = v
	}

	if err := s.notifier.Notify(eventType, order.TenantID, payload); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"event_type": eventType,
			"order_id":   order.ID,
		}).Warn("event notification failed")
	}
}
