package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

func TestWorker_ProcessOnce_MarksPublished(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{
		pending: []domain.OutboxEntry{
			{
				ID:        "entry-1",
				EventType: domain.EventTypeOrderClosed,
				OrderID:   "order-1",
				TenantID:  "tenant-1",
				Payload:   []byte(`{"order_id":"order-1"}`),
				CreatedAt: time.Now().UTC(),
			},
		},
	}
	publisher := &stubPublisher{}

	worker := NewWorker(
		repo,
		publisher,
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)

	worker.ProcessOnce(context.Background())

	if got := len(repo.publishedIDs); got != 1 {
		t.Fatalf("expected 1 published mark, got %d", got)
	}
	if repo.publishedIDs[0] != "entry-1" {
		t.Fatalf("expected published id entry-1, got %s", repo.publishedIDs[0])
	}
	if got := publisher.calls(); got != 1 {
		t.Fatalf("expected 1 publish call, got %d", got)
	}
}

func TestWorker_ProcessOnce_LeavesEntryUnpublishedAfterRetries(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{
		pending: []domain.OutboxEntry{
			{
				ID:        "entry-2",
				EventType: domain.EventTypeOrderClosed,
				OrderID:   "order-2",
				TenantID:  "tenant-1",
				Payload:   []byte(`{"order_id":"order-2"}`),
				CreatedAt: time.Now().UTC(),
			},
		},
	}
	publisher := &stubPublisher{err: errors.New("publish failed")}

	worker := NewWorker(
		repo,
		publisher,
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)

	worker.ProcessOnce(context.Background())

	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
	// Запись остаётся в очереди и будет повторена на следующем цикле.
	if got := len(repo.publishedIDs); got != 0 {
		t.Fatalf("expected 0 published marks, got %d", got)
	}
}

func TestWorker_ProcessOnce_SuccessAfterRetry(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{
		pending: []domain.OutboxEntry{
			{
				ID:        "entry-3",
				EventType: domain.EventTypeOrderClosed,
				OrderID:   "order-3",
				TenantID:  "tenant-1",
				Payload:   []byte(`{"order_id":"order-3"}`),
				CreatedAt: time.Now().UTC(),
			},
		},
	}
	publisher := &stubPublisher{
		sequenceErrors: []error{
			errors.New("attempt 1"),
			errors.New("attempt 2"),
			nil,
		},
	}

	worker := NewWorker(
		repo,
		publisher,
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)

	worker.ProcessOnce(context.Background())

	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
	if got := len(repo.publishedIDs); got != 1 {
		t.Fatalf("expected 1 published mark, got %d", got)
	}
}

func TestWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	worker := NewWorker(
		&stubOutboxRepo{},
		&stubPublisher{},
		WithPollInterval(5*time.Millisecond),
		WithRetryBaseDelay(0),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

type stubOutboxRepo struct {
	mu           sync.Mutex
	pending      []domain.OutboxEntry
	publishedIDs []string
}

func (s *stubOutboxRepo) Append(_ context.Context, entry domain.OutboxEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, entry)
	return nil
}

func (s *stubOutboxRepo) PullUnpublished(_ context.Context, limit int) ([]domain.OutboxEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	published := make(map[string]bool, len(s.publishedIDs))
	for _, id := range s.publishedIDs {
		published[id] = true
	}

	var result []domain.OutboxEntry
	for _, entry := range s.pending {
		if published[entry.ID] {
			continue
		}
		result = append(result, entry)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *stubOutboxRepo) MarkPublished(_ context.Context, id string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishedIDs = append(s.publishedIDs, id)
	return nil
}

func (s *stubOutboxRepo) Stats(context.Context) (domain.OutboxStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := domain.OutboxStats{PendingCount: len(s.pending) - len(s.publishedIDs)}
	if stats.PendingCount > 0 {
		oldest := s.pending[0].CreatedAt
		stats.OldestPendingAt = &oldest
	}
	return stats, nil
}

type stubPublisher struct {
	mu             sync.Mutex
	err            error
	sequenceErrors []error
	callCount      int
}

func (s *stubPublisher) Publish(domain.OutboxEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callCount++
	if len(s.sequenceErrors) > 0 {
		err := s.sequenceErrors[0]
		s.sequenceErrors = s.sequenceErrors[1:]
		return err
	}
	return s.err
}

func (s *stubPublisher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount
}

var (
	_ domain.OutboxRepository = (*stubOutboxRepo)(nil)
	_ domain.OutboxPublisher  = (*stubPublisher)(nil)
)
