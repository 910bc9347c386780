package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// OutboxTopicPublisher публикует outbox-записи в Kafka.
type OutboxTopicPublisher struct {
	producer *Producer
}

// NewOutboxPublisher создаёт Kafka-паблишер для transactional outbox.
func NewOutboxPublisher(producer *Producer) *OutboxTopicPublisher {
	return &OutboxTopicPublisher{producer: producer}
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)

// Publish заворачивает запись в конверт события и отправляет её в topic.
// Ключ сообщения — order_id: события одного заказа сохраняют порядок.
func (p *OutboxTopicPublisher) Publish(entry domain.OutboxEntry) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka outbox publisher is not initialized")
	}

	raw, err := json.Marshal(struct {
		ID            string          `json:"id"`
		Type          string          `json:"type"`
		Source        string          `json:"source"`
		TenantID      string          `json:"tenant_id"`
		Time          time.Time       `json:"time"`
		SchemaVersion string          `json:"schema_version"`
		Data          json.RawMessage `json:"data"`
	}{
		ID:            entry.ID,
		Type:          entry.EventType,
		Source:        eventSource,
		TenantID:      entry.TenantID,
		Time:          time.Now().UTC(),
		SchemaVersion: "1",
		Data:          json.RawMessage(entry.Payload),
	})
	if err != nil {
		return fmt.Errorf("encode outbox event %s: %w", entry.ID, err)
	}

	key := entry.OrderID
	if key == "" {
		key = entry.ID
	}
	return p.producer.Publish(key, raw)
}

// LogPublisher пишет outbox-записи в лог вместо брокера.
// Используется, когда Kafka не сконфигурирована, чтобы outbox не рос бесконечно.
type LogPublisher struct {
	logger *log.Entry
}

// NewLogPublisher создаёт publisher, доставляющий события только в лог.
func NewLogPublisher() *LogPublisher {
	return &LogPublisher{logger: log.WithField("component", "outbox_publisher")}
}

var _ domain.OutboxPublisher = (*LogPublisher)(nil)

// Publish логирует запись и всегда завершается успешно.
func (p *LogPublisher) Publish(entry domain.OutboxEntry) error {
	p.logger.WithFields(log.Fields{
		"outbox_id":  entry.ID,
		"event_type": entry.EventType,
		"order_id":   entry.OrderID,
		"tenant_id":  entry.TenantID,
	}).Info("outbox-событие доставлено в лог")
	return nil
}
