package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

const eventSource = "orders-service"

// eventEnvelope — формат события в топике заказов.
type eventEnvelope struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	Source        string         `json:"source"`
	TenantID      string         `json:"tenant_id"`
	Time          time.Time      `json:"time"`
	SchemaVersion string         `json:"schema_version"`
	Data          map[string]any `json:"data"`
}

// Notifier публикует события жизненного цикла заказов в Kafka.
type Notifier struct {
	producer *Producer
}

// NewNotifier создаёт notifier поверх готового producer.
func NewNotifier(producer *Producer) *Notifier {
	return &Notifier{producer: producer}
}

var _ domain.EventNotifier = (*Notifier)(nil)

// Notify заворачивает payload в конверт события и публикует его.
// Ключом сообщения служит order_id из payload, чтобы события
// одного заказа сохраняли порядок.
func (n *Notifier) Notify(eventType, tenantID string, payload map[string]any) error {
	envelope := eventEnvelope{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        eventSource,
		TenantID:      tenantID,
		Time:          time.Now().UTC(),
		SchemaVersion: "1",
		Data:          payload,
	}

	raw, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", eventType, err)
	}

	key := tenantID
	if orderID, ok := payload["order_id"].(string); ok && orderID != "" {
		key = orderID
	}
	return n.producer.Publish(key, raw)
}
