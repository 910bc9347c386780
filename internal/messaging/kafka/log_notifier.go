package kafka

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
)

// LogNotifier пишет события в лог вместо брокера.
// Используется, когда Kafka не сконфигурирована.
type LogNotifier struct {
	logger *log.Entry
}

// NewLogNotifier создаёт notifier, публикующий события только в лог.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: log.WithField("component", "event_notifier")}
}

var _ domain.EventNotifier = (*LogNotifier)(nil)

// Notify логирует событие и всегда завершается успешно.
func (n *LogNotifier) Notify(eventType, tenantID string, payload map[string]any) error {
	n.logger.WithFields(log.Fields{
		"event_type": eventType,
		"tenant_id":  tenantID,
		"payload":    payload,
	}).Info("событие заказа")
	return nil
}
