package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/messaging/kafka"
)

// initKafka создаёт notifier и outbox-паблишер. Без брокеров
// сервис продолжает работу с доставкой событий в лог.
func initKafka(cfg Config, logger *log.Entry) (domain.EventNotifier, domain.OutboxPublisher, func() error, error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("kafka is not configured, events will be delivered to log only")
		return kafka.NewLogNotifier(), kafka.NewLogPublisher(), nil, nil
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return kafka.NewLogNotifier(), kafka.NewLogPublisher(), nil, nil
	}

	logger.WithFields(log.Fields{
		"brokers": cfg.KafkaBrokers,
		"topic":   cfg.KafkaTopic,
	}).Info("kafka producer initialized")

	return kafka.NewNotifier(producer), kafka.NewOutboxPublisher(producer), producer.Close, nil
}
