// Package kafka содержит публикацию доменных событий заказов в Kafka.
package kafka

import (
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// Producer публикует сообщения в Kafka через синхронный producer
// с подтверждением от всех реплик.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *log.Entry
}

// NewProducer создаёт подключение к брокерам и producer для topic.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Retry.Backoff = 200 * time.Millisecond
	config.Producer.Return.Successes = true
	config.Producer.Idempotent = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &Producer{
		producer: producer,
		topic:    topic,
		logger:   log.WithField("component", "kafka_producer"),
	}, nil
}

// Publish отправляет сообщение с ключом key в настроенный topic.
// Ключ определяет партицию: события одного заказа попадают в одну партицию.
func (p *Producer) Publish(key string, value []byte) error {
	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}

	p.logger.WithFields(log.Fields{
		"topic":     p.topic,
		"partition": partition,
		"offset":    offset,
	}).Debug("сообщение опубликовано")
	return nil
}

// Close завершает работу producer.
func (p *Producer) Close() error {
	return p.producer.Close()
}
