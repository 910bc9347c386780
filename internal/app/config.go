package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// StorageBackend выбирает реализацию хранилища заказов.
type StorageBackend string

const (
	StorageMemory   StorageBackend = "memory"
	StoragePostgres StorageBackend = "postgres"
)

// Config описывает настройки запуска сервиса заказов.
type Config struct {
	HTTPAddr string `env:"ORDERS_HTTP_ADDR" envDefault:":8080"`

	Storage     StorageBackend `env:"ORDERS_STORAGE" envDefault:"memory"`
	PostgresDSN string         `env:"ORDERS_POSTGRES_DSN"`

	RedisAddr     string `env:"ORDERS_REDIS_ADDR"`
	RedisPassword string `env:"ORDERS_REDIS_PASSWORD"`
	RedisDB       int    `env:"ORDERS_REDIS_DB" envDefault:"0"`

	KafkaBrokers []string `env:"ORDERS_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"ORDERS_KAFKA_TOPIC" envDefault:"orders.events"`

	IdempotencyTTL     time.Duration `env:"ORDERS_IDEMPOTENCY_TTL" envDefault:"24h"`
	OutboxPollInterval time.Duration `env:"ORDERS_OUTBOX_POLL_INTERVAL" envDefault:"1s"`
	OutboxBatchSize    int           `env:"ORDERS_OUTBOX_BATCH_SIZE" envDefault:"100"`

	LogLevel  string `env:"ORDERS_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"ORDERS_LOG_FORMAT" envDefault:"json"`
}

// LoadConfig читает конфигурацию из переменных окружения.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("ORDERS_POSTGRES_DSN is required when ORDERS_STORAGE=postgres")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage)
	}

	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("ORDERS_IDEMPOTENCY_TTL must be positive")
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("ORDERS_OUTBOX_BATCH_SIZE must be positive")
	}
	return nil
}
