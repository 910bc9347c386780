// Package app собирает зависимости сервиса заказов и управляет
// его жизненным циклом.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orders/internal/domain"
	"github.com/vladislavdragonenkov/orders/internal/health"
	ordersvc "github.com/vladislavdragonenkov/orders/internal/service/orders"
	"github.com/vladislavdragonenkov/orders/internal/service/outbox"
	"github.com/vladislavdragonenkov/orders/internal/storage/memory"
	"github.com/vladislavdragonenkov/orders/internal/storage/postgres"
	redisstore "github.com/vladislavdragonenkov/orders/internal/storage/redis"
	transporthttp "github.com/vladislavdragonenkov/orders/internal/transport/http"
	"github.com/vladislavdragonenkov/orders/internal/version"
)

const shutdownTimeout = 10 * time.Second

// dependencies — собранный граф зависимостей приложения.
type dependencies struct {
	orderRepo  domain.OrderRepository
	outboxRepo domain.OutboxRepository
	idemStore  domain.IdempotencyStore
	uow        domain.UnitOfWork
	notifier   domain.EventNotifier
	publisher  domain.OutboxPublisher
	health     *health.Handler
	closers    []func() error
}

func (d *dependencies) close(logger *log.Entry) {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			logger.WithError(err).Warn("failed to close dependency")
		}
	}
}

// Run запускает сервис и блокируется до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	logger.WithField("build", version.String()).Info("запуск сервиса заказов")

	deps, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	engine := ordersvc.NewService(
		deps.orderRepo,
		deps.outboxRepo,
		deps.idemStore,
		deps.uow,
		deps.notifier,
		ordersvc.WithIdempotencyTTL(cfg.IdempotencyTTL),
	)

	relay := outbox.NewWorker(
		deps.outboxRepo,
		deps.publisher,
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
	)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		relay.Run(workerCtx)
	}()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           transporthttp.NewRouter(engine, deps.health),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP сервер слушает %s", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("graceful shutdown превысил таймаут")
			_ = srv.Close()
		}

		stopWorker()
		<-workerDone
		return ctx.Err()
	case err := <-errCh:
		stopWorker()
		<-workerDone
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// buildDependencies создаёт хранилища, notifier и health-проверки
// в соответствии с конфигурацией.
func buildDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*dependencies, error) {
	deps := &dependencies{
		health: health.NewHandler(version.GetVersion()),
	}

	switch cfg.Storage {
	case StoragePostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("init postgres storage: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}

		deps.orderRepo = postgres.NewOrderRepository(store)
		deps.outboxRepo = postgres.NewOutboxRepository(store)
		deps.uow = store
		deps.closers = append(deps.closers, store.Close)
		deps.health.RegisterChecker("postgres", health.CheckerFunc(store.Ping))
		logger.Info("postgres storage initialized")
	default:
		store := memory.NewStore()
		deps.orderRepo = memory.NewOrderRepository(store)
		deps.outboxRepo = memory.NewOutboxRepository(store)
		deps.uow = store
		deps.idemStore = memory.NewIdempotencyStore(store)
		logger.Info("in-memory storage initialized")
	}

	if cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			deps.close(logger)
			return nil, fmt.Errorf("ping redis: %w", err)
		}

		deps.idemStore = redisstore.NewIdempotencyStore(client)
		deps.closers = append(deps.closers, client.Close)
		deps.health.RegisterChecker("redis", health.CheckerFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}))
		logger.WithField("addr", cfg.RedisAddr).Info("redis idempotency store initialized")
	}
	if deps.idemStore == nil {
		// Postgres без Redis: дедупликация живёт в памяти процесса.
		store := memory.NewStore()
		deps.idemStore = memory.NewIdempotencyStore(store)
		logger.Warn("redis is not configured, using in-process idempotency store")
	}

	notifier, publisher, closer, err := initKafka(cfg, logger)
	if err != nil {
		deps.close(logger)
		return nil, err
	}
	deps.notifier = notifier
	deps.publisher = publisher
	if closer != nil {
		deps.closers = append(deps.closers, closer)
	}

	return deps, nil
}
