package main

import (
	"context"
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"paygate/internal/app"
	"paygate/internal/config"
	"paygate/internal/gateway"
	"paygate/internal/metrics"
	internalRedis "paygate/internal/redis"
	"paygate/internal/repository/postgres"
	"paygate/internal/service"
)

// env holds the connections a command needs. Fields are nil until opened.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client

	closeEvents func() error
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := app.NewLogger(cfg.Log, cfg.Gateway.Debugging)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger}, nil
}

func (e *env) openDB(ctx context.Context) error {
	db, err := app.NewDatabase(ctx, e.cfg.Database, nil)
	if err != nil {
		return err
	}
	e.db = db
	return nil
}

func (e *env) openRedis(ctx context.Context) error {
	client, err := app.NewRedisClient(ctx, e.cfg.Redis, nil)
	if err != nil {
		return err
	}
	e.redis = client
	return nil
}

func (e *env) journal() *internalRedis.OperationJournal {
	return internalRedis.NewOperationJournal(e.redis)
}

func (e *env) operations() *service.OperationsService {
	return service.NewOperationsService(e.journal(), e.logger)
}

// paymentGateway builds the full payment gateway against the configured processor.
func (e *env) paymentGateway() *service.SampleGateway {
	m := metrics.New(prometheus.NewRegistry())
	client := gateway.NewInstrumentedClient(app.NewProcessorClient(e.cfg.Gateway), m)
	orders := postgres.NewOrderRepository(e.db)
	locks := internalRedis.NewOrderLockStore(e.redis, e.cfg.Redis.LockTTL, e.cfg.Redis.LockWait)
	journal := e.journal()
	publisher, closeEvents := app.NewEventPublisher(e.cfg.Kafka, e.logger)
	e.closeEvents = closeEvents

	transactions := service.NewTransactionService(e.cfg.Gateway.Name, orders, client, locks, journal, publisher, e.logger)
	refunds := service.NewRefundService(orders, client, locks, journal, publisher, m, e.logger)
	return service.NewSampleGateway(e.cfg.Gateway, transactions, refunds, e.cfg.Store)
}

func (e *env) Close() {
	if e.closeEvents != nil {
		if err := e.closeEvents(); err != nil {
			e.logger.Warn("failed to close event sink", zap.Error(err))
		}
	}
	if e.db != nil {
		_ = e.db.Close()
	}
	if e.redis != nil {
		_ = e.redis.Close()
	}
	_ = e.logger.Sync()
}
