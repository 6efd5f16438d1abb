package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"paygate/internal/app"
	"paygate/internal/config"
	"paygate/internal/gateway"
	"paygate/internal/handler"
	"paygate/internal/metrics"
	internalRedis "paygate/internal/redis"
	"paygate/internal/repository/postgres"
	"paygate/internal/service"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := app.NewLogger(cfg.Log, cfg.Gateway.Debugging)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	nrApp := app.NewNewRelic(cfg.NewRelic, logger)

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	publisher, closeEvents := app.NewEventPublisher(cfg.Kafka, logger)
	defer func() {
		if err := closeEvents(); err != nil {
			logger.Warn("failed to close event sink", zap.Error(err))
		}
	}()

	// Wire dependencies.
	server := wireServer(db, redisClient, nrApp, publisher, logger, cfg)

	// Start server in goroutine.
	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.Server.Port),
			zap.String("gateway", cfg.Gateway.Name),
			zap.String("processor_mode", cfg.Gateway.ProcessorMode),
			zap.Bool("sandbox", cfg.Gateway.SandboxMode))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Processor calls may take up to the API timeout; let them finish and record their outcome.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Gateway.APITimeout+5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	db *sql.DB,
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	publisher service.EventPublisher,
	logger *zap.Logger,
	cfg *config.Config,
) *http.Server {
	m := metrics.New(prometheus.DefaultRegisterer)

	// Initialize Redis stores.
	lockStore := internalRedis.NewOrderLockStore(redisClient, cfg.Redis.LockTTL, cfg.Redis.LockWait)
	journal := internalRedis.NewOperationJournal(redisClient)

	// Initialize repositories.
	orderRepo := postgres.NewOrderRepository(db)

	// Initialize services.
	client := gateway.NewInstrumentedClient(app.NewProcessorClient(cfg.Gateway), m)
	transactionService := service.NewTransactionService(cfg.Gateway.Name, orderRepo, client, lockStore, journal, publisher, logger.Named("transactions"))
	refundService := service.NewRefundService(orderRepo, client, lockStore, journal, publisher, m, logger.Named("refunds"))
	operationsService := service.NewOperationsService(journal, logger.Named("operations"))
	paymentGateway := service.NewSampleGateway(cfg.Gateway, transactionService, refundService, cfg.Store)

	// Initialize handlers.
	orderHandler := handler.NewOrderHandler(orderRepo, paymentGateway.Name())
	paymentHandler := handler.NewPaymentHandler(paymentGateway, orderRepo)
	operationsHandler := handler.NewOperationsHandler(operationsService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		OrderHandler:      orderHandler,
		PaymentHandler:    paymentHandler,
		OperationsHandler: operationsHandler,
		RedisClient:       redisClient,
		NewRelicApp:       nrApp,
		Metrics:           m,
		Logger:            logger,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
