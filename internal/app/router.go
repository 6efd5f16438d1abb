package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"paygate/internal/handler"
	"paygate/internal/metrics"
	"paygate/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	OrderHandler      *handler.OrderHandler
	PaymentHandler    *handler.PaymentHandler
	OperationsHandler *handler.OperationsHandler
	RedisClient       *redis.Client
	NewRelicApp       *newrelic.Application
	Metrics           *metrics.Metrics
	Logger            *zap.Logger
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.CORSMiddleware())

	if deps.Metrics != nil {
		router.Use(middleware.MetricsMiddleware(deps.Metrics))
	}

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
		router.Use(middleware.NewRelicAttributes())
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.Use(middleware.IdempotencyMiddleware(deps.RedisClient))
	{
		v1.GET("/eligibility", deps.PaymentHandler.Eligibility)
		v1.GET("/operations/unresolved", deps.OperationsHandler.ListUnresolved)

		// Order routes.
		orders := v1.Group("/orders")
		{
			orders.POST("", deps.OrderHandler.CreateOrder)
			orders.GET("/:id", deps.OrderHandler.GetOrder)
			orders.POST("/:id/process", deps.PaymentHandler.ProcessPayment)
			orders.POST("/:id/capture", deps.PaymentHandler.CapturePayment)
			orders.POST("/:id/refunds", deps.PaymentHandler.RefundPayment)
			orders.POST("/:id/operations/:op/resolve", deps.OperationsHandler.Resolve)
		}
	}

	return router
}
