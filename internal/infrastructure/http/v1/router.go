// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"minimarket/internal/domain/sales"
	"minimarket/internal/infrastructure/http/v1/handlers"
	"minimarket/internal/infrastructure/http/v1/middleware"
	"minimarket/internal/infrastructure/metrics"
	"minimarket/internal/infrastructure/storage/postgres"
	"minimarket/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool, used by health checks.
	Pool *postgres.Pool

	// Logger for request logging.
	Logger *logger.Logger

	// SaleService drives all sale operations.
	SaleService *sales.Service

	// Collectors back the /metrics endpoint and HTTP instrumentation.
	Collectors *metrics.Collectors
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Collectors != nil {
		router.Use(middleware.Metrics(cfg.Collectors))
	}
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	apiV1 := router.Group("/api/v1")
	{
		baseHandler := handlers.NewBaseHandler()
		saleHandler := handlers.NewSaleHandler(baseHandler, cfg.SaleService)
		saleHandler.RegisterRoutes(apiV1)
	}

	return router
}
