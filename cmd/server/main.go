// Package main is the entry point for the minimarket API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"minimarket/internal/config"
	"minimarket/internal/domain/inventory"
	"minimarket/internal/domain/receipts"
	"minimarket/internal/domain/sales"
	"minimarket/internal/infrastructure/cache"
	"minimarket/internal/infrastructure/email"
	"minimarket/internal/infrastructure/events"
	v1 "minimarket/internal/infrastructure/http/v1"
	"minimarket/internal/infrastructure/metrics"
	"minimarket/internal/infrastructure/render"
	"minimarket/internal/infrastructure/storage/postgres"
	"minimarket/internal/infrastructure/storage/postgres/catalog_repo"
	"minimarket/internal/infrastructure/storage/postgres/sale_repo"
	"minimarket/internal/infrastructure/storage/postgres/settings_repo"
	"minimarket/pkg/logger"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Env == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Infow("starting minimarket server", "env", cfg.App.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN())
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	retryCfg := postgres.DefaultRetryConfig()
	if cfg.Sales.TxAttempts > 0 {
		retryCfg.Attempts = cfg.Sales.TxAttempts
	}
	txManager := postgres.NewTxManager(pool, retryCfg)

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			postgres.LogPoolStats(ctx, pool.Unwrap())
		}
	}()

	// --- Repositories ---
	productRepo := catalog_repo.NewProductRepo(txManager)
	customerRepo := catalog_repo.NewCustomerRepo(txManager)
	saleRepo := sale_repo.NewSaleRepo(txManager)
	templateRepo := settings_repo.NewTemplateRepo(txManager)

	// --- Metrics ---
	collectors := metrics.New(prometheus.DefaultRegisterer)

	// --- Receipt dispatch (synchronous path for resends) ---
	renderer, err := render.NewRenderer(cfg.Receipts.FromName)
	if err != nil {
		log.Fatalw("failed to build receipt renderer", "error", err)
	}
	sender := email.NewSender(email.Config{
		Host:      cfg.Receipts.SMTPHost,
		Port:      cfg.Receipts.SMTPPort,
		Username:  cfg.Receipts.SMTPUsername,
		Password:  cfg.Receipts.SMTPPassword,
		FromName:  cfg.Receipts.FromName,
		FromEmail: cfg.Receipts.FromEmail,
	})
	dispatcher := receipts.NewDispatcher(
		saleRepo,
		customerRepo,
		renderer,
		sender,
		cache.NewTemplateCache(templateRepo, cache.DefaultTemplateTTL),
		collectors,
		receipts.Config{Timeout: cfg.Receipts.DispatchTimeout},
	)

	// --- Sale engine ---
	guard := inventory.NewGuard(productRepo)
	allocator := sales.NewAllocator(saleRepo, sales.AllocatorConfig{
		Attempts:   cfg.Sales.NumberAttempts,
		RetryDelay: cfg.Sales.NumberRetryDelay,
	})
	calculator := sales.NewCalculator(cfg.Sales.TaxRate)
	publisher := events.NewSalePublisher(postgres.NewOutboxPublisher(txManager))

	saleService := sales.NewService(
		saleRepo,
		customerRepo,
		guard,
		allocator,
		calculator,
		txManager,
		publisher,
		dispatcher,
		collectors,
	)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:        pool,
		Logger:      log,
		SaleService: saleService,
		Collectors:  collectors,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
