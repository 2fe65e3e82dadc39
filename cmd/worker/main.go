// Package main is the entry point for the minimarket background worker.
// It relays committed-sale outbox messages into receipt dispatch and runs
// the nightly cash-closure sweep.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"

	"minimarket/internal/config"
	"minimarket/internal/domain/inventory"
	"minimarket/internal/domain/receipts"
	"minimarket/internal/domain/sales"
	"minimarket/internal/infrastructure/cache"
	"minimarket/internal/infrastructure/email"
	"minimarket/internal/infrastructure/events"
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
	log = log.WithComponent("worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting minimarket worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN())
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool, postgres.DefaultRetryConfig())

	productRepo := catalog_repo.NewProductRepo(txManager)
	customerRepo := catalog_repo.NewCustomerRepo(txManager)
	saleRepo := sale_repo.NewSaleRepo(txManager)
	templateRepo := settings_repo.NewTemplateRepo(txManager)

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
		receipts.NopMetrics{},
		receipts.Config{Timeout: cfg.Receipts.DispatchTimeout},
	)

	relay := postgres.NewOutboxRelay(
		pool.Unwrap(),
		cfg.Worker.RelayBatchSize,
		events.NewReceiptHandler(dispatcher),
	)

	// The sweep reuses the sale service so the closure runs in a proper
	// transaction with the same logging as the API path.
	guard := inventory.NewGuard(productRepo)
	allocator := sales.NewAllocator(saleRepo, sales.AllocatorConfig{
		Attempts:   cfg.Sales.NumberAttempts,
		RetryDelay: cfg.Sales.NumberRetryDelay,
	})
	calculator := sales.NewCalculator(cfg.Sales.TaxRate)
	publisher := events.NewSalePublisher(postgres.NewOutboxPublisher(txManager))
	saleService := sales.NewService(
		saleRepo, customerRepo, guard, allocator, calculator,
		txManager, publisher, dispatcher, sales.NopMetrics{},
	)

	// --- Scheduled cash-closure sweep ---
	scheduler := gocron.NewScheduler(time.UTC)
	_, err = scheduler.Cron(cfg.Worker.ClosureSchedule).Do(func() {
		closed, err := saleService.CloseCashPeriod(ctx, time.Now().UTC())
		if err != nil {
			log.Errorw("cash closure sweep failed", "error", err)
			return
		}
		log.Infow("cash closure sweep finished", "closed", closed)
	})
	if err != nil {
		log.Fatalw("failed to schedule cash closure sweep", "error", err)
	}
	scheduler.StartAsync()
	defer scheduler.Stop()

	// --- Outbox relay loop ---
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runRelay(ctx, relay, cfg.Worker.RelayInterval, log)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

func runRelay(ctx context.Context, relay *postgres.OutboxRelay, interval time.Duration, log *logger.Logger) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			processed, err := relay.ProcessBatch(ctx)
			if err != nil {
				log.Errorw("outbox relay batch failed", "error", err)
				continue
			}
			if processed > 0 {
				log.Debugw("outbox relay batch processed", "count", processed)
			}
		}
	}
}
