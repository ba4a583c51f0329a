package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/silkmall/silkmall-backend/api/routes"
	"github.com/silkmall/silkmall-backend/internal/accounts"
	"github.com/silkmall/silkmall-backend/internal/inventory"
	"github.com/silkmall/silkmall-backend/internal/orders"
	"github.com/silkmall/silkmall-backend/internal/products"
	"github.com/silkmall/silkmall-backend/internal/returns"
	"github.com/silkmall/silkmall-backend/internal/reviews"
	"github.com/silkmall/silkmall-backend/internal/wallet"
	"github.com/silkmall/silkmall-backend/pkg/config"
	"github.com/silkmall/silkmall-backend/pkg/db"
	"github.com/silkmall/silkmall-backend/pkg/logger"
	"github.com/silkmall/silkmall-backend/pkg/metrics"
	"github.com/silkmall/silkmall-backend/pkg/migrate"
	"github.com/silkmall/silkmall-backend/pkg/outbox"
	"github.com/silkmall/silkmall-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	marketplaceMetrics := metrics.NewMarketplaceMetrics(registry)

	gormDB := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)
	accountsRepo := accounts.NewRepository(gormDB)
	productsRepo := products.NewRepository(gormDB)
	walletLedger := wallet.NewLedger()

	ordersSvc, err := orders.NewService(
		orders.NewRepository(gormDB),
		accountsRepo,
		productsRepo,
		inventory.NewLedger(),
		walletLedger,
		dbClient,
		outboxSvc,
		marketplaceMetrics,
		cfg.Marketplace,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	refundPolicy := &returns.LedgerRefundPolicy{Wallet: walletLedger, Accounts: accountsRepo}
	returnsSvc, err := returns.NewService(returns.NewRepository(gormDB), dbClient, outboxSvc, refundPolicy, marketplaceMetrics, cfg.Marketplace)
	if err != nil {
		logg.Error(context.Background(), "failed to create returns service", err)
		os.Exit(1)
	}

	reviewsSvc, err := reviews.NewService(reviews.NewRepository(gormDB), dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create reviews service", err)
		os.Exit(1)
	}

	walletSvc, err := wallet.NewService(wallet.NewRepository(gormDB), walletLedger, dbClient, outboxSvc, redisClient, marketplaceMetrics, cfg.Wallet)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
			Orders:  ordersSvc,
			Returns: returnsSvc,
			Reviews: reviewsSvc,
			Wallet:  walletSvc,
		}, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
