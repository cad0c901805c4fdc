package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/storefront-core/api/routes"
	"github.com/angelmondragon/storefront-core/internal/cart"
	"github.com/angelmondragon/storefront-core/internal/catalog"
	"github.com/angelmondragon/storefront-core/internal/checkout"
	"github.com/angelmondragon/storefront-core/internal/checkout/reservation"
	"github.com/angelmondragon/storefront-core/internal/customers"
	"github.com/angelmondragon/storefront-core/internal/orders"
	"github.com/angelmondragon/storefront-core/internal/ownership"
	"github.com/angelmondragon/storefront-core/pkg/commerce"
	"github.com/angelmondragon/storefront-core/pkg/config"
	"github.com/angelmondragon/storefront-core/pkg/db"
	"github.com/angelmondragon/storefront-core/pkg/instance"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/metrics"
	"github.com/angelmondragon/storefront-core/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
		Format:      cfg.App.LogFormat,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

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

	platform, err := commerce.NewClient(cfg.Commerce, commerce.WithMetrics(metrics.NewUpstreamMetrics(registry)))
	if err != nil {
		logg.Error(context.Background(), "failed to create commerce client", err)
		os.Exit(1)
	}

	deps, err := buildDependencies(cfg, logg, registry, platform, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}
	deps.DB = dbClient
	deps.Store = redisClient
	deps.Gatherer = registry
	deps.HTTPMetrics = metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}

func buildDependencies(cfg *config.Config, logg *logger.Logger, reg prometheus.Registerer, platform *commerce.Client, dbClient *db.Client) (routes.Dependencies, error) {
	gateway, err := catalog.NewGateway(platform)
	if err != nil {
		return routes.Dependencies{}, err
	}
	engine, err := reservation.NewEngine(gateway, platform, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}
	carts, err := cart.NewService(platform, engine, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}
	manager, err := newOrderManager(cfg, logg, reg, platform)
	if err != nil {
		return routes.Dependencies{}, err
	}
	checkoutSvc, err := checkout.NewService(carts, manager, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}

	catalogTier, err := ownership.NewCatalogTier(gateway)
	if err != nil {
		return routes.Dependencies{}, err
	}
	storeTier, err := ownership.NewStoreTier(dbClient, cfg.DB.PostsTable, cfg.DB.OwnerColumn, cfg.DB.QueryTimeout)
	if err != nil {
		return routes.Dependencies{}, err
	}
	contentTier, err := ownership.NewContentTier(platform)
	if err != nil {
		return routes.Dependencies{}, err
	}
	owners, err := ownership.NewResolver(
		[]ownership.Tier{catalogTier, storeTier, contentTier},
		cfg.Ownership,
		metrics.NewOwnershipMetrics(reg),
		logg,
	)
	if err != nil {
		return routes.Dependencies{}, err
	}
	sellerOrders, err := orders.NewSellerOrders(platform, owners, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}

	return routes.Dependencies{
		Carts:        carts,
		Checkout:     checkoutSvc,
		Orders:       manager,
		SellerOrders: sellerOrders,
		Owners:       owners,
	}, nil
}

func newOrderManager(cfg *config.Config, logg *logger.Logger, reg prometheus.Registerer, platform *commerce.Client) (orders.Manager, error) {
	resolver, err := customers.NewResolver(platform, logg, cfg.Password.GeneratedLength)
	if err != nil {
		return nil, err
	}
	stock, err := orders.NewStockAdjuster(platform, metrics.NewStockMetrics(reg))
	if err != nil {
		return nil, err
	}
	return orders.NewManager(platform, resolver, stock, orders.ManagerConfig{
		AutoReduceStatuses: cfg.Commerce.AutoReduceStatuses,
		GuestFallback:      cfg.Orders.GuestFallback(),
		RecordAttempts:     cfg.Orders.RecordAttempts,
		RecordBackoff:      cfg.Orders.RecordBackoff,
	}, logg)
}
