package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/havenandoak/storefront-backend/api/routes"
	"github.com/havenandoak/storefront-backend/internal/auth"
	"github.com/havenandoak/storefront-backend/internal/catalog"
	"github.com/havenandoak/storefront-backend/internal/coupons"
	"github.com/havenandoak/storefront-backend/internal/orders"
	"github.com/havenandoak/storefront-backend/internal/payments"
	"github.com/havenandoak/storefront-backend/internal/users"
	"github.com/havenandoak/storefront-backend/pkg/auth/session"
	"github.com/havenandoak/storefront-backend/pkg/cache"
	"github.com/havenandoak/storefront-backend/pkg/config"
	"github.com/havenandoak/storefront-backend/pkg/db"
	"github.com/havenandoak/storefront-backend/pkg/logger"
	"github.com/havenandoak/storefront-backend/pkg/metrics"
	"github.com/havenandoak/storefront-backend/pkg/migrate"
	"github.com/havenandoak/storefront-backend/pkg/outbox"
	"github.com/havenandoak/storefront-backend/pkg/outbox/idempotency"
	"github.com/havenandoak/storefront-backend/pkg/redis"
	"github.com/havenandoak/storefront-backend/pkg/square"
)

const (
	shutdownGrace    = 15 * time.Second
	webhookReplayTTL = 72 * time.Hour
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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	closeClients := func() {
		var closeErr error
		closeErr = multierr.Append(closeErr, redisClient.Close())
		closeErr = multierr.Append(closeErr, dbClient.Close())
		if closeErr != nil {
			logg.Error(context.Background(), "error closing clients", closeErr)
		}
	}
	defer closeClients()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	var couponCache cache.Cache
	switch cfg.Cache.Backend {
	case "noop":
		couponCache = cache.NewNoop()
	default:
		couponCache = cache.NewRedis(redisClient, cfg.Cache.DefaultTTL)
	}

	gateway := buildGateway(cfg, logg)

	authService, err := auth.NewService(users.NewRepository(dbClient.DB()), sessionManager, cfg.JWT, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	couponsService, err := coupons.NewService(coupons.NewRepository(dbClient.DB()), couponCache, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupons service", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	ordersService, err := orders.NewService(
		orders.NewRepository(dbClient.DB()),
		catalog.NewRepository(dbClient.DB()),
		couponsService,
		dbClient,
		outboxService,
		gateway,
		logg,
		cfg.Delivery.DefaultLeadDays,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(users.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	webhookGuard, err := idempotency.NewManager(redisClient, webhookReplayTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
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
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(routes.Deps{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			Sessions:       sessionManager,
			AuthService:    authService,
			OrdersService:  ordersService,
			CouponsService: couponsService,
			UsersService:   usersService,
			Gateway:        gateway,
			WebhookGuard:   webhookGuard,
			HTTPMetrics:    metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			closeClients()
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		graceCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	logg.Info(ctx, "api server stopped")
}

// buildGateway returns nil when Square is not configured; card orders are
// refused by the order service in that case, COD keeps working.
func buildGateway(cfg *config.Config, logg *logger.Logger) payments.Gateway {
	if cfg.Square.AccessToken == "" {
		logg.Warn(context.Background(), "square not configured, card payments disabled")
		return nil
	}
	client, err := square.NewClient(context.Background(), cfg.Square, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap square client", err)
		os.Exit(1)
	}
	gateway, err := payments.NewSquareGateway(client, cfg.App.PublicURL)
	if err != nil {
		logg.Error(context.Background(), "failed to create square gateway", err)
		os.Exit(1)
	}
	return gateway
}
