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

	"github.com/abelkene001/mini-biz/api/controllers"
	"github.com/abelkene001/mini-biz/api/routes"
	"github.com/abelkene001/mini-biz/internal/accounts"
	"github.com/abelkene001/mini-biz/internal/notifications"
	"github.com/abelkene001/mini-biz/internal/orders"
	"github.com/abelkene001/mini-biz/internal/payments"
	"github.com/abelkene001/mini-biz/internal/products"
	"github.com/abelkene001/mini-biz/internal/shops"
	"github.com/abelkene001/mini-biz/internal/subscriptions"
	"github.com/abelkene001/mini-biz/pkg/config"
	"github.com/abelkene001/mini-biz/pkg/db"
	"github.com/abelkene001/mini-biz/pkg/instance"
	"github.com/abelkene001/mini-biz/pkg/logger"
	"github.com/abelkene001/mini-biz/pkg/metrics"
	"github.com/abelkene001/mini-biz/pkg/migrate"
	"github.com/abelkene001/mini-biz/pkg/paystack"
	"github.com/abelkene001/mini-biz/pkg/redis"
	"github.com/abelkene001/mini-biz/pkg/storage/gcs"
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
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(ctx, "failed to access sql database", err)
		os.Exit(1)
	}
	if err := migrate.MaybeRunDev(ctx, cfg, logg, sqlDB); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	deps := routes.Dependencies{
		Config:    cfg,
		Logger:    logg,
		Registry:  metrics.NewRegistry(),
		Readiness: []controllers.ReadinessCheck{{Name: "db", Pinger: dbClient}},
	}
	external := metrics.NewExternalCallMetrics(deps.Registry)

	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		deps.Idempotency = redisClient
		deps.RateLimiter = redisClient
		deps.Readiness = append(deps.Readiness, controllers.ReadinessCheck{Name: "redis", Pinger: redisClient})
	} else {
		logg.Warn(ctx, "redis not configured; idempotency and order rate limiting disabled")
		deps.Readiness = append(deps.Readiness, controllers.ReadinessCheck{Name: "redis"})
	}

	store, err := gcs.NewClient(ctx, cfg.Storage, cfg.GCP, logg, external)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap object storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Error(context.Background(), "error closing object storage", err)
		}
	}()
	deps.Readiness = append(deps.Readiness, controllers.ReadinessCheck{Name: "storage", Pinger: store})

	notifier, err := notifications.New(notifications.Params{
		Notifier: cfg.Notifier,
		Telegram: cfg.Telegram,
		Twilio:   cfg.Twilio,
		AppURL:   cfg.App.URL,
		Metrics:  external,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create notifier", err)
		os.Exit(1)
	}
	deps.Notifier = notifier

	conn := dbClient.DB()

	accountService, err := accounts.NewService(accounts.NewRepository(conn))
	if err != nil {
		logg.Error(ctx, "failed to create account service", err)
		os.Exit(1)
	}
	deps.Accounts = accountService

	subscriptionRepo := subscriptions.NewRepository(conn)
	gate, err := subscriptions.NewGate(accountService, subscriptionRepo, cfg.Subscription, logg)
	if err != nil {
		logg.Error(ctx, "failed to create subscription gate", err)
		os.Exit(1)
	}
	deps.Gate = gate

	deps.Payments, err = payments.NewService(payments.ServiceParams{
		Gate:          gate,
		Subscriptions: subscriptionRepo,
		Payments:      payments.NewRepository(conn),
		Gateway:       paystack.NewClient(cfg.Paystack, external),
		Tx:            dbClient,
		Config:        cfg.Subscription,
		CallbackURL:   cfg.Paystack.CallbackURL,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create payment service", err)
		os.Exit(1)
	}

	shopRepo := shops.NewRepository(conn)
	productRepo := products.NewRepository(conn)

	deps.Products, err = products.NewService(productRepo, shopRepo, logg)
	if err != nil {
		logg.Error(ctx, "failed to create product service", err)
		os.Exit(1)
	}

	deps.Shops, err = shops.NewService(shops.ServiceParams{
		Repo:       shopRepo,
		Products:   deps.Products,
		Store:      store,
		Storage:    cfg.Storage,
		Onboarding: cfg.Onboarding,
		AppURL:     cfg.App.URL,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create shop service", err)
		os.Exit(1)
	}

	deps.Orders, err = orders.NewService(orders.ServiceParams{
		Repo:          orders.NewRepository(conn),
		Shops:         shopRepo,
		Products:      productRepo,
		Store:         store,
		Notifier:      notifier,
		Storage:       cfg.Storage,
		NotifyTimeout: cfg.Notifier.Timeout,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create order service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"instance":    instance.GetID(),
		"notifier":    notifier.Transport().String(),
		"redis":       cfg.Redis.Enabled(),
		"automigrate": cfg.FeatureFlags.AutoMigrate,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
		return
	case <-ctx.Done():
	}

	logg.Info(serverCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(serverCtx, "graceful shutdown failed", err)
	}
}
