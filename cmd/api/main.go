package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/storelinehq/storeline-backend/api/routes"
	"github.com/storelinehq/storeline-backend/internal/auth"
	"github.com/storelinehq/storeline-backend/internal/cart"
	"github.com/storelinehq/storeline-backend/internal/catalog"
	"github.com/storelinehq/storeline-backend/internal/comments"
	"github.com/storelinehq/storeline-backend/internal/orders"
	"github.com/storelinehq/storeline-backend/internal/tickets"
	"github.com/storelinehq/storeline-backend/internal/users"
	"github.com/storelinehq/storeline-backend/pkg/auth/session"
	"github.com/storelinehq/storeline-backend/pkg/config"
	"github.com/storelinehq/storeline-backend/pkg/db"
	"github.com/storelinehq/storeline-backend/pkg/logger"
	"github.com/storelinehq/storeline-backend/pkg/metrics"
	"github.com/storelinehq/storeline-backend/pkg/migrate"
	"github.com/storelinehq/storeline-backend/pkg/payment"
	"github.com/storelinehq/storeline-backend/pkg/redis"
	"github.com/storelinehq/storeline-backend/pkg/sms"
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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	smsClient, err := sms.NewClient(cfg.SMS)
	if err != nil {
		logg.Error(context.Background(), "failed to create sms client", err)
		os.Exit(1)
	}

	paymentClient, err := payment.NewClient(cfg.Payment)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment client", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:        users.NewRepository(gormDB),
		CodeStore:       redisClient,
		SMSSender:       smsClient,
		CodeGenerator:   smsClient,
		SessionManager:  sessionManager,
		JWTConfig:       cfg.JWT,
		PasswordConfig:  cfg.Password,
		RateLimitConfig: cfg.AuthRateLimit,
		CodeTTL:         cfg.SMS.CodeTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	commentsService, err := comments.NewService(comments.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create comments service", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(gormDB)
	catalogService, err := catalog.NewService(
		catalogRepo,
		commentsService,
		metrics.NewCatalogMetrics(prometheus.DefaultRegisterer),
		cfg.Catalog,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	catalogAdminService, err := catalog.NewAdminService(catalogRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog admin service", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(gormDB)
	cartService, err := cart.NewService(cartRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.NewRepository(gormDB), cartRepo, paymentClient, dbClient, cfg.Orders)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	ticketsService, err := tickets.NewService(tickets.NewRepository(gormDB), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create tickets service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, routes.Services{
		Auth:         authService,
		Catalog:      catalogService,
		CatalogAdmin: catalogAdminService,
		Cart:         cartService,
		Orders:       ordersService,
		Comments:     commentsService,
		Tickets:      ticketsService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	cleanup := multierr.Combine(
		server.Shutdown(shutdownCtx),
		redisClient.Close(),
		dbClient.Close(),
	)
	if cleanup != nil {
		logg.Error(ctx, "shutdown cleanup failed", cleanup)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
