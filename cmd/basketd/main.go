package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/greenbasket/greenbasket/internal/app"
	"github.com/greenbasket/greenbasket/internal/auth"
	"github.com/greenbasket/greenbasket/internal/cart"
	"github.com/greenbasket/greenbasket/internal/catalog"
	"github.com/greenbasket/greenbasket/internal/dashboard"
	"github.com/greenbasket/greenbasket/internal/delivery"
	"github.com/greenbasket/greenbasket/internal/gate"
	"github.com/greenbasket/greenbasket/internal/observability"
	"github.com/greenbasket/greenbasket/internal/orders"
	"github.com/greenbasket/greenbasket/internal/platform/cache"
	"github.com/greenbasket/greenbasket/internal/platform/db"
	"github.com/greenbasket/greenbasket/internal/shared"
	"github.com/greenbasket/greenbasket/internal/users"
	"github.com/greenbasket/greenbasket/internal/view"
	"github.com/greenbasket/greenbasket/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "basket_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	authRepo := auth.NewRepository(dbpool)
	resetTokens := auth.NewResetTokens(cfg.ResetTokenSecret, cfg.ResetTokenTTL)
	authHandler := auth.NewHandler(logger, auth.NewService(authRepo), templates, sessionManager, csrfManager, resetTokens, jobClient, cfg.BaseURL)

	usersRepo := users.NewRepository(dbpool)
	usersHandler := users.NewHandler(logger, users.NewService(usersRepo), templates, csrfManager)

	catalogRepo := catalog.NewRepository(dbpool)
	catalogCache := catalog.NewCache(redisClient, cfg.CatalogCacheTTL)
	catalogService := catalog.NewService(catalogRepo, catalogCache)
	catalogHandler := catalog.NewHandler(logger, catalogService, templates, csrfManager)

	cartStore := cart.NewStore(redisClient, cfg.CartTTL)
	cartService := cart.NewService(cartStore, catalogService)
	cartHandler := cart.NewHandler(logger, cartService, templates, csrfManager)

	ordersRepo := orders.NewRepository(dbpool)
	ordersService := orders.NewService(ordersRepo, cartService, jobClient, metrics.OrderPlaced)
	ordersHandler := orders.NewHandler(logger, ordersService, usersRepo, templates, csrfManager)

	deliveryHandler := delivery.NewHandler(logger, ordersService, templates, csrfManager)
	dashboardHandler := dashboard.NewHandler(logger, ordersService, templates, csrfManager)

	gateMiddleware := gate.NewMiddleware(gate.NewEngine(gate.NewMatcher(gate.DefaultConfig())), nil, logger)
	gateMiddleware.OnRedirect(metrics.GateRedirect)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Templates:        templates,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		Gate:             gateMiddleware,
		AuthHandler:      authHandler,
		UsersHandler:     usersHandler,
		CatalogHandler:   catalogHandler,
		CartHandler:      cartHandler,
		OrdersHandler:    ordersHandler,
		DeliveryHandler:  deliveryHandler,
		DashboardHandler: dashboardHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
