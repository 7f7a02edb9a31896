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

	"github.com/affinet/affinet/internal/app"
	"github.com/affinet/affinet/internal/auth"
	"github.com/affinet/affinet/internal/authz"
	"github.com/affinet/affinet/internal/dashboard"
	"github.com/affinet/affinet/internal/networks"
	"github.com/affinet/affinet/internal/observability"
	"github.com/affinet/affinet/internal/platform/cache"
	"github.com/affinet/affinet/internal/platform/db"
	"github.com/affinet/affinet/internal/shared"
	"github.com/affinet/affinet/internal/sites"
	"github.com/affinet/affinet/internal/tenants"
	"github.com/affinet/affinet/internal/users"
	"github.com/affinet/affinet/jobs"
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

	sessionManager := shared.NewSessionManager(redisClient, "affinet_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	usageLogger := shared.NewUsageLogger(dbpool)
	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)
	authMiddleware := auth.Middleware{Service: authService, Logger: logger}

	tenantsRepo := tenants.NewRepository(dbpool)
	tenantsService := tenants.NewService(tenantsRepo, usageLogger, logger)

	authorizer := authz.NewAuthorizer(tenantsService, logger)
	guard := authz.Middleware{
		Authorizer: authorizer,
		Tenants:    tenantsService,
		Metrics:    metrics,
		Logger:     logger,
	}

	tenantsHandler := tenants.NewHandler(logger, tenantsService, guard)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, usageLogger, logger, cfg.InvitationTTL)
	usersHandler := users.NewHandler(logger, usersService, guard)

	networksRepo := networks.NewRepository(dbpool)
	networksService := networks.NewService(networksRepo, usageLogger, logger)
	networksHandler := networks.NewHandler(logger, networksService, guard)

	sitesRepo := sites.NewRepository(dbpool)
	sitesService := sites.NewService(sitesRepo, usageLogger, logger)
	sitesHandler := sites.NewHandler(logger, sitesService, guard)

	dashboardService := dashboard.NewService(dbpool, authorizer, logger)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthMiddleware:   authMiddleware,
		AuthHandler:      authHandler,
		TenantsHandler:   tenantsHandler,
		UsersHandler:     usersHandler,
		NetworksHandler:  networksHandler,
		SitesHandler:     sitesHandler,
		DashboardHandler: dashboardHandler,
		JobHandler:       jobHandler,
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
