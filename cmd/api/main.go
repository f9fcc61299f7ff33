package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpapi "github.com/helpdesk-hq/helpdesk/internal/api/http"
	"github.com/helpdesk-hq/helpdesk/internal/api/http/handlers"
	"github.com/helpdesk-hq/helpdesk/internal/assistant"
	"github.com/helpdesk-hq/helpdesk/internal/assistant/session"
	"github.com/helpdesk-hq/helpdesk/internal/auth"
	"github.com/helpdesk-hq/helpdesk/internal/config"
	"github.com/helpdesk-hq/helpdesk/internal/events"
	"github.com/helpdesk-hq/helpdesk/internal/observability"
	"github.com/helpdesk-hq/helpdesk/internal/persistence"
	"github.com/helpdesk-hq/helpdesk/internal/repository"
	"github.com/helpdesk-hq/helpdesk/internal/service"
	"github.com/helpdesk-hq/helpdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	postgres, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer postgres.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, postgres.PoolHandle(), logger); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := postgres.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		PasswordResetRepo: resetRepo,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	gateway, err := assistant.NewGeminiGateway(ctx, cfg.Assistant)
	if err != nil {
		logger.Fatal("model gateway init failed", zap.Error(err))
	}
	store := session.NewStore(cfg.Assistant.HistoryLimit)
	assistantService := assistant.NewService(store, gateway, ticketService, logger, metrics, cfg.Assistant.MaxMessageChars)

	app := httpapi.NewFiberApp(cfg.App, logger, metrics)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	httpapi.RegisterRoutes(httpapi.RouteConfig{
		App:              app,
		AuthMiddleware:   authMiddleware,
		HealthHandler:    handlers.NewHealthHandler(cfg.App, postgres, redis),
		UsersHandler:     handlers.NewUsersHandler(authService),
		TicketsHandler:   handlers.NewTicketsHandler(ticketService),
		AssistantHandler: handlers.NewAssistantHandler(assistantService, ticketService, redis.ClientHandle(), cfg.Assistant, metrics, logger),
	})

	worker.StartNotificationWorker(notificationService)

	sweeper := worker.NewSessionSweeper(store, cfg.Assistant.SessionMaxAge(), cfg.Assistant.SweepInterval(), logger)
	go sweeper.Run(ctx)

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
