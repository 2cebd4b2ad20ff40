package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/open311-service/internal/api/http"
	"github.com/spec-kit/open311-service/internal/api/http/handlers"
	"github.com/spec-kit/open311-service/internal/auth"
	"github.com/spec-kit/open311-service/internal/config"
	"github.com/spec-kit/open311-service/internal/events"
	"github.com/spec-kit/open311-service/internal/observability"
	"github.com/spec-kit/open311-service/internal/persistence"
	"github.com/spec-kit/open311-service/internal/repository"
	"github.com/spec-kit/open311-service/internal/service"
	"github.com/spec-kit/open311-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	refCache := persistence.NewReferenceCache(redis, cfg.Ticket.RefCacheTTL(), logger)
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	jurisdictionRepo := repository.NewJurisdictionRepository(pool)
	serviceRepo := repository.NewServiceRepository(pool)
	statusRepo := repository.NewStatusRepository(pool)
	priorityRepo := repository.NewPriorityRepository(pool)
	partyRepo := repository.NewPartyRepository(pool)
	counterRepo := repository.NewCounterRepository(pool)
	requestRepo := repository.NewServiceRequestRepository(pool)
	changelogRepo := repository.NewChangeLogRepository(pool)
	analyticsRepo := repository.NewAnalyticsRepository(pool)

	ticketCounter := service.NewTicketCounter(counterRepo, cfg.Ticket, metrics, logger)
	preparer := service.NewRequestPreparer(service.RequestPreparerDependencies{
		JurisdictionRepo: jurisdictionRepo,
		ServiceRepo:      serviceRepo,
		StatusRepo:       statusRepo,
		PriorityRepo:     priorityRepo,
		Counter:          ticketCounter,
		Cache:            refCache,
		Logger:           logger,
	})
	requestService := service.NewRequestService(service.RequestDependencies{
		RequestRepo:   requestRepo,
		ChangeLogRepo: changelogRepo,
		Preparer:      preparer,
		Dispatcher:    dispatcher,
	})
	changeTracker := service.NewChangeTracker(service.ChangeTrackerDependencies{
		RequestRepo:   requestRepo,
		ChangeLogRepo: changelogRepo,
		PartyRepo:     partyRepo,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger,
	})
	analyticsService := service.NewDurationAnalytics(analyticsRepo)
	authService := service.NewAuthService(cfg.Auth, partyRepo)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), partyRepo)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Requests:       handlers.NewRequestsHandler(requestService),
		Changelogs:     handlers.NewChangelogsHandler(changeTracker, requestService),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
