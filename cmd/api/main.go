package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/engagement-core/internal/api/http"
	"github.com/spec-kit/engagement-core/internal/api/http/handlers"
	"github.com/spec-kit/engagement-core/internal/config"
	"github.com/spec-kit/engagement-core/internal/events"
	"github.com/spec-kit/engagement-core/internal/ingest"
	"github.com/spec-kit/engagement-core/internal/observability"
	"github.com/spec-kit/engagement-core/internal/persistence"
	"github.com/spec-kit/engagement-core/internal/repository"
	"github.com/spec-kit/engagement-core/internal/service"
	"github.com/spec-kit/engagement-core/internal/worker"
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

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	memberEventRepo := repository.NewMemberEventRepository(pool)
	presenceRepo := repository.NewPresenceRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	ticketEventRepo := repository.NewTicketEventRepository(pool)
	auditLogRepo := repository.NewAuditLogRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	identityService := service.NewIdentityService(userRepo, logger)
	activityService := service.NewActivityService(identityService, activityRepo, logger)
	membershipService := service.NewMembershipService(identityService, memberEventRepo, logger)
	presenceService := service.NewPresenceService(identityService, presenceRepo, logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		Identity:        identityService,
		TicketRepo:      ticketRepo,
		TicketEventRepo: ticketEventRepo,
		Dispatcher:      dispatcher,
		Logger:          logger,
	})
	reportCache := service.NewReportCache(redis.Client, cfg.Tracking.ReportCacheTTL(), logger)
	reportService := service.NewReportService(service.ReportDependencies{
		UserRepo:        userRepo,
		ActivityRepo:    activityRepo,
		MemberEventRepo: memberEventRepo,
		PresenceRepo:    presenceRepo,
		Cache:           reportCache,
		Logger:          logger,
	})
	auditService := service.NewAuditService(identityService, auditLogRepo, logger)
	archivalService := service.NewArchivalService(dispatcher, logger, cfg.Archival)

	// Sessions left open by the previous process must be force-closed before
	// any presence event is accepted. A failure here is fatal: serving events
	// over stale open sessions would corrupt every derived presence report.
	if err := presenceService.Reconcile(ctx); err != nil {
		logger.Fatal("presence reconciliation failed", zap.Error(err))
	}

	router := ingest.NewRouter(ingest.RouterDependencies{
		Scorer:    activityService,
		Lifecycle: membershipService,
		Presence:  presenceService,
		Tickets:   ticketService,
		Tracking:  cfg.Tracking,
		Metrics:   metrics,
		Logger:    logger,
	})

	worker.StartArchivalWorker(archivalService)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	ingestHandler := handlers.NewIngestHandler(router, auditService)
	reportsHandler := handlers.NewReportsHandler(reportService)
	ticketsHandler := handlers.NewTicketsHandler(ticketService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  healthHandler,
		Ingest:  ingestHandler,
		Reports: reportsHandler,
		Tickets: ticketsHandler,
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
