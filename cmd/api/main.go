package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/IanOtollo/skanem-helpdesk-system/internal/api/http"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/api/http/handlers"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/config"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/domain"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/events"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/ml"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/observability"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/persistence"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/repository"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/service"
	"github.com/IanOtollo/skanem-helpdesk-system/internal/worker"
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

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	technicianRepo := repository.NewTechnicianRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	modelVersionRepo := repository.NewModelVersionRepository(pool)

	metrics := observability.NewMetrics(cfg.App.Name)
	dispatcher := events.NewInMemoryDispatcher()

	registry := ml.NewRegistry(modelVersionRepo, cfg.ML.ModelDir, cfg.ML.MinAccuracy, logger)
	if err := registry.LoadActive(ctx); err != nil {
		if errors.Is(err, domain.ErrModelUnavailable) {
			logger.Warn("no active classification model; new tickets go to manual review")
		} else {
			logger.Fatal("failed to load active model", zap.Error(err))
		}
	}

	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:     ticketRepo,
		TechnicianRepo: technicianRepo,
		AssignmentRepo: assignmentRepo,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		AssignmentRepo: assignmentRepo,
		Registry:       registry,
		Assigner:       assignmentService,
		Gate:           service.ConfidenceGate{Threshold: cfg.ML.ConfidenceThreshold},
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
	})
	technicianService := service.NewTechnicianService(technicianRepo)
	notificationService := service.NewNotificationService(dispatcher, redis, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)
	worker.StartReviewQueueMonitor(ctx, ticketService, metrics, logger, time.Minute)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, registry),
		Tickets:     handlers.NewTicketsHandler(ticketService, assignmentService),
		Technicians: handlers.NewTechniciansHandler(technicianService, assignmentService),
		Admin:       handlers.NewAdminHandler(ticketService, assignmentService),
		Models:      handlers.NewModelsHandler(registry, modelVersionRepo, dispatcher),
		Metrics:     metrics,
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
