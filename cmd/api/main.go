package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/ticketero/queue-service/internal/api/http"
	"github.com/ticketero/queue-service/internal/api/http/handlers"
	"github.com/ticketero/queue-service/internal/auth"
	"github.com/ticketero/queue-service/internal/cache"
	"github.com/ticketero/queue-service/internal/config"
	"github.com/ticketero/queue-service/internal/events"
	"github.com/ticketero/queue-service/internal/notify"
	"github.com/ticketero/queue-service/internal/observability"
	"github.com/ticketero/queue-service/internal/persistence"
	"github.com/ticketero/queue-service/internal/repository"
	"github.com/ticketero/queue-service/internal/service"
	"github.com/ticketero/queue-service/internal/worker"
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
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	advisorRepo := repository.NewAdvisorRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	auditService := service.NewAuditService(auditRepo, logger)
	auditService.Register(dispatcher)

	channel, err := notify.NewChannel(cfg.Notify, logger)
	if err != nil {
		logger.Fatal("failed to build notify channel", zap.Error(err))
	}

	snapshots := cache.NewQueueSnapshotCache(redis.Client, cfg.Notify.SnapshotTTL)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens, advisorRepo)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		MessageRepo: messageRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	advisorService := service.NewAdvisorService(service.AdvisorDependencies{
		AdvisorRepo: advisorRepo,
		Tokens:      tokens,
		Logger:      logger,
	})
	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		TicketRepo:  ticketRepo,
		AdvisorRepo: advisorRepo,
		AuditRepo:   auditRepo,
	})

	engine := worker.NewEngine(worker.EngineDependencies{
		Sweeper: service.NewSweeperService(service.SweeperDependencies{
			TicketRepo:    ticketRepo,
			MessageRepo:   messageRepo,
			Dispatcher:    dispatcher,
			Metrics:       metrics,
			Logger:        logger,
			NoShowTimeout: cfg.Scheduler.NoShowTimeout,
		}),
		Assignments: service.NewAssignmentService(service.AssignmentDependencies{
			TicketRepo:  ticketRepo,
			AdvisorRepo: advisorRepo,
			MessageRepo: messageRepo,
			Dispatcher:  dispatcher,
			Metrics:     metrics,
			Logger:      logger,
		}),
		Positions: service.NewPositionService(service.PositionDependencies{
			TicketRepo:         ticketRepo,
			MessageRepo:        messageRepo,
			Snapshots:          snapshots,
			Metrics:            metrics,
			Logger:             logger,
			ProximityThreshold: cfg.Scheduler.ProximityThreshold,
		}),
		Deliveries: service.NewDeliveryService(service.DeliveryDependencies{
			MessageRepo: messageRepo,
			TicketRepo:  ticketRepo,
			Channel:     channel,
			Dispatcher:  dispatcher,
			Metrics:     metrics,
			Logger:      logger,
			SendTimeout: cfg.Notify.SendTimeout,
			BatchSize:   cfg.Scheduler.DeliveryBatchSize,
		}),
		Metrics:         metrics,
		Logger:          logger,
		QueueInterval:   cfg.Scheduler.QueueTickInterval,
		MessageInterval: cfg.Scheduler.MessageTickInterval,
	})
	engine.Start(ctx)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Queues:         handlers.NewQueuesHandler(snapshots, dashboardService),
		Advisors:       handlers.NewAdvisorHandler(advisorService, ticketService),
		Admin:          handlers.NewAdminHandler(dashboardService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	engine.Wait()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
