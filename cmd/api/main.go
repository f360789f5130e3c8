package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/waitline/internal/api/http"
	"github.com/spec-kit/waitline/internal/api/http/handlers"
	"github.com/spec-kit/waitline/internal/auth"
	"github.com/spec-kit/waitline/internal/config"
	"github.com/spec-kit/waitline/internal/domain"
	"github.com/spec-kit/waitline/internal/events"
	"github.com/spec-kit/waitline/internal/notify"
	"github.com/spec-kit/waitline/internal/observability"
	"github.com/spec-kit/waitline/internal/persistence"
	"github.com/spec-kit/waitline/internal/repository"
	"github.com/spec-kit/waitline/internal/service"
	"github.com/spec-kit/waitline/internal/timers"
	"github.com/spec-kit/waitline/internal/worker"
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
	queueRepo := repository.NewQueueRepository(pool)
	merchantRepo := repository.NewMerchantRepository(pool)
	staffRepo := repository.NewStaffRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	queueService := service.NewQueueService(service.QueueDependencies{
		QueueRepo:    queueRepo,
		MerchantRepo: merchantRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
		Metrics:      metrics,
	})

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		MerchantRepo: merchantRepo,
		StaffRepo:    staffRepo,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), staffRepo)

	notifier := notify.NewRedisNotifier(redis, logger)
	scheduler := service.NewNotificationScheduler(queueService, notifier, timers.Wallclock{}, logger)

	notificationWorker := worker.NewNotificationWorker(worker.NotificationWorkerDeps{
		Queues:    queueService,
		Scheduler: scheduler,
		Notifier:  notifier,
		Relay:     redis,
		Channel:   cfg.Notification.RealtimeChannel,
		Fallback:  fallbackSettings(cfg.Notification),
		Logger:    logger,
	})
	notificationWorker.RegisterHandlers(dispatcher)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics,
		time.Duration(cfg.App.RequestTimeoutSeconds)*time.Second)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Entries:        handlers.NewEntriesHandler(queueService),
		Queues:         handlers.NewQueuesHandler(queueService),
		Staff:          handlers.NewStaffHandler(authService, merchantRepo),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	scheduler.ClearAllTimers()
	_ = app.Shutdown()
}

// fallbackSettings maps configured reminder timing to merchant-level settings.
// A zero no-show timeout means no fallback.
func fallbackSettings(cfg config.NotificationConfig) *domain.NotificationSettings {
	if cfg.NoShowTimeoutMin <= 0 {
		return nil
	}
	return &domain.NotificationSettings{
		FirstNotification: cfg.FirstNotificationMin,
		FinalNotification: cfg.FinalNotificationMin,
		GracePeriod:       cfg.GracePeriodMin,
		NoShowTimeout:     cfg.NoShowTimeoutMin,
		SendNoShowWarning: cfg.SendNoShowWarning,
		Templates:         domain.DefaultTemplates(),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
