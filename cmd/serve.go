package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/oladanielT/support-system/internal/api/http"
	"github.com/oladanielT/support-system/internal/api/http/handlers"
	"github.com/oladanielT/support-system/internal/auth"
	"github.com/oladanielT/support-system/internal/blob"
	"github.com/oladanielT/support-system/internal/config"
	"github.com/oladanielT/support-system/internal/events"
	"github.com/oladanielT/support-system/internal/notify"
	"github.com/oladanielT/support-system/internal/observability"
	"github.com/oladanielT/support-system/internal/persistence"
	"github.com/oladanielT/support-system/internal/repository"
	"github.com/oladanielT/support-system/internal/repository/memory"
	"github.com/oladanielT/support-system/internal/service"
	"github.com/oladanielT/support-system/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// storage holds the opened backing stores and how to release them.
type storage struct {
	store repository.Store
	pg    *persistence.Postgres
	redis *persistence.Redis
}

func (s *storage) Close() {
	s.redis.Close()
	if s.pg != nil {
		s.pg.Close()
	}
}

// openStorage connects Postgres when a DSN is configured and falls back to the in-memory
// store otherwise.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	s := &storage{redis: persistence.NewRedis(cfg.Redis, logger)}
	if cfg.Postgres.DSN == "" {
		logger.Warn("POSTGRES_DSN not provided; using in-memory store, data will not survive restarts")
		s.store = memory.NewStore()
		return s, nil
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		s.redis.Close()
		return nil, err
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			pg.Close()
			s.redis.Close()
			return nil, err
		}
	}
	s.pg = pg
	s.store = repository.NewPostgresStore(pg.PoolHandle())
	return s, nil
}

func runServe(ctx context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", zap.Error(err))
		return err
	}
	defer st.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	var sinks []notify.Sink
	if cfg.Notification.Persist {
		sinks = append(sinks, notify.NewStoreSink(st.store.Notifications()))
	}
	if st.redis.Enabled() {
		sinks = append(sinks, notify.NewRedisSink(st.redis.Client, cfg.Notification.RedisChannel))
	}
	notifications := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: dispatcher,
		Sink:       notify.NewFanout(sinks...),
		Inbox:      st.store.Notifications(),
		Metrics:    metrics,
		Logger:     logger,
		Config:     cfg.Notification,
	})
	forwarder := events.NewKafkaForwarder(cfg.Kafka, logger)
	defer forwarder.Close() //nolint:errcheck
	worker.StartEventSubscribers(dispatcher, worker.Subscribers{
		Notifications: notifications,
		Forwarder:     forwarder,
	}, logger)

	blobs, err := blob.NewLocalStore(cfg.Blob.Dir, cfg.Blob.MaxFileBytes)
	if err != nil {
		logger.Error("failed to open attachment store", zap.Error(err))
		return err
	}

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo: st.store.Users(),
		Logger:   logger,
	})
	userService := service.NewUserService(service.UserDependencies{
		UserRepo: st.store.Users(),
		Logger:   logger,
	})
	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		Store:      st.store,
		Dispatcher: dispatcher,
		Lifecycle:  cfg.Lifecycle,
		Logger:     logger,
	})
	statsService := service.NewStatsService(service.StatsDependencies{
		Store:     st.store,
		Lifecycle: cfg.Lifecycle,
		Logger:    logger,
	})
	attachmentService := service.NewAttachmentService(service.AttachmentDependencies{
		Store:    st.store,
		Blobs:    blobs,
		MaxBytes: cfg.Blob.MaxFileBytes,
		Logger:   logger,
	})

	deps := map[string]handlers.Pinger{}
	if st.pg != nil {
		deps["postgres"] = st.pg
	}
	if st.redis.Enabled() {
		deps["redis"] = st.redis
	}

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Blob.MaxFileBytes) + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps, metrics),
		Users:          handlers.NewUsersHandler(authService, userService),
		Complaints:     handlers.NewComplaintsHandler(complaintService, statsService, attachmentService),
		Notifications:  handlers.NewNotificationsHandler(notifications),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), st.store.Users()).Handle,
		LoginRateLimit: cfg.Auth.LoginRateLimit,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		errCh <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("fiber listen", zap.Error(err))
			return err
		}
		return nil
	case <-waitForShutdown(ctx, logger):
	}

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("shutdown", zap.Error(err))
	}
	return nil
}

func waitForShutdown(ctx context.Context, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer close(done)
		select {
		case sig := <-sigCh:
			logger.Info("shutting down", zap.String("signal", sig.String()))
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return done
}
