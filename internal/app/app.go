// Package app wires the ticket core to its stores and the chat platform.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/ticketbot/internal/config"
	"github.com/spec-kit/ticketbot/internal/events"
	"github.com/spec-kit/ticketbot/internal/gateway"
	"github.com/spec-kit/ticketbot/internal/observability"
	"github.com/spec-kit/ticketbot/internal/persistence"
	"github.com/spec-kit/ticketbot/internal/repository"
	"github.com/spec-kit/ticketbot/internal/service"
	"github.com/spec-kit/ticketbot/internal/settings"
	"github.com/spec-kit/ticketbot/internal/worker"
)

// Core is the ticket lifecycle with its stores. Both binaries build one.
type Core struct {
	logger   *zap.Logger
	pubsub   *persistence.SettingsPubSub
	followup func(ctx context.Context) error

	Metrics   *observability.Metrics
	Postgres  *persistence.Postgres
	Redis     *persistence.Redis
	Settings  *settings.Cache
	Tickets   *service.TicketService
	Actions   *service.ActionDispatcher
	Panels    *service.PanelService
	Responses *service.ResponseService
}

// NewCore connects to Postgres and Redis and wires the services. session is
// used for REST calls only; opening it is up to the caller.
func NewCore(ctx context.Context, cfg *config.Config, logger *zap.Logger, session *discordgo.Session) (*Core, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	rdb := persistence.NewRedis(cfg.Redis, logger)

	pool := pg.PoolHandle()
	metrics := observability.NewMetrics()
	pubsub := persistence.NewSettingsPubSub(rdb.Client)
	cache := settings.NewCache(repository.NewSettingsRepository(pool),
		settings.WithNotifier(pubsub),
		settings.WithLogger(logger))

	queue := gateway.NewQueue(gateway.QueueConfig{
		Workers:     cfg.Tickets.FollowupWorkers,
		Size:        cfg.Tickets.FollowupQueueSize,
		MaxAttempts: cfg.Tickets.FollowupMaxAttempts,
	}, logger, metrics)
	discord := gateway.NewDiscord(session)
	dispatcher := events.NewInMemoryDispatcher()
	tickets := repository.NewTicketRepository(pool)

	svc := service.NewTicketService(service.TicketDependencies{
		Tickets:    tickets,
		History:    repository.NewTicketHistoryRepository(pool),
		Numbers:    repository.NewCounterAllocator(pool),
		Settings:   cache,
		Gateway:    discord,
		Followups:  queue,
		Guard:      persistence.NewCreationGuard(rdb.Client),
		Dispatcher: dispatcher,
		Logger:     logger.With(zap.String("component", "tickets")),
	}, service.TicketConfig{
		DeleteDelay:    cfg.Tickets.DeleteDelay(),
		CreateAttempts: cfg.Tickets.CreateAttempts,
		CreateLockTTL:  cfg.Tickets.CreateLockTTL(),
	})
	notifications := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: dispatcher,
		Gateway:    discord,
		Followups:  queue,
		Tickets:    tickets,
		Settings:   cache,
		Logger:     logger.With(zap.String("component", "notifications")),
	})

	return &Core{
		logger:   logger,
		pubsub:   pubsub,
		followup: worker.StartNotificationWorker(notifications, queue),
		Metrics:  metrics,
		Postgres: pg,
		Redis:    rdb,
		Settings: cache,
		Tickets:  svc,
		Actions: service.NewActionDispatcher(service.DispatcherDependencies{
			Tickets:  svc,
			Settings: cache,
			Metrics:  metrics,
			Logger:   logger,
		}),
		Panels: service.NewPanelService(service.PanelDependencies{
			Panels:  repository.NewPanelRepository(pool),
			Gateway: discord,
			Logger:  logger.With(zap.String("component", "panels")),
		}),
		Responses: service.NewResponseService(repository.NewResponseRepository(pool)),
	}, nil
}

// Run runs the follow-up workers, the settings listener and serve until ctx
// is done or one of them fails.
func (c *Core) Run(ctx context.Context, serve func(ctx context.Context) error) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.followup(gCtx)
	})
	g.Go(func() error {
		err := c.Settings.Listen(gCtx, c.pubsub)
		if err != nil && !errors.Is(err, context.Canceled) {
			// Other processes' settings changes now only show up after restart.
			c.logger.Error("settings listener stopped", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		return serve(gCtx)
	})

	return g.Wait()
}

// Close releases the store connections.
func (c *Core) Close() {
	c.Redis.Close()
	c.Postgres.Close()
}
