package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticketbot/internal/api/http"
	"github.com/spec-kit/ticketbot/internal/api/http/handlers"
	"github.com/spec-kit/ticketbot/internal/app"
	"github.com/spec-kit/ticketbot/internal/auth"
	"github.com/spec-kit/ticketbot/internal/bot"
	"github.com/spec-kit/ticketbot/internal/config"
	"github.com/spec-kit/ticketbot/internal/observability"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Dashboard actions only need REST calls, so the session is never opened.
	session, err := bot.NewSession(cfg.Discord)
	if err != nil {
		logger.Fatal("failed to create discord session", zap.Error(err))
	}

	core, err := app.NewCore(ctx, cfg, logger, session)
	if err != nil {
		logger.Fatal("failed to initialize core", zap.Error(err))
	}
	defer core.Close()

	server := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(server, logger, core.Metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(server, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version,
			handlers.Probe{Name: "postgres", Pinger: core.Postgres},
			handlers.Probe{Name: "redis", Pinger: core.Redis, Optional: true},
		),
		Settings:       handlers.NewSettingsHandler(core.Settings),
		Tickets:        handlers.NewTicketsHandler(core.Tickets, core.Actions, core.Settings),
		Panels:         handlers.NewPanelsHandler(core.Panels, core.Settings),
		Responses:      handlers.NewResponsesHandler(core.Responses, core.Settings),
		AuthMiddleware: auth.NewAuthMiddleware(auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)),
	})

	err = core.Run(ctx, func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() {
			logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
			errCh <- server.Listen(cfg.App.Addr())
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		logger.Info("shutting down http server")
		return server.ShutdownWithTimeout(cfg.App.RequestTimeout())
	})
	if err != nil {
		logger.Error("api stopped", zap.Error(err))
	}
}
