package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/app"
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

	session, err := bot.NewSession(cfg.Discord)
	if err != nil {
		logger.Fatal("failed to create discord session", zap.Error(err))
	}

	core, err := app.NewCore(ctx, cfg, logger, session)
	if err != nil {
		logger.Fatal("failed to initialize core", zap.Error(err))
	}
	defer core.Close()

	handler := bot.NewHandler(core.Actions, cfg.Discord.InteractionTimeout(), logger)
	if err := core.Run(ctx, func(ctx context.Context) error {
		return bot.Run(ctx, session, handler, logger)
	}); err != nil {
		logger.Error("bot stopped", zap.Error(err))
	}
}
