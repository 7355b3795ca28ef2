package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/config"
)

// NewSession builds a discordgo session with the intents the bot needs.
// It is not opened.
func NewSession(cfg config.DiscordConfig) (*discordgo.Session, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("DISCORD_BOT_TOKEN is required")
	}
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	return session, nil
}

// Run opens the gateway connection with h registered and blocks until ctx is done.
func Run(ctx context.Context, session *discordgo.Session, h *Handler, logger *zap.Logger) error {
	session.AddHandler(h.OnInteractionCreate)
	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		logger.Info("discord session ready", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
	})
	if err := session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	<-ctx.Done()
	logger.Info("closing discord session")
	return session.Close()
}
