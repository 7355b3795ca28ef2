// Package bot adapts Discord interactions to the ticket action dispatcher.
package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/service"
)

const msgGuildOnly = "Tickets can only be managed inside a server."

// Dispatcher handles one ticket interaction.
type Dispatcher interface {
	Dispatch(ctx context.Context, in service.Interaction) service.Outcome
}

// responder is the part of *discordgo.Session used to answer interactions.
type responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Handler routes button presses to the dispatcher.
type Handler struct {
	actions Dispatcher
	timeout time.Duration
	logger  *zap.Logger
}

// NewHandler answers interactions through actions. A non-positive timeout
// falls back to ten seconds.
func NewHandler(actions Dispatcher, timeout time.Duration, logger *zap.Logger) *Handler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Handler{actions: actions, timeout: timeout, logger: logger.With(zap.String("component", "bot"))}
}

// OnInteractionCreate is registered with session.AddHandler.
func (h *Handler) OnInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.handle(s, i.Interaction)
}

func (h *Handler) handle(r responder, i *discordgo.Interaction) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	if i.GuildID == "" || i.Member == nil {
		err := r.InteractionRespond(i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Content: msgGuildOnly, Flags: discordgo.MessageFlagsEphemeral},
		})
		if err != nil {
			h.logger.Warn("failed to answer direct interaction", zap.Error(err))
		}
		return
	}

	// Acknowledge within the platform deadline; the outcome follows.
	err := r.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		h.logger.Warn("failed to defer interaction",
			zap.String("guild_id", i.GuildID), zap.String("channel_id", i.ChannelID), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	out := h.actions.Dispatch(ctx, service.Interaction{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		ControlID: i.MessageComponentData().CustomID,
		Actor:     ActorFromMember(i.Member),
	})

	_, err = r.FollowupMessageCreate(i, true, &discordgo.WebhookParams{
		Content: out.Message,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		h.logger.Warn("failed to send interaction reply",
			zap.String("guild_id", i.GuildID), zap.String("channel_id", i.ChannelID), zap.Error(err))
	}
}

// ActorFromMember builds an actor from an interaction member. Members with
// the Administrator permission are elevated.
func ActorFromMember(m *discordgo.Member) domain.Actor {
	actor := domain.Actor{RoleIDs: m.Roles}
	if m.User != nil {
		actor.UserID = m.User.ID
	}
	actor.Elevated = m.Permissions&discordgo.PermissionAdministrator != 0
	return actor
}
