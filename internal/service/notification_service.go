package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/events"
	"github.com/spec-kit/ticketbot/internal/gateway"
	"github.com/spec-kit/ticketbot/internal/repository"
)

// NotificationDependencies wires NotificationService.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	Gateway    gateway.Gateway
	Followups  gateway.Runner
	Tickets    repository.TicketRepository
	Settings   SettingsReader
	Logger     *zap.Logger
}

// NotificationService turns lifecycle events into channel messages: the
// welcome card, status notices and log channel entries.
type NotificationService struct {
	dispatcher events.Dispatcher
	gateway    gateway.Gateway
	followups  gateway.Runner
	tickets    repository.TicketRepository
	settings   SettingsReader
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		gateway:    deps.Gateway,
		followups:  deps.Followups,
		tickets:    deps.Tickets,
		settings:   deps.Settings,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketClaimed, n.handleTicketClaimed)
	n.dispatcher.Subscribe(events.EventTicketUnclaimed, n.handleTicketUnclaimed)
	n.dispatcher.Subscribe(events.EventTicketClosed, n.handleTicketClosed)
	n.dispatcher.Subscribe(events.EventTicketReopened, n.handleTicketReopened)
	n.dispatcher.Subscribe(events.EventTicketDeleted, n.handleTicketDeleted)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	settings := n.settingsFor(ctx, event.Ticket.GuildID)
	ticket := event.Ticket
	msg := welcomeMessage(&ticket, settings)
	n.enqueue("send_welcome", ticket, func(ctx context.Context) error {
		id, err := n.gateway.SendMessage(ctx, ticket.ChannelID, msg)
		if err != nil {
			return err
		}
		err = n.tickets.SetControlMessage(ctx, ticket.GuildID, ticket.ChannelID, id)
		if errors.Is(err, repository.ErrNotFound) {
			// Deleted before the card landed.
			return gateway.Permanent(err)
		}
		return err
	})
	n.sendLog(settings, event)
	return nil
}

func (n *NotificationService) handleTicketClaimed(ctx context.Context, event events.Event) error {
	return n.statusChanged(ctx, event, fmt.Sprintf("This ticket has been claimed by %s.", mention(event.ActorID)))
}

func (n *NotificationService) handleTicketUnclaimed(ctx context.Context, event events.Event) error {
	return n.statusChanged(ctx, event, fmt.Sprintf("%s released this ticket. It is open for any staff member to claim.", mention(event.ActorID)))
}

func (n *NotificationService) handleTicketClosed(ctx context.Context, event events.Event) error {
	return n.statusChanged(ctx, event, fmt.Sprintf("This ticket has been closed by %s.", mention(event.ActorID)))
}

func (n *NotificationService) handleTicketReopened(ctx context.Context, event events.Event) error {
	return n.statusChanged(ctx, event, fmt.Sprintf("This ticket has been reopened by %s.", mention(event.ActorID)))
}

func (n *NotificationService) handleTicketDeleted(ctx context.Context, event events.Event) error {
	settings := n.settingsFor(ctx, event.Ticket.GuildID)
	var payload events.TicketDeletedPayload
	if p, ok := event.Payload.(events.TicketDeletedPayload); ok {
		payload = p
	}
	msg := deletionNotice(payload.Delay)
	ticket := event.Ticket
	n.enqueue("send_delete_notice", ticket, func(ctx context.Context) error {
		_, err := n.gateway.SendMessage(ctx, ticket.ChannelID, msg)
		return err
	})
	n.sendLog(settings, event)
	return nil
}

// statusChanged refreshes the control card and posts a notice carrying the
// controls that fit the new status.
func (n *NotificationService) statusChanged(ctx context.Context, event events.Event, text string) error {
	settings := n.settingsFor(ctx, event.Ticket.GuildID)
	ticket := event.Ticket

	if ticket.ControlMessageID != nil {
		messageID := *ticket.ControlMessageID
		card := gateway.Message{Card: ticketCard(&ticket, settings.Welcome())}
		n.enqueue("refresh_control_card", ticket, func(ctx context.Context) error {
			err := n.gateway.EditMessage(ctx, ticket.ChannelID, messageID, card)
			if errors.Is(err, gateway.ErrMessageNotFound) {
				return gateway.Permanent(err)
			}
			return err
		})
	}
	notice := noticeMessage(&ticket, text)
	n.enqueue("send_status_notice", ticket, func(ctx context.Context) error {
		_, err := n.gateway.SendMessage(ctx, ticket.ChannelID, notice)
		return err
	})
	n.sendLog(settings, event)
	return nil
}

func (n *NotificationService) sendLog(settings domain.GuildTicketSettings, event events.Event) {
	logChannel := settings.LogChannel()
	if logChannel == "" {
		return
	}
	msg := logMessage(event)
	n.followups.Enqueue(gateway.Task{
		Name:      "send_log",
		GuildID:   event.Ticket.GuildID,
		ChannelID: logChannel,
		Run: func(ctx context.Context) error {
			_, err := n.gateway.SendMessage(ctx, logChannel, msg)
			return err
		},
	})
}

func (n *NotificationService) enqueue(name string, ticket domain.Ticket, run func(context.Context) error) {
	n.followups.Enqueue(gateway.Task{
		Name:      name,
		GuildID:   ticket.GuildID,
		ChannelID: ticket.ChannelID,
		Run:       run,
	})
}

// settingsFor falls back to defaults so a settings outage only costs the
// custom welcome text and the log entry.
func (n *NotificationService) settingsFor(ctx context.Context, guildID string) domain.GuildTicketSettings {
	settings, err := n.settings.Get(ctx, guildID)
	if err != nil {
		n.logger.Warn("settings unavailable for notification", zap.String("guild_id", guildID), zap.Error(err))
		return domain.DefaultSettings(guildID)
	}
	return settings
}
