package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/observability"
	apperrors "github.com/spec-kit/ticketbot/pkg/util/errorutil"
)

// Interaction is a control pressed by a guild member.
type Interaction struct {
	GuildID   string
	ChannelID string
	ControlID string
	Actor     domain.Actor
}

// Outcome is what the member is told after an interaction. Message is
// always safe to show; Err is nil on success.
type Outcome struct {
	Action  domain.Action
	Ticket  *domain.Ticket
	Message string
	Err     *apperrors.DomainError
}

// DispatcherDependencies wires ActionDispatcher.
type DispatcherDependencies struct {
	Tickets  *TicketService
	Settings SettingsReader
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// ActionDispatcher routes control presses to the lifecycle after
// resolving the ticket and checking permissions.
type ActionDispatcher struct {
	tickets  *TicketService
	settings SettingsReader
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewActionDispatcher routes control actions to the ticket service.
func NewActionDispatcher(deps DispatcherDependencies) *ActionDispatcher {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActionDispatcher{
		tickets:  deps.Tickets,
		settings: deps.Settings,
		metrics:  deps.Metrics,
		logger:   logger.With(zap.String("component", "actions")),
	}
}

// Dispatch handles one interaction. It never returns a raw internal error.
func (d *ActionDispatcher) Dispatch(ctx context.Context, in Interaction) Outcome {
	action, ok := domain.ActionForControl(in.ControlID)
	var (
		ticket *domain.Ticket
		msg    string
		err    error
	)
	if !ok {
		err = apperrors.NewValidationError("Unknown ticket action.", map[string]any{"control_id": in.ControlID})
	} else {
		ticket, msg, err = d.route(ctx, in, action)
	}

	fields := []zap.Field{
		zap.String("guild_id", in.GuildID),
		zap.String("channel_id", in.ChannelID),
		zap.String("actor_id", in.Actor.UserID),
		zap.String("action", actionLabel(action, ok)),
	}
	if err != nil {
		de := apperrors.ToDomainError(err)
		d.metrics.RecordAction(actionLabel(action, ok), de.Code)
		level := zapcore.InfoLevel
		if de.Code == apperrors.CodeInternal || de.Code == apperrors.CodeGatewayFailure {
			level = zapcore.ErrorLevel
		}
		d.logger.Log(level, "ticket action rejected", append(fields, zap.String("code", de.Code), zap.Error(de.Err))...)
		return Outcome{Action: action, Message: de.Message, Err: de}
	}

	d.metrics.RecordAction(string(action), "OK")
	if ticket != nil {
		fields = append(fields, zap.Int("number", ticket.Number))
	}
	d.logger.Info("ticket action applied", fields...)
	return Outcome{Action: action, Ticket: ticket, Message: msg}
}

func actionLabel(action domain.Action, known bool) string {
	if !known {
		return "unknown"
	}
	return string(action)
}

func (d *ActionDispatcher) route(ctx context.Context, in Interaction, action domain.Action) (*domain.Ticket, string, error) {
	if action == domain.ActionCreate {
		t, err := d.tickets.Create(ctx, in.GuildID, in.Actor)
		if err != nil {
			return nil, "", err
		}
		return t, fmt.Sprintf("Your ticket has been created: %s", channelMention(t.ChannelID)), nil
	}

	ticket, err := d.tickets.GetByChannel(ctx, in.GuildID, in.ChannelID)
	if err != nil {
		return nil, "", err
	}
	settings, err := d.settings.Get(ctx, in.GuildID)
	if err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}
	if err := Authorize(in.Actor, settings, ticket, action); err != nil {
		return nil, "", err
	}
	return ApplyAction(ctx, d.tickets, ticket, in.Actor, action)
}

// ApplyAction runs an authorized lifecycle action on ticket and returns the
// confirmation shown to the actor.
func ApplyAction(ctx context.Context, svc *TicketService, ticket *domain.Ticket, actor domain.Actor, action domain.Action) (*domain.Ticket, string, error) {
	var (
		updated *domain.Ticket
		err     error
		msg     string
	)
	switch action {
	case domain.ActionClaim:
		updated, err = svc.Claim(ctx, ticket, actor)
		msg = fmt.Sprintf("Ticket claimed by %s.", mention(actor.UserID))
	case domain.ActionUnclaim:
		updated, err = svc.Unclaim(ctx, ticket, actor)
		msg = fmt.Sprintf("Ticket #%d is no longer claimed.", ticket.Number)
	case domain.ActionClose:
		updated, err = svc.Close(ctx, ticket, actor)
		msg = fmt.Sprintf("Ticket #%d has been closed.", ticket.Number)
	case domain.ActionReopen:
		updated, err = svc.Reopen(ctx, ticket, actor)
		msg = fmt.Sprintf("Ticket #%d has been reopened.", ticket.Number)
	case domain.ActionDelete:
		err = svc.Delete(ctx, ticket, actor)
		msg = fmt.Sprintf("Ticket #%d will be deleted in %d seconds.", ticket.Number, int(svc.DeleteDelay().Seconds()))
	default:
		return nil, "", apperrors.NewValidationError("Unknown ticket action.", map[string]any{"action": action})
	}
	if err != nil {
		return nil, "", err
	}
	return updated, msg, nil
}
