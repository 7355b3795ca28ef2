package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/events"
	"github.com/spec-kit/ticketbot/internal/gateway"
	"github.com/spec-kit/ticketbot/internal/repository"
	apperrors "github.com/spec-kit/ticketbot/pkg/util/errorutil"
)

const (
	msgDisabled       = "The ticket system is currently disabled."
	msgNotConfigured  = "The ticket system is not properly configured yet."
	msgCategoryGone   = "The ticket category no longer exists. Ask an administrator to update the ticket settings."
	msgCreateBusy     = "Your ticket is already being created."
	msgCreateFailed   = "There was an error creating your ticket. Please try again later or contact an administrator."
	msgNumberConflict = "Could not allocate a ticket number. Please try again."
	msgChanged        = "This ticket was changed by someone else. Please try again."
	msgArchived       = "This ticket is archived and can no longer be changed."
)

// SettingsReader returns the effective settings of a guild.
type SettingsReader interface {
	Get(ctx context.Context, guildID string) (domain.GuildTicketSettings, error)
}

// CreationGuard serializes ticket creation per (guild, user) across processes.
type CreationGuard interface {
	Acquire(ctx context.Context, guildID, userID string, ttl time.Duration) (release func(), ok bool, err error)
}

// TicketConfig tunes the lifecycle service.
type TicketConfig struct {
	DeleteDelay    time.Duration
	CreateAttempts int
	CreateLockTTL  time.Duration
}

// TicketDependencies wires TicketService. Guard is optional.
type TicketDependencies struct {
	Tickets    repository.TicketRepository
	History    repository.TicketHistoryRepository
	Numbers    repository.NumberAllocator
	Settings   SettingsReader
	Gateway    gateway.Gateway
	Followups  gateway.Runner
	Guard      CreationGuard
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TicketService owns every ticket state change. The store is written first;
// platform side effects follow through the follow-up runner.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	numbers    repository.NumberAllocator
	settings   SettingsReader
	gateway    gateway.Gateway
	followups  gateway.Runner
	guard      CreationGuard
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        TicketConfig
}

// NewTicketService applies defaults to cfg and returns the service.
func NewTicketService(deps TicketDependencies, cfg TicketConfig) *TicketService {
	if cfg.CreateAttempts <= 0 {
		cfg.CreateAttempts = 2
	}
	if cfg.CreateLockTTL <= 0 {
		cfg.CreateLockTTL = 30 * time.Second
	}
	if cfg.DeleteDelay < 0 {
		cfg.DeleteDelay = 0
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.Tickets,
		history:    deps.History,
		numbers:    deps.Numbers,
		settings:   deps.Settings,
		gateway:    deps.Gateway,
		followups:  deps.Followups,
		guard:      deps.Guard,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// Create opens a new ticket channel for actor.
func (s *TicketService) Create(ctx context.Context, guildID string, actor domain.Actor) (*domain.Ticket, error) {
	settings, err := s.settings.Get(ctx, guildID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !settings.IsEnabled {
		return nil, apperrors.NewPreconditionFailed(msgDisabled)
	}
	if !settings.Configured() {
		return nil, apperrors.NewPreconditionFailed(msgNotConfigured)
	}

	release, err := s.acquireGuard(ctx, guildID, actor.UserID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.ensureNoActiveTicket(ctx, guildID, actor.UserID); err != nil {
		return nil, err
	}

	categoryID := *settings.CategoryID
	exists, err := s.gateway.ChannelExists(ctx, categoryID)
	if err != nil {
		return nil, apperrors.NewGatewayFailure(msgCreateFailed, err)
	}
	if !exists {
		return nil, apperrors.NewPreconditionFailed(msgCategoryGone)
	}
	botID, err := s.gateway.SelfID(ctx)
	if err != nil {
		return nil, apperrors.NewGatewayFailure(msgCreateFailed, err)
	}

	number, err := s.numbers.NextNumber(ctx, guildID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	channelID, err := s.gateway.CreateChannel(ctx, channelSpec(guildID, categoryID, settings, actor.UserID, botID, number))
	if err != nil {
		return nil, apperrors.NewGatewayFailure(msgCreateFailed, err)
	}

	ticket := &domain.Ticket{
		ID:        uuid.NewString(),
		GuildID:   guildID,
		ChannelID: channelID,
		CreatorID: actor.UserID,
		Status:    domain.TicketStatusOpen,
	}
	if err := s.insert(ctx, ticket, settings, number); err != nil {
		s.followups.Enqueue(gateway.Task{
			Name:      "delete_orphan_channel",
			GuildID:   guildID,
			ChannelID: channelID,
			Run: func(ctx context.Context) error {
				return s.gateway.DeleteChannel(ctx, channelID)
			},
		})
		return nil, err
	}

	s.recordHistory(ctx, ticket, actor.UserID, domain.ActionCreate, "", domain.TicketStatusOpen)
	s.publish(ctx, events.EventTicketCreated, actor.UserID, ticket, nil)
	s.logger.Info("ticket created",
		zap.String("guild_id", guildID),
		zap.String("channel_id", channelID),
		zap.Int("number", ticket.Number),
		zap.String("creator_id", actor.UserID))
	return ticket, nil
}

// insert stores ticket under number, drawing a fresh number when a
// concurrent creator already took it. The channel is renamed afterwards
// when the final number differs from the one it was created with.
func (s *TicketService) insert(ctx context.Context, ticket *domain.Ticket, settings domain.GuildTicketSettings, number int) error {
	original := number
	for attempt := 1; ; attempt++ {
		ticket.Number = number
		ticket.Subject = domain.DefaultSubject(number)
		err := s.tickets.Create(ctx, ticket)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateNumber) {
			if errors.Is(err, repository.ErrConflict) {
				return apperrors.NewConflict(msgCreateFailed, map[string]any{"channel_id": ticket.ChannelID})
			}
			return apperrors.NewInternalError(err)
		}
		if attempt >= s.cfg.CreateAttempts {
			return apperrors.NewConflict(msgNumberConflict, map[string]any{"number": number})
		}
		s.logger.Warn("ticket number already taken; allocating again",
			zap.String("guild_id", ticket.GuildID),
			zap.Int("number", number))
		if number, err = s.numbers.NextNumber(ctx, ticket.GuildID); err != nil {
			return apperrors.NewInternalError(err)
		}
	}

	if number != original {
		name := settings.ChannelName(number)
		channelID := ticket.ChannelID
		s.followups.Enqueue(gateway.Task{
			Name:      "rename_channel",
			GuildID:   ticket.GuildID,
			ChannelID: channelID,
			Run: func(ctx context.Context) error {
				return s.gateway.RenameChannel(ctx, channelID, name)
			},
		})
	}
	return nil
}

func (s *TicketService) acquireGuard(ctx context.Context, guildID, userID string) (func(), error) {
	if s.guard == nil {
		return func() {}, nil
	}
	release, ok, err := s.guard.Acquire(ctx, guildID, userID, s.cfg.CreateLockTTL)
	if err != nil {
		s.logger.Warn("creation guard unavailable; continuing without it",
			zap.String("guild_id", guildID), zap.String("user_id", userID), zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		return nil, apperrors.NewConflict(msgCreateBusy, nil)
	}
	return release, nil
}

// ensureNoActiveTicket rejects a creator who still has an open or claimed
// ticket whose channel exists. Records whose channel vanished are ignored.
func (s *TicketService) ensureNoActiveTicket(ctx context.Context, guildID, userID string) error {
	active, err := s.tickets.ListActiveByCreator(ctx, guildID, userID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	for _, t := range active {
		exists, err := s.gateway.ChannelExists(ctx, t.ChannelID)
		if err != nil || exists {
			return apperrors.NewConflict(
				fmt.Sprintf("You already have an open ticket: %s", channelMention(t.ChannelID)),
				map[string]any{"channel_id": t.ChannelID, "number": t.Number})
		}
		s.logger.Warn("active ticket has no channel",
			zap.String("guild_id", guildID),
			zap.String("channel_id", t.ChannelID),
			zap.Int("number", t.Number))
	}
	return nil
}

func channelSpec(guildID, categoryID string, settings domain.GuildTicketSettings, creatorID, botID string, number int) gateway.ChannelSpec {
	member := gateway.PermView | gateway.PermSend | gateway.PermReadHistory
	return gateway.ChannelSpec{
		GuildID:  guildID,
		ParentID: categoryID,
		Name:     settings.ChannelName(number),
		Topic:    fmt.Sprintf("Support ticket #%d for %s", number, mention(creatorID)),
		Overwrites: []gateway.Overwrite{
			{ID: guildID, Kind: gateway.OverwriteRole, Deny: gateway.PermView},
			{ID: creatorID, Kind: gateway.OverwriteMember, Allow: member},
			{ID: settings.SupportRole(), Kind: gateway.OverwriteRole, Allow: member | gateway.PermManageMessages},
			{ID: botID, Kind: gateway.OverwriteMember, Allow: member | gateway.PermManageMessages | gateway.PermEmbedLinks},
		},
	}
}

// Close moves an open or claimed ticket to closed and revokes the creator's access.
func (s *TicketService) Close(ctx context.Context, ticket *domain.Ticket, actor domain.Actor) (*domain.Ticket, error) {
	updated, err := s.transition(ctx, ticket, actor, domain.ActionClose, repository.StatusUpdate{})
	if err != nil {
		return nil, err
	}
	s.setCreatorAccess(updated, "revoke_creator_access", 0, gateway.PermView|gateway.PermSend)
	s.publishStatus(ctx, events.EventTicketClosed, actor.UserID, ticket, updated)
	return updated, nil
}

// Reopen returns a closed ticket to open, dropping any assignee.
func (s *TicketService) Reopen(ctx context.Context, ticket *domain.Ticket, actor domain.Actor) (*domain.Ticket, error) {
	updated, err := s.transition(ctx, ticket, actor, domain.ActionReopen, repository.StatusUpdate{ClearAssignee: true})
	if err != nil {
		return nil, err
	}
	s.setCreatorAccess(updated, "restore_creator_access", gateway.PermView|gateway.PermSend|gateway.PermReadHistory, 0)
	s.publishStatus(ctx, events.EventTicketReopened, actor.UserID, ticket, updated)
	return updated, nil
}

// Delete removes the ticket record now and its channel after the configured delay.
func (s *TicketService) Delete(ctx context.Context, ticket *domain.Ticket, actor domain.Actor) error {
	removed, err := s.tickets.Delete(ctx, ticket.GuildID, ticket.ChannelID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !removed {
		return apperrors.NewNotATicket()
	}

	s.recordHistory(ctx, ticket, actor.UserID, domain.ActionDelete, ticket.Status, "")
	s.publish(ctx, events.EventTicketDeleted, actor.UserID, ticket, events.TicketDeletedPayload{Delay: s.cfg.DeleteDelay})

	channelID := ticket.ChannelID
	s.followups.Enqueue(gateway.Task{
		Name:      "delete_channel",
		GuildID:   ticket.GuildID,
		ChannelID: channelID,
		Delay:     s.cfg.DeleteDelay,
		Run: func(ctx context.Context) error {
			return s.gateway.DeleteChannel(ctx, channelID)
		},
	})
	return nil
}

// DeleteDelay is how long a deleted ticket's channel lingers.
func (s *TicketService) DeleteDelay() time.Duration {
	return s.cfg.DeleteDelay
}

// GetByChannel loads the ticket bound to channelID.
func (s *TicketService) GetByChannel(ctx context.Context, guildID, channelID string) (*domain.Ticket, error) {
	t, err := s.tickets.GetByChannel(ctx, guildID, channelID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotATicket()
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return t, nil
}

// GetByNumber loads a ticket by its guild-scoped number.
func (s *TicketService) GetByNumber(ctx context.Context, guildID string, number int) (*domain.Ticket, error) {
	t, err := s.tickets.GetByNumber(ctx, guildID, number)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"guild_id": guildID, "number": number})
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return t, nil
}

// ListActive returns every non-archived ticket of a guild, newest first.
func (s *TicketService) ListActive(ctx context.Context, guildID string) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListActive(ctx, guildID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return tickets, nil
}

// History returns the audit trail of a ticket.
func (s *TicketService) History(ctx context.Context, ticket *domain.Ticket, limit, offset int) ([]domain.TicketHistory, error) {
	entries, err := s.history.ListByTicket(ctx, ticket.ID, limit, offset)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return entries, nil
}

// transition applies action with a compare-and-swap write and returns the
// reloaded ticket. When another writer got there first the error reflects
// the state that writer left behind.
func (s *TicketService) transition(ctx context.Context, ticket *domain.Ticket, actor domain.Actor, action domain.Action, update repository.StatusUpdate) (*domain.Ticket, error) {
	next, err := domain.Transition(ticket.Status, action)
	if err != nil {
		return nil, rejection(ticket, action, actor.UserID)
	}

	update.GuildID = ticket.GuildID
	update.ChannelID = ticket.ChannelID
	update.From = domain.Sources(action)
	update.To = next
	update.ActorID = actor.UserID
	written, err := s.tickets.UpdateStatus(ctx, update)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	current, err := s.GetByChannel(ctx, ticket.GuildID, ticket.ChannelID)
	if err != nil {
		return nil, err
	}
	if !written {
		if _, err := domain.Transition(current.Status, action); err != nil {
			return nil, rejection(current, action, actor.UserID)
		}
		return nil, apperrors.NewConflict(msgChanged, map[string]any{"status": current.Status})
	}

	s.recordHistory(ctx, current, actor.UserID, action, ticket.Status, next)
	return current, nil
}

// rejection explains why action cannot be applied to t as it stands.
func rejection(t *domain.Ticket, action domain.Action, actorID string) error {
	if t.Status == domain.TicketStatusArchived || !t.Status.Valid() {
		return apperrors.NewInvalidTransition(msgArchived)
	}
	details := map[string]any{"status": t.Status}
	var msg string
	switch action {
	case domain.ActionClaim:
		switch {
		case t.Status == domain.TicketStatusClosed:
			msg = "This ticket is already closed and cannot be claimed."
		case t.ClaimedBy(actorID):
			msg = "You have already claimed this ticket."
		default:
			msg = fmt.Sprintf("This ticket is already claimed by %s.", mention(t.Assignee()))
		}
	case domain.ActionUnclaim:
		msg = "This ticket is not claimed."
	case domain.ActionClose:
		msg = "This ticket is already closed."
	case domain.ActionReopen:
		msg = "This ticket is not closed."
	default:
		return apperrors.NewInvalidTransition(fmt.Sprintf("%s is not a status change.", action))
	}
	return apperrors.NewAlreadyInState(msg, details)
}

func (s *TicketService) setCreatorAccess(t *domain.Ticket, name string, allow, deny gateway.Permission) {
	channelID, creatorID := t.ChannelID, t.CreatorID
	s.followups.Enqueue(gateway.Task{
		Name:      name,
		GuildID:   t.GuildID,
		ChannelID: channelID,
		Run: func(ctx context.Context) error {
			return s.gateway.SetMemberAccess(ctx, channelID, creatorID, allow, deny)
		},
	})
}

func (s *TicketService) recordHistory(ctx context.Context, t *domain.Ticket, actorID string, action domain.Action, from, to domain.TicketStatus) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:   t.ID,
		GuildID:    t.GuildID,
		Number:     t.Number,
		ActorID:    actorID,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record ticket history",
			zap.String("ticket_id", t.ID), zap.String("action", string(action)), zap.Error(err))
	}
}

func (s *TicketService) publishStatus(ctx context.Context, eventType events.EventType, actorID string, before, after *domain.Ticket) {
	s.publish(ctx, eventType, actorID, after, events.StatusChangedPayload{
		OldStatus:        before.Status,
		NewStatus:        after.Status,
		PreviousAssignee: before.Assignee(),
	})
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, actorID string, t *domain.Ticket, payload any) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ActorID:   actorID,
		Ticket:    *t,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish ticket event",
			zap.String("event_type", string(eventType)), zap.String("ticket_id", t.ID), zap.Error(err))
	}
}
