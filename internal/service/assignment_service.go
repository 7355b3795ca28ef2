package service

import (
	"context"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/events"
	"github.com/spec-kit/ticketbot/internal/repository"
)

// Claim assigns an open ticket to actor. Of several concurrent claims
// exactly one succeeds; the rest see who won.
func (s *TicketService) Claim(ctx context.Context, ticket *domain.Ticket, actor domain.Actor) (*domain.Ticket, error) {
	updated, err := s.transition(ctx, ticket, actor, domain.ActionClaim, repository.StatusUpdate{})
	if err != nil {
		return nil, err
	}
	s.publishStatus(ctx, events.EventTicketClaimed, actor.UserID, ticket, updated)
	return updated, nil
}

// Unclaim returns a claimed ticket to open. The write only lands while the
// assignee is still the one the caller saw.
func (s *TicketService) Unclaim(ctx context.Context, ticket *domain.Ticket, actor domain.Actor) (*domain.Ticket, error) {
	updated, err := s.transition(ctx, ticket, actor, domain.ActionUnclaim, repository.StatusUpdate{
		ExpectedAssignee: ticket.AssignedTo,
		ClearAssignee:    true,
	})
	if err != nil {
		return nil, err
	}
	s.publishStatus(ctx, events.EventTicketUnclaimed, actor.UserID, ticket, updated)
	return updated, nil
}
