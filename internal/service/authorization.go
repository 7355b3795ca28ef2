package service

import (
	"github.com/spec-kit/ticketbot/internal/domain"
	apperrors "github.com/spec-kit/ticketbot/pkg/util/errorutil"
)

const (
	msgNoPermission   = "You do not have permission to manage this ticket."
	msgNotYourClaim   = "Only the staff member who claimed this ticket can unclaim it."
	msgStaffOnlyClose = "Only support staff can reopen or delete tickets."
)

// IsStaff reports whether actor may act as support staff in a guild.
func IsStaff(actor domain.Actor, settings domain.GuildTicketSettings) bool {
	return actor.Elevated || actor.HasRole(settings.SupportRole())
}

// Authorize decides whether actor may perform action on ticket. Creation
// is open to everyone; whether it may proceed is decided by the lifecycle.
func Authorize(actor domain.Actor, settings domain.GuildTicketSettings, ticket *domain.Ticket, action domain.Action) error {
	if action == domain.ActionCreate {
		return nil
	}
	staff := IsStaff(actor, settings)

	switch action {
	case domain.ActionClaim, domain.ActionClose:
		if staff || (ticket != nil && ticket.CreatorID == actor.UserID) {
			return nil
		}
	case domain.ActionReopen, domain.ActionDelete:
		if staff {
			return nil
		}
		if ticket != nil && ticket.CreatorID == actor.UserID {
			return apperrors.NewUnauthorized(msgStaffOnlyClose)
		}
	case domain.ActionUnclaim:
		if actor.Elevated {
			return nil
		}
		if staff {
			// An unclaimed ticket falls through to the lifecycle, which reports it.
			if ticket == nil || ticket.AssignedTo == nil || ticket.ClaimedBy(actor.UserID) {
				return nil
			}
			return apperrors.NewUnauthorized(msgNotYourClaim)
		}
	}
	return apperrors.NewUnauthorized(msgNoPermission)
}
