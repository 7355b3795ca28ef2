package events

import (
	"time"

	"github.com/spec-kit/ticketbot/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated   EventType = "ticket_created"
	EventTicketClaimed   EventType = "ticket_claimed"
	EventTicketUnclaimed EventType = "ticket_unclaimed"
	EventTicketClosed    EventType = "ticket_closed"
	EventTicketReopened  EventType = "ticket_reopened"
	EventTicketDeleted   EventType = "ticket_deleted"
)

// Event represents a lifecycle change emitted after the store was written.
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	ActorID   string        `json:"actor_id"`
	Ticket    domain.Ticket `json:"ticket"`
	Timestamp time.Time     `json:"timestamp"`
	Payload   interface{}   `json:"payload,omitempty"`
}

// StatusChangedPayload accompanies claim, unclaim, close and reopen events.
type StatusChangedPayload struct {
	OldStatus        domain.TicketStatus `json:"old_status"`
	NewStatus        domain.TicketStatus `json:"new_status"`
	PreviousAssignee string              `json:"previous_assignee,omitempty"`
}

// TicketDeletedPayload accompanies delete events.
type TicketDeletedPayload struct {
	Delay time.Duration `json:"delay"`
}
