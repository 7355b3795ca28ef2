package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "open"
	TicketStatusClaimed TicketStatus = "claimed"
	TicketStatusClosed  TicketStatus = "closed"
	// TicketStatusArchived is only ever set by external tooling.
	TicketStatusArchived TicketStatus = "archived"
)

// Valid reports whether s is one of the known statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusClaimed, TicketStatusClosed, TicketStatusArchived:
		return true
	}
	return false
}

// Active reports whether the ticket still counts against its creator.
func (s TicketStatus) Active() bool {
	return s == TicketStatusOpen || s == TicketStatusClaimed
}

// Ticket is a support conversation bound to one guild channel.
type Ticket struct {
	ID               string
	GuildID          string
	ChannelID        string
	Number           int
	CreatorID        string
	AssignedTo       *string
	Status           TicketStatus
	Subject          string
	ControlMessageID *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ClosedAt         *time.Time
	ClosedBy         *string
}

// DefaultSubject is used when the creator did not provide one.
func DefaultSubject(number int) string {
	return fmt.Sprintf("Support Ticket #%d", number)
}

// ClaimedBy reports whether userID currently holds the ticket.
func (t *Ticket) ClaimedBy(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// Assignee returns the assignee id or "".
func (t *Ticket) Assignee() string {
	if t.AssignedTo == nil {
		return ""
	}
	return *t.AssignedTo
}
