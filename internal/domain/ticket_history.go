package domain

import "time"

// TicketHistory is an immutable audit trail entry. It outlives the ticket row.
type TicketHistory struct {
	ID         string
	TicketID   string
	GuildID    string
	Number     int
	ActorID    string
	Action     Action
	FromStatus TicketStatus
	// ToStatus is empty for deletions.
	ToStatus  TicketStatus
	CreatedAt time.Time
}
