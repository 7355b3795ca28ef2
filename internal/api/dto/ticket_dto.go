package dto

import (
	"time"

	"github.com/spec-kit/ticketbot/internal/domain"
)

// TicketResponse describes one ticket.
type TicketResponse struct {
	ID               string              `json:"id"`
	GuildID          string              `json:"guild_id"`
	ChannelID        string              `json:"channel_id"`
	Number           int                 `json:"number"`
	CreatorID        string              `json:"creator_id"`
	AssignedTo       *string             `json:"assigned_to"`
	Status           domain.TicketStatus `json:"status"`
	Subject          string              `json:"subject"`
	ControlMessageID *string             `json:"control_message_id,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	ClosedAt         *time.Time          `json:"closed_at"`
	ClosedBy         *string             `json:"closed_by"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID         string              `json:"id"`
	ActorID    string              `json:"actor_id"`
	Action     domain.Action       `json:"action"`
	FromStatus domain.TicketStatus `json:"from_status,omitempty"`
	ToStatus   domain.TicketStatus `json:"to_status,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

// ActionResponse reports a lifecycle action taken from the dashboard.
type ActionResponse struct {
	Message string          `json:"message"`
	Ticket  *TicketResponse `json:"ticket,omitempty"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:               t.ID,
		GuildID:          t.GuildID,
		ChannelID:        t.ChannelID,
		Number:           t.Number,
		CreatorID:        t.CreatorID,
		AssignedTo:       t.AssignedTo,
		Status:           t.Status,
		Subject:          t.Subject,
		ControlMessageID: t.ControlMessageID,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		ClosedAt:         t.ClosedAt,
		ClosedBy:         t.ClosedBy,
	}
}

// NewHistoryResponses maps audit entries.
func NewHistoryResponses(entries []domain.TicketHistory) []TicketHistoryResponse {
	resp := make([]TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, TicketHistoryResponse{
			ID:         entry.ID,
			ActorID:    entry.ActorID,
			Action:     entry.Action,
			FromStatus: entry.FromStatus,
			ToStatus:   entry.ToStatus,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return resp
}
