package service

import (
	"fmt"
	"time"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/events"
	"github.com/spec-kit/ticketbot/internal/gateway"
)

const (
	colorOpen    = 0x3498DB
	colorClaimed = 0x9B59B6
	colorClosed  = 0xE74C3C
	colorDeleted = 0x000000

	cardFooter = "Support Ticket System"

	panelFooter             = "Click the button below to create a ticket"
	defaultPanelTitle       = "Support Tickets"
	defaultPanelDescription = "Need help? Click the button below to open a private support ticket."
)

func statusColor(status domain.TicketStatus) int {
	switch status {
	case domain.TicketStatusClaimed:
		return colorClaimed
	case domain.TicketStatusClosed, domain.TicketStatusArchived:
		return colorClosed
	default:
		return colorOpen
	}
}

func statusLabel(status domain.TicketStatus) string {
	switch status {
	case domain.TicketStatusOpen:
		return "Open"
	case domain.TicketStatusClaimed:
		return "Claimed"
	case domain.TicketStatusClosed:
		return "Closed"
	case domain.TicketStatusArchived:
		return "Archived"
	}
	return string(status)
}

func control(action domain.Action, label string, style gateway.ControlStyle) gateway.Control {
	return gateway.Control{ID: action.ControlID(), Label: label, Style: style}
}

// controlsFor returns the buttons offered for a ticket in status.
func controlsFor(status domain.TicketStatus) []gateway.Control {
	switch status {
	case domain.TicketStatusOpen:
		return []gateway.Control{
			control(domain.ActionClaim, "Claim", gateway.StylePrimary),
			control(domain.ActionClose, "Close", gateway.StyleDanger),
		}
	case domain.TicketStatusClaimed:
		return []gateway.Control{
			control(domain.ActionUnclaim, "Unclaim", gateway.StyleSecondary),
			control(domain.ActionClose, "Close", gateway.StyleDanger),
		}
	case domain.TicketStatusClosed:
		return []gateway.Control{
			control(domain.ActionReopen, "Reopen", gateway.StyleSuccess),
			control(domain.ActionDelete, "Delete", gateway.StyleDanger),
		}
	}
	return nil
}

// ticketCard is the status card pinned at the top of a ticket channel.
func ticketCard(t *domain.Ticket, description string) *gateway.Card {
	fields := []gateway.Field{
		{Name: "Status", Value: statusLabel(t.Status), Inline: true},
		{Name: "Created by", Value: mention(t.CreatorID), Inline: true},
	}
	if assignee := t.Assignee(); assignee != "" {
		fields = append(fields, gateway.Field{Name: "Claimed by", Value: mention(assignee), Inline: true})
	}
	return &gateway.Card{
		Title:       fmt.Sprintf("Ticket #%d", t.Number),
		Description: description,
		Color:       statusColor(t.Status),
		Fields:      fields,
		Footer:      cardFooter,
		Timestamp:   t.UpdatedAt,
	}
}

func welcomeMessage(t *domain.Ticket, settings domain.GuildTicketSettings) gateway.Message {
	content := mention(t.CreatorID)
	if role := settings.SupportRole(); role != "" {
		content += " " + roleMention(role)
	}
	return gateway.Message{
		Content:  content,
		Card:     ticketCard(t, settings.Welcome()),
		Controls: controlsFor(t.Status),
	}
}

func noticeMessage(t *domain.Ticket, text string) gateway.Message {
	return gateway.Message{
		Card:     &gateway.Card{Description: text, Color: statusColor(t.Status)},
		Controls: controlsFor(t.Status),
	}
}

func deletionNotice(delay time.Duration) gateway.Message {
	return gateway.Message{
		Card: &gateway.Card{
			Description: fmt.Sprintf("This ticket will be deleted in %d seconds.", int(delay.Seconds())),
			Color:       colorDeleted,
		},
	}
}

var logTitles = map[events.EventType]string{
	events.EventTicketCreated:   "Ticket Created",
	events.EventTicketClaimed:   "Ticket Claimed",
	events.EventTicketUnclaimed: "Ticket Unclaimed",
	events.EventTicketClosed:    "Ticket Closed",
	events.EventTicketReopened:  "Ticket Reopened",
	events.EventTicketDeleted:   "Ticket Deleted",
}

// logMessage is the audit card posted to the guild's log channel.
func logMessage(event events.Event) gateway.Message {
	t := event.Ticket
	color := statusColor(t.Status)
	if event.Type == events.EventTicketDeleted {
		color = colorDeleted
	}
	return gateway.Message{Card: &gateway.Card{
		Title:       logTitles[event.Type],
		Description: fmt.Sprintf("Ticket #%d (%s)", t.Number, channelMention(t.ChannelID)),
		Color:       color,
		Fields: []gateway.Field{
			{Name: "Actor", Value: mention(event.ActorID), Inline: true},
			{Name: "Creator", Value: mention(t.CreatorID), Inline: true},
			{Name: "Status", Value: statusLabel(t.Status), Inline: true},
		},
		Footer:    cardFooter,
		Timestamp: event.Timestamp,
	}}
}

func panelMessage(p domain.TicketPanel) gateway.Message {
	return gateway.Message{
		Card: &gateway.Card{
			Title:       p.Title,
			Description: p.Description,
			Color:       p.Color,
			Footer:      panelFooter,
		},
		Controls: []gateway.Control{control(domain.ActionCreate, p.Button(), gateway.StylePrimary)},
	}
}

func mention(userID string) string { return "<@" + userID + ">" }
func roleMention(roleID string) string { return "<@&" + roleID + ">" }
func channelMention(channelID string) string { return "<#" + channelID + ">" }
