package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/ticketbot/internal/domain"
)

// SettingsResponse is a guild's ticket configuration.
type SettingsResponse struct {
	GuildID          string    `json:"guild_id"`
	IsEnabled        bool      `json:"is_enabled"`
	CategoryID       *string   `json:"category_id"`
	LogChannelID     *string   `json:"log_channel_id"`
	SupportRoleID    *string   `json:"support_role_id"`
	WelcomeMessage   string    `json:"welcome_message"`
	TicketNameFormat string    `json:"ticket_name_format"`
	Configured       bool      `json:"configured"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// UpdateSettingsRequest is a partial update; absent fields keep their value
// and an empty id clears it.
type UpdateSettingsRequest struct {
	IsEnabled        *bool   `json:"is_enabled"`
	CategoryID       *string `json:"category_id"`
	LogChannelID     *string `json:"log_channel_id"`
	SupportRoleID    *string `json:"support_role_id"`
	WelcomeMessage   *string `json:"welcome_message"`
	TicketNameFormat *string `json:"ticket_name_format"`
}

// NewSettingsResponse maps settings.
func NewSettingsResponse(s domain.GuildTicketSettings) SettingsResponse {
	return SettingsResponse{
		GuildID:          s.GuildID,
		IsEnabled:        s.IsEnabled,
		CategoryID:       s.CategoryID,
		LogChannelID:     s.LogChannelID,
		SupportRoleID:    s.SupportRoleID,
		WelcomeMessage:   s.WelcomeMessage,
		TicketNameFormat: s.TicketNameFormat,
		Configured:       s.Configured(),
		UpdatedAt:        s.UpdatedAt,
	}
}

// Apply merges the request onto current.
func (r UpdateSettingsRequest) Apply(current domain.GuildTicketSettings) domain.GuildTicketSettings {
	next := current
	if r.IsEnabled != nil {
		next.IsEnabled = *r.IsEnabled
	}
	if r.CategoryID != nil {
		next.CategoryID = optionalID(*r.CategoryID)
	}
	if r.LogChannelID != nil {
		next.LogChannelID = optionalID(*r.LogChannelID)
	}
	if r.SupportRoleID != nil {
		next.SupportRoleID = optionalID(*r.SupportRoleID)
	}
	if r.WelcomeMessage != nil {
		next.WelcomeMessage = *r.WelcomeMessage
	}
	if r.TicketNameFormat != nil {
		next.TicketNameFormat = strings.TrimSpace(*r.TicketNameFormat)
	}
	return next
}

func optionalID(id string) *string {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return &id
}
