package domain

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultWelcomeMessage   = "Thank you for creating a support ticket. Please describe your issue, and a staff member will assist you shortly."
	DefaultTicketNameFormat = "ticket-{number}"
	NumberPlaceholder       = "{number}"

	maxWelcomeMessageLen = 2000
	maxChannelNameLen    = 100
)

// GuildTicketSettings is the per-guild ticket configuration.
type GuildTicketSettings struct {
	GuildID          string
	IsEnabled        bool
	CategoryID       *string
	LogChannelID     *string
	SupportRoleID    *string
	WelcomeMessage   string
	TicketNameFormat string
	UpdatedAt        time.Time
}

// DefaultSettings returns the configuration used for guilds that never saved one.
func DefaultSettings(guildID string) GuildTicketSettings {
	return GuildTicketSettings{
		GuildID:          guildID,
		WelcomeMessage:   DefaultWelcomeMessage,
		TicketNameFormat: DefaultTicketNameFormat,
	}
}

// Configured reports whether tickets can be created with these settings.
func (s GuildTicketSettings) Configured() bool {
	return s.CategoryID != nil && *s.CategoryID != "" && s.SupportRoleID != nil && *s.SupportRoleID != ""
}

// ChannelName renders the ticket channel name for number.
func (s GuildTicketSettings) ChannelName(number int) string {
	format := s.TicketNameFormat
	if !strings.Contains(format, NumberPlaceholder) {
		format = DefaultTicketNameFormat
	}
	return strings.ReplaceAll(format, NumberPlaceholder, strconv.Itoa(number))
}

// Welcome returns the welcome text, falling back to the default.
func (s GuildTicketSettings) Welcome() string {
	if strings.TrimSpace(s.WelcomeMessage) == "" {
		return DefaultWelcomeMessage
	}
	return s.WelcomeMessage
}

// SupportRole returns the support role id or "".
func (s GuildTicketSettings) SupportRole() string {
	if s.SupportRoleID == nil {
		return ""
	}
	return *s.SupportRoleID
}

// LogChannel returns the log channel id or "".
func (s GuildTicketSettings) LogChannel() string {
	if s.LogChannelID == nil {
		return ""
	}
	return *s.LogChannelID
}

// Validate checks settings before they are stored.
func (s GuildTicketSettings) Validate() error {
	var errs []error
	if s.GuildID == "" {
		errs = append(errs, errors.New("guild id is required"))
	}
	if !strings.Contains(s.TicketNameFormat, NumberPlaceholder) {
		errs = append(errs, errors.New("ticket name format must contain {number}"))
	}
	if len(s.TicketNameFormat) > maxChannelNameLen-10 {
		errs = append(errs, errors.New("ticket name format is too long"))
	}
	if len(s.WelcomeMessage) > maxWelcomeMessageLen {
		errs = append(errs, errors.New("welcome message is too long"))
	}
	return errors.Join(errs...)
}
