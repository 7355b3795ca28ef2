package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPanelButtonText = "Create Ticket"
	DefaultPanelColor      = 0x3498DB

	maxPanelNameLen        = 100
	maxPanelTitleLen       = 256
	maxPanelDescriptionLen = 4000
	maxPanelButtonLen      = 80
)

// TicketPanel is a saved "Create Ticket" message. MessageID is nil until the
// message has been posted.
type TicketPanel struct {
	ID          string
	GuildID     string
	Name        string
	ChannelID   string
	MessageID   *string
	Title       string
	Description string
	ButtonText  string
	Color       int
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Message returns the posted message id or "".
func (p TicketPanel) Message() string {
	if p.MessageID == nil {
		return ""
	}
	return *p.MessageID
}

// Button returns the button label, falling back to the default.
func (p TicketPanel) Button() string {
	if strings.TrimSpace(p.ButtonText) == "" {
		return DefaultPanelButtonText
	}
	return p.ButtonText
}

// Validate checks a panel before it is posted or stored.
func (p TicketPanel) Validate() error {
	var errs []error
	if p.GuildID == "" {
		errs = append(errs, errors.New("guild id is required"))
	}
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if p.ChannelID == "" {
		errs = append(errs, errors.New("channel id is required"))
	}
	if strings.TrimSpace(p.Title) == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if strings.TrimSpace(p.Description) == "" {
		errs = append(errs, errors.New("description is required"))
	}
	if len(p.Name) > maxPanelNameLen {
		errs = append(errs, errors.New("name is too long"))
	}
	if len(p.Title) > maxPanelTitleLen {
		errs = append(errs, errors.New("title is too long"))
	}
	if len(p.Description) > maxPanelDescriptionLen {
		errs = append(errs, errors.New("description is too long"))
	}
	if len(p.ButtonText) > maxPanelButtonLen {
		errs = append(errs, errors.New("button text is too long"))
	}
	if p.Color < 0 || p.Color > 0xFFFFFF {
		errs = append(errs, errors.New("color is out of range"))
	}
	return errors.Join(errs...)
}

// ParseColor reads a "#RRGGBB" color. An empty string yields the default.
func ParseColor(s string) (int, error) {
	if s == "" {
		return DefaultPanelColor, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || len(hex) != 6 {
		return 0, fmt.Errorf("color %q is not #RRGGBB", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q is not #RRGGBB", s)
	}
	return int(v), nil
}

// FormatColor renders c as "#RRGGBB".
func FormatColor(c int) string {
	return fmt.Sprintf("#%06X", c)
}
