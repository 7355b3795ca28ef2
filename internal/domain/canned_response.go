package domain

import (
	"errors"
	"strings"
	"time"
)

const (
	maxResponseNameLen    = 100
	maxResponseContentLen = 2000
)

// CannedResponse is a reusable staff reply, unique by name within a guild.
type CannedResponse struct {
	ID        string
	GuildID   string
	Name      string
	Content   string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r CannedResponse) Validate() error {
	var errs []error
	if r.GuildID == "" {
		errs = append(errs, errors.New("guild id is required"))
	}
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if strings.TrimSpace(r.Content) == "" {
		errs = append(errs, errors.New("content is required"))
	}
	if len(r.Name) > maxResponseNameLen {
		errs = append(errs, errors.New("name is too long"))
	}
	if len(r.Content) > maxResponseContentLen {
		errs = append(errs, errors.New("content is too long"))
	}
	return errors.Join(errs...)
}
