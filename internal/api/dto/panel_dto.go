package dto

import (
	"time"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/service"
)

// PanelRequest creates a panel. Empty title, description and name fall back
// to defaults; color is "#RRGGBB".
type PanelRequest struct {
	Name        string `json:"name"`
	ChannelID   string `json:"channel_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ButtonText  string `json:"button_text"`
	Color       string `json:"color"`
}

// ToDomain builds the panel for guildID.
func (r PanelRequest) ToDomain(guildID string) (domain.TicketPanel, error) {
	color, err := domain.ParseColor(r.Color)
	if err != nil {
		return domain.TicketPanel{}, err
	}
	return domain.TicketPanel{
		GuildID:     guildID,
		Name:        r.Name,
		ChannelID:   r.ChannelID,
		Title:       r.Title,
		Description: r.Description,
		ButtonText:  r.ButtonText,
		Color:       color,
	}, nil
}

// UpdatePanelRequest patches a panel; omitted fields are unchanged.
type UpdatePanelRequest struct {
	Name        *string `json:"name"`
	ChannelID   *string `json:"channel_id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ButtonText  *string `json:"button_text"`
	Color       *string `json:"color"`
}

func (r UpdatePanelRequest) ToPatch() (service.PanelPatch, error) {
	patch := service.PanelPatch{
		Name:        r.Name,
		ChannelID:   r.ChannelID,
		Title:       r.Title,
		Description: r.Description,
		ButtonText:  r.ButtonText,
	}
	if r.Color != nil {
		color, err := domain.ParseColor(*r.Color)
		if err != nil {
			return service.PanelPatch{}, err
		}
		patch.Color = &color
	}
	return patch, nil
}

// PanelResponse describes a saved panel.
type PanelResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ChannelID   string    `json:"channel_id"`
	MessageID   *string   `json:"message_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ButtonText  string    `json:"button_text"`
	Color       string    `json:"color"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewPanelResponse(p *domain.TicketPanel) PanelResponse {
	return PanelResponse{
		ID:          p.ID,
		Name:        p.Name,
		ChannelID:   p.ChannelID,
		MessageID:   p.MessageID,
		Title:       p.Title,
		Description: p.Description,
		ButtonText:  p.Button(),
		Color:       domain.FormatColor(p.Color),
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ResponseRequest creates or updates a canned response. Name is ignored on update.
type ResponseRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// CannedResponseResponse describes a canned response.
type CannedResponseResponse struct {
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewCannedResponseResponse(r *domain.CannedResponse) CannedResponseResponse {
	return CannedResponseResponse{
		Name:      r.Name,
		Content:   r.Content,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
