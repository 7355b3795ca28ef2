package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/gateway"
	"github.com/spec-kit/ticketbot/internal/repository"
	apperrors "github.com/spec-kit/ticketbot/pkg/util/errorutil"
)

const (
	msgPanelFailed  = "The ticket panel could not be posted."
	msgPanelInvalid = "Invalid ticket panel."
)

// PanelDependencies wires PanelService.
type PanelDependencies struct {
	Panels  repository.PanelRepository
	Gateway gateway.Gateway
	Logger  *zap.Logger
}

// PanelService keeps saved ticket panels and their posted messages in step.
// The message is posted before the row is written, so a stored panel always
// points at a message that existed when it was saved.
type PanelService struct {
	panels  repository.PanelRepository
	gateway gateway.Gateway
	logger  *zap.Logger
}

// NewPanelService returns the service; a nil logger discards logs.
func NewPanelService(deps PanelDependencies) *PanelService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PanelService{panels: deps.Panels, gateway: deps.Gateway, logger: logger}
}

// PanelPatch lists the fields to change; nil fields are kept.
type PanelPatch struct {
	Name        *string
	ChannelID   *string
	Title       *string
	Description *string
	ButtonText  *string
	Color       *int
}

func (p PanelPatch) apply(panel *domain.TicketPanel) {
	if p.Name != nil {
		panel.Name = *p.Name
	}
	if p.ChannelID != nil {
		panel.ChannelID = *p.ChannelID
	}
	if p.Title != nil {
		panel.Title = *p.Title
	}
	if p.Description != nil {
		panel.Description = *p.Description
	}
	if p.ButtonText != nil {
		panel.ButtonText = *p.ButtonText
	}
	if p.Color != nil {
		panel.Color = *p.Color
	}
}

func (s *PanelService) List(ctx context.Context, guildID string) ([]domain.TicketPanel, error) {
	panels, err := s.panels.List(ctx, guildID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return panels, nil
}

func (s *PanelService) Get(ctx context.Context, guildID, id string) (*domain.TicketPanel, error) {
	panel, err := s.panels.Get(ctx, guildID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("panel", map[string]any{"panel_id": id})
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return panel, nil
}

// Create posts the panel and saves it. Title, description and name default
// when empty.
func (s *PanelService) Create(ctx context.Context, panel domain.TicketPanel, actor domain.Actor) (*domain.TicketPanel, error) {
	if strings.TrimSpace(panel.Title) == "" {
		panel.Title = defaultPanelTitle
	}
	if strings.TrimSpace(panel.Description) == "" {
		panel.Description = defaultPanelDescription
	}
	if strings.TrimSpace(panel.Name) == "" {
		panel.Name = panel.Title
	}
	panel.ID = uuid.NewString()
	panel.CreatedBy = actor.UserID
	if err := validatePanel(panel); err != nil {
		return nil, err
	}

	messageID, err := s.post(ctx, panel)
	if err != nil {
		return nil, err
	}
	panel.MessageID = &messageID

	if err := s.panels.Create(ctx, &panel); err != nil {
		s.discard(ctx, panel.GuildID, panel.ChannelID, messageID)
		return nil, apperrors.NewInternalError(err)
	}
	return &panel, nil
}

// Update applies patch and brings the posted message in line. A new channel,
// new button text or a message deleted by hand gets a fresh post; anything
// else is an in-place edit.
func (s *PanelService) Update(ctx context.Context, guildID, id string, patch PanelPatch) (*domain.TicketPanel, error) {
	current, err := s.Get(ctx, guildID, id)
	if err != nil {
		return nil, err
	}
	next := *current
	patch.apply(&next)
	if err := validatePanel(next); err != nil {
		return nil, err
	}

	oldChannel, oldMessage := current.ChannelID, current.Message()
	repost := oldMessage == "" || next.ChannelID != oldChannel || next.Button() != current.Button()
	if !repost {
		err := s.gateway.EditMessage(ctx, oldChannel, oldMessage, panelMessage(next))
		switch {
		case errors.Is(err, gateway.ErrMessageNotFound):
			repost = true
		case err != nil:
			return nil, apperrors.NewGatewayFailure(msgPanelFailed, err)
		}
	}

	var posted string
	if repost {
		posted, err = s.post(ctx, next)
		if err != nil {
			return nil, err
		}
		next.MessageID = &posted
	}

	if err := s.panels.Update(ctx, &next); err != nil {
		if posted != "" {
			s.discard(ctx, guildID, next.ChannelID, posted)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("panel", map[string]any{"panel_id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	if posted != "" && oldMessage != "" {
		s.discard(ctx, guildID, oldChannel, oldMessage)
	}
	return &next, nil
}

// Delete removes the posted message, best effort, then the row.
func (s *PanelService) Delete(ctx context.Context, guildID, id string) error {
	panel, err := s.Get(ctx, guildID, id)
	if err != nil {
		return err
	}
	if msg := panel.Message(); msg != "" {
		s.discard(ctx, guildID, panel.ChannelID, msg)
	}
	deleted, err := s.panels.Delete(ctx, guildID, id)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !deleted {
		return apperrors.NewNotFound("panel", map[string]any{"panel_id": id})
	}
	return nil
}

func (s *PanelService) post(ctx context.Context, panel domain.TicketPanel) (string, error) {
	exists, err := s.gateway.ChannelExists(ctx, panel.ChannelID)
	if err != nil {
		return "", apperrors.NewGatewayFailure(msgPanelFailed, err)
	}
	if !exists {
		return "", apperrors.NewNotFound("channel", map[string]any{"channel_id": panel.ChannelID})
	}
	id, err := s.gateway.SendMessage(ctx, panel.ChannelID, panelMessage(panel))
	if err != nil {
		return "", apperrors.NewGatewayFailure(msgPanelFailed, err)
	}
	return id, nil
}

func (s *PanelService) discard(ctx context.Context, guildID, channelID, messageID string) {
	if err := s.gateway.DeleteMessage(ctx, channelID, messageID); err != nil {
		s.logger.Warn("failed to delete panel message",
			zap.String("guild_id", guildID),
			zap.String("channel_id", channelID),
			zap.String("message_id", messageID),
			zap.Error(err))
	}
}

func validatePanel(p domain.TicketPanel) error {
	if err := p.Validate(); err != nil {
		return apperrors.NewValidationError(msgPanelInvalid, map[string]any{
			"reasons": strings.Split(err.Error(), "\n"),
		})
	}
	return nil
}
