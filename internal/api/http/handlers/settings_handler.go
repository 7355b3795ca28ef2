package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketbot/internal/api/dto"
	"github.com/spec-kit/ticketbot/internal/domain"
	apperrors "github.com/spec-kit/ticketbot/pkg/util/errorutil"
)

// SettingsService reads and writes guild ticket settings.
type SettingsService interface {
	Get(ctx context.Context, guildID string) (domain.GuildTicketSettings, error)
	Update(ctx context.Context, settings domain.GuildTicketSettings) (domain.GuildTicketSettings, error)
}

// SettingsHandler manages ticket configuration endpoints.
type SettingsHandler struct {
	settings SettingsService
}

// NewSettingsHandler constructs handler.
func NewSettingsHandler(settings SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GetSettings GET /api/guilds/:guildId/tickets/settings.
func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	s, err := h.settings.Get(c.UserContext(), c.Params("guildId"))
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewSettingsResponse(s)})
}

// UpdateSettings PUT /api/guilds/:guildId/tickets/settings.
func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var req dto.UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	current, err := h.settings.Get(c.UserContext(), c.Params("guildId"))
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	next := req.Apply(current)
	if err := next.Validate(); err != nil {
		return apperrors.NewValidationError("invalid ticket settings", map[string]any{
			"reasons": strings.Split(err.Error(), "\n"),
		})
	}

	saved, err := h.settings.Update(c.UserContext(), next)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewSettingsResponse(saved)})
}
