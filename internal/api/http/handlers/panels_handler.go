package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketbot/internal/api/dto"
	"github.com/spec-kit/ticketbot/internal/service"
	apperrors "github.com/spec-kit/ticketbot/pkg/util/errorutil"
)

// PanelsHandler manages saved ticket panels. Staff only.
type PanelsHandler struct {
	panels   *service.PanelService
	settings service.SettingsReader
}

// NewPanelsHandler constructs handler.
func NewPanelsHandler(panels *service.PanelService, settings service.SettingsReader) *PanelsHandler {
	return &PanelsHandler{panels: panels, settings: settings}
}

// ListPanels GET /api/guilds/:guildId/tickets/panels.
func (h *PanelsHandler) ListPanels(c *fiber.Ctx) error {
	if _, err := staffActor(c, h.settings); err != nil {
		return err
	}
	panels, err := h.panels.List(c.UserContext(), c.Params("guildId"))
	if err != nil {
		return err
	}
	items := make([]dto.PanelResponse, 0, len(panels))
	for i := range panels {
		items = append(items, dto.NewPanelResponse(&panels[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetPanel GET /api/guilds/:guildId/tickets/panels/:panelId.
func (h *PanelsHandler) GetPanel(c *fiber.Ctx) error {
	if _, err := staffActor(c, h.settings); err != nil {
		return err
	}
	panel, err := h.panels.Get(c.UserContext(), c.Params("guildId"), c.Params("panelId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPanelResponse(panel)})
}

// CreatePanel POST /api/guilds/:guildId/tickets/panels.
func (h *PanelsHandler) CreatePanel(c *fiber.Ctx) error {
	actor, err := staffActor(c, h.settings)
	if err != nil {
		return err
	}
	var req dto.PanelRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	panel, err := req.ToDomain(c.Params("guildId"))
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	created, err := h.panels.Create(c.UserContext(), panel, actor)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewPanelResponse(created)})
}

// UpdatePanel PUT /api/guilds/:guildId/tickets/panels/:panelId.
func (h *PanelsHandler) UpdatePanel(c *fiber.Ctx) error {
	if _, err := staffActor(c, h.settings); err != nil {
		return err
	}
	var req dto.UpdatePanelRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	patch, err := req.ToPatch()
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	updated, err := h.panels.Update(c.UserContext(), c.Params("guildId"), c.Params("panelId"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPanelResponse(updated)})
}

// DeletePanel DELETE /api/guilds/:guildId/tickets/panels/:panelId.
func (h *PanelsHandler) DeletePanel(c *fiber.Ctx) error {
	if _, err := staffActor(c, h.settings); err != nil {
		return err
	}
	if err := h.panels.Delete(c.UserContext(), c.Params("guildId"), c.Params("panelId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
