package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketbot/internal/api/dto"
	"github.com/spec-kit/ticketbot/internal/service"
	apperrors "github.com/spec-kit/ticketbot/pkg/util/errorutil"
)

// ResponsesHandler manages canned staff responses.
type ResponsesHandler struct {
	responses *service.ResponseService
	settings  service.SettingsReader
}

// NewResponsesHandler constructs handler.
func NewResponsesHandler(responses *service.ResponseService, settings service.SettingsReader) *ResponsesHandler {
	return &ResponsesHandler{responses: responses, settings: settings}
}

// ListResponses GET /api/guilds/:guildId/tickets/responses.
func (h *ResponsesHandler) ListResponses(c *fiber.Ctx) error {
	if _, err := staffActor(c, h.settings); err != nil {
		return err
	}
	list, err := h.responses.List(c.UserContext(), c.Params("guildId"))
	if err != nil {
		return err
	}
	items := make([]dto.CannedResponseResponse, 0, len(list))
	for i := range list {
		items = append(items, dto.NewCannedResponseResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateResponse POST /api/guilds/:guildId/tickets/responses.
func (h *ResponsesHandler) CreateResponse(c *fiber.Ctx) error {
	actor, err := staffActor(c, h.settings)
	if err != nil {
		return err
	}
	var req dto.ResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	created, err := h.responses.Create(c.UserContext(), c.Params("guildId"), req.Name, req.Content, actor)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCannedResponseResponse(created)})
}

// UpdateResponse PUT /api/guilds/:guildId/tickets/responses/:name.
func (h *ResponsesHandler) UpdateResponse(c *fiber.Ctx) error {
	if _, err := staffActor(c, h.settings); err != nil {
		return err
	}
	var req dto.ResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.responses.Update(c.UserContext(), c.Params("guildId"), c.Params("name"), req.Content)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCannedResponseResponse(updated)})
}

// DeleteResponse DELETE /api/guilds/:guildId/tickets/responses/:name.
func (h *ResponsesHandler) DeleteResponse(c *fiber.Ctx) error {
	if _, err := staffActor(c, h.settings); err != nil {
		return err
	}
	if err := h.responses.Delete(c.UserContext(), c.Params("guildId"), c.Params("name")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
