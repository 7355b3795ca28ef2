package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketbot/internal/api/dto"
	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/service"
	apperrors "github.com/spec-kit/ticketbot/pkg/util/errorutil"
)

// TicketsHandler exposes the ticket lifecycle to the dashboard.
type TicketsHandler struct {
	tickets  *service.TicketService
	actions  *service.ActionDispatcher
	settings service.SettingsReader
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, actions *service.ActionDispatcher, settings service.SettingsReader) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, actions: actions, settings: settings}
}

// ListTickets GET /api/guilds/:guildId/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	if _, err := staffActor(c, h.settings); err != nil {
		return err
	}
	tickets, err := h.tickets.ListActive(c.UserContext(), c.Params("guildId"))
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /api/guilds/:guildId/tickets/:number.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	if _, err := staffActor(c, h.settings); err != nil {
		return err
	}
	ticket, err := h.ticketFromPath(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// History paging bounds keep the offset well inside int range.
const (
	maxHistoryPageSize = 200
	maxHistoryPage     = 100000
)

// GetHistory GET /api/guilds/:guildId/tickets/:number/history.
func (h *TicketsHandler) GetHistory(c *fiber.Ctx) error {
	if _, err := staffActor(c, h.settings); err != nil {
		return err
	}
	ticket, err := h.ticketFromPath(c)
	if err != nil {
		return err
	}
	page := min(parseInt(c.Query("page"), 1), maxHistoryPage)
	pageSize := min(parseInt(c.Query("page_size"), 50), maxHistoryPageSize)
	entries, err := h.tickets.History(c.UserContext(), ticket, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHistoryResponses(entries)})
}

// ApplyAction POST /api/guilds/:guildId/tickets/:number/:action.
func (h *TicketsHandler) ApplyAction(c *fiber.Ctx) error {
	guildID := c.Params("guildId")
	actor, err := guildActor(c)
	if err != nil {
		return err
	}
	action, ok := domain.ParseAction(strings.ToLower(c.Params("action")))
	if !ok || action == domain.ActionCreate {
		return apperrors.NewValidationError("unknown ticket action", map[string]any{"action": c.Params("action")})
	}
	ticket, err := h.ticketFromPath(c)
	if err != nil {
		return err
	}

	out := h.actions.Dispatch(c.UserContext(), service.Interaction{
		GuildID:   guildID,
		ChannelID: ticket.ChannelID,
		ControlID: action.ControlID(),
		Actor:     actor,
	})
	if out.Err != nil {
		return out.Err
	}
	resp := dto.ActionResponse{Message: out.Message}
	if out.Ticket != nil {
		t := dto.NewTicketResponse(out.Ticket)
		resp.Ticket = &t
	}
	return c.JSON(fiber.Map{"data": resp})
}

func (h *TicketsHandler) ticketFromPath(c *fiber.Ctx) (*domain.Ticket, error) {
	number, err := strconv.Atoi(c.Params("number"))
	if err != nil || number <= 0 {
		return nil, apperrors.NewValidationError("ticket number must be a positive integer", map[string]any{"number": c.Params("number")})
	}
	return h.tickets.GetByNumber(c.UserContext(), c.Params("guildId"), number)
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
