package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketbot/internal/api/http/handlers"
	"github.com/spec-kit/ticketbot/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Settings       *handlers.SettingsHandler
	Tickets        *handlers.TicketsHandler
	Panels         *handlers.PanelsHandler
	Responses      *handlers.ResponsesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	guild := app.Group("/api/guilds/:guildId", cfg.AuthMiddleware.Handle, auth.RequireGuildAccess("guildId"))

	// Registered before /tickets/:number so these names are not read as numbers.
	guild.Get("/tickets/settings", cfg.Settings.GetSettings)
	guild.Put("/tickets/settings", auth.RequireGuildAdmin("guildId"), cfg.Settings.UpdateSettings)

	guild.Get("/tickets/panels", cfg.Panels.ListPanels)
	guild.Post("/tickets/panels", cfg.Panels.CreatePanel)
	guild.Get("/tickets/panels/:panelId", cfg.Panels.GetPanel)
	guild.Put("/tickets/panels/:panelId", cfg.Panels.UpdatePanel)
	guild.Delete("/tickets/panels/:panelId", cfg.Panels.DeletePanel)

	guild.Get("/tickets/responses", cfg.Responses.ListResponses)
	guild.Post("/tickets/responses", cfg.Responses.CreateResponse)
	guild.Put("/tickets/responses/:name", cfg.Responses.UpdateResponse)
	guild.Delete("/tickets/responses/:name", cfg.Responses.DeleteResponse)

	guild.Get("/tickets", cfg.Tickets.ListTickets)
	guild.Get("/tickets/:number", cfg.Tickets.GetTicket)
	guild.Get("/tickets/:number/history", cfg.Tickets.GetHistory)
	guild.Post("/tickets/:number/:action", cfg.Tickets.ApplyAction)
}
