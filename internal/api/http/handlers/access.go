package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketbot/internal/auth"
	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/service"
	apperrors "github.com/spec-kit/ticketbot/pkg/util/errorutil"
)

// guildActor is the authenticated caller as seen in the :guildId guild.
func guildActor(c *fiber.Ctx) (domain.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthenticated("authentication required")
	}
	actor, ok := principal.Actor(c.Params("guildId"))
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthorized("You do not have access to this guild.")
	}
	return actor, nil
}

// staffActor is guildActor restricted to support staff and administrators.
func staffActor(c *fiber.Ctx, settings service.SettingsReader) (domain.Actor, error) {
	actor, err := guildActor(c)
	if err != nil {
		return actor, err
	}
	s, err := settings.Get(c.UserContext(), c.Params("guildId"))
	if err != nil {
		return actor, apperrors.NewInternalError(err)
	}
	if !service.IsStaff(actor, s) {
		return actor, apperrors.NewUnauthorized("Only support staff can manage tickets from the dashboard.")
	}
	return actor, nil
}
