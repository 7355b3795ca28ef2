package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/ticketbot/pkg/util/errorutil"
)

// RequireGuildAccess ensures the principal belongs to the guild named by
// the param route parameter.
func RequireGuildAccess(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthenticated("authentication required")
		}
		if _, member := principal.Guilds[c.Params(param)]; !member {
			return apperrors.NewUnauthorized("You do not have access to this guild.")
		}
		return c.Next()
	}
}

// RequireGuildAdmin ensures the principal administers the guild named by param.
func RequireGuildAdmin(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthenticated("authentication required")
		}
		if grant, member := principal.Guilds[c.Params(param)]; !member || !grant.Admin {
			return apperrors.NewUnauthorized("Only guild administrators can change ticket settings.")
		}
		return c.Next()
	}
}
