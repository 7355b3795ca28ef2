package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketbot/internal/domain"
	apperrors "github.com/spec-kit/ticketbot/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated dashboard user.
type Principal struct {
	UserID string
	Guilds map[string]GuildGrant
}

// Actor returns the principal as a ticket actor in guildID.
func (p *Principal) Actor(guildID string) (domain.Actor, bool) {
	grant, ok := p.Guilds[guildID]
	if !ok {
		return domain.Actor{}, false
	}
	return domain.Actor{UserID: p.UserID, RoleIDs: grant.RoleIDs, Elevated: grant.Admin}, true
}

// AuthMiddleware validates bearer tokens.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthenticated("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthenticated("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthenticated("invalid token")
	}

	principal := &Principal{UserID: claims.UserID, Guilds: make(map[string]GuildGrant, len(claims.Guilds))}
	for _, g := range claims.Guilds {
		principal.Guilds[g.ID] = g
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
