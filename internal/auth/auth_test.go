package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, expires, err := tm.GenerateToken("u1", []GuildGrant{{ID: "g1", RoleIDs: []string{"r1"}, Admin: true}})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if time.Until(expires) > 5*time.Minute {
		t.Fatalf("expiry too far: %s", expires)
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != "u1" || len(claims.Guilds) != 1 || !claims.Guilds[0].Admin {
		t.Fatalf("claims = %+v", claims)
	}

	if _, err := NewTokenManager("other", 5).ParseToken(token); err == nil {
		t.Fatal("token accepted with wrong secret")
	}
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{UserID: "u1"})
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewTokenManager("secret", 5).ParseToken(signed); err == nil {
		t.Fatal("HS512 token accepted")
	}
}

func newTestApp(tm *TokenManager) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(http.StatusTeapot).SendString(err.Error())
		},
	})
	app.Get("/guilds/:guildId", NewAuthMiddleware(tm).Handle, RequireGuildAccess("guildId"), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		actor, _ := p.Actor(c.Params("guildId"))
		if actor.Elevated {
			return c.SendString("admin")
		}
		return c.SendString("member")
	})
	return app
}

func TestGuildAccess(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	app := newTestApp(tm)
	token, _, _ := tm.GenerateToken("u1", []GuildGrant{{ID: "g1", Admin: true}})

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"member of guild", "/guilds/g1", "Bearer " + token, http.StatusOK},
		{"other guild", "/guilds/g2", "Bearer " + token, http.StatusTeapot},
		{"no header", "/guilds/g1", "", http.StatusTeapot},
		{"bad scheme", "/guilds/g1", "Basic " + token, http.StatusTeapot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}
