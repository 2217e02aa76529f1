package auth

import (
	"context"
	"net/url"
	"strings"

	"backend-yatube/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// TokenCookie carries the access token for browser clients.
const TokenCookie = "token"

// LoginPath is where anonymous actors are sent from auth-only routes.
const LoginPath = "/auth/login"

// ActorMiddleware resolves the request actor from a bearer header or the token
// cookie. Missing or invalid tokens leave the request anonymous.
func ActorMiddleware(secret string) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			token = c.Cookies(TokenCookie)
		}
		if token == "" {
			return c.Next()
		}

		claims, err := parseClaims(token, secretBytes)
		if err != nil {
			return c.Next()
		}

		WithActor(c, claims.actor())
		return c.Next()
	}
}

// WithActor attaches actor to the request and its user context.
func WithActor(c *fiber.Ctx, actor Actor) {
	c.Locals("user_id", actor.ID)
	c.Locals("username", actor.Username)
	c.Locals("is_staff", actor.IsStaff)
	c.SetUserContext(context.WithValue(c.UserContext(), observability.UserIDKey, actor.ID))
}

// RequireActor redirects anonymous actors to the login page.
func RequireActor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ActorFrom(c) == nil {
			return c.Redirect(LoginURL(c.OriginalURL()))
		}
		return c.Next()
	}
}

// ActorFrom returns the actor resolved by ActorMiddleware, or nil.
func ActorFrom(c *fiber.Ctx) *Actor {
	id, ok := c.Locals("user_id").(int64)
	if !ok || id == 0 {
		return nil
	}
	username, _ := c.Locals("username").(string)
	staff, _ := c.Locals("is_staff").(bool)
	return &Actor{ID: id, Username: username, IsStaff: staff}
}

func LoginURL(next string) string {
	if next == "" {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
