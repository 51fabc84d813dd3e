package middleware

import (
	"strings"

	"storefront/internal/apperrors"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// IdentityHandler is a route handler that runs on behalf of an authenticated
// user.
type IdentityHandler func(c *fiber.Ctx, user services.Identity) error

// TokenVerifier resolves a bearer token to an identity. *services.TokenService
// implements it.
type TokenVerifier interface {
	Verify(token string) (*services.Identity, error)
}

// AuthGate protects handlers with a bearer JWT.
type AuthGate struct {
	tokens TokenVerifier
}

// NewAuthGate creates an AuthGate verifying tokens with tokens.
func NewAuthGate(tokens TokenVerifier) *AuthGate {
	return &AuthGate{tokens: tokens}
}

// Protect wraps h so it only runs for requests carrying a valid
// `Authorization: Bearer <token>` header. Failures are returned to the app's
// error handler and h is not called.
func (g *AuthGate) Protect(h IdentityHandler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return apperrors.ErrUnauthorized
		}

		identity, err := g.tokens.Verify(token)
		if err != nil {
			return err
		}

		return h(c, *identity)
	}
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
