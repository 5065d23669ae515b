package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"haulhub/internal/domain/entity"
	"haulhub/internal/infrastructure/auth"
)

type AuthMiddleware struct {
	tokens *auth.TokenManager
}

func NewAuthMiddleware(tokens *auth.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate resolves the bearer token into an actor and stores it in the
// request context under "actor".
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is required")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
		}

		actor, err := m.tokens.Verify(parts[1])
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		}

		c.Set("actor", actor)
		return next(c)
	}
}

// Actor pulls the authenticated actor out of the request context.
func Actor(c echo.Context) (entity.Actor, bool) {
	actor, ok := c.Get("actor").(entity.Actor)
	return actor, ok
}
