package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"haulhub/internal/domain/entity"
)

type AdminMiddleware struct{}

func NewAdminMiddleware() *AdminMiddleware {
	return &AdminMiddleware{}
}

func (m *AdminMiddleware) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, ok := Actor(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
		}
		if actor.Role != entity.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "Admin privileges required")
		}
		return next(c)
	}
}
