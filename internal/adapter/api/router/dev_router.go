package router

import (
	"github.com/labstack/echo/v4"

	"haulhub/internal/adapter/api/handler"
)

// SetupDevRouter mounts the unauthenticated token mint. Development only.
func SetupDevRouter(e *echo.Echo, devTokenHandler *handler.DevTokenHandler) {
	e.POST("/v1/dev/token", devTokenHandler.GenerateToken)
}
