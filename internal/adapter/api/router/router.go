package router

import (
	"github.com/labstack/echo/v4"

	"haulhub/internal/adapter/api/handler"
	"haulhub/internal/adapter/api/middleware"
)

type Handlers struct {
	Chat         *handler.ChatHandler
	Notification *handler.NotificationHandler
	Dispute      *handler.DisputeHandler
	WebSocket    *handler.WebSocketHandler
	DevToken     *handler.DevTokenHandler
	Health       *handler.HealthHandler
}

// Setup wires every route. Dev-only surfaces are mounted only when devMode
// is set.
func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware, devMode bool) {
	SetupChatRouter(e, h.Chat, authMiddleware, adminMiddleware)
	SetupNotificationRouter(e, h.Notification, authMiddleware)
	SetupDisputeRouter(e, h.Dispute, authMiddleware, adminMiddleware)
	SetupWebSocketRouter(e, h.WebSocket, authMiddleware)
	SetupHealthRouter(e, h.Health)
	if devMode {
		SetupDevRouter(e, h.DevToken)
	}
}
