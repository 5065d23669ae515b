package router

import (
	"github.com/labstack/echo/v4"

	"haulhub/internal/adapter/api/handler"
	"haulhub/internal/adapter/api/middleware"
)

func SetupNotificationRouter(e *echo.Echo, notificationHandler *handler.NotificationHandler, authMiddleware *middleware.AuthMiddleware) {
	notifGroup := e.Group("/v1/notifications")
	notifGroup.Use(authMiddleware.Authenticate)

	notifGroup.GET("", notificationHandler.ListNotifications)
	notifGroup.PUT("/read", notificationHandler.MarkAllRead)
	notifGroup.PUT("/:id/read", notificationHandler.MarkOneRead)
}
