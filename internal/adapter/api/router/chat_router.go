package router

import (
	"github.com/labstack/echo/v4"

	"haulhub/internal/adapter/api/handler"
	"haulhub/internal/adapter/api/middleware"
)

func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	convGroup := e.Group("/v1/conversations")
	convGroup.Use(authMiddleware.Authenticate)

	convGroup.POST("", chatHandler.CreateConversation)
	convGroup.GET("", chatHandler.ListConversations)
	convGroup.GET("/:id/messages", chatHandler.GetMessages)
	convGroup.POST("/:id/messages", chatHandler.SendMessage)
	convGroup.PUT("/:id/read", chatHandler.MarkRead)

	convGroup.POST("/:id/close", chatHandler.CloseConversation, adminMiddleware.AdminOnly)
}
