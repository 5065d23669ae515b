package router

import (
	"github.com/labstack/echo/v4"

	"haulhub/internal/adapter/api/handler"
	"haulhub/internal/adapter/api/middleware"
)

func SetupDisputeRouter(e *echo.Echo, disputeHandler *handler.DisputeHandler, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	disputeGroup := e.Group("/v1/disputes")
	disputeGroup.Use(authMiddleware.Authenticate)
	disputeGroup.POST("", disputeHandler.CreateDispute)

	adminGroup := e.Group("/v1/admin/disputes")
	adminGroup.Use(authMiddleware.Authenticate)
	adminGroup.Use(adminMiddleware.AdminOnly)
	adminGroup.GET("", disputeHandler.ListDisputes)
	adminGroup.POST("/:id/resolve", disputeHandler.ResolveDispute)
}
