package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"haulhub/internal/adapter/api"
	"haulhub/internal/adapter/api/handler"
	apimiddleware "haulhub/internal/adapter/api/middleware"
	"haulhub/internal/adapter/api/router"
	"haulhub/internal/adapter/repository"
	"haulhub/internal/infrastructure/auth"
	"haulhub/internal/infrastructure/push"
	"haulhub/pkg/config"
	"haulhub/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	tokens := auth.NewTokenManager(cfg.JWTSecret, 24*time.Hour)
	chatRepo := repository.NewMemoryChatRepository()
	notifRepo := repository.NewMemoryNotificationRepository()
	disputeRepo := repository.NewMemoryDisputeRepository()

	hub := push.NewHub()
	hub.Start(ctx)

	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(tokens)
	adminMiddleware := apimiddleware.NewAdminMiddleware()

	devMode := cfg.Environment == "development"
	router.Setup(e, router.Handlers{
		Chat:         handler.NewChatHandler(chatRepo, notifRepo, hub),
		Notification: handler.NewNotificationHandler(notifRepo),
		Dispute:      handler.NewDisputeHandler(disputeRepo, chatRepo, notifRepo),
		WebSocket:    handler.NewWebSocketHandler(hub),
		DevToken:     handler.NewDevTokenHandler(tokens),
		Health:       handler.NewHealthHandler(),
	}, authMiddleware, adminMiddleware, devMode)

	if devMode {
		logger.Warn("Dev token endpoint is enabled; do not expose this instance")
	}

	logger.Info("Broker listening on port %s", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
