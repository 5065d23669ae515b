package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"haulhub/internal/infrastructure/push"
	"haulhub/pkg/errors"
	"haulhub/pkg/response"
)

type WebSocketHandler struct {
	hub *push.Hub
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // restrict in production
	},
}

func NewWebSocketHandler(hub *push.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	actor, ok := actorFrom(c)
	if !ok {
		return response.Error(c, errors.Forbidden("authentication required", nil))
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return response.Error(c, errors.Internal("failed to upgrade connection", err))
	}

	client := &push.Client{
		Actor: actor.Ref(),
		Conn:  conn,
		Send:  make(chan []byte, 256),
	}
	h.hub.Register <- client

	go client.ReadPump(h.hub)
	go client.WritePump()

	return nil
}
