package push

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"haulhub/internal/domain/entity"
	"haulhub/pkg/logger"
)

// Client is one connected websocket session.
type Client struct {
	Actor entity.ActorRef
	Conn  *websocket.Conn
	Send  chan []byte
}

// Hub tracks the broker's live websocket sessions, one per actor.
type Hub struct {
	clients    map[entity.ActorRef]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[entity.ActorRef]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Start runs the hub's main loop in a goroutine until ctx is cancelled.
func (h *Hub) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-h.Register:
				h.mutex.Lock()
				h.clients[client.Actor] = client
				h.mutex.Unlock()
				logger.Info("push: client registered: %s", client.Actor)

			case client := <-h.Unregister:
				h.mutex.Lock()
				if _, ok := h.clients[client.Actor]; ok {
					delete(h.clients, client.Actor)
					close(client.Send)
				}
				h.mutex.Unlock()
				logger.Info("push: client unregistered: %s", client.Actor)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// SendToActor delivers an event to one actor's session, if connected.
// Delivery is best-effort; the poller remains authoritative.
func (h *Hub) SendToActor(ref entity.ActorRef, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error("push: marshal event: %v", err)
		return
	}

	h.mutex.RLock()
	client, ok := h.clients[ref]
	h.mutex.RUnlock()

	if !ok {
		return
	}
	select {
	case client.Send <- payload:
	default:
		logger.Warn("push: dropping event for %s, send buffer full", ref)
	}
}

// ReadPump drains the connection until it closes, then unregisters. The
// broker never acts on inbound frames; writes go through the REST surface.
func (c *Client) ReadPump(h *Hub) {
	defer func() {
		h.Unregister <- c
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("push: read error for %s: %v", c.Actor, err)
			}
			return
		}
	}
}

// WritePump forwards queued events to the connection.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.Debug("push: write error for %s: %v", c.Actor, err)
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
