package push

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"haulhub/internal/domain/entity"
	"haulhub/internal/usecase"
	"haulhub/pkg/errors"
	"haulhub/pkg/logger"
)

// Feed is the client side of the live channel. Incoming events are merged
// through the same store paths the poller uses; the feed adds latency wins,
// never a second merge algorithm. Reconnection is the caller's concern;
// Run returns on the first connection error and the poller keeps the store
// correct in the meantime.
type Feed struct {
	url   string
	token string
	chat  *usecase.ChatUseCase
}

func NewFeed(baseURL, token string, chat *usecase.ChatUseCase) *Feed {
	url := strings.Replace(baseURL, "http://", "ws://", 1)
	url = strings.Replace(url, "https://", "wss://", 1)
	return &Feed{
		url:   strings.TrimRight(url, "/") + "/v1/ws",
		token: token,
		chat:  chat,
	}
}

// Run dials the broker and applies events until ctx is cancelled or the
// connection drops.
func (f *Feed) Run(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+f.token)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, header)
	if err != nil {
		return errors.Network("live feed dial failed", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Network("live feed closed", err)
		}

		var ev Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			logger.Warn("push: undecodable feed event: %v", err)
			continue
		}
		f.apply(ev)
	}
}

func (f *Feed) apply(ev Event) {
	switch ev.Type {
	case EventNewMessage:
		if ev.Message != nil {
			f.chat.ApplyRemoteMessage(*ev.Message)
		}
	case EventConversationUpdate:
		if ev.Conversation != nil {
			f.chat.Store().UpsertConversations([]entity.Conversation{*ev.Conversation})
		}
	default:
		logger.Debug("push: ignoring feed event type %q", ev.Type)
	}
}
