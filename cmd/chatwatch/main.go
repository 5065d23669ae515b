package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"haulhub/internal/adapter/api"
	"haulhub/internal/domain/entity"
	"haulhub/internal/infrastructure/push"
	"haulhub/internal/store"
	"haulhub/internal/usecase"
	"haulhub/pkg/config"
	"haulhub/pkg/logger"
)

// chatwatch attaches a live terminal view to a broker: it mints a dev token,
// polls the actor's conversations and notifications, tails the websocket
// feed, and prints every store change until interrupted.
func main() {
	role := flag.String("role", "customer", "acting role (customer, supplier, admin, driver)")
	id := flag.Int64("id", 1, "acting actor id")
	name := flag.String("name", "chatwatch", "acting actor name")
	conversationID := flag.Int64("conversation", 0, "conversation to tail (0 tails the list only)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	viewer := entity.Actor{Role: entity.Role(*role), ID: *id, Name: *name}
	if !viewer.Role.Valid() {
		log.Fatalf("Unknown role %q", *role)
	}

	token, err := mintDevToken(cfg.BrokerURL, viewer)
	if err != nil {
		log.Fatalf("Failed to mint dev token: %v", err)
	}

	client := api.NewClient(cfg.BrokerURL, token, cfg.RequestTimeout)
	st := store.NewConversationStore(viewer)
	chat := usecase.NewChatUseCase(st, client, viewer, cfg.RequestTimeout)
	notifications := usecase.NewNotificationUseCase(client, cfg.RequestTimeout)
	scheduler := usecase.NewRefreshScheduler(chat)

	unsubscribeStore := st.Subscribe(func(ev store.Event) {
		switch ev.Kind {
		case store.EventConversations:
			for _, conv := range st.Conversations() {
				fmt.Printf("[list] #%d %q unread=%d status=%s\n",
					conv.ID, conv.LastMessage, conv.UnreadCount, conv.Status)
			}
		case store.EventMessages:
			for _, msg := range st.Messages(ev.ConversationID) {
				tag := " "
				if msg.Provisional() {
					tag = "~"
				}
				fmt.Printf("[chat %d]%s %s: %s\n", ev.ConversationID, tag, msg.Sender.Name, msg.Body)
			}
		}
	})
	defer unsubscribeStore()

	unsubscribeAlerts := notifications.OnAlert(func(a usecase.Alert) {
		fmt.Printf("[alert] %s: %s\n", a.Title, a.Body)
	})
	defer unsubscribeAlerts()
	notifications.SetAlertsEnabled(viewer.Role, true)

	listHandle := scheduler.WatchConversationList(cfg.ListPollInterval)
	defer listHandle.Stop()
	notifHandle := notifications.Watch(viewer, cfg.NotificationPollInterval)
	defer notifHandle.Stop()

	var chatHandle *usecase.RefreshHandle
	if *conversationID != 0 {
		chatHandle = scheduler.WatchConversation(*conversationID, cfg.ChatPollInterval)
		defer chatHandle.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		feed := push.NewFeed(cfg.BrokerURL, token, chat)
		if err := feed.Run(ctx); err != nil {
			logger.Warn("Live feed unavailable, polling only: %v", err)
		}
	}()

	fmt.Printf("Watching as %s, Ctrl-C to stop\n", viewer)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	fmt.Println("Stopping")
}

func mintDevToken(brokerURL string, actor entity.Actor) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"role": string(actor.Role),
		"id":   actor.ID,
		"name": actor.Name,
	})
	if err != nil {
		return "", err
	}

	resp, err := http.Post(brokerURL+"/v1/dev/token", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", err
	}
	if !envelope.Success || envelope.Data.Token == "" {
		return "", fmt.Errorf("broker refused to mint a token (status %d)", resp.StatusCode)
	}
	return envelope.Data.Token, nil
}
