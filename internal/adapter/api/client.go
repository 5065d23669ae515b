package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"haulhub/internal/domain/entity"
	"haulhub/internal/domain/repository"
	"haulhub/pkg/errors"
)

// Client is the HTTP implementation of the chat and notification surfaces.
// Transport failures, timeouts and 5xx responses come back as NETWORK_ERROR;
// 4xx responses keep the broker's error code so callers can tell a retryable
// outage from a rejected operation.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ repository.ChatAPI = (*Client)(nil)
var _ repository.NotificationAPI = (*Client)(nil)

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *envelopeError  `json:"error,omitempty"`
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) ListConversations(ctx context.Context, _ entity.Actor) ([]entity.Conversation, error) {
	var out []entity.Conversation
	if err := c.do(ctx, http.MethodGet, "/v1/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetMessages(ctx context.Context, conversationID int64) (repository.MessagePage, error) {
	var out repository.MessagePage
	path := fmt.Sprintf("/v1/conversations/%d/messages", conversationID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return repository.MessagePage{}, err
	}
	return out, nil
}

func (c *Client) SendMessage(ctx context.Context, input repository.SendMessageInput) (entity.Message, error) {
	body := map[string]interface{}{
		"body":       input.Body,
		"client_key": input.ClientKey,
	}
	if input.ImageURL != "" {
		body["image_url"] = input.ImageURL
	}

	var out entity.Message
	path := fmt.Sprintf("/v1/conversations/%d/messages", input.ConversationID)
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return entity.Message{}, err
	}
	return out, nil
}

func (c *Client) SetReadCursor(ctx context.Context, conversationID, lastReadID int64) error {
	body := map[string]interface{}{"last_read_id": lastReadID}
	path := fmt.Sprintf("/v1/conversations/%d/read", conversationID)
	return c.do(ctx, http.MethodPut, path, body, nil)
}

func (c *Client) ListNotifications(ctx context.Context, _ entity.Actor) (repository.NotificationFeed, error) {
	var out repository.NotificationFeed
	if err := c.do(ctx, http.MethodGet, "/v1/notifications", nil, &out); err != nil {
		return repository.NotificationFeed{}, err
	}
	return out, nil
}

func (c *Client) MarkNotificationsRead(ctx context.Context, ids []int64) error {
	body := map[string]interface{}{"ids": ids}
	return c.do(ctx, http.MethodPut, "/v1/notifications/read", body, nil)
}

func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/v1/notifications/%d/read", id)
	return c.do(ctx, http.MethodPut, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Internal("encode request", err)
		}
		reqBody = bytes.NewBuffer(payload)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Internal("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Network(fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return errors.Network(fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode), nil)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return errors.Network(fmt.Sprintf("%s %s returned an undecodable body", method, path), err)
	}

	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		code := errors.CodeInternal
		message := "request rejected"
		if env.Error != nil {
			code = env.Error.Code
			message = env.Error.Message
		}
		return errors.New(code, message, resp.StatusCode, nil)
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.Network(fmt.Sprintf("%s %s returned an undecodable payload", method, path), err)
		}
	}
	return nil
}
