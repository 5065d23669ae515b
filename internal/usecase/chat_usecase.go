package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"haulhub/internal/domain/entity"
	"haulhub/internal/domain/repository"
	"haulhub/internal/domain/service"
	"haulhub/internal/store"
	"haulhub/pkg/errors"
	"haulhub/pkg/logger"
)

const maxMessageBodyLen = 4000

// SendError is returned when a send could not be confirmed. It carries the
// original compose input back to the caller so typed text is never lost.
type SendError struct {
	Body     string
	ImageURL string
	Err      error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send failed: %v", e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// ChatUseCase makes conversation writes feel instantaneous while keeping the
// store eventually consistent with the server. Sends follow a three-phase
// protocol: speculative apply, remote call, reconcile (promote on success,
// discard on failure). Read-cursor advances are deliberately asymmetric:
// they are never rolled back, because re-surfacing messages the user has
// visibly seen is worse than a stale unread badge that the next poll fixes.
type ChatUseCase struct {
	store    *store.ConversationStore
	api      repository.ChatAPI
	identity service.Identity
	viewer   entity.Actor
	timeout  time.Duration

	provisionalSeq atomic.Int64
	now            func() time.Time
}

func NewChatUseCase(st *store.ConversationStore, api repository.ChatAPI, viewer entity.Actor, timeout time.Duration) *ChatUseCase {
	return &ChatUseCase{
		store:    st,
		api:      api,
		identity: service.NewIdentity(),
		viewer:   viewer,
		timeout:  timeout,
		now:      time.Now,
	}
}

func (uc *ChatUseCase) Store() *store.ConversationStore {
	return uc.store
}

func (uc *ChatUseCase) Viewer() entity.Actor {
	return uc.viewer
}

// Send validates the intent, applies a provisional message to the store, and
// issues the remote call. On success the provisional entry is promoted to
// the server-confirmed message; on failure it is discarded and the original
// input is returned inside a *SendError. Concurrent sends in one
// conversation are independent entries; ordering is resolved by timestamp at
// merge time, not by serializing the calls.
func (uc *ChatUseCase) Send(ctx context.Context, conversationID int64, body, imageURL string) (entity.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" && imageURL == "" {
		return entity.Message{}, errors.Validation("message body or image required")
	}
	if len(body) > maxMessageBodyLen {
		return entity.Message{}, errors.Validation("message body too long")
	}

	if conv, ok := uc.store.Conversation(conversationID); ok && conv.Closed() {
		return entity.Message{}, errors.Conflict("conversation is closed", nil)
	}

	provisional := entity.Message{
		ID:             -uc.provisionalSeq.Add(1),
		ConversationID: conversationID,
		Sender:         uc.viewer,
		Body:           body,
		ImageURL:       imageURL,
		CreatedAt:      uc.now(),
		State:          entity.MessagePending,
		ClientKey:      uuid.NewString(),
	}

	// Optimistic apply happens before the remote call is issued, so there
	// is no window where a just-composed message is invisible.
	uc.store.UpsertMessages(conversationID, []entity.Message{provisional})

	callCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	confirmed, err := uc.api.SendMessage(callCtx, repository.SendMessageInput{
		ConversationID: conversationID,
		Body:           body,
		ImageURL:       imageURL,
		ClientKey:      provisional.ClientKey,
	})
	if err != nil {
		uc.store.DiscardMessage(conversationID, provisional.ID)
		kind := classifyRemoteError(err, "send message")
		logger.Warn("Send: discarding provisional %d in conversation %d: %v", provisional.ID, conversationID, kind)
		return entity.Message{}, &SendError{Body: body, ImageURL: imageURL, Err: kind}
	}

	uc.store.PromoteMessage(conversationID, provisional.ID, confirmed)
	return confirmed, nil
}

// MarkConversationRead advances the viewer's read cursor to the highest
// confirmed message id and tells the server. A remote failure is logged and
// left alone: read state is eventually consistent and the cursor is not
// rolled back.
func (uc *ChatUseCase) MarkConversationRead(ctx context.Context, conversationID int64) error {
	highest := uc.store.HighestConfirmedID(conversationID)
	if highest == 0 {
		return nil
	}

	uc.store.SetReadCursor(conversationID, uc.viewer.Ref(), highest)

	callCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	if err := uc.api.SetReadCursor(callCtx, conversationID, highest); err != nil {
		logger.Warn("MarkConversationRead: remote cursor update failed for conversation %d, keeping local cursor at %d: %v",
			conversationID, highest, err)
	}
	return nil
}

// SyncConversations pulls the viewer's conversation list and merges it.
func (uc *ChatUseCase) SyncConversations(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	list, err := uc.api.ListConversations(callCtx, uc.viewer)
	if err != nil {
		return classifyRemoteError(err, "list conversations")
	}
	uc.store.UpsertConversations(list)
	return nil
}

// SyncMessages pulls one conversation's authoritative message list and
// merges it. This is the same merge path promotion uses; there is exactly
// one merge algorithm in the system.
func (uc *ChatUseCase) SyncMessages(ctx context.Context, conversationID int64) error {
	callCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	page, err := uc.api.GetMessages(callCtx, conversationID)
	if err != nil {
		return classifyRemoteError(err, "get messages")
	}
	uc.store.UpsertMessages(conversationID, page.Messages)
	return nil
}

// ApplyRemoteMessage merges a single externally-delivered message (live
// feed) through the store's merge path.
func (uc *ChatUseCase) ApplyRemoteMessage(msg entity.Message) {
	if msg.Provisional() {
		return
	}
	uc.store.UpsertMessages(msg.ConversationID, []entity.Message{msg})
}

// IsMine reports whether the viewer authored the message. Admin observing a
// dispute thread is never "mine".
func (uc *ChatUseCase) IsMine(msg entity.Message) bool {
	return uc.identity.IsMine(uc.viewer, msg)
}

// OtherParty resolves who the viewer is talking to.
func (uc *ChatUseCase) OtherParty(conversationID int64) (entity.Participant, bool) {
	conv, ok := uc.store.Conversation(conversationID)
	if !ok {
		return entity.Participant{}, false
	}
	return uc.identity.OtherParty(uc.viewer, &conv)
}

// classifyRemoteError folds every remote failure into the engine's error
// taxonomy. Application errors from the API keep their kind; anything else
// (transport, timeout, decode) is a retryable network failure.
func classifyRemoteError(err error, op string) error {
	for _, code := range []string{
		errors.CodeValidation,
		errors.CodeConflict,
		errors.CodeNotFound,
		errors.CodeForbidden,
	} {
		if errors.Is(err, code) {
			return err
		}
	}
	return errors.Network(op+" failed", err)
}
