package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haulhub/internal/domain/entity"
	"haulhub/internal/domain/repository"
	"haulhub/internal/store"
	apperrors "haulhub/pkg/errors"
)

var (
	customer = entity.Actor{Role: entity.RoleCustomer, ID: 7, Name: "Dana"}
	supplier = entity.Actor{Role: entity.RoleSupplier, ID: 3, Name: "Atlas Movers"}
)

type fakeChatAPI struct {
	listConversations func(ctx context.Context, actor entity.Actor) ([]entity.Conversation, error)
	getMessages       func(ctx context.Context, conversationID int64) (repository.MessagePage, error)
	sendMessage       func(ctx context.Context, input repository.SendMessageInput) (entity.Message, error)
	setReadCursor     func(ctx context.Context, conversationID, lastReadID int64) error
}

func (f *fakeChatAPI) ListConversations(ctx context.Context, actor entity.Actor) ([]entity.Conversation, error) {
	return f.listConversations(ctx, actor)
}

func (f *fakeChatAPI) GetMessages(ctx context.Context, conversationID int64) (repository.MessagePage, error) {
	return f.getMessages(ctx, conversationID)
}

func (f *fakeChatAPI) SendMessage(ctx context.Context, input repository.SendMessageInput) (entity.Message, error) {
	return f.sendMessage(ctx, input)
}

func (f *fakeChatAPI) SetReadCursor(ctx context.Context, conversationID, lastReadID int64) error {
	return f.setReadCursor(ctx, conversationID, lastReadID)
}

func openConversation(id int64) entity.Conversation {
	return entity.Conversation{
		ID:     id,
		Status: entity.ConversationOpen,
		Participants: [2]entity.Participant{
			{Actor: customer},
			{Actor: supplier},
		},
	}
}

func TestSendPromotesProvisionalToConfirmed(t *testing.T) {
	st := store.NewConversationStore(customer)
	st.UpsertConversations([]entity.Conversation{openConversation(42)})

	serverAt := time.Date(2026, 3, 1, 10, 0, 1, 0, time.UTC)

	api := &fakeChatAPI{}
	api.sendMessage = func(ctx context.Context, input repository.SendMessageInput) (entity.Message, error) {
		// The optimistic entry must already be visible while the call is
		// in flight.
		msgs := st.Messages(42)
		require.Len(t, msgs, 1)
		assert.True(t, msgs[0].Provisional())
		assert.Equal(t, entity.MessagePending, msgs[0].State)
		assert.Equal(t, "Hello", msgs[0].Body)
		assert.Equal(t, customer.Ref(), msgs[0].Sender.Ref())
		assert.NotEmpty(t, input.ClientKey)

		return entity.Message{
			ID:             9001,
			ConversationID: 42,
			Sender:         customer,
			Body:           input.Body,
			CreatedAt:      serverAt,
			State:          entity.MessageConfirmed,
		}, nil
	}

	uc := NewChatUseCase(st, api, customer, time.Second)
	confirmed, err := uc.Send(context.Background(), 42, "Hello", "")
	require.NoError(t, err)
	assert.Equal(t, int64(9001), confirmed.ID)

	msgs := st.Messages(42)
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(9001), msgs[0].ID)
	assert.Equal(t, "Hello", msgs[0].Body)
	assert.Equal(t, entity.MessageConfirmed, msgs[0].State)
	assert.Equal(t, serverAt, msgs[0].CreatedAt)
}

func TestSendFailureRollsBackAndReturnsBody(t *testing.T) {
	st := store.NewConversationStore(customer)
	st.UpsertConversations([]entity.Conversation{openConversation(42)})

	api := &fakeChatAPI{
		sendMessage: func(ctx context.Context, input repository.SendMessageInput) (entity.Message, error) {
			return entity.Message{}, errors.New("connection reset")
		},
	}

	uc := NewChatUseCase(st, api, customer, time.Second)
	_, err := uc.Send(context.Background(), 42, "Hello", "")
	require.Error(t, err)

	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, "Hello", sendErr.Body)
	assert.True(t, apperrors.Is(sendErr.Err, apperrors.CodeNetwork))

	assert.Empty(t, st.Messages(42), "provisional entry must be discarded")
}

func TestSendConflictKeepsConflictKind(t *testing.T) {
	st := store.NewConversationStore(customer)
	st.UpsertConversations([]entity.Conversation{openConversation(42)})

	api := &fakeChatAPI{
		sendMessage: func(ctx context.Context, input repository.SendMessageInput) (entity.Message, error) {
			return entity.Message{}, apperrors.Conflict("conversation is closed", nil)
		},
	}

	uc := NewChatUseCase(st, api, customer, time.Second)
	_, err := uc.Send(context.Background(), 42, "Hello", "")

	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.True(t, apperrors.Is(sendErr.Err, apperrors.CodeConflict))
	assert.Empty(t, st.Messages(42))
}

func TestSendValidationNeverTouchesStoreOrNetwork(t *testing.T) {
	st := store.NewConversationStore(customer)
	st.UpsertConversations([]entity.Conversation{openConversation(42)})

	called := false
	api := &fakeChatAPI{
		sendMessage: func(ctx context.Context, input repository.SendMessageInput) (entity.Message, error) {
			called = true
			return entity.Message{}, nil
		},
	}

	uc := NewChatUseCase(st, api, customer, time.Second)
	_, err := uc.Send(context.Background(), 42, "   ", "")

	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
	assert.False(t, called)
	assert.Empty(t, st.Messages(42))
}

func TestSendIntoClosedConversationFailsFast(t *testing.T) {
	st := store.NewConversationStore(customer)
	closed := openConversation(42)
	closed.Status = entity.ConversationClosed
	st.UpsertConversations([]entity.Conversation{closed})

	called := false
	api := &fakeChatAPI{
		sendMessage: func(ctx context.Context, input repository.SendMessageInput) (entity.Message, error) {
			called = true
			return entity.Message{}, nil
		},
	}

	uc := NewChatUseCase(st, api, customer, time.Second)
	_, err := uc.Send(context.Background(), 42, "Hello", "")

	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))
	assert.False(t, called)
}

func TestConcurrentSendsAreIndependentEntries(t *testing.T) {
	st := store.NewConversationStore(customer)
	st.UpsertConversations([]entity.Conversation{openConversation(42)})

	var nextID int64 = 9000
	api := &fakeChatAPI{
		sendMessage: func(ctx context.Context, input repository.SendMessageInput) (entity.Message, error) {
			nextID++
			return entity.Message{
				ID:             nextID,
				ConversationID: 42,
				Sender:         customer,
				Body:           input.Body,
				CreatedAt:      time.Now(),
				State:          entity.MessageConfirmed,
			}, nil
		},
	}

	uc := NewChatUseCase(st, api, customer, time.Second)
	_, err := uc.Send(context.Background(), 42, "first", "")
	require.NoError(t, err)
	_, err = uc.Send(context.Background(), 42, "second", "")
	require.NoError(t, err)

	msgs := st.Messages(42)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Body)
	assert.Equal(t, "second", msgs[1].Body)
}

func TestMarkConversationReadSurvivesRemoteFailure(t *testing.T) {
	st := store.NewConversationStore(customer)
	st.UpsertConversations([]entity.Conversation{openConversation(42)})
	st.UpsertMessages(42, []entity.Message{{
		ID:             9001,
		ConversationID: 42,
		Sender:         supplier,
		Body:           "quote ready",
		CreatedAt:      time.Now(),
		State:          entity.MessageConfirmed,
	}})

	api := &fakeChatAPI{
		setReadCursor: func(ctx context.Context, conversationID, lastReadID int64) error {
			assert.Equal(t, int64(9001), lastReadID)
			return errors.New("gateway timeout")
		},
	}

	uc := NewChatUseCase(st, api, customer, time.Second)
	err := uc.MarkConversationRead(context.Background(), 42)
	require.NoError(t, err, "read-mark failures are invisible to the caller")

	// The cursor is not rolled back: the user has visibly seen the
	// messages and the next poll corrects the server side.
	conv, _ := st.Conversation(42)
	assert.Equal(t, int64(9001), conv.Participant(customer.Ref()).LastReadID)
	assert.Equal(t, 0, conv.UnreadCount)
}

func TestMarkConversationReadIgnoresProvisionalIDs(t *testing.T) {
	st := store.NewConversationStore(customer)
	st.UpsertConversations([]entity.Conversation{openConversation(42)})
	st.UpsertMessages(42, []entity.Message{
		{ID: 10, ConversationID: 42, Sender: supplier, Body: "hi", CreatedAt: time.Now(), State: entity.MessageConfirmed},
		{ID: -1, ConversationID: 42, Sender: customer, Body: "pending", CreatedAt: time.Now(), State: entity.MessagePending},
	})

	var sent int64
	api := &fakeChatAPI{
		setReadCursor: func(ctx context.Context, conversationID, lastReadID int64) error {
			sent = lastReadID
			return nil
		},
	}

	uc := NewChatUseCase(st, api, customer, time.Second)
	require.NoError(t, uc.MarkConversationRead(context.Background(), 42))
	assert.Equal(t, int64(10), sent, "cursor must carry a server id, never a provisional one")
}
