package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"haulhub/internal/domain/entity"
	"haulhub/internal/domain/repository"
	"haulhub/internal/store"
)

func confirmedAt(id int64, body string, at time.Time) entity.Message {
	return entity.Message{
		ID:             id,
		ConversationID: 42,
		Sender:         supplier,
		Body:           body,
		CreatedAt:      at,
		State:          entity.MessageConfirmed,
	}
}

func TestStaleGenerationResultIsDropped(t *testing.T) {
	st := store.NewConversationStore(customer)
	st.UpsertConversations([]entity.Conversation{openConversation(42)})

	uc := NewChatUseCase(st, &fakeChatAPI{}, customer, time.Second)
	s := NewRefreshScheduler(uc)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	pageOld := repository.MessagePage{Messages: []entity.Message{
		confirmedAt(10, "hi", base),
	}}
	pageNew := repository.MessagePage{Messages: []entity.Message{
		confirmedAt(10, "hi", base),
		confirmedAt(11, "quote attached", base.Add(time.Minute)),
	}}

	// Two refreshes issued back-to-back; the first resolves after the
	// second.
	gen1 := s.beginConversation(42)
	gen2 := s.beginConversation(42)

	assert.True(t, s.completeConversation(42, gen2, pageNew))
	want := st.Messages(42)
	require.Len(t, want, 2)

	assert.False(t, s.completeConversation(42, gen1, pageOld))
	assert.Equal(t, want, st.Messages(42), "stale result must not change the store")
}

func TestRacingCompletionsNeverApplyOlderPayloadLast(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Both fetches carry message id 10; the later generation has the newer
	// body. Whenever the newer completion applies, its body must be what the
	// store ends up with, no matter how the two completions interleave.
	for i := 0; i < 200; i++ {
		st := store.NewConversationStore(customer)
		st.UpsertConversations([]entity.Conversation{openConversation(42)})
		uc := NewChatUseCase(st, &fakeChatAPI{}, customer, time.Second)
		s := NewRefreshScheduler(uc)

		gen1 := s.beginConversation(42)
		pageOld := repository.MessagePage{Messages: []entity.Message{
			confirmedAt(10, "stale body", base),
		}}
		pageNew := repository.MessagePage{Messages: []entity.Message{
			confirmedAt(10, "fresh body", base),
		}}

		var wg sync.WaitGroup
		var newApplied atomic.Bool
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.completeConversation(42, gen1, pageOld)
		}()
		go func() {
			defer wg.Done()
			gen2 := s.beginConversation(42)
			newApplied.Store(s.completeConversation(42, gen2, pageNew))
		}()
		wg.Wait()

		if newApplied.Load() {
			msgs := st.Messages(42)
			require.Len(t, msgs, 1)
			require.Equal(t, "fresh body", msgs[0].Body,
				"an older generation must not overwrite a newer one")
		}
	}
}

func TestRefreshDoesNotDeleteInFlightOptimisticEntry(t *testing.T) {
	st := store.NewConversationStore(customer)
	st.UpsertConversations([]entity.Conversation{openConversation(42)})

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st.UpsertMessages(42, []entity.Message{{
		ID:             -1,
		ConversationID: 42,
		Sender:         customer,
		Body:           "on my way",
		CreatedAt:      base.Add(time.Minute),
		State:          entity.MessagePending,
	}})

	uc := NewChatUseCase(st, &fakeChatAPI{}, customer, time.Second)
	s := NewRefreshScheduler(uc)

	gen := s.beginConversation(42)
	// The poll snapshot predates the send and does not contain it.
	require.True(t, s.completeConversation(42, gen, repository.MessagePage{Messages: []entity.Message{
		confirmedAt(10, "hi", base),
	}}))

	msgs := st.Messages(42)
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(-1), msgs[1].ID)
	assert.Equal(t, entity.MessagePending, msgs[1].State)
}

func TestStaleListResultIsDropped(t *testing.T) {
	st := store.NewConversationStore(customer)

	var calls atomic.Int64
	api := &fakeChatAPI{
		listConversations: func(ctx context.Context, actor entity.Actor) ([]entity.Conversation, error) {
			calls.Add(1)
			return []entity.Conversation{openConversation(42)}, nil
		},
	}
	uc := NewChatUseCase(st, api, customer, time.Second)
	s := NewRefreshScheduler(uc)

	s.RefreshConversationList(context.Background())
	assert.Equal(t, int64(1), calls.Load())
	assert.Len(t, st.Conversations(), 1)
}

func TestWatchConversationPollsUntilStopped(t *testing.T) {
	st := store.NewConversationStore(customer)
	st.UpsertConversations([]entity.Conversation{openConversation(42)})

	var fetches atomic.Int64
	api := &fakeChatAPI{
		getMessages: func(ctx context.Context, conversationID int64) (repository.MessagePage, error) {
			fetches.Add(1)
			return repository.MessagePage{}, nil
		},
	}
	uc := NewChatUseCase(st, api, customer, time.Second)
	s := NewRefreshScheduler(uc)

	h := s.WatchConversation(42, time.Second)

	// The first refresh runs immediately on start.
	require.Eventually(t, func() bool { return fetches.Load() >= 1 }, time.Second, 10*time.Millisecond)

	h.Stop()
	settled := fetches.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, fetches.Load(), "no fetches after Stop")

	// Stop is idempotent.
	h.Stop()
}

func TestClampInterval(t *testing.T) {
	assert.Equal(t, minPollInterval, clampInterval(10*time.Millisecond))
	assert.Equal(t, maxPollInterval, clampInterval(time.Hour))
	assert.Equal(t, 5*time.Second, clampInterval(5*time.Second))
}
