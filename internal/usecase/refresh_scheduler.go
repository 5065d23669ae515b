package usecase

import (
	"context"
	"sync"
	"time"

	"haulhub/internal/domain/repository"
	"haulhub/pkg/errors"
	"haulhub/pkg/logger"
)

const (
	minPollInterval = time.Second
	maxPollInterval = time.Minute
)

// RefreshHandle is the explicit lifecycle of one poll loop. The owning
// context (a mounted view, a session) is responsible for calling Stop;
// nothing is tied to an implicit lifecycle hook. Stop is idempotent.
type RefreshHandle struct {
	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

func (h *RefreshHandle) Stop() {
	h.once.Do(h.cancel)
	<-h.done
}

// RefreshScheduler periodically re-fetches authoritative state and merges it
// through the store's single merge path. Every fetch carries a generation
// number per conversation; a result that resolves after a newer fetch began
// is stale and dropped without touching the store, so overlapping polls can
// never resurrect old state.
type RefreshScheduler struct {
	chat *ChatUseCase

	mu      sync.Mutex
	gens    map[int64]uint64
	listGen uint64
}

func NewRefreshScheduler(chat *ChatUseCase) *RefreshScheduler {
	return &RefreshScheduler{
		chat: chat,
		gens: make(map[int64]uint64),
	}
}

// WatchConversation polls one conversation's messages at the given interval
// until the handle is stopped. An immediate refresh runs before the first
// tick so a freshly mounted view is not blank for a whole interval.
func (s *RefreshScheduler) WatchConversation(conversationID int64, interval time.Duration) *RefreshHandle {
	return s.watch(interval, func(ctx context.Context) {
		s.RefreshConversation(ctx, conversationID)
	})
}

// WatchConversationList polls the viewer's conversation list.
func (s *RefreshScheduler) WatchConversationList(interval time.Duration) *RefreshHandle {
	return s.watch(interval, s.RefreshConversationList)
}

func (s *RefreshScheduler) watch(interval time.Duration, refresh func(context.Context)) *RefreshHandle {
	interval = clampInterval(interval)
	ctx, cancel := context.WithCancel(context.Background())
	h := &RefreshHandle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		refresh(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				refresh(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	return h
}

// RefreshConversation runs one generation-tagged fetch of a conversation's
// messages. Exported so a view can force a refresh (pull-to-refresh) through
// the same staleness discipline the timer uses.
func (s *RefreshScheduler) RefreshConversation(ctx context.Context, conversationID int64) {
	gen := s.beginConversation(conversationID)

	callCtx, cancel := context.WithTimeout(ctx, s.chat.timeout)
	defer cancel()

	page, err := s.chat.api.GetMessages(callCtx, conversationID)
	if err != nil {
		logger.Debug("RefreshConversation: fetch failed for conversation %d: %v", conversationID, err)
		return
	}
	s.completeConversation(conversationID, gen, page)
}

// RefreshConversationList runs one generation-tagged fetch of the viewer's
// conversation list.
func (s *RefreshScheduler) RefreshConversationList(ctx context.Context) {
	s.mu.Lock()
	s.listGen++
	gen := s.listGen
	s.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, s.chat.timeout)
	defer cancel()

	list, err := s.chat.api.ListConversations(callCtx, s.chat.viewer)
	if err != nil {
		logger.Debug("RefreshConversationList: fetch failed: %v", err)
		return
	}

	// Check and apply under one lock acquisition, so a newer fetch cannot
	// begin between the staleness check and the merge.
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.listGen {
		logger.Debug("RefreshConversationList: %s, dropping generation %d", errors.CodeStaleFetch, gen)
		return
	}
	s.chat.store.UpsertConversations(list)
}

// beginConversation stamps a new fetch generation for the conversation.
func (s *RefreshScheduler) beginConversation(conversationID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[conversationID]++
	return s.gens[conversationID]
}

// completeConversation applies a fetch result unless a newer fetch for the
// same conversation has begun since. It reports whether the result was
// applied.
func (s *RefreshScheduler) completeConversation(conversationID int64, gen uint64, page repository.MessagePage) bool {
	// Check and apply under one lock acquisition, so a newer fetch cannot
	// begin between the staleness check and the merge and then land its
	// payload first.
	s.mu.Lock()
	defer s.mu.Unlock()

	if current := s.gens[conversationID]; gen != current {
		logger.Debug("completeConversation: %s, dropping generation %d (current %d) for conversation %d",
			errors.CodeStaleFetch, gen, current, conversationID)
		return false
	}
	s.chat.store.UpsertMessages(conversationID, page.Messages)
	return true
}

func clampInterval(interval time.Duration) time.Duration {
	if interval < minPollInterval {
		return minPollInterval
	}
	if interval > maxPollInterval {
		return maxPollInterval
	}
	return interval
}
