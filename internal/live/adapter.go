package live

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/convohq/messaging-service/internal/models"
)

type FetchConversationsFunc func(ctx context.Context, userID string) ([]*models.Conversation, error)

type FetchMessagesFunc func(ctx context.Context, conversationID string) ([]*models.Message, error)

// ConversationList keeps one user's conversation list current. It holds a
// single standing subscription on the user's membership changes and
// re-runs the fetch on every notification, so the emitted snapshot is
// always the authoritative, sorted list.
type ConversationList struct {
	fetch  FetchConversationsFunc
	feed   ChangeFeed
	log    *zap.SugaredLogger
	userID string
	out    chan []*models.Conversation
}

func NewConversationList(fetch FetchConversationsFunc, feed ChangeFeed, log *zap.SugaredLogger, userID string) *ConversationList {
	return &ConversationList{
		fetch:  fetch,
		feed:   feed,
		log:    log,
		userID: userID,
		out:    make(chan []*models.Conversation, 1),
	}
}

func (a *ConversationList) Snapshots() <-chan []*models.Conversation { return a.out }

// Run blocks until ctx is done. The snapshot channel is closed on return.
func (a *ConversationList) Run(ctx context.Context) error {
	sub, err := a.feed.SubscribeUser(ctx, a.userID)
	if err != nil {
		close(a.out)
		return err
	}
	defer close(a.out)
	defer sub.Close()

	a.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-sub.Changes():
			if !ok {
				return nil
			}
			a.refresh(ctx)
		}
	}
}

func (a *ConversationList) refresh(ctx context.Context) {
	convs, err := a.fetch(ctx, a.userID)
	if err != nil {
		if ctx.Err() == nil {
			a.log.Errorw("conversation refresh", "user_id", a.userID, "err", err)
		}
		return
	}
	select {
	case a.out <- convs:
	case <-ctx.Done():
	}
}

// MessageSnapshot is the full, sorted message set of one conversation.
type MessageSnapshot struct {
	ConversationID string
	Messages       []*models.Message
}

// MessageThread follows the messages of the currently selected
// conversation. It owns at most one standing subscription; Select cancels
// the previous scope before installing the next one. Each scope carries a
// generation number, and emissions from a superseded generation are
// discarded, so a slow fetch from the old scope can never land in the
// new scope's state.
type MessageThread struct {
	fetch FetchMessagesFunc
	feed  ChangeFeed
	log   *zap.SugaredLogger
	out   chan MessageSnapshot

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func NewMessageThread(fetch FetchMessagesFunc, feed ChangeFeed, log *zap.SugaredLogger) *MessageThread {
	return &MessageThread{fetch: fetch, feed: feed, log: log, out: make(chan MessageSnapshot, 1)}
}

func (t *MessageThread) Snapshots() <-chan MessageSnapshot { return t.out }

// Select switches the thread to conversationID. An empty id clears the
// scope: the previous subscription is released and an empty snapshot is
// emitted.
func (t *MessageThread) Select(ctx context.Context, conversationID string) {
	t.mu.Lock()
	t.gen++
	gen := t.gen
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	if conversationID == "" {
		t.mu.Unlock()
		t.emit(ctx, gen, MessageSnapshot{Messages: []*models.Message{}})
		return
	}
	wctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.mu.Unlock()
	go t.watch(wctx, gen, conversationID)
}

// Close tears the current scope down without emitting.
func (t *MessageThread) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *MessageThread) watch(ctx context.Context, gen uint64, conversationID string) {
	sub, err := t.feed.SubscribeConversation(ctx, conversationID)
	if err != nil {
		if ctx.Err() == nil {
			t.log.Errorw("message subscribe", "conversation_id", conversationID, "err", err)
		}
		return
	}
	defer sub.Close()

	t.refresh(ctx, gen, conversationID)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-sub.Changes():
			if !ok {
				return
			}
			t.refresh(ctx, gen, conversationID)
		}
	}
}

func (t *MessageThread) refresh(ctx context.Context, gen uint64, conversationID string) {
	msgs, err := t.fetch(ctx, conversationID)
	if err != nil {
		if ctx.Err() == nil {
			t.log.Errorw("message refresh", "conversation_id", conversationID, "err", err)
		}
		return
	}
	t.emit(ctx, gen, MessageSnapshot{ConversationID: conversationID, Messages: msgs})
}

func (t *MessageThread) emit(ctx context.Context, gen uint64, snap MessageSnapshot) {
	t.mu.Lock()
	current := gen == t.gen
	t.mu.Unlock()
	if !current {
		return
	}
	select {
	case t.out <- snap:
	case <-ctx.Done():
	}
}
