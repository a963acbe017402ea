package live

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convohq/messaging-service/internal/models"
	"github.com/convohq/messaging-service/internal/store"
	"github.com/convohq/messaging-service/pkg/logger"
)

type fakeSub struct {
	ch     chan store.Change
	once   sync.Once
	closed chan struct{}
}

func (s *fakeSub) Changes() <-chan store.Change { return s.ch }

func (s *fakeSub) Close() error {
	s.once.Do(func() {
		close(s.ch)
		close(s.closed)
	})
	return nil
}

type fakeFeed struct {
	mu         sync.Mutex
	subs       map[string]*fakeSub
	subscribed chan string
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{subs: make(map[string]*fakeSub), subscribed: make(chan string, 16)}
}

func (f *fakeFeed) add(scope string) (Subscription, error) {
	f.mu.Lock()
	sub := &fakeSub{ch: make(chan store.Change, 4), closed: make(chan struct{})}
	f.subs[scope] = sub
	f.mu.Unlock()
	f.subscribed <- scope
	return sub, nil
}

func (f *fakeFeed) SubscribeUser(_ context.Context, userID string) (Subscription, error) {
	return f.add("user:" + userID)
}

func (f *fakeFeed) SubscribeConversation(_ context.Context, conversationID string) (Subscription, error) {
	return f.add("conv:" + conversationID)
}

func (f *fakeFeed) sub(scope string) *fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[scope]
}

func (f *fakeFeed) waitSubscribed(t *testing.T, scope string) {
	t.Helper()
	for {
		select {
		case got := <-f.subscribed:
			if got == scope {
				return
			}
		case <-time.After(time.Second):
			t.Fatalf("no subscription established for %s", scope)
		}
	}
}

func TestConversationListRefreshesOnNotification(t *testing.T) {
	feed := newFakeFeed()

	var mu sync.Mutex
	current := []*models.Conversation{{ID: "c1", Title: "one"}}
	fetch := func(context.Context, string) ([]*models.Conversation, error) {
		mu.Lock()
		defer mu.Unlock()
		return current, nil
	}

	adapter := NewConversationList(fetch, feed, logger.Nop(), "alice")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = adapter.Run(ctx) }()

	feed.waitSubscribed(t, "user:alice")

	first := <-adapter.Snapshots()
	require.Len(t, first, 1)
	assert.Equal(t, "c1", first[0].ID)

	mu.Lock()
	current = []*models.Conversation{{ID: "c2"}, {ID: "c1"}}
	mu.Unlock()
	feed.sub("user:alice").ch <- store.Change{Entity: store.EntityParticipant, Op: store.OpCreate, UserID: "alice"}

	second := <-adapter.Snapshots()
	require.Len(t, second, 2)
	assert.Equal(t, "c2", second[0].ID)

	cancel()
	for range adapter.Snapshots() {
		// drained; channel closes once Run returns
	}
}

func TestMessageThreadSelectSwitchesScope(t *testing.T) {
	feed := newFakeFeed()
	fetch := func(_ context.Context, convID string) ([]*models.Message, error) {
		return []*models.Message{{ID: convID + "-m1", ConversationID: convID}}, nil
	}

	thread := NewMessageThread(fetch, feed, logger.Nop())
	defer thread.Close()
	ctx := context.Background()

	thread.Select(ctx, "A")
	feed.waitSubscribed(t, "conv:A")
	snap := <-thread.Snapshots()
	assert.Equal(t, "A", snap.ConversationID)

	thread.Select(ctx, "B")
	feed.waitSubscribed(t, "conv:B")

	// the previous scope's subscription must be released
	select {
	case <-feed.sub("conv:A").closed:
	case <-time.After(time.Second):
		t.Fatal("subscription for conversation A was not closed on scope switch")
	}

	snap = <-thread.Snapshots()
	assert.Equal(t, "B", snap.ConversationID)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "B-m1", snap.Messages[0].ID)
}

func TestMessageThreadDiscardsStaleFetch(t *testing.T) {
	feed := newFakeFeed()
	release := make(chan struct{})
	fetch := func(_ context.Context, convID string) ([]*models.Message, error) {
		if convID == "A" {
			<-release // a slow fetch that completes after the scope switched
		}
		return []*models.Message{{ID: convID + "-m1", ConversationID: convID}}, nil
	}

	thread := NewMessageThread(fetch, feed, logger.Nop())
	defer thread.Close()
	ctx := context.Background()

	thread.Select(ctx, "A")
	feed.waitSubscribed(t, "conv:A")

	thread.Select(ctx, "B")
	feed.waitSubscribed(t, "conv:B")

	snap := <-thread.Snapshots()
	assert.Equal(t, "B", snap.ConversationID)

	close(release)

	// the superseded generation's snapshot must never surface
	select {
	case stale := <-thread.Snapshots():
		t.Fatalf("stale snapshot for %s delivered after scope switch", stale.ConversationID)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMessageThreadClearScope(t *testing.T) {
	feed := newFakeFeed()
	fetch := func(_ context.Context, convID string) ([]*models.Message, error) {
		return []*models.Message{{ID: convID + "-m1"}}, nil
	}

	thread := NewMessageThread(fetch, feed, logger.Nop())
	defer thread.Close()
	ctx := context.Background()

	thread.Select(ctx, "A")
	feed.waitSubscribed(t, "conv:A")
	<-thread.Snapshots()

	thread.Select(ctx, "")
	snap := <-thread.Snapshots()
	assert.Empty(t, snap.ConversationID)
	assert.Empty(t, snap.Messages)

	select {
	case <-feed.sub("conv:A").closed:
	case <-time.After(time.Second):
		t.Fatal("subscription for conversation A was not closed on clear")
	}
}
