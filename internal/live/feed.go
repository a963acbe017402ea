package live

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/convohq/messaging-service/internal/metrics"
	"github.com/convohq/messaging-service/internal/store"
)

// ChangeFeed hands out standing subscriptions to change notifications,
// filtered by user (membership changes) or by conversation (message
// changes).
type ChangeFeed interface {
	SubscribeUser(ctx context.Context, userID string) (Subscription, error)
	SubscribeConversation(ctx context.Context, conversationID string) (Subscription, error)
}

type Subscription interface {
	Changes() <-chan store.Change
	Close() error
}

// RedisFeed carries change notifications over Redis pub/sub. It is both
// the store's Notifier (publish side) and the adapters' ChangeFeed
// (subscribe side), which keeps writers and watchers decoupled across
// instances.
type RedisFeed struct {
	rdb    *redis.Client
	prefix string
	log    *zap.SugaredLogger
}

func NewRedisFeed(rdb *redis.Client, prefix string, log *zap.SugaredLogger) *RedisFeed {
	return &RedisFeed{rdb: rdb, prefix: prefix, log: log}
}

func (f *RedisFeed) userChannel(userID string) string {
	return fmt.Sprintf("%s:user:%s", f.prefix, userID)
}

func (f *RedisFeed) convChannel(conversationID string) string {
	return fmt.Sprintf("%s:conv:%s", f.prefix, conversationID)
}

// Notify implements store.Notifier. Participant changes go to the bound
// user's channel, message and conversation changes to the conversation's
// channel.
func (f *RedisFeed) Notify(ctx context.Context, ch store.Change) {
	payload, err := json.Marshal(ch)
	if err != nil {
		f.log.Errorw("change marshal", "err", err)
		return
	}
	var channel string
	switch ch.Entity {
	case store.EntityParticipant:
		channel = f.userChannel(ch.UserID)
	default:
		channel = f.convChannel(ch.ConversationID)
	}
	if err := f.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		f.log.Errorw("change publish", "channel", channel, "err", err)
	}
}

func (f *RedisFeed) SubscribeUser(ctx context.Context, userID string) (Subscription, error) {
	return f.subscribe(ctx, f.userChannel(userID))
}

func (f *RedisFeed) SubscribeConversation(ctx context.Context, conversationID string) (Subscription, error) {
	return f.subscribe(ctx, f.convChannel(conversationID))
}

func (f *RedisFeed) subscribe(ctx context.Context, channel string) (Subscription, error) {
	ps := f.rdb.Subscribe(ctx, channel)
	// confirm the subscription before handing it out, so no change that
	// follows the call can be missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	out := make(chan store.Change, 16)
	metrics.ActiveSubscriptions.Inc()
	go func() {
		defer metrics.ActiveSubscriptions.Dec()
		defer close(out)
		for msg := range ps.Channel() {
			var ch store.Change
			if err := json.Unmarshal([]byte(msg.Payload), &ch); err != nil {
				f.log.Warnw("change decode", "channel", channel, "err", err)
				continue
			}
			select {
			case out <- ch:
			default:
				// consumer is behind; dropping is safe since every
				// notification triggers a full re-fetch
			}
		}
	}()
	return &redisSub{ps: ps, out: out}, nil
}

type redisSub struct {
	ps  *redis.PubSub
	out chan store.Change
}

func (s *redisSub) Changes() <-chan store.Change { return s.out }

func (s *redisSub) Close() error { return s.ps.Close() }
