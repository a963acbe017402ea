package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/convohq/messaging-service/internal/models"
)

// Publisher emits domain events to Kafka. Publishing is best-effort:
// failures are logged, never propagated to the operation that produced
// the event.
type Publisher struct {
	writer *kafka.Writer
	log    *zap.SugaredLogger
}

func NewPublisher(brokers []string, topic string, log *zap.SugaredLogger) *Publisher {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &Publisher{writer: w, log: log}
}

func (p *Publisher) Close() error { return p.writer.Close() }

type envelope struct {
	Type string `json:"type"`
	At   int64  `json:"at"`
	Data any    `json:"data"`
}

func (p *Publisher) publish(ctx context.Context, key, typ string, data any) {
	b, err := json.Marshal(envelope{Type: typ, At: time.Now().Unix(), Data: data})
	if err != nil {
		p.log.Errorw("event marshal", "type", typ, "err", err)
		return
	}
	msg := kafka.Message{Key: []byte(key), Value: b, Time: time.Now()}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Errorw("event publish", "type", typ, "err", err)
	}
}

func (p *Publisher) ConversationCreated(ctx context.Context, c *models.Conversation) {
	p.publish(ctx, c.ID, "conversation.created", c)
}

func (p *Publisher) ConversationDeleted(ctx context.Context, conversationID string) {
	p.publish(ctx, conversationID, "conversation.deleted", map[string]string{"conversation_id": conversationID})
}

func (p *Publisher) MessageSent(ctx context.Context, m *models.Message) {
	p.publish(ctx, m.ConversationID, "message.sent", m)
}
