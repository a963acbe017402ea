package store

import (
	"context"
	"time"

	"github.com/convohq/messaging-service/internal/models"
)

// Store is the record backend consumed by the service layer. Get-style
// calls return (nil, nil) when the record does not exist; callers decide
// whether a miss is an error. Implementations are injected, never global,
// so tests can substitute doubles.
type Store interface {
	CreateConversation(ctx context.Context, c *models.Conversation) (*models.Conversation, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	// GetConversationGraph fetches the conversation together with every
	// message and participant referencing it in one retrieval.
	GetConversationGraph(ctx context.Context, id string) (*ConversationGraph, error)
	DeleteConversation(ctx context.Context, id string) error

	CreateParticipant(ctx context.Context, p *models.Participant) (*models.Participant, error)
	ListParticipantsByUser(ctx context.Context, userID string) ([]*models.Participant, error)
	ListParticipantsByConversation(ctx context.Context, conversationID string) ([]*models.Participant, error)
	DeleteParticipant(ctx context.Context, id string) error

	CreateMessage(ctx context.Context, m *models.Message) (*models.Message, error)
	ListMessagesByConversation(ctx context.Context, conversationID string) ([]*models.Message, error)
	DeleteMessage(ctx context.Context, id string) error
}

// ConversationGraph is a conversation with its full child set.
type ConversationGraph struct {
	Conversation *models.Conversation
	Messages     []*models.Message
	Participants []*models.Participant
}

// Change describes one committed mutation. The store emits a Change after
// every successful write so that live queries can re-derive their state.
type Change struct {
	Entity         string    `json:"entity"` // conversation | participant | message
	Op             string    `json:"op"`     // create | update | delete
	ConversationID string    `json:"conversation_id,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	At             time.Time `json:"at"`
}

// Notifier receives change notifications. Delivery is best-effort: a
// failed notification never fails the mutation that produced it.
type Notifier interface {
	Notify(ctx context.Context, ch Change)
}

const (
	EntityConversation = "conversation"
	EntityParticipant  = "participant"
	EntityMessage      = "message"

	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)
