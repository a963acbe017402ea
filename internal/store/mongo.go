package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/convohq/messaging-service/internal/models"
)

type MongoStore struct {
	convs    *mongo.Collection
	parts    *mongo.Collection
	msgs     *mongo.Collection
	notifier Notifier
}

// NewMongo wires the store over the given database. notifier may be nil,
// in which case change notifications are dropped.
func NewMongo(db *mongo.Database, notifier Notifier) *MongoStore {
	return &MongoStore{
		convs:    db.Collection("conversations"),
		parts:    db.Collection("participants"),
		msgs:     db.Collection("messages"),
		notifier: notifier,
	}
}

// EnsureIndexes creates the secondary indexes the query paths rely on:
// participants by user, participants by conversation, and messages by
// conversation sorted by creation time.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.parts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "conversation_id", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = s.msgs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return err
}

func (s *MongoStore) notify(ctx context.Context, ch Change) {
	if s.notifier == nil {
		return
	}
	ch.At = time.Now().UTC()
	s.notifier.Notify(ctx, ch)
}

func (s *MongoStore) CreateConversation(ctx context.Context, c *models.Conversation) (*models.Conversation, error) {
	now := time.Now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.convs.InsertOne(ctx, c); err != nil {
		return nil, err
	}
	s.notify(ctx, Change{Entity: EntityConversation, Op: OpCreate, ConversationID: c.ID})
	return c, nil
}

func (s *MongoStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var c models.Conversation
	err := s.convs.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoStore) GetConversationGraph(ctx context.Context, id string) (*ConversationGraph, error) {
	conv, err := s.GetConversation(ctx, id)
	if err != nil || conv == nil {
		return nil, err
	}
	msgs, err := s.ListMessagesByConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	parts, err := s.ListParticipantsByConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ConversationGraph{Conversation: conv, Messages: msgs, Participants: parts}, nil
}

func (s *MongoStore) DeleteConversation(ctx context.Context, id string) error {
	if _, err := s.convs.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return err
	}
	s.notify(ctx, Change{Entity: EntityConversation, Op: OpDelete, ConversationID: id})
	return nil
}

func (s *MongoStore) CreateParticipant(ctx context.Context, p *models.Participant) (*models.Participant, error) {
	p.ID = uuid.NewString()
	if _, err := s.parts.InsertOne(ctx, p); err != nil {
		return nil, err
	}
	s.notify(ctx, Change{Entity: EntityParticipant, Op: OpCreate, ConversationID: p.ConversationID, UserID: p.UserID})
	return p, nil
}

func (s *MongoStore) ListParticipantsByUser(ctx context.Context, userID string) ([]*models.Participant, error) {
	return s.listParticipants(ctx, bson.M{"user_id": userID})
}

func (s *MongoStore) ListParticipantsByConversation(ctx context.Context, conversationID string) ([]*models.Participant, error) {
	return s.listParticipants(ctx, bson.M{"conversation_id": conversationID})
}

func (s *MongoStore) listParticipants(ctx context.Context, filter bson.M) ([]*models.Participant, error) {
	cur, err := s.parts.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Participant
	for cur.Next(ctx) {
		var p models.Participant
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, cur.Err()
}

func (s *MongoStore) DeleteParticipant(ctx context.Context, id string) error {
	var p models.Participant
	err := s.parts.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return err
	}
	s.notify(ctx, Change{Entity: EntityParticipant, Op: OpDelete, ConversationID: p.ConversationID, UserID: p.UserID})
	return nil
}

func (s *MongoStore) CreateMessage(ctx context.Context, m *models.Message) (*models.Message, error) {
	m.ID = uuid.NewString()
	m.CreatedAt = time.Now().UTC()
	if _, err := s.msgs.InsertOne(ctx, m); err != nil {
		return nil, err
	}
	// bump conversation updated_at - best effort, like the read path it
	// feeds, which re-sorts defensively anyway
	_, _ = s.convs.UpdateOne(ctx, bson.M{"_id": m.ConversationID},
		bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}})
	s.notify(ctx, Change{Entity: EntityMessage, Op: OpCreate, ConversationID: m.ConversationID, UserID: m.SenderID})
	return m, nil
}

func (s *MongoStore) ListMessagesByConversation(ctx context.Context, conversationID string) ([]*models.Message, error) {
	cur, err := s.msgs.Find(ctx, bson.M{"conversation_id": conversationID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Message
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, cur.Err()
}

func (s *MongoStore) DeleteMessage(ctx context.Context, id string) error {
	var m models.Message
	err := s.msgs.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	if err != nil {
		return err
	}
	s.notify(ctx, Change{Entity: EntityMessage, Op: OpDelete, ConversationID: m.ConversationID, UserID: m.SenderID})
	return nil
}
