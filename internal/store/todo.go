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

// TodoStore keeps the owner-scoped todo records. Owner scoping is applied
// in every filter, so a caller can never touch another identity's rows.
type TodoStore struct {
	todos *mongo.Collection
}

func NewTodoStore(db *mongo.Database) *TodoStore {
	return &TodoStore{todos: db.Collection("todos")}
}

func (s *TodoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.todos.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}},
	})
	return err
}

func (s *TodoStore) CreateTodo(ctx context.Context, t *models.Todo) (*models.Todo, error) {
	now := time.Now().UTC()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.todos.InsertOne(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TodoStore) ListTodosByOwner(ctx context.Context, ownerID string) ([]*models.Todo, error) {
	cur, err := s.todos.Find(ctx, bson.M{"owner_id": ownerID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*models.Todo
	for cur.Next(ctx) {
		var t models.Todo
		if err := cur.Decode(&t); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, cur.Err()
}

func (s *TodoStore) UpdateTodo(ctx context.Context, id, ownerID string, content *string, isDone *bool) (*models.Todo, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if content != nil {
		set["content"] = *content
	}
	if isDone != nil {
		set["is_done"] = *isDone
	}
	var t models.Todo
	err := s.todos.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "owner_id": ownerID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TodoStore) DeleteTodo(ctx context.Context, id, ownerID string) (bool, error) {
	res, err := s.todos.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
