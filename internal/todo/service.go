package todo

import (
	"context"
	"strings"

	"github.com/convohq/messaging-service/internal/models"
	"github.com/convohq/messaging-service/pkg/apperr"
)

// Store is the slice of the record backend the todo feature needs. Every
// call is owner-scoped: the implementation must never return or touch a
// record belonging to another owner.
type Store interface {
	CreateTodo(ctx context.Context, t *models.Todo) (*models.Todo, error)
	ListTodosByOwner(ctx context.Context, ownerID string) ([]*models.Todo, error)
	UpdateTodo(ctx context.Context, id, ownerID string, content *string, isDone *bool) (*models.Todo, error)
	DeleteTodo(ctx context.Context, id, ownerID string) (bool, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, ownerID, content string) (*models.Todo, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.InvalidArg("todo content must not be blank")
	}
	t, err := s.store.CreateTodo(ctx, &models.Todo{OwnerID: ownerID, Content: content})
	if err != nil {
		return nil, apperr.CreateFailed("failed to create todo", err)
	}
	if t == nil {
		return nil, apperr.CreateFailed("backend returned no todo record", nil)
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, ownerID string) ([]*models.Todo, error) {
	todos, err := s.store.ListTodosByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal("failed to list todos", err)
	}
	if todos == nil {
		todos = []*models.Todo{}
	}
	return todos, nil
}

func (s *Service) Update(ctx context.Context, id, ownerID string, content *string, isDone *bool) (*models.Todo, error) {
	if content != nil {
		trimmed := strings.TrimSpace(*content)
		if trimmed == "" {
			return nil, apperr.InvalidArg("todo content must not be blank")
		}
		content = &trimmed
	}
	t, err := s.store.UpdateTodo(ctx, id, ownerID, content, isDone)
	if err != nil {
		return nil, apperr.Internal("failed to update todo", err)
	}
	if t == nil {
		return nil, apperr.NotFound("todo not found")
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id, ownerID string) error {
	ok, err := s.store.DeleteTodo(ctx, id, ownerID)
	if err != nil {
		return apperr.Internal("failed to delete todo", err)
	}
	if !ok {
		return apperr.NotFound("todo not found")
	}
	return nil
}
