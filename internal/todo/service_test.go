package todo

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convohq/messaging-service/internal/models"
	"github.com/convohq/messaging-service/pkg/apperr"
)

type fakeTodoStore struct {
	mu    sync.Mutex
	seq   int
	todos map[string]*models.Todo
}

func newFakeTodoStore() *fakeTodoStore {
	return &fakeTodoStore{todos: make(map[string]*models.Todo)}
}

func (f *fakeTodoStore) CreateTodo(_ context.Context, t *models.Todo) (*models.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t.ID = fmt.Sprintf("t%d", f.seq)
	t.CreatedAt = time.Now().UTC()
	f.todos[t.ID] = t
	return t, nil
}

func (f *fakeTodoStore) ListTodosByOwner(_ context.Context, ownerID string) ([]*models.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Todo
	for _, t := range f.todos {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTodoStore) UpdateTodo(_ context.Context, id, ownerID string, content *string, isDone *bool) (*models.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.todos[id]
	if !ok || t.OwnerID != ownerID {
		return nil, nil
	}
	if content != nil {
		t.Content = *content
	}
	if isDone != nil {
		t.IsDone = *isDone
	}
	return t, nil
}

func (f *fakeTodoStore) DeleteTodo(_ context.Context, id, ownerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.todos[id]
	if !ok || t.OwnerID != ownerID {
		return false, nil
	}
	delete(f.todos, id)
	return true, nil
}

func TestTodoOwnerScoping(t *testing.T) {
	f := newFakeTodoStore()
	svc := NewService(f)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", "  buy milk  ")
	require.NoError(t, err)
	assert.Equal(t, "buy milk", created.Content)
	assert.Equal(t, "alice", created.OwnerID)

	// another identity can neither see nor touch alice's record
	list, err := svc.List(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Update(ctx, created.ID, "bob", nil, boolPtr(true))
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))

	err = svc.Delete(ctx, created.ID, "bob")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))

	// the owner can
	updated, err := svc.Update(ctx, created.ID, "alice", nil, boolPtr(true))
	require.NoError(t, err)
	assert.True(t, updated.IsDone)
	require.NoError(t, svc.Delete(ctx, created.ID, "alice"))
}

func TestTodoValidation(t *testing.T) {
	svc := NewService(newFakeTodoStore())
	_, err := svc.Create(context.Background(), "alice", "   ")
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument))

	blank := "  "
	_, err = svc.Update(context.Background(), "t1", "alice", &blank, nil)
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument))
}

func boolPtr(b bool) *bool { return &b }
