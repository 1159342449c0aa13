package taskstate

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kuldipraj/taskboard/internal/handler"
	"github.com/kuldipraj/taskboard/internal/model"
	"github.com/kuldipraj/taskboard/internal/service"
	"github.com/kuldipraj/taskboard/internal/store/inmemory"
	"github.com/kuldipraj/taskboard/pkg/client"
)

func strptr(s string) *string { return &s }

func setupStore(t *testing.T) *Store {
	t.Helper()

	taskStore := inmemory.NewTaskStore()
	taskService := service.NewTaskService(taskStore, nil, "demo", zap.NewNop())
	taskHandler := handler.NewTaskHandler(taskService, zap.NewNop())

	r := chi.NewRouter()
	taskHandler.Register(r)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return New(client.New(server.URL))
}

func TestStore_InitialState(t *testing.T) {
	s := setupStore(t)

	snap := s.Snapshot()
	assert.Empty(t, snap.Tasks)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Err)
	assert.Equal(t, model.TaskFilter{}, snap.Filters)
}

func TestStore_FetchTasks(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.CreateTask(ctx, model.TaskInput{Title: "One", Status: model.StatusPending})
	require.NoError(t, err)
	_, err = s.CreateTask(ctx, model.TaskInput{Title: "Two", Status: model.StatusCompleted})
	require.NoError(t, err)

	require.NoError(t, s.FetchTasks(ctx, nil))

	snap := s.Snapshot()
	assert.Len(t, snap.Tasks, 2)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Err)

	// Explicit filters are used for the call but never stored.
	require.NoError(t, s.FetchTasks(ctx, &model.TaskFilter{Status: model.StatusCompleted}))
	snap = s.Snapshot()
	assert.Len(t, snap.Tasks, 1)
	assert.Equal(t, model.TaskFilter{}, snap.Filters)
}

func TestStore_SetFilter(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.CreateTask(ctx, model.TaskInput{Title: "One", Status: model.StatusPending, Priority: model.PriorityHigh})
	require.NoError(t, err)
	_, err = s.CreateTask(ctx, model.TaskInput{Title: "Two", Status: model.StatusCompleted, Priority: model.PriorityHigh})
	require.NoError(t, err)

	require.NoError(t, s.SetFilter(ctx, model.FilterPatch{Status: strptr(model.StatusCompleted)}))
	snap := s.Snapshot()
	assert.Equal(t, model.StatusCompleted, snap.Filters.Status)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "Two", snap.Tasks[0].Title)

	// Merging keeps predicates not mentioned by the patch.
	require.NoError(t, s.SetFilter(ctx, model.FilterPatch{Priority: strptr(model.PriorityHigh)}))
	snap = s.Snapshot()
	assert.Equal(t, model.StatusCompleted, snap.Filters.Status)
	assert.Equal(t, model.PriorityHigh, snap.Filters.Priority)

	// A pointer to "" clears just that predicate.
	require.NoError(t, s.SetFilter(ctx, model.FilterPatch{Status: strptr("")}))
	snap = s.Snapshot()
	assert.Equal(t, "", snap.Filters.Status)
	assert.Equal(t, model.PriorityHigh, snap.Filters.Priority)
	assert.Len(t, snap.Tasks, 2)
}

func TestStore_Mutations(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	created, err := s.CreateTask(ctx, model.TaskInput{Title: "One", Status: model.StatusPending})
	require.NoError(t, err)

	// Create appends locally without a re-fetch.
	snap := s.Snapshot()
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, created.ID, snap.Tasks[0].ID)

	// Update replaces in place by id.
	updated, err := s.UpdateTask(ctx, created.ID, model.TaskPatch{Status: strptr(model.StatusCompleted)})
	require.NoError(t, err)
	snap = s.Snapshot()
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, updated, snap.Tasks[0])

	// Delete removes by id.
	require.NoError(t, s.DeleteTask(ctx, created.ID))
	snap = s.Snapshot()
	assert.Empty(t, snap.Tasks)
	assert.False(t, snap.Loading)
}

func TestStore_MutationFailures(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	created, err := s.CreateTask(ctx, model.TaskInput{Title: "Keep me", Status: model.StatusPending})
	require.NoError(t, err)

	t.Run("create failure sets error and leaves tasks alone", func(t *testing.T) {
		_, err := s.CreateTask(ctx, model.TaskInput{Status: model.StatusPending})
		require.Error(t, err)

		snap := s.Snapshot()
		assert.NotEmpty(t, snap.Err)
		assert.Len(t, snap.Tasks, 1)
	})

	t.Run("update failure re-throws for the caller", func(t *testing.T) {
		_, err := s.UpdateTask(ctx, "ghost", model.TaskPatch{Title: strptr("New")})
		require.Error(t, err)
		assert.True(t, client.IsNotFound(err))

		snap := s.Snapshot()
		assert.NotEmpty(t, snap.Err)
		assert.Equal(t, created.ID, snap.Tasks[0].ID)
	})

	t.Run("delete failure leaves tasks alone", func(t *testing.T) {
		err := s.DeleteTask(ctx, "ghost")
		require.Error(t, err)
		assert.Len(t, s.Snapshot().Tasks, 1)
	})

	t.Run("next successful call clears the error", func(t *testing.T) {
		require.NoError(t, s.FetchTasks(ctx, nil))
		assert.Empty(t, s.Snapshot().Err)
	})
}

func TestStore_FetchFailureKeepsTasks(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.CreateTask(ctx, model.TaskInput{Title: "Cached", Status: model.StatusPending})
	require.NoError(t, err)

	// Swap in an API that always fails.
	s.api = &scriptedAPI{listErr: errors.New("backend down")}

	require.Error(t, s.FetchTasks(ctx, nil))
	snap := s.Snapshot()
	assert.Len(t, snap.Tasks, 1, "failed fetch must not clear the list")
	assert.Equal(t, "backend down", snap.Err)
}

// scriptedAPI lets tests control call timing and outcomes.
type scriptedAPI struct {
	mu      sync.Mutex
	listErr error
	queue   []listCall
}

type listCall struct {
	release chan struct{}
	tasks   []model.Task
}

func (a *scriptedAPI) ListTasks(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	if a.listErr != nil {
		return nil, a.listErr
	}
	a.mu.Lock()
	call := a.queue[0]
	a.queue = a.queue[1:]
	a.mu.Unlock()

	<-call.release
	return call.tasks, nil
}

func (a *scriptedAPI) CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error) {
	return model.Task{}, errors.New("not scripted")
}

func (a *scriptedAPI) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	return model.Task{}, errors.New("not scripted")
}

func (a *scriptedAPI) DeleteTask(ctx context.Context, id string) error {
	return errors.New("not scripted")
}

func waitForQueueLen(api *scriptedAPI, n int) {
	for {
		api.mu.Lock()
		done := len(api.queue) == n
		api.mu.Unlock()
		if done {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStore_StaleFetchDiscarded(t *testing.T) {
	stale := listCall{release: make(chan struct{}), tasks: []model.Task{{ID: "old"}}}
	fresh := listCall{release: make(chan struct{}), tasks: []model.Task{{ID: "new"}}}
	api := &scriptedAPI{queue: []listCall{stale, fresh}}

	s := New(api)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.FetchTasks(ctx, nil) // first issued, answered last
	}()

	// Make sure the first fetch is in flight before issuing the second.
	waitForQueueLen(api, 1)

	go func() {
		defer wg.Done()
		s.FetchTasks(ctx, nil)
	}()
	waitForQueueLen(api, 0)

	// Answer the newer fetch first, then let the stale one land.
	close(fresh.release)
	close(stale.release)
	wg.Wait()

	snap := s.Snapshot()
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "new", snap.Tasks[0].ID, "late stale response must be discarded")
}
