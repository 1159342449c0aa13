// Package taskstate holds the client-side view of the task collection:
// the fetched tasks, the active filters, and the loading/error status a
// UI renders from. Every mutation goes through the API client and is
// reconciled back into local state without a full re-fetch.
package taskstate

import (
	"context"
	"sync"

	"github.com/kuldipraj/taskboard/internal/model"
)

// API is the subset of the task API client the store drives.
type API interface {
	ListTasks(ctx context.Context, filter model.TaskFilter) ([]model.Task, error)
	CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error)
	UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Snapshot is a copy of the store's state at one point in time.
type Snapshot struct {
	Tasks   []model.Task
	Loading bool
	Err     string
	Filters model.TaskFilter
}

// Store is an injectable state container. It starts empty with no
// filters and lives for the session; there is no persistence.
//
// Each fetch carries a sequence number and a response that is no longer
// the latest issued fetch is discarded, so an out-of-order late response
// can never overwrite a newer collection.
type Store struct {
	api API

	mu       sync.Mutex
	tasks    []model.Task
	loading  bool
	err      string
	filters  model.TaskFilter
	fetchSeq uint64
}

func New(api API) *Store {
	return &Store{api: api}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]model.Task, len(s.tasks))
	copy(tasks, s.tasks)
	return Snapshot{
		Tasks:   tasks,
		Loading: s.loading,
		Err:     s.err,
		Filters: s.filters,
	}
}

// FetchTasks replaces the task collection wholesale with the server's
// answer. A nil filters argument uses the currently stored filters;
// passing filters explicitly does not change the stored ones. On failure
// the collection is left untouched and the error message is recorded.
func (s *Store) FetchTasks(ctx context.Context, filters *model.TaskFilter) error {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	f := s.filters
	if filters != nil {
		f = *filters
	}
	s.fetchSeq++
	seq := s.fetchSeq
	s.mu.Unlock()

	tasks, err := s.api.ListTasks(ctx, f)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.fetchSeq {
		// A newer fetch was issued while this one was in flight.
		return nil
	}
	s.loading = false
	if err != nil {
		s.err = err.Error()
		return err
	}
	s.tasks = tasks
	return nil
}

// SetFilter merges the patch into the stored filters and triggers a
// fresh authoritative fetch. This is the only way filters change; there
// is no client-side re-filtering of already-fetched data.
func (s *Store) SetFilter(ctx context.Context, patch model.FilterPatch) error {
	s.mu.Lock()
	s.filters = patch.Apply(s.filters)
	s.mu.Unlock()

	return s.FetchTasks(ctx, nil)
}

// CreateTask creates the task and appends the server's record locally.
func (s *Store) CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error) {
	s.beginMutation()

	task, err := s.api.CreateTask(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err.Error()
		return model.Task{}, err
	}
	s.tasks = append(s.tasks, task)
	return task, nil
}

// UpdateTask updates the task and replaces it in place by id.
func (s *Store) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	s.beginMutation()

	task, err := s.api.UpdateTask(ctx, id, patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err.Error()
		return model.Task{}, err
	}
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i] = task
			break
		}
	}
	return task, nil
}

// DeleteTask deletes the task and removes it locally by id.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.beginMutation()

	err := s.api.DeleteTask(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err.Error()
		return err
	}
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) beginMutation() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
}
