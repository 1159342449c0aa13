package inmemory

import (
	"context"
	"sync"

	"github.com/kuldipraj/taskboard/internal/model"
	"github.com/kuldipraj/taskboard/internal/store"
)

type key struct {
	owner string
	id    string
}

// TaskStore keeps tasks in a map guarded by a RWMutex. List returns tasks
// in insertion order, which mirrors the scan order of the real table
// closely enough for tests and local runs.
type TaskStore struct {
	mtx     sync.RWMutex
	storage map[key]model.Task
	keys    []key
}

func NewTaskStore() *TaskStore {
	return &TaskStore{
		storage: make(map[key]model.Task),
	}
}

func (s *TaskStore) List(ctx context.Context, owner string) ([]model.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	tasks := make([]model.Task, 0)
	for _, k := range s.keys {
		if k.owner != owner {
			continue
		}
		tasks = append(tasks, s.storage[k])
	}
	return tasks, nil
}

func (s *TaskStore) Get(ctx context.Context, owner, id string) (model.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	t, ok := s.storage[key{owner, id}]
	if !ok {
		return model.Task{}, store.ErrNotFound
	}
	return t, nil
}

func (s *TaskStore) Put(ctx context.Context, t model.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	k := key{t.Owner, t.ID}
	if _, ok := s.storage[k]; !ok {
		s.keys = append(s.keys, k)
	}
	s.storage[k] = t
	return nil
}

func (s *TaskStore) Update(ctx context.Context, t model.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	k := key{t.Owner, t.ID}
	if _, ok := s.storage[k]; !ok {
		return store.ErrNotFound
	}
	s.storage[k] = t
	return nil
}

func (s *TaskStore) Delete(ctx context.Context, owner, id string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	k := key{owner, id}
	if _, ok := s.storage[k]; !ok {
		return store.ErrNotFound
	}
	delete(s.storage, k)
	for i, existing := range s.keys {
		if existing == k {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
	return nil
}

func (s *TaskStore) Stats(ctx context.Context, owner string) (store.Stats, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	stats := store.Stats{
		ByStatus:   make(map[string]int),
		ByPriority: make(map[string]int),
	}
	for _, k := range s.keys {
		if k.owner != owner {
			continue
		}
		t := s.storage[k]
		stats.ByStatus[t.Status]++
		stats.ByPriority[t.Priority]++
		stats.Total++
	}
	return stats, nil
}
