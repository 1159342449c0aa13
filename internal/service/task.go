package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kuldipraj/taskboard/internal/model"
	"github.com/kuldipraj/taskboard/internal/store"
)

var ErrValidation = errors.New("validation error")

// TaskCache is the optional list cache in front of the store.
type TaskCache interface {
	GetTasks(ctx context.Context, owner string) ([]model.Task, error)
	SetTasks(ctx context.Context, owner string, tasks []model.Task) error
	Invalidate(ctx context.Context, owner string) error
}

// TaskService implements the authoritative CRUD contract for the single
// configured owner. Validation runs before any store access; every
// mutation is one atomic write.
type TaskService struct {
	store  store.TaskStore
	cache  TaskCache // may be nil
	owner  string
	logger *zap.Logger
}

func NewTaskService(st store.TaskStore, cache TaskCache, owner string, logger *zap.Logger) *TaskService {
	return &TaskService{
		store:  st,
		cache:  cache,
		owner:  owner,
		logger: logger,
	}
}

// List scans the full collection, then applies each provided filter as an
// exact-match predicate. No matches yield an empty slice, not an error.
func (s *TaskService) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	tasks, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	if filter == (model.TaskFilter{}) {
		return tasks, nil
	}

	filtered := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if filter.Matches(t) {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

func (s *TaskService) Get(ctx context.Context, id string) (model.Task, error) {
	return s.store.Get(ctx, s.owner, id)
}

func (s *TaskService) Create(ctx context.Context, in model.TaskInput) (model.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return model.Task{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if in.Status == "" {
		return model.Task{}, fmt.Errorf("%w: status is required", ErrValidation)
	}
	if !model.ValidStatus(in.Status) {
		return model.Task{}, fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
	}
	if in.Priority != "" && !model.ValidPriority(in.Priority) {
		return model.Task{}, fmt.Errorf("%w: unknown priority %q", ErrValidation, in.Priority)
	}

	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	now := time.Now().UTC()
	t := model.Task{
		ID:          uuid.NewString(),
		Owner:       s.owner,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Priority:    priority,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Put(ctx, t); err != nil {
		return model.Task{}, err
	}
	s.invalidate(ctx)
	return t, nil
}

// Update merges the patch onto the existing record. Only the enumerated
// mutable fields can change; id, owner and createdAt never do.
func (s *TaskService) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	if patch.IsEmpty() {
		return model.Task{}, fmt.Errorf("%w: no fields provided for update", ErrValidation)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return model.Task{}, fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}
	if patch.Status != nil && !model.ValidStatus(*patch.Status) {
		return model.Task{}, fmt.Errorf("%w: unknown status %q", ErrValidation, *patch.Status)
	}
	if patch.Priority != nil && !model.ValidPriority(*patch.Priority) {
		return model.Task{}, fmt.Errorf("%w: unknown priority %q", ErrValidation, *patch.Priority)
	}

	t, err := s.store.Get(ctx, s.owner, id)
	if err != nil {
		return model.Task{}, err
	}

	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.DueDate != nil {
		t.DueDate = *patch.DueDate
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, t); err != nil {
		return model.Task{}, err
	}
	s.invalidate(ctx)
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, s.owner, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *TaskService) Stats(ctx context.Context) (store.Stats, error) {
	return s.store.Stats(ctx, s.owner)
}

// loadAll returns the owner's full collection, from cache when possible.
// Cache failures degrade to a store scan.
func (s *TaskService) loadAll(ctx context.Context) ([]model.Task, error) {
	if s.cache != nil {
		tasks, err := s.cache.GetTasks(ctx, s.owner)
		if err != nil {
			s.logger.Warn("task cache read failed", zap.Error(err))
		} else if tasks != nil {
			return tasks, nil
		}
	}

	tasks, err := s.store.List(ctx, s.owner)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetTasks(ctx, s.owner, tasks); err != nil {
			s.logger.Warn("task cache write failed", zap.Error(err))
		}
	}
	return tasks, nil
}

func (s *TaskService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, s.owner); err != nil {
		s.logger.Warn("task cache invalidation failed", zap.Error(err))
	}
}
