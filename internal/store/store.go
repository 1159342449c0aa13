package store

import (
	"context"
	"errors"

	"github.com/kuldipraj/taskboard/internal/model"
)

var ErrNotFound = errors.New("not found")

// Stats summarizes an owner's collection.
type Stats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
}

// TaskStore is the record store keyed by (owner, id).
type TaskStore interface {
	// List scans the owner's full collection. Result order is whatever the
	// underlying scan yields; callers must not depend on it.
	List(ctx context.Context, owner string) ([]model.Task, error)
	Get(ctx context.Context, owner, id string) (model.Task, error)
	// Put inserts a new record.
	Put(ctx context.Context, t model.Task) error
	// Update overwrites an existing record, ErrNotFound if it is absent.
	Update(ctx context.Context, t model.Task) error
	Delete(ctx context.Context, owner, id string) error
	Stats(ctx context.Context, owner string) (Stats, error)
}
