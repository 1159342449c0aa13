package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kuldipraj/taskboard/internal/model"
	"github.com/kuldipraj/taskboard/internal/store"
)

// TaskStore persists tasks in a table with PRIMARY KEY (owner, id).
type TaskStore struct {
	pool *pgxpool.Pool
}

func NewTaskStore(pool *pgxpool.Pool) *TaskStore {
	return &TaskStore{pool: pool}
}

const taskColumns = "owner, id, title, description, due_date, priority, status, created_at, updated_at"

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(&t.Owner, &t.ID, &t.Title, &t.Description, &t.DueDate,
		&t.Priority, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (s *TaskStore) List(ctx context.Context, owner string) ([]model.Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE owner = $1
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) Get(ctx context.Context, owner, id string) (model.Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE owner = $1 AND id = $2
	`, owner, id))

	if err == pgx.ErrNoRows {
		return t, store.ErrNotFound
	}
	return t, err
}

func (s *TaskStore) Put(ctx context.Context, t model.Task) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, t.Owner, t.ID, t.Title, t.Description, t.DueDate, t.Priority, t.Status,
		t.CreatedAt, t.UpdatedAt)
	return err
}

func (s *TaskStore) Update(ctx context.Context, t model.Task) error {
	cmd, err := s.pool.Exec(ctx, `
		UPDATE tasks
		SET title = $3, description = $4, due_date = $5, priority = $6,
		    status = $7, updated_at = $8
		WHERE owner = $1 AND id = $2
	`, t.Owner, t.ID, t.Title, t.Description, t.DueDate, t.Priority, t.Status,
		t.UpdatedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *TaskStore) Delete(ctx context.Context, owner, id string) error {
	cmd, err := s.pool.Exec(ctx, "DELETE FROM tasks WHERE owner = $1 AND id = $2", owner, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *TaskStore) Stats(ctx context.Context, owner string) (store.Stats, error) {
	stats := store.Stats{
		ByStatus:   make(map[string]int),
		ByPriority: make(map[string]int),
	}

	rows, err := s.pool.Query(ctx, `
		SELECT status, priority, COUNT(*)
		FROM tasks
		WHERE owner = $1
		GROUP BY status, priority
	`, owner)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var status, priority string
		var count int
		if err := rows.Scan(&status, &priority, &count); err != nil {
			return stats, err
		}
		stats.ByStatus[status] += count
		stats.ByPriority[priority] += count
		stats.Total += count
	}
	return stats, rows.Err()
}
