package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kuldipraj/taskboard/internal/model"
)

// TaskCache holds an owner's full collection in Redis so that repeated
// list requests skip the store scan. Mutations invalidate the entry.
type TaskCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(addr, password string, db int, ttl time.Duration) *TaskCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &TaskCache{client: client, ttl: ttl}
}

func cacheKey(owner string) string {
	return "tasks:" + owner
}

// GetTasks returns the cached collection, or (nil, nil) on a miss.
func (c *TaskCache) GetTasks(ctx context.Context, owner string) ([]model.Task, error) {
	data, err := c.client.Get(ctx, cacheKey(owner)).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var tasks []model.Task
	if err := json.Unmarshal([]byte(data), &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *TaskCache) SetTasks(ctx context.Context, owner string, tasks []model.Task) error {
	data, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(owner), data, c.ttl).Err()
}

func (c *TaskCache) Invalidate(ctx context.Context, owner string) error {
	return c.client.Del(ctx, cacheKey(owner)).Err()
}

// Ping checks the Redis connection.
func (c *TaskCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
