// Package client is the typed HTTP wrapper over the task API. Every
// non-success outcome, transport failures included, surfaces as an
// *APIError; callers never look at raw response codes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kuldipraj/taskboard/internal/model"
)

// APIError carries an HTTP-status-equivalent code and a human-readable
// message. Transport failures are reported as 500-equivalents.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404-equivalent APIError.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListTasks fetches tasks matching the filter. Absent predicates are
// omitted from the query string entirely.
func (c *Client) ListTasks(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.Priority != "" {
		q.Set("priority", filter.Priority)
	}
	if filter.DueDate != "" {
		q.Set("dueDate", filter.DueDate)
	}

	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", q, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (model.Task, error) {
	var task model.Task
	err := c.do(ctx, http.MethodGet, "/api/tasks/"+id, nil, nil, &task)
	return task, err
}

func (c *Client) CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error) {
	var task model.Task
	err := c.do(ctx, http.MethodPost, "/api/tasks", nil, in, &task)
	return task, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	var task model.Task
	err := c.do(ctx, http.MethodPut, "/api/tasks/"+id, nil, patch, &task)
	return task, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+id, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &APIError{StatusCode: http.StatusInternalServerError, Message: err.Error()}
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &APIError{StatusCode: http.StatusInternalServerError, Message: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{StatusCode: http.StatusInternalServerError, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &APIError{StatusCode: http.StatusInternalServerError, Message: "invalid response body: " + err.Error()}
		}
	}
	return nil
}

func decodeError(resp *http.Response) *APIError {
	var payload struct {
		Error string `json:"error"`
	}
	message := http.StatusText(resp.StatusCode)
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		message = payload.Error
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message}
}
