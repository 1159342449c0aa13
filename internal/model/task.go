package model

import "time"

const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task is the single persisted entity. ID, Owner and CreatedAt are set once
// at creation and never change afterwards.
type Task struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     string    `json:"dueDate"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TaskInput carries the client-supplied fields of a create request.
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
}

// TaskPatch is a partial update. Nil fields are left untouched; id, owner
// and timestamps are not patchable at all.
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// IsEmpty reports whether the patch carries no fields.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil &&
		p.Priority == nil && p.Status == nil
}

// TaskFilter narrows a list query. Zero values mean the predicate is not
// applied; provided predicates combine with logical AND.
type TaskFilter struct {
	Status   string
	Priority string
	DueDate  string
}

// Matches reports whether t satisfies every provided predicate.
func (f TaskFilter) Matches(t Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.DueDate != "" && t.DueDate != f.DueDate {
		return false
	}
	return true
}

// FilterPatch merges into a TaskFilter. A nil field keeps the current
// predicate, a pointer to "" clears it.
type FilterPatch struct {
	Status   *string
	Priority *string
	DueDate  *string
}

// Apply returns f with the patch merged in.
func (p FilterPatch) Apply(f TaskFilter) TaskFilter {
	if p.Status != nil {
		f.Status = *p.Status
	}
	if p.Priority != nil {
		f.Priority = *p.Priority
	}
	if p.DueDate != nil {
		f.DueDate = *p.DueDate
	}
	return f
}

// ValidStatus reports whether s is one of the known status values.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ValidPriority reports whether p is one of the known priority values.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
