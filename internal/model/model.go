// Package model defines domain entities used by services and repositories.
package model

import "time"

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// User represents an account. The password is stored as an Argon2id hash with a per-user salt.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"` // stored lowercased, unique
	FullName  string    `json:"full_name"`
	PwdHash   []byte    `json:"-"`
	SaltAuth  []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Task is a single todo item. Tasks may reference another task of the same
// owner via ParentID to form subtask trees; the parent chain is acyclic.
type Task struct {
	ID          int64      `json:"id"`
	OwnerID     int64      `json:"owner_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	Priority    Priority   `json:"priority"`
	Category    string     `json:"category,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ParentID    *int64     `json:"parent_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTask carries the fields of a create request.
type NewTask struct {
	Title       string
	Description string
	Priority    Priority
	Category    string
	DueDate     *time.Time
	ParentID    *int64
}

// TaskPatch is a partial update: nil fields are left untouched.
// There is deliberately no way to reset a set field back to NULL.
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *Priority
	Category    *string
	DueDate     *time.Time
	ParentID    *int64
}

// TaskFilter narrows List results.
type TaskFilter struct {
	Completed    *bool
	TopLevelOnly bool
}

// Tokens collects an issued access token and its expiry.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Suggestion is a category/priority guess for a task title.
type Suggestion struct {
	Category string   `json:"category"`
	Priority Priority `json:"priority"`
}
