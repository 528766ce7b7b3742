package repository

import (
	"context"

	"github.com/dkorzhov/tasksync/internal/model"
)

// TaskRepository provides owner-scoped access to tasks. Every query filters
// by owner id inside the SQL itself, never after a broader fetch.
type TaskRepository interface {
	// Create inserts a task and fills in the generated id and timestamps.
	Create(ctx context.Context, t *model.Task) error
	// Get loads one task scoped to its owner; errs.ErrNotFound when absent
	// or owned by someone else.
	Get(ctx context.Context, ownerID, taskID int64) (*model.Task, error)
	// Update writes all mutable fields of t (scoped to t.OwnerID) and
	// refreshes t.UpdatedAt. Fails with errs.ErrNotFound when the row is gone.
	Update(ctx context.Context, t *model.Task) error
	// Delete removes the task and all its descendant subtasks in one
	// transaction. Fails with errs.ErrNotFound when absent/not owned.
	Delete(ctx context.Context, ownerID, taskID int64) error
	// List returns the owner's tasks matching f, ordered by created_at DESC.
	List(ctx context.Context, ownerID int64, f model.TaskFilter) ([]model.Task, error)
	// HasAncestor reports whether target appears on the parent chain of
	// start (inclusive of start itself), walking only the owner's tasks.
	HasAncestor(ctx context.Context, ownerID, start, target int64) (bool, error)
}
