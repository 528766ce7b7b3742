package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dkorzhov/tasksync/internal/errs"
	"github.com/dkorzhov/tasksync/internal/model"
)

// TaskRepo implements TaskRepository using PostgreSQL.
type TaskRepo struct{ db *DB }

// NewTaskRepo constructs a task repository.
func NewTaskRepo(db *DB) *TaskRepo { return &TaskRepo{db: db} }

const taskColumns = `id, owner_id, title, description, completed, priority, category, due_date, parent_id, created_at, updated_at`

// Create inserts a task row and fills in id and timestamps.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	const q = `
INSERT INTO tasks (owner_id, title, description, completed, priority, category, due_date, parent_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at, updated_at`
	err := r.db.Pool.QueryRow(ctx, q,
		t.OwnerID, t.Title, t.Description, t.Completed, t.Priority, t.Category, t.DueDate, t.ParentID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return mapErr(err)
}

// Get loads one task scoped to its owner.
func (r *TaskRepo) Get(ctx context.Context, ownerID, taskID int64) (*model.Task, error) {
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE id=$1 AND owner_id=$2`
	var t model.Task
	if err := scanTask(r.db.Pool.QueryRow(ctx, q, taskID, ownerID), &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, mapErr(err)
	}
	return &t, nil
}

// Update writes all mutable fields (owner scoped) and refreshes UpdatedAt.
func (r *TaskRepo) Update(ctx context.Context, t *model.Task) error {
	const q = `
UPDATE tasks
SET title=$3, description=$4, completed=$5, priority=$6, category=$7, due_date=$8, parent_id=$9, updated_at=now()
WHERE id=$1 AND owner_id=$2
RETURNING updated_at`
	err := r.db.Pool.QueryRow(ctx, q,
		t.ID, t.OwnerID, t.Title, t.Description, t.Completed, t.Priority, t.Category, t.DueDate, t.ParentID,
	).Scan(&t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	return mapErr(err)
}

// Delete removes the task and every descendant subtask in one statement.
// Descendants share the root's owner by invariant, so only the root is
// owner-checked.
func (r *TaskRepo) Delete(ctx context.Context, ownerID, taskID int64) error {
	const q = `
WITH RECURSIVE sub AS (
  SELECT id FROM tasks WHERE id=$1 AND owner_id=$2
  UNION ALL
  SELECT t.id FROM tasks t JOIN sub s ON t.parent_id = s.id
)
DELETE FROM tasks WHERE id IN (SELECT id FROM sub)`
	tag, err := r.db.Pool.Exec(ctx, q, taskID, ownerID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// List returns the owner's tasks matching f, newest first.
func (r *TaskRepo) List(ctx context.Context, ownerID int64, f model.TaskFilter) ([]model.Task, error) {
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id=$1`
	args := []any{ownerID}
	if f.TopLevelOnly {
		q += ` AND parent_id IS NULL`
	}
	if f.Completed != nil {
		args = append(args, *f.Completed)
		q += fmt.Sprintf(` AND completed=$%d`, len(args))
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []model.Task{}
	for rows.Next() {
		var t model.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, t)
	}
	return out, mapErr(rows.Err())
}

// HasAncestor walks the parent chain upwards from start and reports whether
// target is on it. start itself counts, so HasAncestor(o, x, x) is true.
func (r *TaskRepo) HasAncestor(ctx context.Context, ownerID, start, target int64) (bool, error) {
	const q = `
WITH RECURSIVE anc AS (
  SELECT id, parent_id FROM tasks WHERE id=$1 AND owner_id=$3
  UNION ALL
  SELECT t.id, t.parent_id FROM tasks t JOIN anc a ON t.id = a.parent_id WHERE t.owner_id=$3
)
SELECT EXISTS (SELECT 1 FROM anc WHERE id=$2)`
	var found bool
	if err := r.db.Pool.QueryRow(ctx, q, start, target, ownerID).Scan(&found); err != nil {
		return false, mapErr(err)
	}
	return found, nil
}

func scanTask(row pgx.Row, t *model.Task) error {
	return row.Scan(
		&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Completed,
		&t.Priority, &t.Category, &t.DueDate, &t.ParentID,
		&t.CreatedAt, &t.UpdatedAt,
	)
}
