package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/dkorzhov/tasksync/internal/errs"
	"github.com/dkorzhov/tasksync/internal/model"
)

var taskCols = []string{
	"id", "owner_id", "title", "description", "completed",
	"priority", "category", "due_date", "parent_id",
	"created_at", "updated_at",
}

func taskRow(id, owner int64, title string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(taskCols).AddRow(
		id, owner, title, "", false,
		model.PriorityMedium, "", (*time.Time)(nil), (*int64)(nil),
		now, now,
	)
}

func TestTaskRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTaskRepo(db)
	ctx := context.Background()

	task := &model.Task{OwnerID: 1, Title: "Buy milk", Priority: model.PriorityMedium}
	mock.ExpectQuery(`INSERT INTO tasks \(owner_id, title, description, completed, priority, category, due_date, parent_id\)`).
		WithArgs(task.OwnerID, task.Title, task.Description, task.Completed, task.Priority, task.Category, task.DueDate, task.ParentID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(1), time.Now(), time.Now()))

	require.NoError(t, r.Create(ctx, task))
	require.Equal(t, int64(1), task.ID)
	require.False(t, task.CreatedAt.IsZero())
}

func TestTaskRepo_Get(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTaskRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT .+ FROM tasks WHERE id=\$1 AND owner_id=\$2`).
		WithArgs(int64(5), int64(1)).
		WillReturnRows(taskRow(5, 1, "Buy milk"))
	got, err := r.Get(ctx, 1, 5)
	require.NoError(t, err)
	require.Equal(t, "Buy milk", got.Title)

	// absent or other owner's row is the same ErrNotFound
	mock.ExpectQuery(`SELECT .+ FROM tasks WHERE id=\$1 AND owner_id=\$2`).
		WithArgs(int64(5), int64(2)).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.Get(ctx, 2, 5)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestTaskRepo_Update(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTaskRepo(db)
	ctx := context.Background()

	task := &model.Task{ID: 5, OwnerID: 1, Title: "Buy milk", Completed: true, Priority: model.PriorityHigh}

	mock.ExpectQuery(`UPDATE tasks SET title=\$3, description=\$4, completed=\$5, priority=\$6, category=\$7, due_date=\$8, parent_id=\$9, updated_at=now\(\) WHERE id=\$1 AND owner_id=\$2 RETURNING updated_at`).
		WithArgs(task.ID, task.OwnerID, task.Title, task.Description, task.Completed, task.Priority, task.Category, task.DueDate, task.ParentID).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	require.NoError(t, r.Update(ctx, task))

	mock.ExpectQuery(`UPDATE tasks SET`).
		WithArgs(task.ID, task.OwnerID, task.Title, task.Description, task.Completed, task.Priority, task.Category, task.DueDate, task.ParentID).
		WillReturnError(pgx.ErrNoRows)
	require.ErrorIs(t, r.Update(ctx, task), errs.ErrNotFound)
}

func TestTaskRepo_Delete_Cascade(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTaskRepo(db)
	ctx := context.Background()

	// root plus two descendants removed in one statement
	mock.ExpectExec(`DELETE FROM tasks WHERE id IN \(SELECT id FROM sub\)`).
		WithArgs(int64(5), int64(1)).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	require.NoError(t, r.Delete(ctx, 1, 5))

	mock.ExpectExec(`DELETE FROM tasks WHERE id IN \(SELECT id FROM sub\)`).
		WithArgs(int64(5), int64(2)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.ErrorIs(t, r.Delete(ctx, 2, 5), errs.ErrNotFound)
}

func TestTaskRepo_List_Filters(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTaskRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT .+ FROM tasks WHERE owner_id=\$1 ORDER BY created_at DESC`).
		WithArgs(int64(1)).
		WillReturnRows(taskRow(5, 1, "a"))
	out, err := r.List(ctx, 1, model.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, out, 1)

	done := true
	mock.ExpectQuery(`SELECT .+ FROM tasks WHERE owner_id=\$1 AND parent_id IS NULL AND completed=\$2 ORDER BY created_at DESC`).
		WithArgs(int64(1), done).
		WillReturnRows(pgxmock.NewRows(taskCols))
	out, err = r.List(ctx, 1, model.TaskFilter{Completed: &done, TopLevelOnly: true})
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestTaskRepo_HasAncestor(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewTaskRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(`WITH RECURSIVE anc AS`).
		WithArgs(int64(2), int64(1), int64(9)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	found, err := r.HasAncestor(ctx, 9, 2, 1)
	require.NoError(t, err)
	require.True(t, found)

	mock.ExpectQuery(`WITH RECURSIVE anc AS`).
		WithArgs(int64(3), int64(1), int64(9)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	found, err = r.HasAncestor(ctx, 9, 3, 1)
	require.NoError(t, err)
	require.False(t, found)
}
