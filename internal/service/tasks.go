package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/dkorzhov/tasksync/internal/errs"
	"github.com/dkorzhov/tasksync/internal/model"
	"github.com/dkorzhov/tasksync/internal/repository"
)

// Field bounds mirrored from the tasks schema.
const (
	maxTitleLen       = 255
	maxDescriptionLen = 10000
	maxCategoryLen    = 50
)

// TaskService enforces task invariants and orchestrates repository calls.
// Every operation is scoped to the owner; a task that exists but belongs to
// someone else behaves exactly like a missing one.
type TaskService interface {
	// Create validates fields and persists a new task with completed=false.
	Create(ctx context.Context, ownerID int64, in model.NewTask) (*model.Task, error)
	// Update applies the set fields of patch; unset fields are no-ops.
	Update(ctx context.Context, ownerID, taskID int64, patch model.TaskPatch) (*model.Task, error)
	// Delete removes the task and all descendant subtasks.
	Delete(ctx context.Context, ownerID, taskID int64) error
	// ToggleComplete flips the completed flag.
	ToggleComplete(ctx context.Context, ownerID, taskID int64) (*model.Task, error)
	// List returns the owner's tasks matching f, newest first.
	List(ctx context.Context, ownerID int64, f model.TaskFilter) ([]model.Task, error)
	// Get returns one task.
	Get(ctx context.Context, ownerID, taskID int64) (*model.Task, error)
}

type TaskServiceImpl struct {
	repo repository.TaskRepository
}

// NewTaskService constructs TaskService.
func NewTaskService(repo repository.TaskRepository) *TaskServiceImpl {
	return &TaskServiceImpl{repo: repo}
}

// Create validates the request and persists the task.
func (s *TaskServiceImpl) Create(ctx context.Context, ownerID int64, in model.NewTask) (*model.Task, error) {
	title, err := validTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if err := validDescription(in.Description); err != nil {
		return nil, err
	}
	prio := in.Priority
	if prio == "" {
		prio = model.PriorityMedium
	}
	if !prio.Valid() {
		return nil, errs.Validation("priority", "must be one of low, medium, high, urgent")
	}
	if err := validCategory(in.Category); err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		// parent must exist and be the owner's; a fresh task cannot close a cycle
		if _, err := s.get(ctx, ownerID, *in.ParentID); err != nil {
			return nil, err
		}
	}

	t := &model.Task{
		OwnerID:     ownerID,
		Title:       title,
		Description: in.Description,
		Completed:   false,
		Priority:    prio,
		Category:    in.Category,
		DueDate:     in.DueDate,
		ParentID:    in.ParentID,
	}
	if err := s.withRetry(func() error { return s.repo.Create(ctx, t) }); err != nil {
		return nil, err
	}
	return t, nil
}

// Update loads the task owner-scoped, applies only the set patch fields,
// re-validates, and persists. Re-parenting is checked for cycles.
func (s *TaskServiceImpl) Update(ctx context.Context, ownerID, taskID int64, patch model.TaskPatch) (*model.Task, error) {
	t, err := s.get(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title, err := validTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		t.Title = title
	}
	if patch.Description != nil {
		if err := validDescription(*patch.Description); err != nil {
			return nil, err
		}
		t.Description = *patch.Description
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return nil, errs.Validation("priority", "must be one of low, medium, high, urgent")
		}
		t.Priority = *patch.Priority
	}
	if patch.Category != nil {
		if err := validCategory(*patch.Category); err != nil {
			return nil, err
		}
		t.Category = *patch.Category
	}
	if patch.DueDate != nil {
		t.DueDate = patch.DueDate
	}
	if patch.ParentID != nil {
		pid := *patch.ParentID
		if pid == taskID {
			return nil, errs.ErrCycle
		}
		if _, err := s.get(ctx, ownerID, pid); err != nil {
			return nil, err
		}
		var cyc bool
		err := s.withRetry(func() (err error) {
			cyc, err = s.repo.HasAncestor(ctx, ownerID, pid, taskID)
			return err
		})
		if err != nil {
			return nil, err
		}
		if cyc {
			return nil, errs.ErrCycle
		}
		t.ParentID = &pid
	}

	if err := s.withRetry(func() error { return s.repo.Update(ctx, t) }); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes the task and its subtask tree.
func (s *TaskServiceImpl) Delete(ctx context.Context, ownerID, taskID int64) error {
	return s.withRetry(func() error { return s.repo.Delete(ctx, ownerID, taskID) })
}

// ToggleComplete flips the completed flag and persists.
func (s *TaskServiceImpl) ToggleComplete(ctx context.Context, ownerID, taskID int64) (*model.Task, error) {
	t, err := s.get(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}
	t.Completed = !t.Completed
	if err := s.withRetry(func() error { return s.repo.Update(ctx, t) }); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns the owner's tasks matching f.
func (s *TaskServiceImpl) List(ctx context.Context, ownerID int64, f model.TaskFilter) ([]model.Task, error) {
	var out []model.Task
	err := s.withRetry(func() (err error) {
		out, err = s.repo.List(ctx, ownerID, f)
		return err
	})
	return out, err
}

// Get returns one task owner-scoped.
func (s *TaskServiceImpl) Get(ctx context.Context, ownerID, taskID int64) (*model.Task, error) {
	return s.get(ctx, ownerID, taskID)
}

func (s *TaskServiceImpl) get(ctx context.Context, ownerID, taskID int64) (*model.Task, error) {
	var t *model.Task
	err := s.withRetry(func() (err error) {
		t, err = s.repo.Get(ctx, ownerID, taskID)
		return err
	})
	return t, err
}

// withRetry retries fn exactly once when it fails with a transient storage
// error; the second failure is surfaced to the caller.
func (s *TaskServiceImpl) withRetry(fn func() error) error {
	err := fn()
	if errors.Is(err, errs.ErrTransient) {
		err = fn()
	}
	return err
}

func validTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errs.Validation("title", "must not be empty")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "", errs.Validation("title", "must be at most 255 characters")
	}
	return title, nil
}

func validDescription(desc string) error {
	if utf8.RuneCountInString(desc) > maxDescriptionLen {
		return errs.Validation("description", "too long")
	}
	return nil
}

func validCategory(cat string) error {
	if utf8.RuneCountInString(cat) > maxCategoryLen {
		return errs.Validation("category", "too long")
	}
	return nil
}
