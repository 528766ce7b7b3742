package http

import (
	"time"

	"github.com/dkorzhov/tasksync/internal/model"
)

type registerRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        *model.User `json:"user"`
}

type taskCreateRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    model.Priority `json:"priority"`
	Category    string         `json:"category"`
	DueDate     *time.Time     `json:"due_date"`
	ParentID    *int64         `json:"parent_id"`
}

func (r taskCreateRequest) toNewTask() model.NewTask {
	return model.NewTask{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Category:    r.Category,
		DueDate:     r.DueDate,
		ParentID:    r.ParentID,
	}
}

type taskUpdateRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Completed   *bool           `json:"completed"`
	Priority    *model.Priority `json:"priority"`
	Category    *string         `json:"category"`
	DueDate     *time.Time      `json:"due_date"`
	ParentID    *int64          `json:"parent_id"`
}

func (r taskUpdateRequest) toPatch() model.TaskPatch {
	return model.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		Priority:    r.Priority,
		Category:    r.Category,
		DueDate:     r.DueDate,
		ParentID:    r.ParentID,
	}
}

type suggestRequest struct {
	Title string `json:"title"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
