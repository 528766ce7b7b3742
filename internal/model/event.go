package model

// EventType identifies the kind of task mutation an Event describes.
type EventType string

const (
	EventTaskCreated EventType = "TASK_CREATED"
	EventTaskUpdated EventType = "TASK_UPDATED"
	EventTaskDeleted EventType = "TASK_DELETED"
)

// Event is the value fanned out to a user's live connections after a
// mutation commits. It is built once and never mutated afterwards.
// Deletions carry only the task id; creates and updates carry the full task.
type Event struct {
	Type   EventType `json:"type"`
	Task   *Task     `json:"task,omitempty"`
	TaskID int64     `json:"task_id,omitempty"`
}

// CreatedEvent builds a TASK_CREATED event for t.
func CreatedEvent(t *Task) Event { return Event{Type: EventTaskCreated, Task: t} }

// UpdatedEvent builds a TASK_UPDATED event for t.
func UpdatedEvent(t *Task) Event { return Event{Type: EventTaskUpdated, Task: t} }

// DeletedEvent builds a TASK_DELETED event for the removed task id.
func DeletedEvent(taskID int64) Event { return Event{Type: EventTaskDeleted, TaskID: taskID} }
