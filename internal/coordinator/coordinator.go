// Package coordinator glues token verification, task mutations, and event
// fan-out into one authorization-then-publish path shared by every inbound
// surface (request/response and live channels).
package coordinator

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/dkorzhov/tasksync/internal/events"
	"github.com/dkorzhov/tasksync/internal/model"
	"github.com/dkorzhov/tasksync/internal/registry"
	"github.com/dkorzhov/tasksync/internal/service"
	"github.com/dkorzhov/tasksync/internal/token"
)

// Coordinator authorizes a mutation, applies it, and on success publishes the
// resulting event to every live channel of the same user. The initiating
// caller learns the result from the returned value, never through the fan-out.
//
// Mutations of one user are serialized by a per-user lock held from the
// service call through the publish, so events reach the registry in commit
// order. The lock is per user: one user's slow mutation never delays another's,
// and reads bypass it entirely.
type Coordinator struct {
	tokens *token.Manager
	tasks  service.TaskService
	reg    *registry.Registry
	sink   events.Sink // optional mirror, may be nil
	log    *zap.Logger

	mu        sync.Mutex
	userLocks map[int64]*sync.Mutex
}

// New constructs a Coordinator. sink may be nil.
func New(tokens *token.Manager, tasks service.TaskService, reg *registry.Registry, sink events.Sink, log *zap.Logger) *Coordinator {
	return &Coordinator{
		tokens:    tokens,
		tasks:     tasks,
		reg:       reg,
		sink:      sink,
		log:       log,
		userLocks: make(map[int64]*sync.Mutex),
	}
}

// userLock returns the mutation lock for userID, creating it on first use.
// Entries are never removed; the map grows with the set of active users, not
// with the number of mutations.
func (c *Coordinator) userLock(userID int64) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		c.userLocks[userID] = l
	}
	return l
}

// Authenticate verifies a bearer token and returns the subject user id.
// Both transports (plain requests and channel upgrades) go through here.
func (c *Coordinator) Authenticate(rawToken string) (int64, error) {
	return c.tokens.Verify(rawToken)
}

// CreateTask applies a create mutation and fans out TASK_CREATED.
func (c *Coordinator) CreateTask(ctx context.Context, rawToken string, in model.NewTask) (*model.Task, error) {
	userID, err := c.Authenticate(rawToken)
	if err != nil {
		return nil, err
	}
	lock := c.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	t, err := c.tasks.Create(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, userID, model.CreatedEvent(t))
	return t, nil
}

// UpdateTask applies a partial update and fans out TASK_UPDATED.
func (c *Coordinator) UpdateTask(ctx context.Context, rawToken string, taskID int64, patch model.TaskPatch) (*model.Task, error) {
	userID, err := c.Authenticate(rawToken)
	if err != nil {
		return nil, err
	}
	lock := c.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	t, err := c.tasks.Update(ctx, userID, taskID, patch)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, userID, model.UpdatedEvent(t))
	return t, nil
}

// ToggleTask flips completion and fans out TASK_UPDATED.
func (c *Coordinator) ToggleTask(ctx context.Context, rawToken string, taskID int64) (*model.Task, error) {
	userID, err := c.Authenticate(rawToken)
	if err != nil {
		return nil, err
	}
	lock := c.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	t, err := c.tasks.ToggleComplete(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, userID, model.UpdatedEvent(t))
	return t, nil
}

// DeleteTask removes a task tree and fans out TASK_DELETED with the root id.
func (c *Coordinator) DeleteTask(ctx context.Context, rawToken string, taskID int64) error {
	userID, err := c.Authenticate(rawToken)
	if err != nil {
		return err
	}
	lock := c.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := c.tasks.Delete(ctx, userID, taskID); err != nil {
		return err
	}
	c.publish(ctx, userID, model.DeletedEvent(taskID))
	return nil
}

// ListTasks returns the caller's tasks; reads publish nothing.
func (c *Coordinator) ListTasks(ctx context.Context, rawToken string, f model.TaskFilter) ([]model.Task, error) {
	userID, err := c.Authenticate(rawToken)
	if err != nil {
		return nil, err
	}
	return c.tasks.List(ctx, userID, f)
}

// GetTask returns one of the caller's tasks.
func (c *Coordinator) GetTask(ctx context.Context, rawToken string, taskID int64) (*model.Task, error) {
	userID, err := c.Authenticate(rawToken)
	if err != nil {
		return nil, err
	}
	return c.tasks.Get(ctx, userID, taskID)
}

// Connect registers a live channel for an already-authenticated user.
func (c *Coordinator) Connect(userID int64, ch registry.Channel) {
	c.reg.Register(userID, ch)
}

// Disconnect removes a live channel.
func (c *Coordinator) Disconnect(userID int64, ch registry.Channel) {
	c.reg.Unregister(userID, ch)
}

// publish fans the event out to the user's live channels and, when a mirror
// sink is configured, to the broker. Neither path can fail the mutation.
func (c *Coordinator) publish(ctx context.Context, userID int64, e model.Event) {
	c.reg.Publish(userID, e)
	if c.sink != nil {
		if err := c.sink.Publish(ctx, userID, e); err != nil {
			c.log.Warn("event mirror publish failed",
				zap.Int64("user_id", userID),
				zap.String("type", string(e.Type)),
				zap.Error(err),
			)
		}
	}
}
