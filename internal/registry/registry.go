// Package registry tracks the set of live channels per user and fans
// committed task events out to them.
package registry

import (
	"errors"
	"sync"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/dkorzhov/tasksync/internal/model"
)

// ErrChannelClosed is returned by Channel.Send when the peer is gone or its
// outbound queue is full; the registry treats it as a disconnect.
var ErrChannelClosed = errors.New("channel closed")

// Channel is one live connection of a user. Send must never block: it only
// enqueues the event onto the connection's writer queue — the actual network
// write happens on the connection's own goroutine. A Send error marks the
// channel dead.
type Channel interface {
	ID() uuid.UUID
	Send(e model.Event) error
	Close() error
}

// Registry is the process-wide map of live channels keyed by user id. It is
// safe for concurrent use from arbitrarily many request and connection
// goroutines. The lock guards only map state and queue hand-off; it is never
// held across a network write.
type Registry struct {
	mu    sync.Mutex
	users map[int64]map[uuid.UUID]Channel
	log   *zap.Logger
}

// New constructs an empty Registry.
func New(log *zap.Logger) *Registry {
	return &Registry{users: make(map[int64]map[uuid.UUID]Channel), log: log}
}

// Register adds a channel to the user's set. Re-registering the same channel
// is a no-op, so a reconnecting tab cannot double itself.
func (r *Registry) Register(userID int64, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.users[userID]
	if !ok {
		set = make(map[uuid.UUID]Channel)
		r.users[userID] = set
	}
	set[ch.ID()] = ch
	r.log.Info("channel registered",
		zap.Int64("user_id", userID),
		zap.String("channel_id", ch.ID().String()),
		zap.Int("live", len(set)),
	)
}

// Unregister removes a channel; when the user's set becomes empty the whole
// entry is dropped so the map does not accumulate dead users.
func (r *Registry) Unregister(userID int64, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drop(userID, ch)
}

// drop removes ch and closes it. Callers must hold r.mu.
func (r *Registry) drop(userID int64, ch Channel) {
	set, ok := r.users[userID]
	if !ok {
		return
	}
	if _, ok := set[ch.ID()]; !ok {
		return
	}
	delete(set, ch.ID())
	if len(set) == 0 {
		delete(r.users, userID)
	}
	_ = ch.Close()
	r.log.Info("channel unregistered",
		zap.Int64("user_id", userID),
		zap.String("channel_id", ch.ID().String()),
	)
}

// Publish enqueues e to every live channel of userID. A failed enqueue drops
// that channel and delivery continues with the rest; failures are never
// surfaced to the caller. Enqueueing under the lock keeps per-user delivery
// order identical across all of the user's channels; since Send never blocks
// the lock is held only for map traversal, not for network writes.
func (r *Registry) Publish(userID int64, e model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.users[userID]
	if !ok {
		return
	}
	for _, ch := range set {
		if err := ch.Send(e); err != nil {
			r.log.Warn("dropping dead channel",
				zap.Int64("user_id", userID),
				zap.String("channel_id", ch.ID().String()),
				zap.Error(err),
			)
			r.drop(userID, ch)
		}
	}
}

// Connections reports how many channels are live for userID.
func (r *Registry) Connections(userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users[userID])
}
