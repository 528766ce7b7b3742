package registry

import (
	"sync"
	"testing"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/dkorzhov/tasksync/internal/model"
)

// fakeChannel records delivered events and can be flipped into a dead state.
type fakeChannel struct {
	id uuid.UUID

	mu     sync.Mutex
	events []model.Event
	dead   bool
	closed bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{id: uuid.Must(uuid.NewV4())}
}

func (c *fakeChannel) ID() uuid.UUID { return c.id }

func (c *fakeChannel) Send(e model.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dead {
		return ErrChannelClosed
	}
	c.events = append(c.events, e)
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeChannel) delivered() []model.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Event(nil), c.events...)
}

func TestRegistry_FanOutToAllUserChannels(t *testing.T) {
	t.Parallel()
	r := New(zap.NewNop())

	a1, a2 := newFakeChannel(), newFakeChannel()
	b1 := newFakeChannel()
	r.Register(1, a1)
	r.Register(1, a2)
	r.Register(2, b1)

	r.Publish(1, model.DeletedEvent(5))

	if len(a1.delivered()) != 1 || len(a2.delivered()) != 1 {
		t.Fatalf("each of the user's channels must get exactly one event: %d %d",
			len(a1.delivered()), len(a2.delivered()))
	}
	if len(b1.delivered()) != 0 {
		t.Fatalf("other user's channel must get nothing, got %d", len(b1.delivered()))
	}
}

func TestRegistry_RegisterIdempotent(t *testing.T) {
	t.Parallel()
	r := New(zap.NewNop())

	ch := newFakeChannel()
	r.Register(1, ch)
	r.Register(1, ch) // tab reconnect re-registers the same channel

	r.Publish(1, model.DeletedEvent(1))
	if got := len(ch.delivered()); got != 1 {
		t.Fatalf("double registration must not double delivery, got %d", got)
	}
	if r.Connections(1) != 1 {
		t.Fatalf("want 1 live connection, got %d", r.Connections(1))
	}
}

func TestRegistry_UnregisterDropsEmptyEntry(t *testing.T) {
	t.Parallel()
	r := New(zap.NewNop())

	ch := newFakeChannel()
	r.Register(1, ch)
	r.Unregister(1, ch)

	if r.Connections(1) != 0 {
		t.Fatalf("want empty set, got %d", r.Connections(1))
	}
	if !ch.closed {
		t.Fatalf("unregister must close the channel")
	}
	// unregistering twice is harmless
	r.Unregister(1, ch)

	r.Publish(1, model.DeletedEvent(1))
	if len(ch.delivered()) != 0 {
		t.Fatalf("unregistered channel must not receive events")
	}
}

func TestRegistry_SelfHealingOnDeadChannel(t *testing.T) {
	t.Parallel()
	r := New(zap.NewNop())

	dead, live := newFakeChannel(), newFakeChannel()
	dead.dead = true
	r.Register(1, dead)
	r.Register(1, live)

	r.Publish(1, model.DeletedEvent(9))

	if len(live.delivered()) != 1 {
		t.Fatalf("healthy channel must still receive the event")
	}
	if r.Connections(1) != 1 {
		t.Fatalf("dead channel must be pruned, live=%d", r.Connections(1))
	}
	if !dead.closed {
		t.Fatalf("pruned channel must be closed")
	}
}

func TestRegistry_PerUserOrderPreserved(t *testing.T) {
	t.Parallel()
	r := New(zap.NewNop())

	ch := newFakeChannel()
	r.Register(1, ch)

	for i := int64(1); i <= 10; i++ {
		r.Publish(1, model.DeletedEvent(i))
	}

	got := ch.delivered()
	if len(got) != 10 {
		t.Fatalf("want 10 events, got %d", len(got))
	}
	for i, e := range got {
		if e.TaskID != int64(i+1) {
			t.Fatalf("delivery order broken at %d: %+v", i, e)
		}
	}
}

func TestRegistry_ConcurrentRegisterPublish(t *testing.T) {
	t.Parallel()
	r := New(zap.NewNop())

	var wg sync.WaitGroup
	for u := int64(1); u <= 4; u++ {
		for c := 0; c < 4; c++ {
			wg.Add(1)
			go func(u int64) {
				defer wg.Done()
				ch := newFakeChannel()
				r.Register(u, ch)
				r.Publish(u, model.DeletedEvent(1))
				r.Unregister(u, ch)
			}(u)
		}
	}
	wg.Wait()

	for u := int64(1); u <= 4; u++ {
		if r.Connections(u) != 0 {
			t.Fatalf("user %d: connections left after unregister: %d", u, r.Connections(u))
		}
	}
}
