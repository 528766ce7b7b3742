package http

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/dkorzhov/tasksync/internal/model"
	"github.com/dkorzhov/tasksync/internal/registry"
)

const (
	// sendQueueDepth bounds the per-connection outbound queue. A client that
	// cannot drain this many events is treated as gone.
	sendQueueDepth = 32

	writeTimeout = 10 * time.Second
)

const localUserID = "user_id"

// upgradeRequired authenticates the upgrade request before the protocol
// switch, so an invalid token costs a plain 401 instead of a connection.
func (s *Server) upgradeRequired(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	raw := bearerToken(c)
	if raw == "" {
		// browser WebSocket clients cannot set headers on the upgrade
		raw = c.Query("token")
	}
	userID, err := s.coord.Authenticate(raw)
	if err != nil {
		return fail(c, err)
	}
	c.Locals(localUserID, userID)
	return c.Next()
}

func (s *Server) wsHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID := conn.Locals(localUserID).(int64)

		ch := newWSChannel(conn)
		go ch.writePump(s.log)

		s.coord.Connect(userID, ch)
		defer s.coord.Disconnect(userID, ch)

		// inbound frames are only keepalives; the read loop exists to detect
		// the peer going away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}

// wsChannel adapts one WebSocket connection to the registry's Channel.
// Send enqueues onto out; the writePump goroutine owns all network writes.
type wsChannel struct {
	id   uuid.UUID
	conn *websocket.Conn

	out  chan []byte
	done chan struct{}
	once sync.Once
}

var _ registry.Channel = (*wsChannel)(nil)

func newWSChannel(conn *websocket.Conn) *wsChannel {
	return &wsChannel{
		id:   uuid.Must(uuid.NewV4()),
		conn: conn,
		out:  make(chan []byte, sendQueueDepth),
		done: make(chan struct{}),
	}
}

func (ch *wsChannel) ID() uuid.UUID { return ch.id }

// Send never blocks: a full queue or a closed channel both report the
// connection as dead and let the registry drop it.
func (ch *wsChannel) Send(e model.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	select {
	case <-ch.done:
		return registry.ErrChannelClosed
	default:
	}
	select {
	case ch.out <- payload:
		return nil
	default:
		return registry.ErrChannelClosed
	}
}

// Close stops the writePump; the underlying connection is closed there so a
// write in flight is never raced.
func (ch *wsChannel) Close() error {
	ch.once.Do(func() { close(ch.done) })
	return nil
}

func (ch *wsChannel) writePump(log *zap.Logger) {
	defer ch.conn.Close()
	for {
		select {
		case <-ch.done:
			return
		case payload := <-ch.out:
			_ = ch.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ch.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug("websocket write failed",
					zap.String("channel_id", ch.id.String()),
					zap.Error(err),
				)
				ch.once.Do(func() { close(ch.done) })
				return
			}
		}
	}
}
