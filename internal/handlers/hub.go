// internal/handlers/hub.go
package handlers

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jswiatek/sherlock13/internal/session"
)

// ClientConn is a single player's live WebSocket presence. Messages are
// queued on OutChan and drained by the connection's write pump.
type ClientConn struct {
	PlayerID uuid.UUID
	Cancel   func()
	OutChan  chan map[string]interface{}

	logger *logrus.Logger
}

// Write pushes a message onto the connection's queue without blocking. A full
// or closed queue drops the message and logs it.
func (c *ClientConn) Write(msg map[string]interface{}) {
	select {
	case c.OutChan <- msg:
	default:
		msgType, _ := msg["type"].(string)
		c.logger.WithFields(logrus.Fields{
			"player": c.PlayerID,
			"type":   msgType,
		}).Warn("outbound queue full or closed, message dropped")
	}
}

// WriteError sends an error event to this connection only.
func (c *ClientConn) WriteError(text string) {
	c.Write(map[string]interface{}{
		"type":    "error",
		"message": text,
	})
}

// Hub maps player ids to live connections and routes engine envelopes to
// their audiences. Room membership is always resolved through the registry
// at delivery time, so the hub holds no game state of its own.
type Hub struct {
	mu     sync.Mutex
	conns  map[uuid.UUID]*ClientConn
	logger *logrus.Logger
}

// NewHub returns an empty hub.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		conns:  make(map[uuid.UUID]*ClientConn),
		logger: logger,
	}
}

// Register replaces any existing connection for the player, cancelling the
// old one first. The old queue is left open: its write pump exits on the
// cancelled context, and a late Write on the stale pointer must stay safe.
func (h *Hub) Register(conn *ClientConn) {
	h.mu.Lock()
	old, existed := h.conns[conn.PlayerID]
	h.conns[conn.PlayerID] = conn
	h.mu.Unlock()

	if existed && old != conn && old.Cancel != nil {
		old.Cancel()
	}
}

// Unregister removes the connection if it is still the player's current one
// and reports whether it was. A stale connection, already replaced by a
// reconnect, returns false so its teardown skips the leave path.
func (h *Hub) Unregister(conn *ClientConn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.conns[conn.PlayerID]; ok && current == conn {
		delete(h.conns, conn.PlayerID)
		return true
	}
	return false
}

// Get returns the player's live connection, if any.
func (h *Hub) Get(playerID uuid.UUID) (*ClientConn, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[playerID]
	return c, ok
}

// Deliver routes each envelope to its audience: room envelopes fan out to
// every roster member with a live connection, player envelopes go to exactly
// one. Disconnected roster members are skipped silently.
func (h *Hub) Deliver(reg *session.Registry, envs []session.Envelope) {
	for _, env := range envs {
		switch env.Audience {
		case session.AudiencePlayer:
			if conn, ok := h.Get(env.PlayerID); ok {
				conn.Write(env.Msg)
			}
		case session.AudienceRoom:
			s, ok := reg.Get(env.Code)
			if !ok {
				continue
			}
			for _, id := range s.PlayerIDs() {
				if conn, ok := h.Get(id); ok {
					conn.Write(env.Msg)
				}
			}
		}
	}
}
