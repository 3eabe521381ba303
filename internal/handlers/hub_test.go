// internal/handlers/hub_test.go
package handlers

import (
	"io"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jswiatek/sherlock13/internal/catalogue"
	"github.com/jswiatek/sherlock13/internal/session"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestConn(id uuid.UUID, queueSize int) *ClientConn {
	return &ClientConn{
		PlayerID: id,
		OutChan:  make(chan map[string]interface{}, queueSize),
		logger:   newTestLogger(),
	}
}

func drain(c *ClientConn) []map[string]interface{} {
	var out []map[string]interface{}
	for {
		select {
		case msg := <-c.OutChan:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestHubRegisterReplacesConnection(t *testing.T) {
	hub := NewHub(newTestLogger())
	id := uuid.New()

	cancelled := false
	old := newTestConn(id, 1)
	old.Cancel = func() { cancelled = true }
	hub.Register(old)

	replacement := newTestConn(id, 1)
	hub.Register(replacement)

	assert.True(t, cancelled, "stale connection is torn down on reconnect")
	got, ok := hub.Get(id)
	require.True(t, ok)
	assert.Same(t, replacement, got)

	// A late write on the stale pointer (delivery racing the replacement)
	// must not panic; the old queue stays open and just fills up.
	assert.NotPanics(t, func() {
		old.Write(map[string]interface{}{"type": "stateUpdate"})
		old.Write(map[string]interface{}{"type": "stateUpdate"})
	})
}

func TestHubUnregisterOnlyRemovesCurrent(t *testing.T) {
	hub := NewHub(newTestLogger())
	id := uuid.New()

	old := newTestConn(id, 1)
	hub.Register(old)
	replacement := newTestConn(id, 1)
	hub.Register(replacement)

	// The old connection's deferred cleanup must not evict the replacement,
	// and the stale removal must report as such.
	assert.False(t, hub.Unregister(old))
	_, ok := hub.Get(id)
	assert.True(t, ok)

	assert.True(t, hub.Unregister(replacement))
	_, ok = hub.Get(id)
	assert.False(t, ok)
}

func TestWriteDropsWhenQueueFull(t *testing.T) {
	conn := newTestConn(uuid.New(), 1)

	conn.Write(map[string]interface{}{"type": "first"})
	conn.Write(map[string]interface{}{"type": "second"})

	msgs := drain(conn)
	require.Len(t, msgs, 1, "a full queue drops instead of blocking")
	assert.Equal(t, "first", msgs[0]["type"])
}

func TestDeliverRoomFansOutToRoster(t *testing.T) {
	logger := newTestLogger()
	hub := NewHub(logger)
	reg := session.NewRegistry(catalogue.Default(), rand.New(rand.NewSource(7)), logger)

	host := uuid.New()
	member := uuid.New()
	outsider := uuid.New()
	s, err := reg.Create(host, "Anna")
	require.NoError(t, err)
	_, err = reg.Join(s.Code, member, "Bartek")
	require.NoError(t, err)

	hostConn := newTestConn(host, 4)
	memberConn := newTestConn(member, 4)
	outsiderConn := newTestConn(outsider, 4)
	hub.Register(hostConn)
	hub.Register(memberConn)
	hub.Register(outsiderConn)

	hub.Deliver(reg, []session.Envelope{session.LobbyUpdated(s)})

	assert.Len(t, drain(hostConn), 1)
	assert.Len(t, drain(memberConn), 1)
	assert.Empty(t, drain(outsiderConn), "room delivery never leaves the roster")
}

func TestDeliverPlayerTargetsExactlyOne(t *testing.T) {
	logger := newTestLogger()
	hub := NewHub(logger)
	reg := session.NewRegistry(catalogue.Default(), rand.New(rand.NewSource(7)), logger)

	a := uuid.New()
	b := uuid.New()
	connA := newTestConn(a, 4)
	connB := newTestConn(b, 4)
	hub.Register(connA)
	hub.Register(connB)

	hub.Deliver(reg, []session.Envelope{{
		Audience: session.AudiencePlayer,
		PlayerID: a,
		Msg:      map[string]interface{}{"type": "yourHand"},
	}})

	assert.Len(t, drain(connA), 1)
	assert.Empty(t, drain(connB))
}

func TestDeliverSkipsDisconnectedAndUnknown(t *testing.T) {
	logger := newTestLogger()
	hub := NewHub(logger)
	reg := session.NewRegistry(catalogue.Default(), rand.New(rand.NewSource(7)), logger)

	host := uuid.New()
	s, err := reg.Create(host, "Anna")
	require.NoError(t, err)

	// No connection registered for the host, and a room envelope for a code
	// that no longer resolves. Neither may panic or block.
	hub.Deliver(reg, []session.Envelope{
		session.LobbyUpdated(s),
		{Audience: session.AudienceRoom, Code: "NOSUCH", Msg: map[string]interface{}{"type": "lobbyUpdated"}},
		{Audience: session.AudiencePlayer, PlayerID: uuid.New(), Msg: map[string]interface{}{"type": "error"}},
	})
}
