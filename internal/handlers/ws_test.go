// internal/handlers/ws_test.go
package handlers

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jswiatek/sherlock13/internal/catalogue"
	"github.com/jswiatek/sherlock13/internal/metrics"
	"github.com/jswiatek/sherlock13/internal/session"
)

func newTestEngineServer() *EngineServer {
	logger := newTestLogger()
	reg := session.NewRegistry(catalogue.Default(), rand.New(rand.NewSource(7)), logger)
	return NewEngineServer(reg, logger)
}

func TestStaleConnectionCleanupDoesNotLeave(t *testing.T) {
	es := newTestEngineServer()
	id := uuid.New()

	first := newTestConn(id, 4)
	es.connectionOpened(first)

	s, err := es.Registry.Create(id, "Anna")
	require.NoError(t, err)

	// Same identity reconnects; the first handler's deferred teardown runs
	// afterwards and must leave the session alone.
	second := newTestConn(id, 4)
	es.connectionOpened(second)
	es.connectionClosed(first)

	got, ok := es.Registry.Get(s.Code)
	require.True(t, ok, "reconnect must not destroy the player's lobby")
	assert.Same(t, s, got)
	require.Len(t, s.Players, 1)
	assert.True(t, s.Players[0].Connected)

	// The live connection's own teardown still leaves normally.
	es.connectionClosed(second)
	_, ok = es.Registry.Get(s.Code)
	assert.False(t, ok)
}

func TestReconnectMarksPlayerConnectedAgain(t *testing.T) {
	es := newTestEngineServer()
	host := uuid.New()
	second := uuid.New()

	s, err := es.Registry.Create(host, "Anna")
	require.NoError(t, err)
	_, err = es.Registry.Join(s.Code, second, "Bartek")
	require.NoError(t, err)
	_, err = es.Registry.Join(s.Code, uuid.New(), "Celina")
	require.NoError(t, err)
	es.Registry.StartGame(s.Code, host)
	require.Equal(t, session.PhasePlaying, s.Phase)

	hostConn := newTestConn(host, 4)
	es.connectionOpened(hostConn)

	secondConn := newTestConn(second, 4)
	es.connectionOpened(secondConn)
	drain(secondConn)
	drain(hostConn)

	es.connectionClosed(secondConn)
	require.False(t, s.Players[1].Connected)

	replacement := newTestConn(second, 4)
	es.connectionOpened(replacement)

	assert.True(t, s.Players[1].Connected, "reconnect restores the connected flag")

	// The room hears about the roster change.
	msgs := drain(hostConn)
	require.NotEmpty(t, msgs)
	assert.Equal(t, "lobbyUpdated", msgs[len(msgs)-1]["type"])
}

func TestGameActionUnknownTypeKeepsMetricBounded(t *testing.T) {
	es := newTestEngineServer()
	id := uuid.New()
	conn := newTestConn(id, 4)
	es.connectionOpened(conn)

	s, err := es.Registry.Create(id, "Anna")
	require.NoError(t, err)
	drain(conn)

	before := testutil.CollectAndCount(metrics.ActionsProcessed)
	es.handleMessage(conn, inboundMessage{
		Type:       "gameAction",
		Code:       s.Code,
		ActionType: "lsdjflksdjf",
	})
	assert.Equal(t, before, testutil.CollectAndCount(metrics.ActionsProcessed),
		"client-chosen strings never become label values")

	// A known type still counts.
	es.handleMessage(conn, inboundMessage{
		Type:       "gameAction",
		Code:       s.Code,
		ActionType: "chat",
	})
	chats := testutil.ToFloat64(metrics.ActionsProcessed.WithLabelValues("chat"))
	assert.GreaterOrEqual(t, chats, float64(1))
}
