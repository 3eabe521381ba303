// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jswiatek/sherlock13/internal/auth"
	"github.com/jswiatek/sherlock13/internal/catalogue"
	"github.com/jswiatek/sherlock13/internal/metrics"
	"github.com/jswiatek/sherlock13/internal/session"
)

// inboundMessage is the wire shape of every client -> engine event.
type inboundMessage struct {
	Type       string          `json:"type"`
	Name       string          `json:"name,omitempty"`
	Code       string          `json:"code,omitempty"`
	ActionType string          `json:"actionType,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

var errInvalidPayload = errors.New("invalid action payload")

// actionPayload covers all four gameAction payload shapes; unused fields stay
// zero.
type actionPayload struct {
	Symbol   string `json:"symbol"`
	TargetID string `json:"targetId"`
	CardID   int    `json:"cardId"`
	Message  string `json:"message"`
}

// WSHandler upgrades the connection, establishes the caller's guest identity,
// and runs the read loop. Transport disconnect triggers the same leave path
// as an explicit leaveLobby message.
func WSHandler(logger *logrus.Logger, es *EngineServer, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Identity first: the upgrade hijacks the response, after which no
		// Set-Cookie can be written.
		playerID, err := auth.EnsureGuestID(w, r)
		if err != nil {
			logger.Warnf("guest identity failed: %v", err)
			http.Error(w, "could not establish identity", http.StatusInternalServerError)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"sherlock"},
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "sherlock" {
			c.Close(BadSubprotocolError, "client must speak the sherlock subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn := &ClientConn{
			PlayerID: playerID,
			Cancel:   cancel,
			OutChan:  make(chan map[string]interface{}, 16),
			logger:   logger,
		}
		es.connectionOpened(conn)
		logger.WithFields(logrus.Fields{"player": playerID, "remote": r.RemoteAddr}).Info("player connected")

		go writePump(ctx, c, conn, logger)

		readLoop(ctx, c, es, conn, logger)

		es.connectionClosed(conn)
		logger.WithField("player", playerID).Info("player disconnected")
	}
}

// connectionOpened registers the connection and, when the player already sits
// in a session, marks them connected again and tells the room.
func (es *EngineServer) connectionOpened(conn *ClientConn) {
	es.Hub.Register(conn)
	metrics.ConnectionsOpen.Inc()
	if s := es.Registry.MarkConnected(conn.PlayerID); s != nil {
		es.Hub.Deliver(es.Registry, []session.Envelope{session.LobbyUpdated(s)})
	}
}

// connectionClosed tears down a finished connection. The transport-level
// disconnect acts as a leave, but only while the connection is still the
// player's current one: a stale handler whose player has already reconnected
// must not touch session state.
func (es *EngineServer) connectionClosed(conn *ClientConn) {
	metrics.ConnectionsOpen.Dec()
	if es.Hub.Unregister(conn) {
		es.handleLeave(conn.PlayerID)
	}
}

// readLoop decodes and dispatches inbound messages until the connection
// closes. A malformed message is reported back to the sender only; it can
// never affect session state or other connections.
func readLoop(ctx context.Context, c *websocket.Conn, es *EngineServer, conn *ClientConn, logger *logrus.Logger) {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				return
			}
			if strings.Contains(err.Error(), "context canceled") {
				return
			}
			logger.WithField("player", conn.PlayerID).Warnf("read error: %v", err)
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			conn.WriteError("Invalid JSON format")
			continue
		}

		es.handleMessage(conn, msg)
	}
}

// handleMessage routes one inbound event through the engine and delivers the
// resulting envelopes.
func (es *EngineServer) handleMessage(conn *ClientConn, msg inboundMessage) {
	switch msg.Type {
	case "createLobby":
		if strings.TrimSpace(msg.Name) == "" {
			conn.WriteError("A display name is required.")
			return
		}
		s, err := es.Registry.Create(conn.PlayerID, msg.Name)
		if err != nil {
			conn.WriteError(err.Error())
			return
		}
		metrics.SessionsCreated.Inc()
		es.Hub.Deliver(es.Registry, []session.Envelope{session.LobbyUpdated(s)})

	case "joinLobby":
		if strings.TrimSpace(msg.Name) == "" {
			conn.WriteError("A display name is required.")
			return
		}
		s, err := es.Registry.Join(msg.Code, conn.PlayerID, msg.Name)
		if err != nil {
			conn.WriteError(err.Error())
			return
		}
		es.Hub.Deliver(es.Registry, []session.Envelope{session.LobbyUpdated(s)})

	case "startGame":
		envs := es.Registry.StartGame(msg.Code, conn.PlayerID)
		es.Hub.Deliver(es.Registry, envs)

	case "gameAction":
		act, err := decodeAction(msg)
		if err != nil {
			conn.WriteError(err.Error())
			return
		}
		envs := es.Registry.HandleAction(msg.Code, conn.PlayerID, act)
		// Only known types become label values; arbitrary client strings
		// would grow the metric without bound.
		if act.Type.Valid() {
			metrics.ActionsProcessed.WithLabelValues(string(act.Type)).Inc()
		}
		es.Hub.Deliver(es.Registry, envs)

	case "leaveLobby":
		es.handleLeave(conn.PlayerID)

	default:
		conn.WriteError("Unknown message type: " + msg.Type)
	}
}

// decodeAction turns the wire payload into an engine Action.
func decodeAction(msg inboundMessage) (session.Action, error) {
	var payload actionPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return session.Action{}, errInvalidPayload
		}
	}

	act := session.Action{
		Type:    session.ActionType(msg.ActionType),
		Symbol:  catalogue.Symbol(payload.Symbol),
		CardID:  payload.CardID,
		Message: payload.Message,
	}
	if payload.TargetID != "" {
		target, err := uuid.Parse(payload.TargetID)
		if err != nil {
			return session.Action{}, errInvalidPayload
		}
		act.TargetID = target
	}
	return act, nil
}

// handleLeave runs the registry leave path and tells the remaining room
// members about the roster change.
func (es *EngineServer) handleLeave(playerID uuid.UUID) {
	res := es.Registry.Leave(playerID)
	if res == nil || res.Session == nil {
		return
	}
	es.Hub.Deliver(es.Registry, []session.Envelope{session.LobbyUpdated(res.Session)})
}

// writePump drains the connection's queue and keeps the socket alive with
// periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *ClientConn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-conn.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				logger.WithField("player", conn.PlayerID).Warnf("failed to marshal outbound message: %v", err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.WithField("player", conn.PlayerID).Warnf("write failed: %v", err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.WithField("player", conn.PlayerID).Warnf("ping failed, assuming disconnect: %v", err)
				return
			}
		}
	}
}
