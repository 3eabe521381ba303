// internal/session/outbound.go
package session

import (
	"github.com/google/uuid"

	"github.com/jswiatek/sherlock13/internal/catalogue"
	"github.com/jswiatek/sherlock13/internal/models"
)

// Audience selects who receives an outbound message.
type Audience int

const (
	// AudienceRoom delivers to every connection in the session's room.
	AudienceRoom Audience = iota
	// AudiencePlayer delivers to a single player's connection. Hand reveals
	// and error reports use this.
	AudiencePlayer
)

// Envelope pairs an outbound message with its audience. The engine returns
// envelopes instead of writing to connections; a separate dispatcher delivers
// them, which keeps the engine free of transport concerns and testable
// without a live socket.
type Envelope struct {
	Audience Audience
	Code     string    // session code, set for room messages
	PlayerID uuid.UUID // recipient, set for AudiencePlayer
	Msg      map[string]interface{}
}

func toRoom(code string, msg map[string]interface{}) Envelope {
	return Envelope{Audience: AudienceRoom, Code: code, Msg: msg}
}

func toPlayer(id uuid.UUID, msg map[string]interface{}) Envelope {
	return Envelope{Audience: AudiencePlayer, PlayerID: id, Msg: msg}
}

// errorTo builds the error event sent only to the offending connection.
func errorTo(id uuid.UUID, text string) Envelope {
	return toPlayer(id, map[string]interface{}{
		"type":    "error",
		"message": text,
	})
}

func lobbyUpdatedMsg(snapshot map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":    "lobbyUpdated",
		"session": snapshot,
	}
}

// LobbyUpdated builds the room broadcast sent after any roster change. The
// snapshot excludes hands and the culprit.
func LobbyUpdated(s *Session) Envelope {
	return toRoom(s.Code, lobbyUpdatedMsg(s.Snapshot()))
}

// gameStartedMsg carries the public start announcement: turn order and card
// counts, never hands.
func gameStartedMsg(s *Session) map[string]interface{} {
	order := make([]string, 0, len(s.TurnOrder))
	for _, id := range s.TurnOrder {
		order = append(order, id.String())
	}
	players := make([]map[string]interface{}, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, map[string]interface{}{
			"id":        p.ID.String(),
			"name":      p.Name,
			"cardCount": p.CardCount(),
		})
	}
	return map[string]interface{}{
		"type":            "gameStarted",
		"phase":           string(s.Phase),
		"turnOrder":       order,
		"currentPlayerId": s.currentPlayerID().String(),
		"players":         players,
	}
}

func yourHandMsg(p *models.Player) map[string]interface{} {
	return map[string]interface{}{
		"type":  "yourHand",
		"cards": p.Hand,
	}
}

// stateUpdateMsg is broadcast after every turn-advancing action. It carries
// the new current seat and the most recent two log entries.
func stateUpdateMsg(s *Session) map[string]interface{} {
	return map[string]interface{}{
		"type":            "stateUpdate",
		"currentPlayerId": s.currentPlayerID().String(),
		"log":             s.recentLog(2),
	}
}

// gameOverMsg finally reveals the culprit to the room.
func gameOverMsg(winnerName string, culprit catalogue.Card) map[string]interface{} {
	return map[string]interface{}{
		"type":    "gameOver",
		"winner":  winnerName,
		"culprit": culprit,
	}
}

func chatMessageMsg(sender, text string) map[string]interface{} {
	return map[string]interface{}{
		"type":   "chatMessage",
		"sender": sender,
		"text":   text,
	}
}
