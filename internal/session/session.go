// internal/session/session.go
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jswiatek/sherlock13/internal/catalogue"
	"github.com/jswiatek/sherlock13/internal/models"
)

// Phase is the lifecycle state of a session.
type Phase string

const (
	PhaseLobby    Phase = "LOBBY"
	PhasePlaying  Phase = "PLAYING"
	PhaseGameOver Phase = "GAME_OVER"
)

// Session is one game room's full authoritative state: roster, phase, hidden
// culprit, turn order, elimination flags, and the public event log. It is the
// only copy of the hidden information; snapshots sent to clients never include
// hands or the culprit before GAME_OVER.
//
// All mutation happens under Mu. The registry and the action resolver are the
// only writers; at most one mutator is active per session at any instant.
type Session struct {
	Code    string
	HostID  uuid.UUID
	Players []*models.Player
	Phase   Phase

	Culprit      *catalogue.Card
	TurnOrder    []uuid.UUID
	CurrentIndex int
	Log          []models.LogEntry
	WinnerID     uuid.UUID

	// LastActive drives idle eviction of abandoned sessions.
	LastActive time.Time

	Mu sync.Mutex
}

func newSession(code string, hostID uuid.UUID, hostName string) *Session {
	return &Session{
		Code:       code,
		HostID:     hostID,
		Players:    []*models.Player{models.NewPlayer(hostID, hostName, true)},
		Phase:      PhaseLobby,
		Log:        []models.LogEntry{},
		LastActive: time.Now(),
	}
}

// playerByID returns the roster entry for id, or nil. Caller holds Mu.
func (s *Session) playerByID(id uuid.UUID) *models.Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// activePlayers returns the non-eliminated roster. Caller holds Mu.
func (s *Session) activePlayers() []*models.Player {
	var active []*models.Player
	for _, p := range s.Players {
		if !p.Eliminated {
			active = append(active, p)
		}
	}
	return active
}

// currentPlayerID returns the seat occupant at CurrentIndex, or uuid.Nil
// before the turn order exists. Caller holds Mu.
func (s *Session) currentPlayerID() uuid.UUID {
	if len(s.TurnOrder) == 0 {
		return uuid.Nil
	}
	return s.TurnOrder[s.CurrentIndex]
}

// appendLog appends one entry to the session log and returns it. Entry IDs
// are unix-millisecond timestamps kept strictly increasing. Caller holds Mu.
func (s *Session) appendLog(text string, typ models.LogEntryType) models.LogEntry {
	id := time.Now().UnixMilli()
	if n := len(s.Log); n > 0 && s.Log[n-1].ID >= id {
		id = s.Log[n-1].ID + 1
	}
	entry := models.LogEntry{ID: id, Text: text, Type: typ}
	s.Log = append(s.Log, entry)
	return entry
}

// recentLog returns up to the last n log entries. Caller holds Mu.
func (s *Session) recentLog(n int) []models.LogEntry {
	if len(s.Log) < n {
		n = len(s.Log)
	}
	out := make([]models.LogEntry, n)
	copy(out, s.Log[len(s.Log)-n:])
	return out
}

// touch records activity for the idle janitor. Caller holds Mu.
func (s *Session) touch() {
	s.LastActive = time.Now()
}

// snapshotUnsafe builds the sanitized session view sent as lobbyUpdated:
// roster and phase, minus hands and the culprit. Caller holds Mu.
func (s *Session) snapshotUnsafe() map[string]interface{} {
	players := make([]map[string]interface{}, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, map[string]interface{}{
			"id":         p.ID.String(),
			"name":       p.Name,
			"isHost":     p.IsHost,
			"cardCount":  p.CardCount(),
			"eliminated": p.Eliminated,
			"connected":  p.Connected,
		})
	}
	snap := map[string]interface{}{
		"code":    s.Code,
		"hostId":  s.HostID.String(),
		"phase":   string(s.Phase),
		"players": players,
	}
	if s.Phase != PhaseLobby {
		snap["currentPlayerId"] = s.currentPlayerID().String()
	}
	return snap
}

// Snapshot returns the sanitized session view, acquiring the session lock.
func (s *Session) Snapshot() map[string]interface{} {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.snapshotUnsafe()
}

// PlayerIDs returns the roster ids in seat order; the dispatcher uses it to
// resolve room audiences.
func (s *Session) PlayerIDs() []uuid.UUID {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	ids := make([]uuid.UUID, 0, len(s.Players))
	for _, p := range s.Players {
		ids = append(ids, p.ID)
	}
	return ids
}
