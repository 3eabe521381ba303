// internal/session/registry.go
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jswiatek/sherlock13/internal/catalogue"
	"github.com/jswiatek/sherlock13/internal/models"
)

// Rand is the injectable randomness used for code generation and dealing.
// *math/rand.Rand satisfies it; tests supply a seeded or scripted source.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

const (
	// MinPlayers is the smallest roster a game can start with.
	MinPlayers = 3
	// MaxPlayers caps the roster during LOBBY.
	MaxPlayers = 6

	codeLength = 6
	// codeChars omits 0/O/1/I so codes survive being read aloud.
	codeChars       = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	maxCodeAttempts = 100
)

// Join rejections, evaluated in this order: first applicable wins.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrAlreadyStarted  = errors.New("game already started")
	ErrSessionFull     = errors.New("session full")
	ErrNameTaken       = errors.New("name taken")

	// ErrNoCodeAvailable is returned when code generation exhausts its retry
	// budget, which only happens when the code space is effectively full.
	ErrNoCodeAvailable = errors.New("could not generate an unused session code")
)

// Registry owns the code->Session mapping. It is instantiated once per
// process and handed to the transport layer; there is no ambient state.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	cat    *catalogue.Catalogue
	rng    *lockedRand
	logger *logrus.Logger
}

// lockedRand serializes access to the injected source; connection handlers
// call into the engine from independent goroutines and math/rand sources are
// not safe for concurrent use.
type lockedRand struct {
	mu  sync.Mutex
	src Rand
}

func (lr *lockedRand) Intn(n int) int {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.src.Intn(n)
}

func (lr *lockedRand) Shuffle(n int, swap func(i, j int)) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.src.Shuffle(n, swap)
}

// NewRegistry builds an empty registry dealing from cat.
func NewRegistry(cat *catalogue.Catalogue, rng Rand, logger *logrus.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		cat:      cat,
		rng:      &lockedRand{src: rng},
		logger:   logger,
	}
}

// Create opens a new session in LOBBY phase with the caller as sole member
// and host. Code generation retries until an unused code is found, bounded by
// maxCodeAttempts; an existing session is never overwritten.
func (r *Registry) Create(playerID uuid.UUID, name string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var code string
	for attempt := 0; ; attempt++ {
		if attempt >= maxCodeAttempts {
			return nil, ErrNoCodeAvailable
		}
		code = r.generateCode()
		if _, taken := r.sessions[code]; !taken {
			break
		}
	}

	s := newSession(code, playerID, name)
	r.sessions[code] = s
	r.logger.WithFields(logrus.Fields{"code": code, "host": playerID}).Info("session created")
	return s, nil
}

func (r *Registry) generateCode() string {
	buf := make([]byte, codeLength)
	for i := range buf {
		buf[i] = codeChars[r.rng.Intn(len(codeChars))]
	}
	return string(buf)
}

// Get looks up a session by code.
func (r *Registry) Get(code string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[code]
	return s, ok
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Join appends a player to a LOBBY-phase session. Rejections are evaluated in
// order: unknown code, already started, full, duplicate name.
func (r *Registry) Join(code string, playerID uuid.UUID, name string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[code]
	r.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.Phase != PhaseLobby {
		return nil, ErrAlreadyStarted
	}
	if len(s.Players) >= MaxPlayers {
		return nil, ErrSessionFull
	}
	for _, p := range s.Players {
		if p.Name == name {
			return nil, ErrNameTaken
		}
	}

	s.Players = append(s.Players, models.NewPlayer(playerID, name, false))
	s.touch()
	r.logger.WithFields(logrus.Fields{"code": code, "player": playerID, "name": name}).Info("player joined")
	return s, nil
}

// LeaveResult describes the effect of a Leave call.
type LeaveResult struct {
	Code string
	// Session is nil when the leave destroyed the session.
	Session *Session
}

// Leave handles a player departing (explicitly or by transport disconnect).
// It scans all sessions for the player. In LOBBY the player is removed, host
// status moves to the earliest remaining member, and an emptied session is
// destroyed. Once a game has started the player is only marked disconnected:
// roster, hand, and turn order never change.
func (r *Registry) Leave(playerID uuid.UUID) *LeaveResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	for code, s := range r.sessions {
		s.Mu.Lock()
		p := s.playerByID(playerID)
		if p == nil {
			s.Mu.Unlock()
			continue
		}

		if s.Phase != PhaseLobby {
			p.Connected = false
			s.touch()
			s.Mu.Unlock()
			r.logger.WithFields(logrus.Fields{"code": code, "player": playerID}).Info("player disconnected mid-game")
			return &LeaveResult{Code: code, Session: s}
		}

		for i, member := range s.Players {
			if member.ID == playerID {
				s.Players = append(s.Players[:i], s.Players[i+1:]...)
				break
			}
		}
		if len(s.Players) == 0 {
			s.Mu.Unlock()
			delete(r.sessions, code)
			r.logger.WithField("code", code).Info("session destroyed, last player left")
			return &LeaveResult{Code: code}
		}
		if p.IsHost {
			s.Players[0].IsHost = true
			s.HostID = s.Players[0].ID
		}
		s.touch()
		s.Mu.Unlock()
		r.logger.WithFields(logrus.Fields{"code": code, "player": playerID}).Info("player left lobby")
		return &LeaveResult{Code: code, Session: s}
	}
	return nil
}

// MarkConnected flags the player's roster entry as connected again and
// returns the session holding it, or nil when the player sits in none. The
// inverse of the disconnect marking in Leave; without it a reconnected player
// would be advertised as disconnected for the rest of the game.
func (r *Registry) MarkConnected(playerID uuid.UUID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	for code, s := range r.sessions {
		s.Mu.Lock()
		p := s.playerByID(playerID)
		if p == nil {
			s.Mu.Unlock()
			continue
		}
		p.Connected = true
		s.touch()
		s.Mu.Unlock()
		r.logger.WithFields(logrus.Fields{"code": code, "player": playerID}).Info("player reconnected")
		return s
	}
	return nil
}

// Sweep evicts sessions with no activity for longer than timeout and returns
// how many were removed. Lobby-phase sessions already die when their last
// member leaves; this covers abandoned games, which are otherwise never
// deleted.
func (r *Registry) Sweep(timeout time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-timeout)
	evicted := 0
	for code, s := range r.sessions {
		s.Mu.Lock()
		idle := s.LastActive.Before(cutoff)
		s.Mu.Unlock()
		if idle {
			delete(r.sessions, code)
			evicted++
			r.logger.WithField("code", code).Info("session evicted after idle timeout")
		}
	}
	return evicted
}

// Janitor runs Sweep on a fixed interval until ctx is cancelled.
func (r *Registry) Janitor(ctx context.Context, interval, timeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(timeout)
		}
	}
}
