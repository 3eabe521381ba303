// internal/session/resolver.go
package session

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jswiatek/sherlock13/internal/catalogue"
	"github.com/jswiatek/sherlock13/internal/models"
)

// ActionType enumerates the actions a player may submit during a game.
type ActionType string

const (
	// ActionInvestigation asks every other active player whether they hold a
	// symbol; answers are presence-only, never counts.
	ActionInvestigation ActionType = "investigation"
	// ActionInterrogation asks one player exactly how many of a symbol they
	// hold; the numeric answer is public.
	ActionInterrogation ActionType = "interrogation"
	// ActionAccusation names a card as the culprit. A wrong guess eliminates
	// the accuser; a correct one ends the game.
	ActionAccusation ActionType = "accusation"
	// ActionChat relays a message to the room. It never consumes the turn and
	// is allowed for eliminated players.
	ActionChat ActionType = "chat"
)

// Valid reports whether t is one of the four playable action types.
func (t ActionType) Valid() bool {
	switch t {
	case ActionInvestigation, ActionInterrogation, ActionAccusation, ActionChat:
		return true
	}
	return false
}

// Action is one inbound game action, already decoded from the wire.
type Action struct {
	Type     ActionType
	Symbol   catalogue.Symbol
	TargetID uuid.UUID
	CardID   int
	Message  string
}

// StartGame runs the LOBBY -> PLAYING transition: shuffle the catalogue,
// withhold one culprit, deal equal contiguous chunks in roster order, and fix
// the turn order. Only the host may trigger it, with at least MinPlayers in
// the roster. Leftover cards after equal chunks are used by no one.
func (r *Registry) StartGame(code string, playerID uuid.UUID) []Envelope {
	s, ok := r.Get(code)
	if !ok {
		return []Envelope{errorTo(playerID, "Session not found.")}
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.HostID != playerID {
		return []Envelope{errorTo(playerID, "Only the host can start the game.")}
	}
	if s.Phase != PhaseLobby {
		return []Envelope{errorTo(playerID, "The game has already started.")}
	}
	if len(s.Players) < MinPlayers {
		return []Envelope{errorTo(playerID, fmt.Sprintf("At least %d players are needed to start.", MinPlayers))}
	}

	deck := make([]catalogue.Card, len(r.cat.Cards))
	copy(deck, r.cat.Cards)
	r.rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	culprit := deck[len(deck)-1]
	deck = deck[:len(deck)-1]
	s.Culprit = &culprit

	cardsPerPlayer := len(deck) / len(s.Players)
	for i, p := range s.Players {
		hand := make([]catalogue.Card, cardsPerPlayer)
		copy(hand, deck[i*cardsPerPlayer:(i+1)*cardsPerPlayer])
		p.Hand = hand
	}

	s.TurnOrder = make([]uuid.UUID, 0, len(s.Players))
	for _, p := range s.Players {
		s.TurnOrder = append(s.TurnOrder, p.ID)
	}
	s.CurrentIndex = 0
	s.Phase = PhasePlaying
	s.appendLog(fmt.Sprintf("Game started with %d players.", len(s.Players)), models.LogSystem)
	s.touch()

	r.logger.WithFields(logrus.Fields{
		"code":    code,
		"players": len(s.Players),
		"dealt":   cardsPerPlayer,
	}).Info("game started")

	envs := []Envelope{toRoom(code, gameStartedMsg(s))}
	for _, p := range s.Players {
		envs = append(envs, toPlayer(p.ID, yourHandMsg(p)))
	}
	return envs
}

// HandleAction validates and applies one game action. A rejected action
// produces at most an error envelope for the offender and leaves the session
// unchanged. Chat skips the turn preconditions entirely.
func (r *Registry) HandleAction(code string, playerID uuid.UUID, act Action) []Envelope {
	s, ok := r.Get(code)
	if !ok {
		r.logger.WithField("code", code).Debug("action for unknown session dropped")
		return nil
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	player := s.playerByID(playerID)
	if player == nil {
		r.logger.WithFields(logrus.Fields{"code": code, "player": playerID}).Debug("action from non-member dropped")
		return nil
	}

	s.touch()

	if act.Type == ActionChat {
		return []Envelope{toRoom(code, chatMessageMsg(player.Name, act.Message))}
	}

	// Turn preconditions, checked for every non-chat action.
	if s.Phase != PhasePlaying {
		return []Envelope{errorTo(playerID, "The game is not in progress.")}
	}
	if s.currentPlayerID() != playerID {
		return []Envelope{errorTo(playerID, "It is not your turn.")}
	}
	if player.Eliminated {
		return []Envelope{errorTo(playerID, "You are eliminated and cannot act.")}
	}

	switch act.Type {
	case ActionInvestigation:
		return s.resolveInvestigation(player, act.Symbol)
	case ActionInterrogation:
		return s.resolveInterrogation(player, act.TargetID, act.Symbol)
	case ActionAccusation:
		return s.resolveAccusation(r.cat, player, act.CardID)
	default:
		return []Envelope{errorTo(playerID, fmt.Sprintf("Unknown action type: %s", act.Type))}
	}
}

// resolveInvestigation answers a broadcast query: which other active players
// hold a card bearing the symbol. Only presence is disclosed, never counts.
// Caller holds s.Mu.
func (s *Session) resolveInvestigation(asker *models.Player, sym catalogue.Symbol) []Envelope {
	s.appendLog(fmt.Sprintf("%s asks: \"Who has the symbol %s?\"", asker.Name, sym), models.LogInvestigation)

	var responders []string
	for _, p := range s.Players {
		if p.ID == asker.ID || p.Eliminated {
			continue
		}
		if catalogue.CountSymbol(p.Hand, sym) > 0 {
			responders = append(responders, p.Name)
		}
	}

	if len(responders) > 0 {
		s.appendLog(fmt.Sprintf("%s raised their hand.", strings.Join(responders, ", ")), models.LogResponse)
	} else {
		s.appendLog("Nobody raised their hand.", models.LogResponseEmpty)
	}

	return s.advanceTurn()
}

// resolveInterrogation answers a targeted query with an exact count, which is
// public. An unknown target is silently ignored: no state change, no error,
// turn not consumed. Caller holds s.Mu.
func (s *Session) resolveInterrogation(asker *models.Player, targetID uuid.UUID, sym catalogue.Symbol) []Envelope {
	target := s.playerByID(targetID)
	if target == nil {
		return nil
	}

	count := catalogue.CountSymbol(target.Hand, sym)
	s.appendLog(fmt.Sprintf("%s asks %s: \"How many %s symbols do you have?\"", asker.Name, target.Name, sym), models.LogInterrogation)
	s.appendLog(fmt.Sprintf("%s answers: \"%d\"", target.Name, count), models.LogResponse)

	return s.advanceTurn()
}

// resolveAccusation checks the named card against the culprit. Caller holds
// s.Mu.
func (s *Session) resolveAccusation(cat *catalogue.Catalogue, accuser *models.Player, cardID int) []Envelope {
	suspect, ok := cat.CardByID(cardID)
	if !ok {
		return []Envelope{errorTo(accuser.ID, "Unknown card.")}
	}

	s.appendLog(fmt.Sprintf("%s accuses: %s", accuser.Name, suspect.Name), models.LogAccusation)

	if s.Culprit.ID == suspect.ID {
		s.Phase = PhaseGameOver
		s.WinnerID = accuser.ID
		return []Envelope{toRoom(s.Code, gameOverMsg(accuser.Name, *s.Culprit))}
	}

	accuser.Eliminated = true
	s.appendLog(fmt.Sprintf("WRONG! %s is out of the game.", accuser.Name), models.LogFailure)
	envs := []Envelope{errorTo(accuser.ID, "That is not the culprit. You are out of the game!")}

	if active := s.activePlayers(); len(active) == 1 {
		s.Phase = PhaseGameOver
		s.WinnerID = active[0].ID
		return append(envs, toRoom(s.Code, gameOverMsg(active[0].Name, *s.Culprit)))
	}

	return append(envs, s.advanceTurn()...)
}

// advanceTurn moves CurrentIndex to the next non-eliminated seat and emits
// the room stateUpdate. Caller holds s.Mu and has verified the game is still
// in progress.
func (s *Session) advanceTurn() []Envelope {
	eliminated := make(map[uuid.UUID]bool, len(s.Players))
	for _, p := range s.Players {
		if p.Eliminated {
			eliminated[p.ID] = true
		}
	}
	s.CurrentIndex = nextTurnIndex(s.TurnOrder, eliminated, s.CurrentIndex)
	return []Envelope{toRoom(s.Code, stateUpdateMsg(s))}
}

// nextTurnIndex returns the seat after current, skipping eliminated
// occupants. The scan is bounded to a single lap so it terminates even in the
// unreachable case where every seat is eliminated.
func nextTurnIndex(turnOrder []uuid.UUID, eliminated map[uuid.UUID]bool, current int) int {
	next := (current + 1) % len(turnOrder)
	for lap := 0; eliminated[turnOrder[next]] && lap < len(turnOrder); lap++ {
		next = (next + 1) % len(turnOrder)
	}
	return next
}
