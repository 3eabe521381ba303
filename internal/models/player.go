package models

import (
	"github.com/google/uuid"

	"github.com/jswiatek/sherlock13/internal/catalogue"
)

// Player is one seat in a session. The hand is dealt once at game start and
// never mutated afterwards; it stays server-private until the game ends.
type Player struct {
	ID         uuid.UUID        `json:"id"`
	Name       string           `json:"name"`
	IsHost     bool             `json:"isHost"`
	Hand       []catalogue.Card `json:"-"`
	Eliminated bool             `json:"eliminated"`
	Connected  bool             `json:"connected"`
}

// NewPlayer returns a connected, non-eliminated player with an empty hand.
func NewPlayer(id uuid.UUID, name string, isHost bool) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		IsHost:    isHost,
		Hand:      []catalogue.Card{},
		Connected: true,
	}
}

// CardCount is public information even while the hand itself is hidden.
func (p *Player) CardCount() int {
	return len(p.Hand)
}
