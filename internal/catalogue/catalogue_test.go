// internal/catalogue/catalogue_test.go
package catalogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	cat := Default()
	require.NoError(t, cat.Validate())
	assert.Equal(t, 13, cat.Size())

	total := 0
	for _, n := range cat.SymbolTotals {
		total += n
	}
	assert.Equal(t, 33, total, "33 symbol slots across the deck")
}

func TestCardByID(t *testing.T) {
	cat := Default()

	card, ok := cat.CardByID(13)
	require.True(t, ok)
	assert.Equal(t, "James Moriarty", card.Name)

	_, ok = cat.CardByID(0)
	assert.False(t, ok)
	_, ok = cat.CardByID(14)
	assert.False(t, ok)
}

func TestHasSymbol(t *testing.T) {
	card := Card{ID: 1, Name: "Sebastian Moran", Symbols: []Symbol{SymbolCzaszka, SymbolPiesc}}

	assert.True(t, card.HasSymbol(SymbolCzaszka))
	assert.True(t, card.HasSymbol(SymbolPiesc))
	assert.False(t, card.HasSymbol(SymbolFajka))
}

func TestCountSymbolCountsCardsNotOccurrences(t *testing.T) {
	cat := Default()
	hand := []Card{cat.Cards[0], cat.Cards[1], cat.Cards[7]} // Moran, Adler, Holmes

	assert.Equal(t, 2, CountSymbol(hand, SymbolCzaszka))
	assert.Equal(t, 2, CountSymbol(hand, SymbolPiesc))
	assert.Equal(t, 0, CountSymbol(hand, SymbolKsiazka))
	assert.Equal(t, 0, CountSymbol(nil, SymbolCzaszka))
}

func TestValidateRejectsTamperedTotals(t *testing.T) {
	cat := Default()
	cat.SymbolTotals[SymbolFajka] = 4

	err := cat.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fajka")
}

func TestValidateRejectsSymbollessCard(t *testing.T) {
	cat := Default()
	cat.Cards[4].Symbols = nil

	require.Error(t, cat.Validate())
}

func TestValidateRejectsUndeclaredSymbol(t *testing.T) {
	cat := Default()
	cat.Cards[0].Symbols = append(cat.Cards[0].Symbols, Symbol("lupa"))

	err := cat.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lupa")
}
