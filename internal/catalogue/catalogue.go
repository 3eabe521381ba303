// internal/catalogue/catalogue.go
package catalogue

import "fmt"

// Symbol is one of the eight clue symbols printed on character cards.
type Symbol string

const (
	SymbolFajka     Symbol = "fajka"
	SymbolZarowka   Symbol = "zarowka"
	SymbolPiesc     Symbol = "piesc"
	SymbolOdznaka   Symbol = "odznaka"
	SymbolKsiazka   Symbol = "ksiazka"
	SymbolNaszyjnik Symbol = "naszyjnik"
	SymbolOko       Symbol = "oko"
	SymbolCzaszka   Symbol = "czaszka"
)

// Card is a single character card from the deck.
type Card struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Symbols []Symbol `json:"symbols"`
}

// HasSymbol reports whether the card bears the given symbol. Each card carries
// a symbol at most once.
func (c Card) HasSymbol(sym Symbol) bool {
	for _, s := range c.Symbols {
		if s == sym {
			return true
		}
	}
	return false
}

// Catalogue is the fixed list of character cards plus the declared total count
// of each symbol across the whole deck. It is immutable for the process
// lifetime; every session deals from the same catalogue.
type Catalogue struct {
	Cards        []Card
	SymbolTotals map[Symbol]int
}

// Default returns the official 13-character catalogue.
func Default() *Catalogue {
	return &Catalogue{
		Cards: []Card{
			{ID: 1, Name: "Sebastian Moran", Symbols: []Symbol{SymbolCzaszka, SymbolPiesc}},
			{ID: 2, Name: "Irene Adler", Symbols: []Symbol{SymbolCzaszka, SymbolZarowka, SymbolNaszyjnik}},
			{ID: 3, Name: "Inspector G. Lestrade", Symbols: []Symbol{SymbolOdznaka, SymbolOko, SymbolKsiazka}},
			{ID: 4, Name: "Inspector Gregson", Symbols: []Symbol{SymbolOdznaka, SymbolPiesc, SymbolKsiazka}},
			{ID: 5, Name: "Inspector Baynes", Symbols: []Symbol{SymbolZarowka, SymbolOdznaka}},
			{ID: 6, Name: "Inspector Bradstreet", Symbols: []Symbol{SymbolPiesc, SymbolOdznaka}},
			{ID: 7, Name: "Inspector Hopkins", Symbols: []Symbol{SymbolOdznaka, SymbolFajka, SymbolOko}},
			{ID: 8, Name: "Sherlock Holmes", Symbols: []Symbol{SymbolFajka, SymbolZarowka, SymbolPiesc}},
			{ID: 9, Name: "John H. Watson", Symbols: []Symbol{SymbolFajka, SymbolOko, SymbolPiesc}},
			{ID: 10, Name: "Mycroft Holmes", Symbols: []Symbol{SymbolFajka, SymbolZarowka, SymbolKsiazka}},
			{ID: 11, Name: "Mrs. Hudson", Symbols: []Symbol{SymbolFajka, SymbolNaszyjnik}},
			{ID: 12, Name: "Mary Morstan", Symbols: []Symbol{SymbolKsiazka, SymbolNaszyjnik}},
			{ID: 13, Name: "James Moriarty", Symbols: []Symbol{SymbolCzaszka, SymbolZarowka}},
		},
		SymbolTotals: map[Symbol]int{
			SymbolFajka:     5,
			SymbolZarowka:   5,
			SymbolPiesc:     5,
			SymbolOdznaka:   5,
			SymbolKsiazka:   4,
			SymbolNaszyjnik: 3,
			SymbolOko:       3,
			SymbolCzaszka:   3,
		},
	}
}

// Size returns the number of cards in the catalogue.
func (c *Catalogue) Size() int {
	return len(c.Cards)
}

// CardByID looks up a card by its numeric id.
func (c *Catalogue) CardByID(id int) (Card, bool) {
	for _, card := range c.Cards {
		if card.ID == id {
			return card, true
		}
	}
	return Card{}, false
}

// Validate checks that every card bears at least one symbol and that the
// multiset of symbols across all cards matches the declared per-symbol totals.
func (c *Catalogue) Validate() error {
	counts := make(map[Symbol]int, len(c.SymbolTotals))
	for _, card := range c.Cards {
		if len(card.Symbols) == 0 {
			return fmt.Errorf("card %d (%s) has no symbols", card.ID, card.Name)
		}
		for _, s := range card.Symbols {
			counts[s]++
		}
	}
	for sym, want := range c.SymbolTotals {
		if counts[sym] != want {
			return fmt.Errorf("symbol %q appears %d times, declared total is %d", sym, counts[sym], want)
		}
	}
	for sym := range counts {
		if _, ok := c.SymbolTotals[sym]; !ok {
			return fmt.Errorf("symbol %q appears on cards but has no declared total", sym)
		}
	}
	return nil
}

// CountSymbol sums occurrences of sym across a hand. A single card contributes
// at most one occurrence, so the result is the number of cards bearing sym.
func CountSymbol(hand []Card, sym Symbol) int {
	n := 0
	for _, card := range hand {
		if card.HasSymbol(sym) {
			n++
		}
	}
	return n
}
