package game

import "math/rand"

// Card is one face-down slot in the deck. Values are public knowledge
// (always the permutation of 1..DeckSize); revealing a card only
// synchronizes which values are out.
type Card struct {
	Value    int  `json:"value"`
	Revealed bool `json:"revealed"`
}

// NewDeck returns a uniformly shuffled permutation of [1..size], all face
// down. Reveals consume the deck front to back, so the shuffle alone decides
// the reveal order.
func NewDeck(size int) []Card {
	deck := make([]Card, size)
	for i := range deck {
		deck[i] = Card{Value: i + 1}
	}
	rand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// RevealedValues collects the values of all opened cards.
func RevealedValues(deck []Card) []int {
	out := make([]int, 0, len(deck))
	for _, c := range deck {
		if c.Revealed {
			out = append(out, c.Value)
		}
	}
	return out
}

// Values flattens the deck into its value order, revealed or not.
func Values(deck []Card) []int {
	out := make([]int, len(deck))
	for i, c := range deck {
		out[i] = c.Value
	}
	return out
}
