package game

import "fmt"

// RevealMode selects how cards get opened during a round.
type RevealMode string

const (
	RevealAuto   RevealMode = "auto"   // one card per fixed tick, no player action
	RevealManual RevealMode = "manual" // current-turn player must request each reveal
)

func (m RevealMode) Valid() bool {
	return m == RevealAuto || m == RevealManual
}

// Mode fixes the shape of a round: how many cards are in the deck, how many
// numbers each player must pick, and the entry stake.
type Mode struct {
	Name        string  `json:"name"`
	DeckSize    int     `json:"deck_size"`
	TargetCount int     `json:"target_count"`
	Stake       float64 `json:"stake"`
}

// Modes players can open a room with. Stakes follow the tuned RTP tables.
var Modes = []Mode{
	{Name: "2/4", DeckSize: 4, TargetCount: 2, Stake: 50},
	{Name: "4/10", DeckSize: 10, TargetCount: 4, Stake: 100},
	{Name: "6/20", DeckSize: 20, TargetCount: 6, Stake: 500},
	{Name: "6/40", DeckSize: 40, TargetCount: 6, Stake: 500},
}

// ModeByName resolves a mode preset, e.g. "6/40".
func ModeByName(name string) (Mode, error) {
	for _, m := range Modes {
		if m.Name == name {
			return m, nil
		}
	}
	return Mode{}, fmt.Errorf("unknown game mode %q", name)
}

// ValidatePicks checks a player's number selection against the mode: exactly
// TargetCount values, all distinct, all within [1, DeckSize].
func ValidatePicks(numbers []int, mode Mode) error {
	if len(numbers) != mode.TargetCount {
		return fmt.Errorf("selection must contain exactly %d numbers, got %d", mode.TargetCount, len(numbers))
	}
	seen := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		if n < 1 || n > mode.DeckSize {
			return fmt.Errorf("number %d out of range [1, %d]", n, mode.DeckSize)
		}
		if seen[n] {
			return fmt.Errorf("duplicate number %d in selection", n)
		}
		seen[n] = true
	}
	return nil
}
