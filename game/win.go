package game

import "math"

// Pick is one player's declared number set, as submitted at ready time.
type Pick struct {
	PlayerID string
	Numbers  []int
}

// Winners returns the ids of every player whose entire pick is contained in
// the revealed value set, preserving pick order. Several players can complete
// on the same reveal; all of them win.
func Winners(revealed []int, picks []Pick) []string {
	set := make(map[int]bool, len(revealed))
	for _, v := range revealed {
		set[v] = true
	}

	var winners []string
	for _, p := range picks {
		if len(p.Numbers) == 0 {
			continue
		}
		complete := true
		for _, n := range p.Numbers {
			if !set[n] {
				complete = false
				break
			}
		}
		if complete {
			winners = append(winners, p.PlayerID)
		}
	}
	return winners
}

// SplitPrize divides the pot evenly between winners, rounding each share
// down. The remainder stays with the house. Zero winners means the whole pot
// is forfeited.
func SplitPrize(pot float64, winnerCount int) float64 {
	if winnerCount <= 0 {
		return 0
	}
	return math.Floor(pot / float64(winnerCount))
}
