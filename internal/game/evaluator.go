package game

import "github.com/hexturf/turf-server-go/internal/game/match"

// Verdict is the outcome of win evaluation at game end.
type Verdict struct {
	// Winner is empty when Draw is true.
	Winner     string
	Draw       bool
	TurfCounts map[string]int
	TileCounts map[string]int
}

// EvaluateWinner scores the final board. Primary criterion: how many of a
// player's own turf hexes they hold. Tie break: total owned tiles. Still
// tied: draw. Pure function of the state, repeatable at any time.
func EvaluateWinner(st *match.State) Verdict {
	verdict := Verdict{
		TurfCounts: make(map[string]int, len(st.Order)),
		TileCounts: make(map[string]int, len(st.Order)),
	}
	for _, playerID := range st.Order {
		player := st.Players[playerID]
		for _, at := range player.Turfs {
			if tile, ok := st.Tiles[at]; ok && tile.Owner == playerID {
				verdict.TurfCounts[playerID]++
			}
		}
		for _, tile := range st.Tiles {
			if tile.Owner == playerID {
				verdict.TileCounts[playerID]++
			}
		}
	}

	a, b := st.Order[0], st.Order[1]
	switch {
	case verdict.TurfCounts[a] > verdict.TurfCounts[b]:
		verdict.Winner = a
	case verdict.TurfCounts[b] > verdict.TurfCounts[a]:
		verdict.Winner = b
	case verdict.TileCounts[a] > verdict.TileCounts[b]:
		verdict.Winner = a
	case verdict.TileCounts[b] > verdict.TileCounts[a]:
		verdict.Winner = b
	default:
		verdict.Draw = true
	}
	return verdict
}
