package match

import "fmt"

// Phase represents the top-level states of a match.
type Phase int

const (
	PhaseSetup Phase = iota
	PhasePlayerTurn
	PhaseOpponentTurn
	PhaseReaction
	PhaseGameEnd
)

var phaseNames = map[Phase]string{
	PhaseSetup:        "SETUP",
	PhasePlayerTurn:   "PLAYER_TURN",
	PhaseOpponentTurn: "OPPONENT_TURN",
	PhaseReaction:     "REACTION",
	PhaseGameEnd:      "GAME_END",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// IsTurn reports whether the phase is one of the two turn-holding states.
func (p Phase) IsTurn() bool {
	return p == PhasePlayerTurn || p == PhaseOpponentTurn
}
