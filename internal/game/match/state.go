// Package match holds the mutable data model of a single match: players,
// zones, tokens, tiles, timers, and the reaction-window context. The state is
// owned exclusively by the engine and mutated only inside its action and
// tick entry points; collaborators see read-only snapshots.
package match

import (
	"fmt"
	"math/rand"

	"github.com/hexturf/turf-server-go/internal/game/hex"
)

// Tile is one board cell. Occupied ⇔ Occupant != "".
type Tile struct {
	At          hex.Hex
	Owner       string
	Occupant    string
	Turf        bool
	LayerOffset float64
}

// Occupied reports whether a token stands on the tile.
func (t *Tile) Occupied() bool {
	return t.Occupant != ""
}

// Target names what an ability is aimed at. Zero fields mean "no target of
// that sort"; handlers validate the combination they need.
type Target struct {
	TokenID  string
	CardID   string
	PlayerID string
	At       hex.Hex
	HasHex   bool
}

// PendingAbility is an ability play held inside a reaction window. It
// resolves when the window closes, unless negated.
type PendingAbility struct {
	CardID    string
	AbilityID string
	Owner     string
	Target    Target
}

// ReactionContext tracks the single open reaction window.
type ReactionContext struct {
	WindowID  string
	Initiator string
	Responder string
	Remaining float64
	// PriorPhase is the turn phase to resume when the window closes.
	PriorPhase Phase
	Pending    PendingAbility
	Negated    bool
	// ResponderActed is set once the responder has played a reactive card
	// or dismissed; a window accepts at most one response.
	ResponderActed bool
	// HandoffFrom holds the player whose turn ended while this window (or
	// one it queued behind) was open. The turn hand-off is performed after
	// the window and its queue fully close.
	HandoffFrom string
}

// State is the complete mutable state of one match.
type State struct {
	ID     string
	Seed   int64
	Radius int

	Phase   Phase
	Players map[string]*Player
	// Order is seat order; Order[0] moves in PhasePlayerTurn and Order[1]
	// in PhaseOpponentTurn.
	Order  []string
	Tiles  map[hex.Hex]*Tile
	Tokens map[string]*Token

	Active     string
	DeployUsed bool

	// Countdowns are remaining-time fields driven by Advance; Clock is the
	// elapsed match clock used for status expiry and cooldowns.
	TurnRemaining float64
	GameRemaining float64
	Clock         float64

	Reaction *ReactionContext
	// ReactionQueue holds triggers that fired while a window was open; they
	// are processed in order after the active window closes.
	ReactionQueue []PendingAbility

	RNG *rand.Rand
}

// New creates an empty match state with a generated board of the given
// radius and a seeded rng. Players are added by the engine during setup.
func New(id string, seed int64, radius int, stairStep float64) *State {
	st := &State{
		ID:      id,
		Seed:    seed,
		Radius:  radius,
		Phase:   PhaseSetup,
		Players: make(map[string]*Player, 2),
		Tiles:   make(map[hex.Hex]*Tile),
		Tokens:  make(map[string]*Token),
		RNG:     rand.New(rand.NewSource(seed)),
	}
	for _, cell := range hex.Grid(radius, stairStep) {
		st.Tiles[cell.At] = &Tile{At: cell.At, LayerOffset: cell.LayerOffset}
	}
	return st
}

// TileAt looks up the tile at h; ok is false outside the grid.
func (st *State) TileAt(h hex.Hex) (*Tile, bool) {
	tile, ok := st.Tiles[h]
	return tile, ok
}

// TokenAt returns the token standing on h, if any.
func (st *State) TokenAt(h hex.Hex) (*Token, bool) {
	tile, ok := st.Tiles[h]
	if !ok || tile.Occupant == "" {
		return nil, false
	}
	tok, ok := st.Tokens[tile.Occupant]
	return tok, ok
}

// Opponent returns the other seat's player id.
func (st *State) Opponent(playerID string) string {
	for _, id := range st.Order {
		if id != playerID {
			return id
		}
	}
	return ""
}

// TurnHolder returns the player id that moves in the given turn phase.
func (st *State) TurnHolder(phase Phase) string {
	switch phase {
	case PhasePlayerTurn:
		return st.Order[0]
	case PhaseOpponentTurn:
		return st.Order[1]
	}
	return ""
}

// TurnPhaseOf returns the turn phase in which the given player moves.
func (st *State) TurnPhaseOf(playerID string) Phase {
	if len(st.Order) > 0 && st.Order[0] == playerID {
		return PhasePlayerTurn
	}
	return PhaseOpponentTurn
}

// HasLivingAlpha reports whether the player currently has an Alpha token on
// the board.
func (st *State) HasLivingAlpha(playerID string) bool {
	for _, tok := range st.Tokens {
		if tok.Owner == playerID && tok.IsAlpha() {
			return true
		}
	}
	return false
}

// PlaceToken puts a token on the board, claiming its tile for the owner.
// The destination must exist and be empty; callers handle capture first.
func (st *State) PlaceToken(tok *Token, at hex.Hex) error {
	tile, ok := st.Tiles[at]
	if !ok {
		return fmt.Errorf("no tile at %s", at)
	}
	if tile.Occupied() {
		return fmt.Errorf("tile %s already occupied by %s", at, tile.Occupant)
	}
	tok.At = at
	st.Tokens[tok.ID] = tok
	tile.Occupant = tok.ID
	tile.Owner = tok.Owner
	return nil
}

// RemoveToken deletes a token and clears its tile's occupant. Tile ownership
// is retained: ground once claimed stays claimed until an opposing token
// stands on it.
func (st *State) RemoveToken(tokenID string) (*Token, bool) {
	tok, ok := st.Tokens[tokenID]
	if !ok {
		return nil, false
	}
	if tile, ok := st.Tiles[tok.At]; ok && tile.Occupant == tokenID {
		tile.Occupant = ""
	}
	delete(st.Tokens, tokenID)
	return tok, true
}

// MoveToken relocates a token to an empty destination tile, claiming it.
func (st *State) MoveToken(tokenID string, to hex.Hex) error {
	tok, ok := st.Tokens[tokenID]
	if !ok {
		return fmt.Errorf("no token %s", tokenID)
	}
	dest, ok := st.Tiles[to]
	if !ok {
		return fmt.Errorf("no tile at %s", to)
	}
	if dest.Occupied() {
		return fmt.Errorf("tile %s already occupied by %s", to, dest.Occupant)
	}
	if from, ok := st.Tiles[tok.At]; ok && from.Occupant == tokenID {
		from.Occupant = ""
	}
	tok.At = to
	dest.Occupant = tokenID
	dest.Owner = tok.Owner
	return nil
}

// PurgeExpiredStatuses clears statuses that have reached expiry on every
// living token.
func (st *State) PurgeExpiredStatuses() {
	for _, tok := range st.Tokens {
		tok.PurgeExpired(st.Clock)
	}
}

// CheckInvariants verifies structural invariants that must hold between
// engine entry points. Violations are programming defects; the test suites
// call this after every scenario.
func (st *State) CheckInvariants() error {
	for at, tile := range st.Tiles {
		if tile.At != at {
			return fmt.Errorf("tile key %s disagrees with tile coordinate %s", at, tile.At)
		}
		if tile.Occupant != "" {
			tok, ok := st.Tokens[tile.Occupant]
			if !ok {
				return fmt.Errorf("tile %s references missing token %s", at, tile.Occupant)
			}
			if tok.At != at {
				return fmt.Errorf("token %s thinks it is at %s but occupies tile %s", tok.ID, tok.At, at)
			}
		}
	}
	for id, tok := range st.Tokens {
		tile, ok := st.Tiles[tok.At]
		if !ok {
			return fmt.Errorf("token %s stands outside the grid at %s", id, tok.At)
		}
		if tile.Occupant != id {
			return fmt.Errorf("token %s at %s is not the tile occupant (%q)", id, tok.At, tile.Occupant)
		}
	}
	for _, playerID := range st.Order {
		alphas := 0
		for _, tok := range st.Tokens {
			if tok.Owner == playerID && tok.IsAlpha() {
				alphas++
			}
		}
		if alphas > 1 {
			return fmt.Errorf("player %s has %d living Alpha tokens", playerID, alphas)
		}
	}
	return nil
}
