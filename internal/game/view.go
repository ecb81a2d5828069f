package game

import (
	"fmt"
	"sort"

	hexgrid "github.com/hexturf/turf-server-go/internal/game/hex"
	"github.com/hexturf/turf-server-go/internal/game/match"
)

// MatchView is the read-only projection of a match for one player. Hidden
// information (the opponent's hand and deck contents, both turf assignments
// except the viewer's own) is reduced to counts.
type MatchView struct {
	MatchID       string       `json:"match_id"`
	Phase         string       `json:"phase"`
	Active        string       `json:"active"`
	DeployUsed    bool         `json:"deploy_used"`
	TurnRemaining float64      `json:"turn_remaining"`
	GameRemaining float64      `json:"game_remaining"`
	Clock         float64      `json:"clock"`
	You           PlayerView   `json:"you"`
	Opponent      OpponentView `json:"opponent"`
	Tiles         []TileView   `json:"tiles"`
	Tokens        []TokenView  `json:"tokens"`
	Reaction      *WindowView  `json:"reaction,omitempty"`
}

// PlayerView is the viewer's own side, hand included.
type PlayerView struct {
	PlayerID     string        `json:"player_id"`
	Name         string        `json:"name"`
	LeaderID     string        `json:"leader_id,omitempty"`
	Hand         []CardView    `json:"hand"`
	DeckCount    int           `json:"deck_count"`
	Discard      []CardView    `json:"discard"`
	Turfs        []hexgrid.Hex `json:"turfs"`
	SkillReadyAt float64       `json:"skill_ready_at"`
}

// OpponentView exposes only public opponent information. Turf progress stays
// hidden on both sides until game end.
type OpponentView struct {
	PlayerID     string     `json:"player_id"`
	Name         string     `json:"name"`
	LeaderID     string     `json:"leader_id,omitempty"`
	HandCount    int        `json:"hand_count"`
	DeckCount    int        `json:"deck_count"`
	Discard      []CardView `json:"discard"`
	SkillReadyAt float64    `json:"skill_ready_at"`
}

// CardView is a card instance with its definition id.
type CardView struct {
	ID    string `json:"id"`
	DefID string `json:"def_id"`
}

// TileView is one board cell, renderer-ready with its anchor position.
type TileView struct {
	At       hexgrid.Hex    `json:"at"`
	Anchor   hexgrid.Anchor `json:"anchor"`
	Owner    string         `json:"owner,omitempty"`
	Occupant string         `json:"occupant,omitempty"`
	// Turf is only revealed for the viewer's own turf hexes; other turf
	// assignments stay hidden until game end.
	Turf bool `json:"turf,omitempty"`
}

// TokenView is one token on the board.
type TokenView struct {
	ID       string      `json:"id"`
	DefID    string      `json:"def_id"`
	Level    int         `json:"level"`
	Owner    string      `json:"owner"`
	At       hexgrid.Hex `json:"at"`
	Statuses []string    `json:"statuses,omitempty"`
}

// WindowView is the open reaction window as both sides may see it.
type WindowView struct {
	WindowID  string  `json:"window_id"`
	Initiator string  `json:"initiator"`
	Responder string  `json:"responder"`
	Remaining float64 `json:"remaining"`
	CardID    string  `json:"card_id,omitempty"`
	Negated   bool    `json:"negated"`
}

// View builds the read-only projection of a match for playerID.
func (e *Engine) View(matchID, playerID string) (*MatchView, error) {
	rt, err := e.runtime(matchID)
	if err != nil {
		return nil, err
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	st := rt.st

	player, ok := st.Players[playerID]
	if !ok {
		return nil, fmt.Errorf("player %s is not in match %s", playerID, matchID)
	}
	opponentID := st.Opponent(playerID)
	opponent := st.Players[opponentID]

	view := &MatchView{
		MatchID:       st.ID,
		Phase:         st.Phase.String(),
		Active:        st.Active,
		DeployUsed:    st.DeployUsed,
		TurnRemaining: st.TurnRemaining,
		GameRemaining: st.GameRemaining,
		Clock:         st.Clock,
		You: PlayerView{
			PlayerID:     player.ID,
			Name:         player.Name,
			LeaderID:     player.LeaderID,
			Hand:         cardViews(player.Hand),
			DeckCount:    len(player.Deck),
			Discard:      cardViews(player.Discard),
			Turfs:        append([]hexgrid.Hex(nil), player.Turfs...),
			SkillReadyAt: player.SkillReadyAt,
		},
		Opponent: OpponentView{
			PlayerID:     opponent.ID,
			Name:         opponent.Name,
			LeaderID:     opponent.LeaderID,
			HandCount:    len(opponent.Hand),
			DeckCount:    len(opponent.Deck),
			Discard:      cardViews(opponent.Discard),
			SkillReadyAt: opponent.SkillReadyAt,
		},
	}

	ownTurf := make(map[hexgrid.Hex]bool, len(player.Turfs))
	for _, at := range player.Turfs {
		ownTurf[at] = true
	}

	view.Tiles = make([]TileView, 0, len(st.Tiles))
	for _, tile := range st.Tiles {
		view.Tiles = append(view.Tiles, TileView{
			At:       tile.At,
			Anchor:   tile.At.ToAnchor(tile.LayerOffset),
			Owner:    tile.Owner,
			Occupant: tile.Occupant,
			Turf:     ownTurf[tile.At],
		})
	}
	sort.Slice(view.Tiles, func(i, j int) bool {
		if view.Tiles[i].At.Q != view.Tiles[j].At.Q {
			return view.Tiles[i].At.Q < view.Tiles[j].At.Q
		}
		return view.Tiles[i].At.R < view.Tiles[j].At.R
	})

	view.Tokens = make([]TokenView, 0, len(st.Tokens))
	for _, tok := range st.Tokens {
		tv := TokenView{
			ID:    tok.ID,
			DefID: tok.DefID,
			Level: tok.Level,
			Owner: tok.Owner,
			At:    tok.At,
		}
		for _, status := range tok.Statuses {
			if status.ExpiresAt > st.Clock {
				tv.Statuses = append(tv.Statuses, string(status.Kind))
			}
		}
		view.Tokens = append(view.Tokens, tv)
	}
	sort.Slice(view.Tokens, func(i, j int) bool { return view.Tokens[i].ID < view.Tokens[j].ID })

	if st.Reaction != nil {
		view.Reaction = &WindowView{
			WindowID:  st.Reaction.WindowID,
			Initiator: st.Reaction.Initiator,
			Responder: st.Reaction.Responder,
			Remaining: st.Reaction.Remaining,
			CardID:    st.Reaction.Pending.CardID,
			Negated:   st.Reaction.Negated,
		}
	}
	return view, nil
}

func cardViews(cards []*match.Card) []CardView {
	out := make([]CardView, len(cards))
	for i, card := range cards {
		out[i] = CardView{ID: card.ID, DefID: card.DefID}
	}
	return out
}
