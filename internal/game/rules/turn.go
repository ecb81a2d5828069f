package rules

import "github.com/hexturf/turf-server-go/internal/game/match"

// TurnController enforces the per-turn contract: one draw on entry, at most
// one deploy-card play, a countdown that ends the turn exactly once, and the
// hand-size limit on exit.
type TurnController struct {
	TurnLimit float64
	HandLimit int
}

// NewTurnController creates a controller with the configured limits.
func NewTurnController(turnLimit float64, handLimit int) *TurnController {
	return &TurnController{TurnLimit: turnLimit, HandLimit: handLimit}
}

// Begin enters a turn for playerID: resets the deploy-used flag, draws
// exactly one card (a no-op with an EMPTY_DECK signal when the deck is
// empty), and starts the countdown.
func (tc *TurnController) Begin(st *match.State, playerID string, bus *EventBus) {
	st.Active = playerID
	st.DeployUsed = false
	st.TurnRemaining = tc.TurnLimit

	player := st.Players[playerID]
	card, ok := player.DrawOne()
	if !ok {
		bus.Publish(Event{Type: EventEmptyDeck, MatchID: st.ID, PlayerID: playerID})
	} else {
		bus.Publish(Event{Type: EventCardDrawn, MatchID: st.ID, PlayerID: playerID, CardID: card.ID})
		bus.Publish(Event{Type: EventHandChanged, MatchID: st.ID, PlayerID: playerID, Amount: len(player.Hand)})
	}
	bus.Publish(Event{Type: EventTurnStarted, MatchID: st.ID, PlayerID: playerID})
}

// UseDeploy consumes the turn's single deploy-card allowance. The second
// attempt in the same turn is rejected with no state change.
func (tc *TurnController) UseDeploy(st *match.State) match.Reason {
	if st.DeployUsed {
		return match.ReasonDeployAlreadyUsed
	}
	st.DeployUsed = true
	return match.ReasonNone
}

// UnuseDeploy returns the allowance when a deploy play failed after the
// check, keeping "rejected action, state unchanged" true for callers.
func (tc *TurnController) UnuseDeploy(st *match.State) {
	st.DeployUsed = false
}

// End leaves the turn: enforces the hand-size limit by discarding from the
// tail of the hand (most recently added first) until compliant, then stops
// the countdown. Returns the cards discarded on the way out.
func (tc *TurnController) End(st *match.State, playerID string, bus *EventBus) []*match.Card {
	player := st.Players[playerID]
	overflow := len(player.Hand) - tc.HandLimit
	var discarded []*match.Card
	if overflow > 0 {
		discarded = player.DiscardFromTail(overflow)
		for _, card := range discarded {
			bus.Publish(Event{Type: EventCardDiscarded, MatchID: st.ID, PlayerID: playerID, CardID: card.ID})
		}
		bus.Publish(Event{Type: EventHandChanged, MatchID: st.ID, PlayerID: playerID, Amount: len(player.Hand)})
	}
	st.TurnRemaining = 0
	bus.Publish(Event{Type: EventTurnEnded, MatchID: st.ID, PlayerID: playerID})
	return discarded
}

// Tick advances the turn countdown and reports whether it expired on this
// call. The transition from positive to zero fires exactly once, even when
// delta overshoots zero.
func (tc *TurnController) Tick(st *match.State, delta float64) bool {
	if st.TurnRemaining <= 0 {
		return false
	}
	st.TurnRemaining -= delta
	if st.TurnRemaining <= 0 {
		st.TurnRemaining = 0
		return true
	}
	return false
}
