package rules

import (
	"testing"

	"github.com/hexturf/turf-server-go/internal/game/match"
)

func newTurnState(deckSize int) *match.State {
	st := match.New("m1", 11, 2, 0.25)
	st.Order = []string{"alice", "bob"}
	alice := &match.Player{ID: "alice"}
	for i := 0; i < deckSize; i++ {
		alice.Deck = append(alice.Deck, &match.Card{ID: cardID(i), Owner: "alice"})
	}
	st.Players["alice"] = alice
	st.Players["bob"] = &match.Player{ID: "bob"}
	return st
}

func cardID(i int) string {
	return string(rune('a'+i)) + "-card"
}

func TestBeginDrawsExactlyOne(t *testing.T) {
	st := newTurnState(3)
	tc := NewTurnController(60, 5)
	bus := NewEventBus()

	var drawn, turnStarts int
	bus.SubscribeTyped(EventCardDrawn, func(Event) { drawn++ })
	bus.SubscribeTyped(EventTurnStarted, func(Event) { turnStarts++ })

	tc.Begin(st, "alice", bus)

	if drawn != 1 || turnStarts != 1 {
		t.Fatalf("expected 1 draw and 1 turn start, got %d/%d", drawn, turnStarts)
	}
	if len(st.Players["alice"].Hand) != 1 || len(st.Players["alice"].Deck) != 2 {
		t.Fatal("begin should move exactly one card from deck to hand")
	}
	if st.DeployUsed {
		t.Fatal("deploy flag must reset on turn entry")
	}
	if st.TurnRemaining != 60 {
		t.Fatalf("countdown should start at the limit, got %f", st.TurnRemaining)
	}
}

func TestBeginOnEmptyDeckSignalsNoOp(t *testing.T) {
	st := newTurnState(0)
	tc := NewTurnController(60, 5)
	bus := NewEventBus()

	var empty int
	bus.SubscribeTyped(EventEmptyDeck, func(Event) { empty++ })

	tc.Begin(st, "alice", bus)

	if empty != 1 {
		t.Fatalf("expected EMPTY_DECK signal, got %d", empty)
	}
	if len(st.Players["alice"].Hand) != 0 {
		t.Fatal("empty deck draw must not add cards")
	}
}

func TestSingleDeployPerTurn(t *testing.T) {
	st := newTurnState(1)
	tc := NewTurnController(60, 5)

	if reason := tc.UseDeploy(st); reason != match.ReasonNone {
		t.Fatalf("first deploy should be allowed, got %s", reason)
	}
	if reason := tc.UseDeploy(st); reason != match.ReasonDeployAlreadyUsed {
		t.Fatalf("second deploy must be rejected, got %q", reason)
	}

	tc.UnuseDeploy(st)
	if reason := tc.UseDeploy(st); reason != match.ReasonNone {
		t.Fatal("allowance should be restored after a failed play")
	}
}

func TestTickFiresExactlyOnceOnOvershoot(t *testing.T) {
	st := newTurnState(1)
	tc := NewTurnController(60, 5)
	bus := NewEventBus()
	tc.Begin(st, "alice", bus)

	if tc.Tick(st, 59) {
		t.Fatal("countdown should not expire at 1 remaining")
	}
	if !tc.Tick(st, 500) {
		t.Fatal("overshooting tick must report expiry")
	}
	if tc.Tick(st, 500) {
		t.Fatal("expiry must fire exactly once")
	}
	if st.TurnRemaining != 0 {
		t.Fatalf("remaining time clamps at zero, got %f", st.TurnRemaining)
	}
}

func TestTickExactZero(t *testing.T) {
	st := newTurnState(1)
	tc := NewTurnController(60, 5)
	bus := NewEventBus()
	tc.Begin(st, "alice", bus)

	if !tc.Tick(st, 60) {
		t.Fatal("reaching exactly zero must trigger expiry")
	}
	if tc.Tick(st, 0.001) {
		t.Fatal("expiry must not fire twice")
	}
}

func TestEndEnforcesHandLimitFromTail(t *testing.T) {
	st := newTurnState(0)
	alice := st.Players["alice"]
	for i := 0; i < 8; i++ {
		alice.Hand = append(alice.Hand, &match.Card{ID: cardID(i), Owner: "alice"})
	}
	tc := NewTurnController(60, 5)
	bus := NewEventBus()

	discarded := tc.End(st, "alice", bus)

	if len(alice.Hand) != 5 {
		t.Fatalf("hand must shrink to exactly 5, got %d", len(alice.Hand))
	}
	if len(discarded) != 3 {
		t.Fatalf("expected 3 discards, got %d", len(discarded))
	}
	// Most recently added first.
	if discarded[0].ID != cardID(7) || discarded[1].ID != cardID(6) || discarded[2].ID != cardID(5) {
		t.Fatalf("discard order wrong: %v", []string{discarded[0].ID, discarded[1].ID, discarded[2].ID})
	}
}

func TestEndWithinLimitDiscardsNothing(t *testing.T) {
	st := newTurnState(0)
	alice := st.Players["alice"]
	for i := 0; i < 4; i++ {
		alice.Hand = append(alice.Hand, &match.Card{ID: cardID(i), Owner: "alice"})
	}
	tc := NewTurnController(60, 5)

	if discarded := tc.End(st, "alice", NewEventBus()); len(discarded) != 0 {
		t.Fatalf("no discard expected, got %d", len(discarded))
	}
}
