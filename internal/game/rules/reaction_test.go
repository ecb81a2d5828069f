package rules

import (
	"testing"

	"github.com/hexturf/turf-server-go/internal/game/match"
)

func newReactionState() *match.State {
	st := match.New("m1", 3, 2, 0.25)
	st.Order = []string{"alice", "bob"}
	st.Players["alice"] = &match.Player{ID: "alice"}
	st.Players["bob"] = &match.Player{ID: "bob"}
	return st
}

func TestOpenAssignsResponderAndDuration(t *testing.T) {
	st := newReactionState()
	rb := NewReactionBroker(10)

	ctx := rb.Open(st, match.PendingAbility{Owner: "alice", AbilityID: "ability.purge"}, match.PhasePlayerTurn)
	if ctx == nil {
		t.Fatal("first trigger should open a window")
	}
	if ctx.Responder != "bob" {
		t.Fatalf("responder must be the non-active player, got %s", ctx.Responder)
	}
	if ctx.Remaining != 10 {
		t.Fatalf("window duration should be the configured limit, got %f", ctx.Remaining)
	}
	if ctx.PriorPhase != match.PhasePlayerTurn {
		t.Fatalf("window must remember the phase to resume, got %s", ctx.PriorPhase)
	}
	if ctx.WindowID == "" {
		t.Fatal("window needs an id")
	}
}

func TestSecondTriggerQueuesBehindActiveWindow(t *testing.T) {
	st := newReactionState()
	rb := NewReactionBroker(10)

	first := rb.Open(st, match.PendingAbility{Owner: "alice", AbilityID: "first"}, match.PhasePlayerTurn)
	second := rb.Open(st, match.PendingAbility{Owner: "alice", AbilityID: "second"}, match.PhasePlayerTurn)

	if first == nil || second != nil {
		t.Fatal("second trigger must queue, not overlap")
	}
	if len(st.ReactionQueue) != 1 || st.ReactionQueue[0].AbilityID != "second" {
		t.Fatalf("queue should hold the second trigger, got %+v", st.ReactionQueue)
	}

	closed, next := rb.Close(st)
	if closed == nil || closed.Pending.AbilityID != "first" {
		t.Fatal("close should return the active window")
	}
	if next == nil || next.AbilityID != "second" {
		t.Fatal("close should hand back the queued trigger")
	}
	if st.Reaction != nil {
		t.Fatal("state must have no window after close")
	}
}

func TestQueueProcessedInOrder(t *testing.T) {
	st := newReactionState()
	rb := NewReactionBroker(10)
	rb.Open(st, match.PendingAbility{Owner: "alice", AbilityID: "a"}, match.PhasePlayerTurn)
	rb.Open(st, match.PendingAbility{Owner: "alice", AbilityID: "b"}, match.PhasePlayerTurn)
	rb.Open(st, match.PendingAbility{Owner: "alice", AbilityID: "c"}, match.PhasePlayerTurn)

	_, next := rb.Close(st)
	if next.AbilityID != "b" {
		t.Fatalf("expected b next, got %s", next.AbilityID)
	}
	rb.Open(st, *next, match.PhasePlayerTurn)
	_, next = rb.Close(st)
	if next.AbilityID != "c" {
		t.Fatalf("expected c next, got %s", next.AbilityID)
	}
}

func TestNegateMarksWindow(t *testing.T) {
	st := newReactionState()
	rb := NewReactionBroker(10)

	if rb.Negate(st) {
		t.Fatal("negate without a window must fail")
	}
	rb.Open(st, match.PendingAbility{Owner: "alice"}, match.PhasePlayerTurn)
	if !rb.Negate(st) {
		t.Fatal("negate should succeed with an open window")
	}
	ctx, _ := rb.Close(st)
	if !ctx.Negated {
		t.Fatal("closed context should carry the negated mark")
	}
}

func TestReactionTickExpiry(t *testing.T) {
	st := newReactionState()
	rb := NewReactionBroker(10)
	rb.Open(st, match.PendingAbility{Owner: "alice"}, match.PhaseOpponentTurn)

	if rb.Tick(st, 9) {
		t.Fatal("window should still be open at 1 remaining")
	}
	if !rb.Tick(st, 25) {
		t.Fatal("overshooting tick must expire the window")
	}
	if rb.Tick(st, 1) {
		t.Fatal("expiry must fire exactly once")
	}
}

func TestTickWithoutWindow(t *testing.T) {
	st := newReactionState()
	rb := NewReactionBroker(10)
	if rb.Tick(st, 5) {
		t.Fatal("tick with no window must be a no-op")
	}
}
