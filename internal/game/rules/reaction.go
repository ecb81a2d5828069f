package rules

import (
	"github.com/google/uuid"
	"github.com/hexturf/turf-server-go/internal/game/match"
)

// ReactionBroker manages the time-boxed interrupt protocol. At most one
// window is open at a time; triggers arriving while one is open queue behind
// it and are opened in order after it closes.
type ReactionBroker struct {
	Limit float64
}

// NewReactionBroker creates a broker with the configured window duration.
func NewReactionBroker(limit float64) *ReactionBroker {
	return &ReactionBroker{Limit: limit}
}

// Open starts a reaction window holding the pending ability, or queues the
// trigger when a window is already active. Returns the opened context, or
// nil when the trigger was queued. priorPhase is the turn phase to resume
// once the window resolves.
func (rb *ReactionBroker) Open(st *match.State, pending match.PendingAbility, priorPhase match.Phase) *match.ReactionContext {
	if st.Reaction != nil {
		st.ReactionQueue = append(st.ReactionQueue, pending)
		return nil
	}
	ctx := &match.ReactionContext{
		WindowID:   uuid.NewString(),
		Initiator:  pending.Owner,
		Responder:  st.Opponent(pending.Owner),
		Remaining:  rb.Limit,
		PriorPhase: priorPhase,
		Pending:    pending,
	}
	st.Reaction = ctx
	return ctx
}

// Negate marks the held ability canceled; it will not resolve on close.
func (rb *ReactionBroker) Negate(st *match.State) bool {
	if st.Reaction == nil {
		return false
	}
	st.Reaction.Negated = true
	return true
}

// Close ends the active window. It returns the closed context and, when
// another trigger was queued behind it, the next pending ability to open a
// window for.
func (rb *ReactionBroker) Close(st *match.State) (*match.ReactionContext, *match.PendingAbility) {
	ctx := st.Reaction
	if ctx == nil {
		return nil, nil
	}
	st.Reaction = nil
	if len(st.ReactionQueue) > 0 {
		next := st.ReactionQueue[0]
		st.ReactionQueue = st.ReactionQueue[1:]
		return ctx, &next
	}
	return ctx, nil
}

// Tick advances the reaction countdown and reports whether it expired on
// this call. Expiry is equivalent to an explicit dismissal.
func (rb *ReactionBroker) Tick(st *match.State, delta float64) bool {
	ctx := st.Reaction
	if ctx == nil || ctx.Remaining <= 0 {
		return false
	}
	ctx.Remaining -= delta
	if ctx.Remaining <= 0 {
		ctx.Remaining = 0
		return true
	}
	return false
}
