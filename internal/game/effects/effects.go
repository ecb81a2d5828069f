// Package effects implements the ability resolution engine. Every effect
// kind maps to a handler in a dispatch table; a resolution either fully
// applies or fully fails with a reason code, never a partial mutation.
package effects

import (
	"strings"

	"github.com/google/uuid"
	"github.com/hexturf/turf-server-go/internal/game/defs"
	"github.com/hexturf/turf-server-go/internal/game/hex"
	"github.com/hexturf/turf-server-go/internal/game/match"
	"github.com/hexturf/turf-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// Request is a single effect resolution.
type Request struct {
	Kind     defs.EffectKind
	Value    int
	Duration float64
	// Actor is the player the effect resolves for.
	Actor  string
	Target match.Target
	// TargetTag, when set, restricts token targets to defs carrying the tag.
	TargetTag string
	// TokenDefID is the template for Deploy requests.
	TokenDefID string
	// Source is the origin hex for directional effects (Knockback).
	Source    hex.Hex
	HasSource bool
}

// Outcome reports a resolution result. Applied is false iff Reason is set;
// the remaining fields carry effect-specific detail for notifications.
type Outcome struct {
	Applied    bool
	Reason     match.Reason
	TokenID    string
	CapturedID string
	Drawn      []string
	Discarded  []string
	Peeked     []string
	CopiedID   string
	Rolls      []int
	MovedTo    hex.Hex
	HasMovedTo bool
}

func applied() Outcome {
	return Outcome{Applied: true}
}

func rejected(reason match.Reason) Outcome {
	return Outcome{Reason: reason}
}

// Handler resolves one effect kind against the match state.
type Handler func(st *match.State, req Request) Outcome

// Resolver dispatches effect requests through a handler table.
type Resolver struct {
	registry  *defs.Registry
	bus       *rules.EventBus
	logger    *zap.Logger
	handLimit int
	handlers  map[defs.EffectKind]Handler
}

// NewResolver creates a resolver over the given definition tables. The hand
// limit bounds Draw and Copy results the same way end-of-turn enforcement
// does not: mid-turn overdraw is legal; Copy into a full hand is not.
func NewResolver(registry *defs.Registry, bus *rules.EventBus, handLimit int, logger *zap.Logger) *Resolver {
	r := &Resolver{
		registry:  registry,
		bus:       bus,
		logger:    logger,
		handLimit: handLimit,
	}
	r.handlers = map[defs.EffectKind]Handler{
		defs.EffectDeploy:       r.resolveDeploy,
		defs.EffectRemove:       r.resolveRemove,
		defs.EffectKnockback:    r.resolveKnockback,
		defs.EffectImmunity:     r.resolveImmunity,
		defs.EffectDeny:         r.resolveDeny,
		defs.EffectUpgradeToken: r.resolveUpgrade,
		defs.EffectDraw:         r.resolveDraw,
		defs.EffectShuffle:      r.resolveShuffle,
		defs.EffectNegate:       r.resolveNegate,
		defs.EffectRecycle:      r.resolveRecycle,
		defs.EffectDiscard:      r.resolveDiscard,
		defs.EffectPeek:         r.resolvePeek,
		defs.EffectCopy:         r.resolveCopy,
		defs.EffectDecoy:        r.resolveDecoy,
		defs.EffectRollDice:     r.resolveRollDice,
	}
	return r
}

// Resolve applies a single effect request, fully or not at all.
func (r *Resolver) Resolve(st *match.State, req Request) Outcome {
	handler, ok := r.handlers[req.Kind]
	if !ok {
		return rejected(match.ReasonBadTarget)
	}
	outcome := handler(st, req)
	if r.logger != nil {
		r.logger.Debug("effect resolved",
			zap.String("match_id", st.ID),
			zap.String("kind", string(req.Kind)),
			zap.String("actor", req.Actor),
			zap.Bool("applied", outcome.Applied),
			zap.String("reason", string(outcome.Reason)),
		)
	}
	return outcome
}

func (r *Resolver) publish(event rules.Event) {
	if r.bus != nil {
		r.bus.Publish(event)
	}
}

// targetToken fetches a token target, applying the request's tag filter.
func (r *Resolver) targetToken(st *match.State, req Request) (*match.Token, match.Reason) {
	if req.Target.TokenID == "" {
		return nil, match.ReasonNoTarget
	}
	tok, ok := st.Tokens[req.Target.TokenID]
	if !ok {
		return nil, match.ReasonNoTarget
	}
	if req.TargetTag != "" && !r.tokenHasTag(tok, req.TargetTag) {
		return nil, match.ReasonBadTarget
	}
	return tok, match.ReasonNone
}

func (r *Resolver) tokenHasTag(tok *match.Token, tag string) bool {
	def, ok := r.registry.Token(tok.DefID)
	if !ok {
		return false
	}
	for _, t := range def.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (r *Resolver) resolveDeploy(st *match.State, req Request) Outcome {
	def, ok := r.registry.Token(req.TokenDefID)
	if !ok {
		return rejected(match.ReasonBadTarget)
	}
	if !req.Target.HasHex {
		return rejected(match.ReasonNoTarget)
	}
	tile, ok := st.TileAt(req.Target.At)
	if !ok {
		return rejected(match.ReasonNoTile)
	}
	if def.IsAlpha() && st.HasLivingAlpha(req.Actor) {
		return rejected(match.ReasonAlphaExists)
	}

	var captured string
	if tile.Occupied() {
		occupant := st.Tokens[tile.Occupant]
		if occupant.Owner == req.Actor {
			return rejected(match.ReasonTileOccupied)
		}
		if occupant.Level >= def.Level {
			return rejected(match.ReasonTileBlocked)
		}
		captured = occupant.ID
		st.RemoveToken(occupant.ID)
		r.publish(rules.Event{
			Type: rules.EventTokenRemoved, MatchID: st.ID,
			PlayerID: occupant.Owner, TokenID: occupant.ID,
			At: occupant.At, HasHex: true,
		})
	}

	tok := &match.Token{
		ID:    uuid.NewString(),
		DefID: def.ID,
		Level: def.Level,
		Owner: req.Actor,
	}
	if err := st.PlaceToken(tok, req.Target.At); err != nil {
		// Tile was verified above; reaching here is a programming defect.
		return rejected(match.ReasonTileOccupied)
	}

	r.publish(rules.Event{
		Type: rules.EventTokenDeployed, MatchID: st.ID,
		PlayerID: req.Actor, TokenID: tok.ID,
		At: req.Target.At, HasHex: true,
		Data: map[string]string{"def": def.ID},
	})
	r.publish(rules.Event{
		Type: rules.EventTileChanged, MatchID: st.ID,
		PlayerID: req.Actor, TokenID: tok.ID,
		At: req.Target.At, HasHex: true,
	})

	out := applied()
	out.TokenID = tok.ID
	out.CapturedID = captured
	return out
}

func (r *Resolver) resolveRemove(st *match.State, req Request) Outcome {
	tok, reason := r.targetToken(st, req)
	if reason != match.ReasonNone {
		return rejected(reason)
	}
	if tok.HasStatus(match.StatusImmune, st.Clock) {
		return rejected(match.ReasonTargetImmune)
	}
	at := tok.At
	st.RemoveToken(tok.ID)
	r.publish(rules.Event{
		Type: rules.EventTokenRemoved, MatchID: st.ID,
		PlayerID: tok.Owner, TokenID: tok.ID, At: at, HasHex: true,
	})
	r.publish(rules.Event{
		Type: rules.EventTileChanged, MatchID: st.ID, At: at, HasHex: true,
	})
	out := applied()
	out.TokenID = tok.ID
	return out
}

func (r *Resolver) resolveKnockback(st *match.State, req Request) Outcome {
	tok, reason := r.targetToken(st, req)
	if reason != match.ReasonNone {
		return rejected(reason)
	}
	if tok.HasStatus(match.StatusImmune, st.Clock) {
		return rejected(match.ReasonTargetImmune)
	}
	if !req.HasSource {
		return rejected(match.ReasonNoTarget)
	}
	step, ok := hex.DirectionFrom(req.Source, tok.At)
	if !ok {
		return rejected(match.ReasonBadTarget)
	}

	// Walk up to Value hexes away from the source, clipping at the board
	// edge and stopping short of occupied tiles.
	from := tok.At
	dest := tok.At
	for i := 0; i < req.Value; i++ {
		next := dest.Add(step)
		tile, ok := st.TileAt(next)
		if !ok || tile.Occupied() {
			break
		}
		dest = next
	}

	if dest != from {
		if err := st.MoveToken(tok.ID, dest); err != nil {
			return rejected(match.ReasonTileOccupied)
		}
		r.publish(rules.Event{
			Type: rules.EventTokenMoved, MatchID: st.ID,
			PlayerID: tok.Owner, TokenID: tok.ID, At: dest, HasHex: true,
		})
		r.publish(rules.Event{Type: rules.EventTileChanged, MatchID: st.ID, At: from, HasHex: true})
		r.publish(rules.Event{Type: rules.EventTileChanged, MatchID: st.ID, At: dest, HasHex: true})
	}

	out := applied()
	out.TokenID = tok.ID
	out.MovedTo = dest
	out.HasMovedTo = true
	return out
}

func (r *Resolver) resolveImmunity(st *match.State, req Request) Outcome {
	return r.grantStatus(st, req, match.StatusImmune)
}

func (r *Resolver) resolveDeny(st *match.State, req Request) Outcome {
	return r.grantStatus(st, req, match.StatusDenied)
}

func (r *Resolver) grantStatus(st *match.State, req Request, kind match.StatusKind) Outcome {
	tok, reason := r.targetToken(st, req)
	if reason != match.ReasonNone {
		return rejected(reason)
	}
	tok.AddStatus(kind, st.Clock, req.Duration)
	r.publish(rules.Event{
		Type: rules.EventStatusGranted, MatchID: st.ID,
		PlayerID: tok.Owner, TokenID: tok.ID,
		Value: req.Duration,
		Data:  map[string]string{"status": string(kind)},
	})
	out := applied()
	out.TokenID = tok.ID
	return out
}

func (r *Resolver) resolveUpgrade(st *match.State, req Request) Outcome {
	tok, reason := r.targetToken(st, req)
	if reason != match.ReasonNone {
		return rejected(reason)
	}
	if tok.HasStatus(match.StatusDenied, st.Clock) {
		return rejected(match.ReasonTargetDenied)
	}
	if tok.Level >= defs.MaxTokenLevel {
		return rejected(match.ReasonLevelCapped)
	}
	if tok.Level+1 == defs.AlphaLevel && st.HasLivingAlpha(tok.Owner) {
		return rejected(match.ReasonAlphaExists)
	}
	tok.Level++
	r.publish(rules.Event{
		Type: rules.EventTokenUpgraded, MatchID: st.ID,
		PlayerID: tok.Owner, TokenID: tok.ID, Amount: tok.Level,
	})
	out := applied()
	out.TokenID = tok.ID
	return out
}

func (r *Resolver) resolveDraw(st *match.State, req Request) Outcome {
	player, ok := st.Players[req.Actor]
	if !ok {
		return rejected(match.ReasonNoTarget)
	}
	out := applied()
	for i := 0; i < req.Value; i++ {
		card, drew := player.DrawOne()
		if !drew {
			r.publish(rules.Event{Type: rules.EventEmptyDeck, MatchID: st.ID, PlayerID: player.ID})
			break
		}
		out.Drawn = append(out.Drawn, card.ID)
		r.publish(rules.Event{Type: rules.EventCardDrawn, MatchID: st.ID, PlayerID: player.ID, CardID: card.ID})
	}
	if len(out.Drawn) > 0 {
		r.publish(rules.Event{Type: rules.EventHandChanged, MatchID: st.ID, PlayerID: player.ID, Amount: len(player.Hand)})
	}
	return out
}

func (r *Resolver) resolveShuffle(st *match.State, req Request) Outcome {
	player, ok := st.Players[req.Actor]
	if !ok {
		return rejected(match.ReasonNoTarget)
	}
	shuffleDeck(st, player)
	r.publish(rules.Event{Type: rules.EventDeckShuffled, MatchID: st.ID, PlayerID: player.ID, Amount: len(player.Deck)})
	return applied()
}

// shuffleDeck is a uniform Fisher–Yates permutation from the match rng.
func shuffleDeck(st *match.State, player *match.Player) {
	st.RNG.Shuffle(len(player.Deck), func(i, j int) {
		player.Deck[i], player.Deck[j] = player.Deck[j], player.Deck[i]
	})
}

func (r *Resolver) resolveNegate(st *match.State, req Request) Outcome {
	if st.Reaction == nil {
		return rejected(match.ReasonNoReactionWindow)
	}
	st.Reaction.Negated = true
	r.publish(rules.Event{
		Type: rules.EventAbilityNegated, MatchID: st.ID,
		PlayerID: req.Actor, CardID: st.Reaction.Pending.CardID,
	})
	return applied()
}

func (r *Resolver) resolveRecycle(st *match.State, req Request) Outcome {
	player, ok := st.Players[req.Actor]
	if !ok {
		return rejected(match.ReasonNoTarget)
	}
	moved := 0
	for moved < req.Value && len(player.Discard) > 0 {
		// Top of the discard pile is the most recent card.
		last := len(player.Discard) - 1
		card := player.Discard[last]
		player.Discard = player.Discard[:last]
		player.Deck = append(player.Deck, card)
		moved++
	}
	if moved == 0 {
		return rejected(match.ReasonNothingToDo)
	}
	shuffleDeck(st, player)
	r.publish(rules.Event{Type: rules.EventDeckShuffled, MatchID: st.ID, PlayerID: player.ID, Amount: len(player.Deck)})
	return applied()
}

func (r *Resolver) resolveDiscard(st *match.State, req Request) Outcome {
	targetID := req.Target.PlayerID
	if targetID == "" {
		targetID = st.Opponent(req.Actor)
	}
	player, ok := st.Players[targetID]
	if !ok {
		return rejected(match.ReasonNoTarget)
	}
	discarded := player.DiscardFromTail(req.Value)
	if len(discarded) == 0 {
		return rejected(match.ReasonNothingToDo)
	}
	out := applied()
	for _, card := range discarded {
		out.Discarded = append(out.Discarded, card.ID)
		r.publish(rules.Event{Type: rules.EventCardDiscarded, MatchID: st.ID, PlayerID: player.ID, CardID: card.ID})
	}
	r.publish(rules.Event{Type: rules.EventHandChanged, MatchID: st.ID, PlayerID: player.ID, Amount: len(player.Hand)})
	return out
}

func (r *Resolver) resolvePeek(st *match.State, req Request) Outcome {
	player, ok := st.Players[req.Actor]
	if !ok {
		return rejected(match.ReasonNoTarget)
	}
	n := req.Value
	if n > len(player.Deck) {
		n = len(player.Deck)
	}
	out := applied()
	for i := 0; i < n; i++ {
		out.Peeked = append(out.Peeked, player.Deck[i].ID)
	}
	r.publish(rules.Event{
		Type: rules.EventCardsPeeked, MatchID: st.ID,
		PlayerID: player.ID, Amount: len(out.Peeked),
		Data: map[string]string{"cards": strings.Join(out.Peeked, ",")},
	})
	return out
}

func (r *Resolver) resolveCopy(st *match.State, req Request) Outcome {
	player, ok := st.Players[req.Actor]
	if !ok {
		return rejected(match.ReasonNoTarget)
	}
	if len(player.Hand) >= r.handLimit {
		return rejected(match.ReasonHandFull)
	}
	original, ok := player.CardInHand(req.Target.CardID)
	if !ok {
		return rejected(match.ReasonNoTarget)
	}
	dup := &match.Card{ID: uuid.NewString(), DefID: original.DefID, Owner: player.ID}
	player.Hand = append(player.Hand, dup)
	r.publish(rules.Event{Type: rules.EventHandChanged, MatchID: st.ID, PlayerID: player.ID, Amount: len(player.Hand)})
	out := applied()
	out.CopiedID = dup.ID
	return out
}

func (r *Resolver) resolveDecoy(st *match.State, req Request) Outcome {
	if !req.Target.HasHex {
		return rejected(match.ReasonNoTarget)
	}
	tile, ok := st.TileAt(req.Target.At)
	if !ok {
		return rejected(match.ReasonNoTile)
	}
	if tile.Occupied() {
		// Decoys never capture.
		return rejected(match.ReasonTileOccupied)
	}
	deploy := req
	deploy.Kind = defs.EffectDeploy
	deploy.TokenDefID = defs.DecoyTokenID
	return r.resolveDeploy(st, deploy)
}

func (r *Resolver) resolveRollDice(st *match.State, req Request) Outcome {
	n := req.Value
	if n <= 0 {
		n = 1
	}
	out := applied()
	total := 0
	for i := 0; i < n; i++ {
		roll := st.RNG.Intn(6) + 1
		out.Rolls = append(out.Rolls, roll)
		total += roll
	}
	r.publish(rules.Event{Type: rules.EventDiceRolled, MatchID: st.ID, PlayerID: req.Actor, Amount: total})
	return out
}
