// Package game hosts the match engine: the state machine that owns every
// match.State, serializes all mutations behind per-match locks, and drives
// timers through explicit Advance ticks. External collaborators observe the
// engine through the notification list and read-only views; they never touch
// state directly.
package game

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/hexturf/turf-server-go/internal/game/defs"
	"github.com/hexturf/turf-server-go/internal/game/effects"
	"github.com/hexturf/turf-server-go/internal/game/hex"
	"github.com/hexturf/turf-server-go/internal/game/match"
	"github.com/hexturf/turf-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// Options carries the rule constants the engine runs matches with. All
// durations are abstract time units consumed by Advance.
type Options struct {
	TurnLimit      float64
	ReactionLimit  float64
	GameLimit      float64
	HandLimit      int
	StartingHand   int
	TurfsPerPlayer int
	GridRadius     int
	StairStep      float64
}

// DefaultOptions returns the base rule set.
func DefaultOptions() Options {
	return Options{
		TurnLimit:      60,
		ReactionLimit:  10,
		GameLimit:      900,
		HandLimit:      5,
		StartingHand:   4,
		TurfsPerPlayer: 3,
		GridRadius:     3,
		StairStep:      0.25,
	}
}

// Seat describes one player joining a match. A nil Deck means the built-in
// base deck.
type Seat struct {
	PlayerID string
	Name     string
	LeaderID string
	Deck     []string
}

// Result reports the outcome of a submitted action. Applied is false iff
// Reason carries a stable rejection code; a rejected action leaves the match
// state unchanged. Errors are reserved for unknown matches and misuse.
type Result struct {
	Applied bool
	Reason  match.Reason
}

func accepted() Result {
	return Result{Applied: true}
}

func refused(reason match.Reason) Result {
	return Result{Reason: reason}
}

// Observer receives every event a match publishes. Dispatch is synchronous
// and in registration order, so observers see a deterministic stream.
type Observer func(rules.Event)

// matchRuntime bundles one match's state with its mechanics collaborators.
// rt.mu is the single-writer lock: every engine entry point that touches the
// match holds it for the full call.
type matchRuntime struct {
	mu       sync.Mutex
	st       *match.State
	bus      *rules.EventBus
	turns    *rules.TurnController
	broker   *rules.ReactionBroker
	resolver *effects.Resolver
}

// Engine owns all running matches.
type Engine struct {
	logger   *zap.Logger
	registry *defs.Registry
	opts     Options

	mu        sync.RWMutex
	matches   map[string]*matchRuntime
	observers []Observer

	recorder *ReplayRecorder
}

// NewEngine creates an engine over a validated definition registry.
func NewEngine(registry *defs.Registry, opts Options, logger *zap.Logger) *Engine {
	return &Engine{
		logger:   logger,
		registry: registry,
		opts:     opts,
		matches:  make(map[string]*matchRuntime),
	}
}

// SetRecorder attaches a replay recorder. When set, the engine records a
// snapshot after match creation and after every state-mutating entry point.
func (e *Engine) SetRecorder(recorder *ReplayRecorder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recorder = recorder
}

// Observe registers an observer for all match events and returns its handle.
func (e *Engine) Observe(observer Observer) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, observer)
	return len(e.observers) - 1
}

func (e *Engine) notify(event rules.Event) {
	e.mu.RLock()
	observers := make([]Observer, len(e.observers))
	copy(observers, e.observers)
	e.mu.RUnlock()
	for _, obs := range observers {
		obs(event)
	}
}

func (e *Engine) runtime(matchID string) (*matchRuntime, error) {
	e.mu.RLock()
	rt, ok := e.matches[matchID]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("match %s not found", matchID)
	}
	return rt, nil
}

// CreateMatch sets up and starts a match: decks built and shuffled, starting
// hands drawn, turfs assigned, and the opening turn chosen by a seeded coin
// flip. The same seed and seats always produce the same match.
func (e *Engine) CreateMatch(matchID string, seatA, seatB Seat, seed int64) (string, error) {
	if matchID == "" {
		matchID = uuid.NewString()
	}
	if seatA.PlayerID == "" || seatB.PlayerID == "" || seatA.PlayerID == seatB.PlayerID {
		return "", fmt.Errorf("two distinct player ids are required")
	}

	st := match.New(matchID, seed, e.opts.GridRadius, e.opts.StairStep)
	st.Order = []string{seatA.PlayerID, seatB.PlayerID}
	st.GameRemaining = e.opts.GameLimit

	for _, seat := range []Seat{seatA, seatB} {
		player, err := e.buildPlayer(seat)
		if err != nil {
			return "", err
		}
		st.Players[seat.PlayerID] = player
	}

	bus := rules.NewEventBus()
	bus.Subscribe(e.notify)
	rt := &matchRuntime{
		st:       st,
		bus:      bus,
		turns:    rules.NewTurnController(e.opts.TurnLimit, e.opts.HandLimit),
		broker:   rules.NewReactionBroker(e.opts.ReactionLimit),
		resolver: effects.NewResolver(e.registry, bus, e.opts.HandLimit, e.logger),
	}

	// Check and insert under one lock so concurrent creates with the same
	// id cannot both pass the check and overwrite each other.
	e.mu.Lock()
	if _, exists := e.matches[matchID]; exists {
		e.mu.Unlock()
		return "", fmt.Errorf("match %s already exists", matchID)
	}
	e.matches[matchID] = rt
	recorder := e.recorder
	e.mu.Unlock()

	rt.mu.Lock()
	defer rt.mu.Unlock()

	for _, playerID := range st.Order {
		st.RNG.Shuffle(len(st.Players[playerID].Deck), func(i, j int) {
			deck := st.Players[playerID].Deck
			deck[i], deck[j] = deck[j], deck[i]
		})
		bus.Publish(rules.Event{Type: rules.EventDeckShuffled, MatchID: matchID, PlayerID: playerID, Amount: len(st.Players[playerID].Deck)})
	}
	for _, playerID := range st.Order {
		for i := 0; i < e.opts.StartingHand; i++ {
			if card, ok := st.Players[playerID].DrawOne(); ok {
				bus.Publish(rules.Event{Type: rules.EventCardDrawn, MatchID: matchID, PlayerID: playerID, CardID: card.ID})
			}
		}
	}
	e.assignTurfs(st)

	first := st.Order[st.RNG.Intn(2)]
	if recorder != nil {
		recorder.StartRecording(matchID)
	}
	e.setPhase(rt, st.TurnPhaseOf(first))
	rt.turns.Begin(st, first, bus)
	e.fireTokenTriggers(rt, defs.TriggerOnTurnStart, first)
	e.record(rt)

	if e.logger != nil {
		e.logger.Info("match created",
			zap.String("match_id", matchID),
			zap.Strings("players", st.Order),
			zap.Int64("seed", seed),
			zap.String("first_turn", first),
		)
	}
	return matchID, nil
}

func (e *Engine) buildPlayer(seat Seat) (*match.Player, error) {
	if seat.LeaderID != "" {
		if _, ok := e.registry.Leader(seat.LeaderID); !ok {
			return nil, fmt.Errorf("unknown leader %s for player %s", seat.LeaderID, seat.PlayerID)
		}
	}
	deckList := seat.Deck
	if deckList == nil {
		deckList = defs.BaseDeck()
	}
	player := &match.Player{
		ID:       seat.PlayerID,
		Name:     seat.Name,
		LeaderID: seat.LeaderID,
	}
	for _, defID := range deckList {
		if _, ok := e.registry.Card(defID); !ok {
			return nil, fmt.Errorf("unknown card %s in deck of player %s", defID, seat.PlayerID)
		}
		player.Deck = append(player.Deck, &match.Card{ID: uuid.NewString(), DefID: defID, Owner: seat.PlayerID})
	}
	return player, nil
}

// assignTurfs draws 2×TurfsPerPlayer distinct hexes without replacement: the
// first half goes to seat one, the rest to seat two. Tiles are flagged and
// each player records their own hexes.
func (e *Engine) assignTurfs(st *match.State) {
	cells := make([]hex.Hex, 0, len(st.Tiles))
	for at := range st.Tiles {
		cells = append(cells, at)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Q != cells[j].Q {
			return cells[i].Q < cells[j].Q
		}
		return cells[i].R < cells[j].R
	})
	perm := st.RNG.Perm(len(cells))

	per := e.opts.TurfsPerPlayer
	for i := 0; i < per*2 && i < len(perm); i++ {
		at := cells[perm[i]]
		st.Tiles[at].Turf = true
		owner := st.Order[0]
		if i >= per {
			owner = st.Order[1]
		}
		player := st.Players[owner]
		player.Turfs = append(player.Turfs, at)
	}
}

// setPhase transitions the state machine, publishing STATE_CHANGED after the
// mutation and before any entry logic of the new phase runs.
func (e *Engine) setPhase(rt *matchRuntime, phase match.Phase) {
	rt.st.Phase = phase
	rt.bus.Publish(rules.Event{
		Type: rules.EventStateChanged, MatchID: rt.st.ID,
		PlayerID: rt.st.TurnHolder(phase),
		Data:     map[string]string{"phase": phase.String()},
	})
}

func (e *Engine) record(rt *matchRuntime) {
	e.mu.RLock()
	recorder := e.recorder
	e.mu.RUnlock()
	if recorder != nil {
		recorder.Record(rt.st.ID, CaptureSnapshot(rt.st))
	}
}

// checkTurn validates that playerID may act right now. Reaction windows and
// the opposing turn produce distinct reasons so clients can tell "wait for
// the window" from "wait for your turn".
func checkTurn(st *match.State, playerID string) match.Reason {
	switch {
	case st.Phase == match.PhaseGameEnd:
		return match.ReasonMatchOver
	case st.Phase == match.PhaseReaction:
		return match.ReasonWrongPhase
	case !st.Phase.IsTurn():
		return match.ReasonWrongPhase
	case st.TurnHolder(st.Phase) != playerID:
		return match.ReasonNotYourTurn
	}
	return match.ReasonNone
}

// SubmitPlayDeployCard plays a deploy card from hand onto a tile. At most one
// deploy card per turn; a failed placement refunds the allowance.
func (e *Engine) SubmitPlayDeployCard(matchID, playerID, cardID string, at hex.Hex) (Result, error) {
	rt, err := e.runtime(matchID)
	if err != nil {
		return Result{}, err
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	st := rt.st

	if reason := checkTurn(st, playerID); reason != match.ReasonNone {
		return refused(reason), nil
	}
	player := st.Players[playerID]
	card, ok := player.CardInHand(cardID)
	if !ok {
		return refused(match.ReasonUnknownCard), nil
	}
	def, ok := e.registry.Card(card.DefID)
	if !ok {
		return refused(match.ReasonUnknownCard), nil
	}
	if def.Kind != defs.CardDeploy {
		return refused(match.ReasonWrongCardKind), nil
	}
	if reason := rt.turns.UseDeploy(st); reason != match.ReasonNone {
		return refused(reason), nil
	}

	outcome := rt.resolver.Resolve(st, effects.Request{
		Kind:       defs.EffectDeploy,
		Actor:      playerID,
		TokenDefID: def.TokenID,
		Target:     match.Target{At: at, HasHex: true},
	})
	if !outcome.Applied {
		rt.turns.UnuseDeploy(st)
		return refused(outcome.Reason), nil
	}

	e.consumeCard(rt, player, card)
	if tokenDef, ok := e.registry.Token(def.TokenID); ok && tokenDef.AbilityID != "" {
		e.fireTokenTrigger(rt, defs.TriggerOnDeploy, outcome.TokenID)
	}
	e.record(rt)
	return accepted(), nil
}

// SubmitPlayEventCard plays an event card from hand. Reactable abilities open
// a reaction window and are held there; everything else resolves in place.
func (e *Engine) SubmitPlayEventCard(matchID, playerID, cardID string, target match.Target) (Result, error) {
	rt, err := e.runtime(matchID)
	if err != nil {
		return Result{}, err
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	st := rt.st

	if reason := checkTurn(st, playerID); reason != match.ReasonNone {
		return refused(reason), nil
	}
	player := st.Players[playerID]
	card, ok := player.CardInHand(cardID)
	if !ok {
		return refused(match.ReasonUnknownCard), nil
	}
	def, ok := e.registry.Card(card.DefID)
	if !ok {
		return refused(match.ReasonUnknownCard), nil
	}
	if def.Kind != defs.CardEvent {
		return refused(match.ReasonWrongCardKind), nil
	}
	ability, ok := e.registry.Ability(def.AbilityID)
	if !ok {
		return refused(match.ReasonUnknownCard), nil
	}

	if ability.Reactable {
		e.consumeCard(rt, player, card)
		e.openReaction(rt, match.PendingAbility{
			CardID:    card.ID,
			AbilityID: ability.ID,
			Owner:     playerID,
			Target:    target,
		}, st.Phase)
		e.record(rt)
		return accepted(), nil
	}

	outcome := rt.resolver.Resolve(st, abilityRequest(ability, playerID, target))
	if !outcome.Applied {
		return refused(outcome.Reason), nil
	}
	e.consumeCard(rt, player, card)
	e.record(rt)
	return accepted(), nil
}

// SubmitReactiveCard plays the responder's one answer inside an open window.
func (e *Engine) SubmitReactiveCard(matchID, playerID, cardID string, target match.Target) (Result, error) {
	rt, err := e.runtime(matchID)
	if err != nil {
		return Result{}, err
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	st := rt.st

	if st.Phase != match.PhaseReaction || st.Reaction == nil {
		return refused(match.ReasonNoReactionWindow), nil
	}
	ctx := st.Reaction
	if ctx.Responder != playerID {
		return refused(match.ReasonNotResponder), nil
	}
	if ctx.ResponderActed {
		return refused(match.ReasonResponderActed), nil
	}
	player := st.Players[playerID]
	card, ok := player.CardInHand(cardID)
	if !ok {
		return refused(match.ReasonUnknownCard), nil
	}
	def, ok := e.registry.Card(card.DefID)
	if !ok {
		return refused(match.ReasonUnknownCard), nil
	}
	ability, ok := e.registry.Ability(def.AbilityID)
	if !ok || def.Kind != defs.CardEvent || ability.Trigger != defs.TriggerOnReaction {
		return refused(match.ReasonNotReactive), nil
	}

	outcome := rt.resolver.Resolve(st, abilityRequest(ability, playerID, target))
	if !outcome.Applied {
		return refused(outcome.Reason), nil
	}
	e.consumeCard(rt, player, card)
	ctx.ResponderActed = true
	e.closeReaction(rt)
	e.record(rt)
	return accepted(), nil
}

// SubmitDismissReaction lets the responder pass on the open window. The held
// ability then resolves and the interrupted turn resumes.
func (e *Engine) SubmitDismissReaction(matchID, playerID string) (Result, error) {
	rt, err := e.runtime(matchID)
	if err != nil {
		return Result{}, err
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	st := rt.st

	if st.Phase != match.PhaseReaction || st.Reaction == nil {
		return refused(match.ReasonNoReactionWindow), nil
	}
	if st.Reaction.Responder != playerID {
		return refused(match.ReasonNotResponder), nil
	}
	st.Reaction.ResponderActed = true
	e.closeReaction(rt)
	e.record(rt)
	return accepted(), nil
}

// SubmitEndTurn ends the caller's turn and begins the opponent's.
func (e *Engine) SubmitEndTurn(matchID, playerID string) (Result, error) {
	rt, err := e.runtime(matchID)
	if err != nil {
		return Result{}, err
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if reason := checkTurn(rt.st, playerID); reason != match.ReasonNone {
		return refused(reason), nil
	}
	e.endTurn(rt, playerID)
	e.record(rt)
	return accepted(), nil
}

// SubmitUseLeaderSkill resolves the caller's leader skill, subject to the
// cooldown measured on the match clock. Leader skills resolve immediately;
// they never open reaction windows.
func (e *Engine) SubmitUseLeaderSkill(matchID, playerID string, target match.Target) (Result, error) {
	rt, err := e.runtime(matchID)
	if err != nil {
		return Result{}, err
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	st := rt.st

	if reason := checkTurn(st, playerID); reason != match.ReasonNone {
		return refused(reason), nil
	}
	player := st.Players[playerID]
	if player.LeaderID == "" {
		return refused(match.ReasonNoTarget), nil
	}
	leader, ok := e.registry.Leader(player.LeaderID)
	if !ok {
		return refused(match.ReasonNoTarget), nil
	}
	if st.Clock < player.SkillReadyAt {
		return refused(match.ReasonSkillOnCooldown), nil
	}
	ability, ok := e.registry.Ability(leader.SkillID)
	if !ok {
		return refused(match.ReasonNoTarget), nil
	}

	outcome := rt.resolver.Resolve(st, abilityRequest(ability, playerID, target))
	if !outcome.Applied {
		return refused(outcome.Reason), nil
	}
	player.SkillReadyAt = st.Clock + leader.SkillCooldown
	e.record(rt)
	return accepted(), nil
}

// Advance moves all live countdowns forward by delta. The turn countdown is
// frozen while a reaction window is open; the game clock and status expiries
// always run. Each expiring timer fires its transition exactly once.
func (e *Engine) Advance(matchID string, delta float64) error {
	rt, err := e.runtime(matchID)
	if err != nil {
		return err
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	st := rt.st

	if st.Phase == match.PhaseGameEnd || st.Phase == match.PhaseSetup {
		return nil
	}

	st.Clock += delta
	st.PurgeExpiredStatuses()

	if gameExpired(st, delta) {
		rt.bus.Publish(rules.Event{Type: rules.EventTimerTick, MatchID: matchID, Timer: rules.TimerGame, Value: 0})
		e.endGame(rt)
		e.record(rt)
		return nil
	}
	rt.bus.Publish(rules.Event{Type: rules.EventTimerTick, MatchID: matchID, Timer: rules.TimerGame, Value: st.GameRemaining})

	switch {
	case st.Phase == match.PhaseReaction:
		expired := rt.broker.Tick(st, delta)
		if st.Reaction != nil {
			rt.bus.Publish(rules.Event{Type: rules.EventTimerTick, MatchID: matchID, Timer: rules.TimerReaction, Value: st.Reaction.Remaining})
		}
		if expired {
			// Timeout is equivalent to an explicit dismissal.
			e.closeReaction(rt)
		}
	case st.Phase.IsTurn():
		holder := st.TurnHolder(st.Phase)
		expired := rt.turns.Tick(st, delta)
		rt.bus.Publish(rules.Event{Type: rules.EventTimerTick, MatchID: matchID, Timer: rules.TimerTurn, PlayerID: holder, Value: st.TurnRemaining})
		if expired {
			e.endTurn(rt, holder)
		}
	}
	e.record(rt)
	return nil
}

// gameExpired decrements the game countdown and reports the single positive
// to zero transition.
func gameExpired(st *match.State, delta float64) bool {
	if st.GameRemaining <= 0 {
		return false
	}
	st.GameRemaining -= delta
	if st.GameRemaining <= 0 {
		st.GameRemaining = 0
		return true
	}
	return false
}

// Snapshot returns a deep copy of the match state for serialization.
func (e *Engine) Snapshot(matchID string) (*Snapshot, error) {
	rt, err := e.runtime(matchID)
	if err != nil {
		return nil, err
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return CaptureSnapshot(rt.st), nil
}

// endTurn fires playerID's end-of-turn triggers and hands the turn over. A
// reactable trigger interrupts the hand-off: the window notes who was ending
// and closeReaction completes the hand-off once the window (and anything
// queued behind it) resolves.
func (e *Engine) endTurn(rt *matchRuntime, playerID string) {
	st := rt.st
	e.fireTokenTriggers(rt, defs.TriggerOnTurnEnd, playerID)
	if st.Phase == match.PhaseReaction && st.Reaction != nil {
		st.Reaction.HandoffFrom = playerID
		return
	}
	e.handOffTurn(rt, playerID)
}

// handOffTurn closes playerID's turn and enters the opposing turn phase.
func (e *Engine) handOffTurn(rt *matchRuntime, playerID string) {
	st := rt.st
	rt.turns.End(st, playerID, rt.bus)

	next := st.Opponent(playerID)
	e.setPhase(rt, st.TurnPhaseOf(next))
	rt.turns.Begin(st, next, rt.bus)
	e.fireTokenTriggers(rt, defs.TriggerOnTurnStart, next)
}

// openReaction opens a window for pending, or queues it behind the already
// open one. The interrupted phase is stored so resolution can resume it.
func (e *Engine) openReaction(rt *matchRuntime, pending match.PendingAbility, priorPhase match.Phase) {
	st := rt.st
	ctx := rt.broker.Open(st, pending, priorPhase)
	if ctx == nil {
		// Queued behind the open window; it opens in order later.
		return
	}
	e.setPhase(rt, match.PhaseReaction)
	rt.bus.Publish(rules.Event{
		Type: rules.EventReactionOpened, MatchID: st.ID,
		PlayerID: ctx.Responder, CardID: pending.CardID,
		Value: ctx.Remaining,
		Data:  map[string]string{"window_id": ctx.WindowID, "initiator": ctx.Initiator},
	})
}

// closeReaction ends the open window: the held ability resolves unless it
// was negated, queued triggers open their own windows in order, and once the
// queue drains the match resumes whichever turn phase was interrupted. A
// turn hand-off deferred by the window completes after the resume.
func (e *Engine) closeReaction(rt *matchRuntime) {
	st := rt.st
	ctx, next := rt.broker.Close(st)
	if ctx == nil {
		return
	}
	rt.bus.Publish(rules.Event{
		Type: rules.EventReactionClosed, MatchID: st.ID,
		PlayerID: ctx.Initiator, CardID: ctx.Pending.CardID,
		Data: map[string]string{"window_id": ctx.WindowID, "negated": fmt.Sprintf("%t", ctx.Negated)},
	})

	if !ctx.Negated {
		e.resolvePending(rt, ctx.Pending)
	}

	if next != nil {
		e.openReaction(rt, *next, ctx.PriorPhase)
		if st.Reaction != nil {
			st.Reaction.HandoffFrom = ctx.HandoffFrom
		}
		return
	}
	e.setPhase(rt, ctx.PriorPhase)
	if ctx.HandoffFrom != "" {
		e.handOffTurn(rt, ctx.HandoffFrom)
	}
}

// resolvePending resolves a held ability after its window closed un-negated.
// A failed resolution (the target may no longer exist) is logged and dropped;
// the card was already spent when the window opened.
func (e *Engine) resolvePending(rt *matchRuntime, pending match.PendingAbility) {
	ability, ok := e.registry.Ability(pending.AbilityID)
	if !ok {
		return
	}
	outcome := rt.resolver.Resolve(rt.st, abilityRequest(ability, pending.Owner, pending.Target))
	if !outcome.Applied && e.logger != nil {
		e.logger.Debug("held ability fizzled on window close",
			zap.String("match_id", rt.st.ID),
			zap.String("ability_id", pending.AbilityID),
			zap.String("reason", string(outcome.Reason)),
		)
	}
}

// fireTokenTriggers resolves the trigger abilities of every token playerID
// owns, in token-id order for determinism. Denied tokens stay silent.
func (e *Engine) fireTokenTriggers(rt *matchRuntime, trigger defs.TriggerKind, playerID string) {
	st := rt.st
	var ids []string
	for id, tok := range st.Tokens {
		if tok.Owner == playerID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, alive := st.Tokens[id]; alive {
			e.fireTokenTrigger(rt, trigger, id)
		}
	}
}

// fireTokenTrigger resolves one token's trigger ability, if its definition
// carries one for this trigger point.
func (e *Engine) fireTokenTrigger(rt *matchRuntime, trigger defs.TriggerKind, tokenID string) {
	st := rt.st
	tok, ok := st.Tokens[tokenID]
	if !ok {
		return
	}
	def, ok := e.registry.Token(tok.DefID)
	if !ok || def.AbilityID == "" {
		return
	}
	ability, ok := e.registry.Ability(def.AbilityID)
	if !ok || ability.Trigger != trigger {
		return
	}
	if tok.HasStatus(match.StatusDenied, st.Clock) {
		return
	}
	target := match.Target{TokenID: tok.ID, At: tok.At, HasHex: true}
	if ability.Reactable {
		e.openReaction(rt, match.PendingAbility{
			AbilityID: ability.ID,
			Owner:     tok.Owner,
			Target:    target,
		}, st.Phase)
		return
	}
	outcome := rt.resolver.Resolve(st, abilityRequest(ability, tok.Owner, target))
	if !outcome.Applied && e.logger != nil {
		e.logger.Debug("token trigger fizzled",
			zap.String("match_id", st.ID),
			zap.String("token_id", tok.ID),
			zap.String("ability_id", ability.ID),
			zap.String("reason", string(outcome.Reason)),
		)
	}
}

// endGame transitions to GameEnd and publishes the evaluator's verdict.
func (e *Engine) endGame(rt *matchRuntime) {
	st := rt.st
	st.Reaction = nil
	st.ReactionQueue = nil
	e.setPhase(rt, match.PhaseGameEnd)

	verdict := EvaluateWinner(st)
	data := map[string]string{"draw": fmt.Sprintf("%t", verdict.Draw)}
	for playerID, count := range verdict.TurfCounts {
		data["turfs_"+playerID] = fmt.Sprintf("%d", count)
	}
	rt.bus.Publish(rules.Event{
		Type: rules.EventGameEnded, MatchID: st.ID,
		PlayerID: verdict.Winner,
		Data:     data,
	})

	e.mu.RLock()
	recorder := e.recorder
	e.mu.RUnlock()
	if recorder != nil {
		recorder.Record(st.ID, CaptureSnapshot(st))
		if err := recorder.Save(st.ID); err != nil && e.logger != nil {
			e.logger.Warn("failed to save match replay",
				zap.String("match_id", st.ID),
				zap.Error(err),
			)
		}
	}

	if e.logger != nil {
		e.logger.Info("match ended",
			zap.String("match_id", st.ID),
			zap.String("winner", verdict.Winner),
			zap.Bool("draw", verdict.Draw),
		)
	}
}

// consumeCard moves a played card from hand to the discard pile.
func (e *Engine) consumeCard(rt *matchRuntime, player *match.Player, card *match.Card) {
	player.RemoveFromHand(card.ID)
	player.Discard = append(player.Discard, card)
	rt.bus.Publish(rules.Event{Type: rules.EventCardPlayed, MatchID: rt.st.ID, PlayerID: player.ID, CardID: card.ID})
	rt.bus.Publish(rules.Event{Type: rules.EventHandChanged, MatchID: rt.st.ID, PlayerID: player.ID, Amount: len(player.Hand)})
}

// abilityRequest maps an ability definition onto an effect request. For
// directional effects the target hex doubles as the push origin.
func abilityRequest(ability defs.AbilityDef, actor string, target match.Target) effects.Request {
	return effects.Request{
		Kind:      ability.Effect,
		Value:     ability.Value,
		Duration:  ability.Duration,
		Actor:     actor,
		Target:    target,
		TargetTag: ability.TargetTag,
		Source:    target.At,
		HasSource: target.HasHex,
	}
}
