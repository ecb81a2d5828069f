// Package rules provides the mechanics layer between the raw match data and
// the engine: the event bus, the per-turn contract, and the reaction-window
// protocol.
package rules

import (
	"sync"

	"github.com/hexturf/turf-server-go/internal/game/hex"
)

// EventType indicates the category of a rules event.
type EventType string

const (
	// Notification-boundary events, consumed by external collaborators.
	EventStateChanged   EventType = "STATE_CHANGED"
	EventTileChanged    EventType = "TILE_CHANGED"
	EventHandChanged    EventType = "HAND_CHANGED"
	EventTimerTick      EventType = "TIMER_TICK"
	EventReactionOpened EventType = "REACTION_OPENED"
	EventReactionClosed EventType = "REACTION_CLOSED"
	EventGameEnded      EventType = "GAME_ENDED"

	// Gameplay events, consumed by trigger wiring and watchers.
	EventTurnStarted    EventType = "TURN_STARTED"
	EventTurnEnded      EventType = "TURN_ENDED"
	EventCardDrawn      EventType = "CARD_DRAWN"
	EventEmptyDeck      EventType = "EMPTY_DECK"
	EventCardPlayed     EventType = "CARD_PLAYED"
	EventCardDiscarded  EventType = "CARD_DISCARDED"
	EventDeckShuffled   EventType = "DECK_SHUFFLED"
	EventCardsPeeked    EventType = "CARDS_PEEKED"
	EventTokenDeployed  EventType = "TOKEN_DEPLOYED"
	EventTokenRemoved   EventType = "TOKEN_REMOVED"
	EventTokenMoved     EventType = "TOKEN_MOVED"
	EventTokenUpgraded  EventType = "TOKEN_UPGRADED"
	EventStatusGranted  EventType = "STATUS_GRANTED"
	EventDiceRolled     EventType = "DICE_ROLLED"
	EventAbilityNegated EventType = "ABILITY_NEGATED"
)

// TimerKind names which countdown a TIMER_TICK event refers to.
type TimerKind string

const (
	TimerTurn     TimerKind = "TURN"
	TimerReaction TimerKind = "REACTION"
	TimerGame     TimerKind = "GAME"
)

// Event represents a state change that other subsystems may react to.
type Event struct {
	Type     EventType
	MatchID  string
	PlayerID string
	TokenID  string
	CardID   string
	TargetID string
	Amount   int
	Value    float64
	Timer    TimerKind
	At       hex.Hex
	HasHex   bool
	Data     map[string]string
}

// Listener reacts to incoming events.
type Listener func(Event)

type subscription struct {
	handle    int
	eventType EventType
	typed     bool
	callback  Listener
}

// EventBus is a synchronous publish/subscribe implementation. Dispatch is
// deterministic: listeners run in registration order, so test harnesses and
// replays observe reproducible ordering.
type EventBus struct {
	mu         sync.Mutex
	subs       []subscription
	nextHandle int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.subs = append(bus.subs, subscription{handle: handle, callback: listener})
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.subs = append(bus.subs, subscription{
		handle:    handle,
		eventType: eventType,
		typed:     true,
		callback:  listener,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i, sub := range bus.subs {
		if sub.handle == handle {
			bus.subs = append(bus.subs[:i], bus.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers the event to matching listeners in registration order.
func (bus *EventBus) Publish(event Event) {
	bus.mu.Lock()
	subs := make([]subscription, len(bus.subs))
	copy(subs, bus.subs)
	bus.mu.Unlock()

	for _, sub := range subs {
		if sub.typed && sub.eventType != event.Type {
			continue
		}
		sub.callback(event)
	}
}
