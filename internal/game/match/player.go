package match

import "github.com/hexturf/turf-server-go/internal/game/hex"

// Card is a runtime card instance. Definition data lives in the defs
// registry; instances only carry identity and ownership.
type Card struct {
	ID    string
	DefID string
	Owner string
}

// Player holds one side's zones and per-match bookkeeping.
type Player struct {
	ID       string
	Name     string
	LeaderID string
	// Deck is ordered; index 0 is the top.
	Deck []*Card
	// Hand is ordered by acquisition; overflow discards from the tail.
	Hand    []*Card
	Discard []*Card
	// Turfs are this player's secretly assigned scoring hexes.
	Turfs []hex.Hex
	// SkillReadyAt is the match-clock instant the leader skill comes off
	// cooldown.
	SkillReadyAt float64
}

// DrawOne pops the top card of the deck into the hand. Returns the drawn
// card, or false when the deck is empty (the EmptyDeck signal: a no-op, not
// an error).
func (p *Player) DrawOne() (*Card, bool) {
	if len(p.Deck) == 0 {
		return nil, false
	}
	card := p.Deck[0]
	p.Deck = p.Deck[1:]
	p.Hand = append(p.Hand, card)
	return card, true
}

// CardInHand finds a hand card by id.
func (p *Player) CardInHand(cardID string) (*Card, bool) {
	for _, c := range p.Hand {
		if c.ID == cardID {
			return c, true
		}
	}
	return nil, false
}

// RemoveFromHand takes a card out of the hand, preserving order.
func (p *Player) RemoveFromHand(cardID string) (*Card, bool) {
	for i, c := range p.Hand {
		if c.ID == cardID {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return c, true
		}
	}
	return nil, false
}

// DiscardFromTail moves up to n cards from the end of the hand to the
// discard pile, most recently added first. Returns the discarded cards in
// the order they were discarded.
func (p *Player) DiscardFromTail(n int) []*Card {
	var discarded []*Card
	for i := 0; i < n && len(p.Hand) > 0; i++ {
		last := len(p.Hand) - 1
		card := p.Hand[last]
		p.Hand = p.Hand[:last]
		p.Discard = append(p.Discard, card)
		discarded = append(discarded, card)
	}
	return discarded
}
