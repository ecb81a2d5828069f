// Package defs holds the immutable definition tables for cards, tokens,
// abilities, and leaders. Tables are loaded once at startup and validated
// before any match begins; runtime entities refer to definitions by id and
// never copy or mutate them.
package defs

import "fmt"

// CardKind distinguishes deploy cards from event cards.
type CardKind string

const (
	CardDeploy CardKind = "DEPLOY"
	CardEvent  CardKind = "EVENT"
)

// TriggerKind identifies when an ability fires.
type TriggerKind string

const (
	TriggerOnPlay      TriggerKind = "ON_PLAY"
	TriggerOnDeploy    TriggerKind = "ON_DEPLOY"
	TriggerOnTurnStart TriggerKind = "ON_TURN_START"
	TriggerOnTurnEnd   TriggerKind = "ON_TURN_END"
	TriggerOnReaction  TriggerKind = "ON_REACTION"
)

// EffectKind names an effect the resolution engine can apply.
type EffectKind string

const (
	EffectDraw         EffectKind = "DRAW"
	EffectShuffle      EffectKind = "SHUFFLE"
	EffectDeploy       EffectKind = "DEPLOY"
	EffectRemove       EffectKind = "REMOVE"
	EffectNegate       EffectKind = "NEGATE"
	EffectImmunity     EffectKind = "IMMUNITY"
	EffectDeny         EffectKind = "DENY"
	EffectKnockback    EffectKind = "KNOCKBACK"
	EffectRecycle      EffectKind = "RECYCLE"
	EffectDiscard      EffectKind = "DISCARD"
	EffectPeek         EffectKind = "PEEK"
	EffectCopy         EffectKind = "COPY"
	EffectDecoy        EffectKind = "DECOY"
	EffectUpgradeToken EffectKind = "UPGRADE_TOKEN"
	EffectRollDice     EffectKind = "ROLL_DICE"
)

// Token level bounds. Level 4 is the unique Alpha token.
const (
	MinTokenLevel = 1
	MaxTokenLevel = 4
	AlphaLevel    = 4
)

// DecoyTokenID is the token template the Decoy effect places. Registries
// containing a Decoy ability must define it.
const DecoyTokenID = "token.decoy"

// TokenDef describes a deployable token template.
type TokenDef struct {
	ID    string
	Name  string
	Level int
	Tags  []string
	// AbilityID, when set, fires at the ability's trigger point while the
	// token is alive (OnDeploy, OnTurnStart, OnTurnEnd).
	AbilityID string
}

// IsAlpha reports whether this template is the unique level-4 token.
func (d TokenDef) IsAlpha() bool {
	return d.Level == AlphaLevel
}

// AbilityDef describes a resolvable ability.
type AbilityDef struct {
	ID        string
	Name      string
	Trigger   TriggerKind
	Effect    EffectKind
	Value     int
	Duration  float64
	TargetTag string
	// Reactable abilities open a reaction window when played; their effect
	// is held until the window closes un-negated.
	Reactable bool
}

// CardDef describes a card. Deploy cards reference exactly one token
// template; event cards reference exactly one ability.
type CardDef struct {
	ID          string
	Name        string
	Kind        CardKind
	Faction     string
	ManaCost    int
	Description string
	TokenID     string
	AbilityID   string
}

// LeaderDef describes a player leader and its active skill.
type LeaderDef struct {
	ID            string
	Name          string
	Faction       string
	SkillID       string
	SkillCooldown float64
}

// Registry is the loaded set of definition tables.
type Registry struct {
	tokens    map[string]TokenDef
	abilities map[string]AbilityDef
	cards     map[string]CardDef
	leaders   map[string]LeaderDef
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tokens:    make(map[string]TokenDef),
		abilities: make(map[string]AbilityDef),
		cards:     make(map[string]CardDef),
		leaders:   make(map[string]LeaderDef),
	}
}

// AddToken registers a token template.
func (r *Registry) AddToken(def TokenDef) {
	r.tokens[def.ID] = def
}

// AddAbility registers an ability definition.
func (r *Registry) AddAbility(def AbilityDef) {
	r.abilities[def.ID] = def
}

// AddCard registers a card definition.
func (r *Registry) AddCard(def CardDef) {
	r.cards[def.ID] = def
}

// AddLeader registers a leader definition.
func (r *Registry) AddLeader(def LeaderDef) {
	r.leaders[def.ID] = def
}

// Token looks up a token template by id.
func (r *Registry) Token(id string) (TokenDef, bool) {
	def, ok := r.tokens[id]
	return def, ok
}

// Ability looks up an ability definition by id.
func (r *Registry) Ability(id string) (AbilityDef, bool) {
	def, ok := r.abilities[id]
	return def, ok
}

// Card looks up a card definition by id.
func (r *Registry) Card(id string) (CardDef, bool) {
	def, ok := r.cards[id]
	return def, ok
}

// Leader looks up a leader definition by id.
func (r *Registry) Leader(id string) (LeaderDef, bool) {
	def, ok := r.leaders[id]
	return def, ok
}

// TokenCount reports the number of registered token templates.
func (r *Registry) TokenCount() int { return len(r.tokens) }

// AbilityCount reports the number of registered ability definitions.
func (r *Registry) AbilityCount() int { return len(r.abilities) }

// CardCount reports the number of registered card definitions.
func (r *Registry) CardCount() int { return len(r.cards) }

// LeaderCount reports the number of registered leader definitions.
func (r *Registry) LeaderCount() int { return len(r.leaders) }

// Validate checks every cross-table reference and every declared invariant.
// It fails fast so the engine never enters a match with a dangling data
// reference.
func (r *Registry) Validate() error {
	for id, tok := range r.tokens {
		if tok.Level < MinTokenLevel || tok.Level > MaxTokenLevel {
			return fmt.Errorf("token %q: level %d outside [%d,%d]", id, tok.Level, MinTokenLevel, MaxTokenLevel)
		}
		if tok.AbilityID != "" {
			ability, ok := r.abilities[tok.AbilityID]
			if !ok {
				return fmt.Errorf("token %q: unknown ability %q", id, tok.AbilityID)
			}
			switch ability.Trigger {
			case TriggerOnDeploy, TriggerOnTurnStart, TriggerOnTurnEnd:
			default:
				return fmt.Errorf("token %q: ability %q has non-token trigger %s", id, tok.AbilityID, ability.Trigger)
			}
		}
	}

	for id, card := range r.cards {
		switch card.Kind {
		case CardDeploy:
			if card.TokenID == "" {
				return fmt.Errorf("deploy card %q: missing token reference", id)
			}
			if _, ok := r.tokens[card.TokenID]; !ok {
				return fmt.Errorf("deploy card %q: unknown token %q", id, card.TokenID)
			}
			if card.AbilityID != "" {
				return fmt.Errorf("deploy card %q: must not reference an ability", id)
			}
		case CardEvent:
			if card.AbilityID == "" {
				return fmt.Errorf("event card %q: missing ability reference", id)
			}
			if _, ok := r.abilities[card.AbilityID]; !ok {
				return fmt.Errorf("event card %q: unknown ability %q", id, card.AbilityID)
			}
			if card.TokenID != "" {
				return fmt.Errorf("event card %q: must not reference a token", id)
			}
		default:
			return fmt.Errorf("card %q: unknown kind %q", id, card.Kind)
		}
		if card.ManaCost < 0 {
			return fmt.Errorf("card %q: negative mana cost", id)
		}
	}

	for id, ability := range r.abilities {
		if ability.Effect == EffectDecoy {
			if _, ok := r.tokens[DecoyTokenID]; !ok {
				return fmt.Errorf("ability %q: decoy effect requires token %q", id, DecoyTokenID)
			}
		}
	}

	for id, leader := range r.leaders {
		if leader.SkillID == "" {
			continue
		}
		if _, ok := r.abilities[leader.SkillID]; !ok {
			return fmt.Errorf("leader %q: unknown skill ability %q", id, leader.SkillID)
		}
		if leader.SkillCooldown < 0 {
			return fmt.Errorf("leader %q: negative skill cooldown", id)
		}
	}

	return nil
}
