package defs

// BaseRegistry builds the built-in definition set. Servers that load card
// content from elsewhere can start from NewRegistry instead; this set is what
// the stock server and the test suites play with.
func BaseRegistry() *Registry {
	r := NewRegistry()

	for _, def := range []TokenDef{
		{ID: "token.scrapper", Name: "Scrapper", Level: 1, Tags: []string{"ground"}},
		{ID: "token.raider", Name: "Raider", Level: 2, Tags: []string{"ground"}},
		{ID: "token.warden", Name: "Warden", Level: 3, Tags: []string{"ground"}, AbilityID: "ability.deploy_shield"},
		{ID: "token.alpha", Name: "Alpha", Level: 4, Tags: []string{"alpha"}},
		{ID: "token.herald", Name: "Herald", Level: 2, Tags: []string{"support"}, AbilityID: "ability.herald_insight"},
		{ID: "token.decoy", Name: "Decoy", Level: 1, Tags: []string{"decoy"}},
	} {
		r.AddToken(def)
	}

	for _, def := range []AbilityDef{
		{ID: "ability.supply_drop", Name: "Supply Drop", Trigger: TriggerOnPlay, Effect: EffectDraw, Value: 2},
		{ID: "ability.regroup", Name: "Regroup", Trigger: TriggerOnPlay, Effect: EffectShuffle},
		{ID: "ability.purge", Name: "Purge", Trigger: TriggerOnPlay, Effect: EffectRemove, TargetTag: "ground", Reactable: true},
		{ID: "ability.shockwave", Name: "Shockwave", Trigger: TriggerOnPlay, Effect: EffectKnockback, Value: 2, Reactable: true},
		{ID: "ability.bulwark", Name: "Bulwark", Trigger: TriggerOnPlay, Effect: EffectImmunity, Duration: 30},
		{ID: "ability.suppress", Name: "Suppress", Trigger: TriggerOnPlay, Effect: EffectDeny, Duration: 20, Reactable: true},
		{ID: "ability.field_promotion", Name: "Field Promotion", Trigger: TriggerOnPlay, Effect: EffectUpgradeToken},
		{ID: "ability.countermand", Name: "Countermand", Trigger: TriggerOnReaction, Effect: EffectNegate},
		{ID: "ability.salvage", Name: "Salvage", Trigger: TriggerOnPlay, Effect: EffectRecycle, Value: 2},
		{ID: "ability.sabotage", Name: "Sabotage", Trigger: TriggerOnPlay, Effect: EffectDiscard, Value: 2, Reactable: true},
		{ID: "ability.recon", Name: "Recon", Trigger: TriggerOnPlay, Effect: EffectPeek, Value: 3},
		{ID: "ability.duplicate", Name: "Duplicate", Trigger: TriggerOnPlay, Effect: EffectCopy},
		{ID: "ability.false_front", Name: "False Front", Trigger: TriggerOnPlay, Effect: EffectDecoy},
		{ID: "ability.gamble", Name: "Gamble", Trigger: TriggerOnPlay, Effect: EffectRollDice, Value: 2},
		{ID: "ability.deploy_shield", Name: "Deploy Shield", Trigger: TriggerOnDeploy, Effect: EffectImmunity, Duration: 10},
		{ID: "ability.herald_insight", Name: "Herald's Insight", Trigger: TriggerOnTurnStart, Effect: EffectDraw, Value: 1},
	} {
		r.AddAbility(def)
	}

	for _, def := range []CardDef{
		{ID: "card.scrapper", Name: "Scrapper", Kind: CardDeploy, Faction: "dominion", ManaCost: 1, Description: "Deploy a level 1 Scrapper.", TokenID: "token.scrapper"},
		{ID: "card.raider", Name: "Raider", Kind: CardDeploy, Faction: "dominion", ManaCost: 2, Description: "Deploy a level 2 Raider.", TokenID: "token.raider"},
		{ID: "card.warden", Name: "Warden", Kind: CardDeploy, Faction: "dominion", ManaCost: 3, Description: "Deploy a level 3 Warden. It arrives shielded.", TokenID: "token.warden"},
		{ID: "card.alpha", Name: "Alpha", Kind: CardDeploy, Faction: "dominion", ManaCost: 5, Description: "Deploy your Alpha. Only one may live.", TokenID: "token.alpha"},
		{ID: "card.herald", Name: "Herald", Kind: CardDeploy, Faction: "syndicate", ManaCost: 2, Description: "Deploy a Herald that draws you a card each turn.", TokenID: "token.herald"},
		{ID: "card.supply_drop", Name: "Supply Drop", Kind: CardEvent, Faction: "dominion", ManaCost: 1, Description: "Draw 2 cards.", AbilityID: "ability.supply_drop"},
		{ID: "card.regroup", Name: "Regroup", Kind: CardEvent, Faction: "dominion", ManaCost: 0, Description: "Shuffle your deck.", AbilityID: "ability.regroup"},
		{ID: "card.purge", Name: "Purge", Kind: CardEvent, Faction: "dominion", ManaCost: 3, Description: "Remove a ground token.", AbilityID: "ability.purge"},
		{ID: "card.shockwave", Name: "Shockwave", Kind: CardEvent, Faction: "dominion", ManaCost: 2, Description: "Knock a token back 2 hexes.", AbilityID: "ability.shockwave"},
		{ID: "card.bulwark", Name: "Bulwark", Kind: CardEvent, Faction: "dominion", ManaCost: 2, Description: "A token becomes immune for a while.", AbilityID: "ability.bulwark"},
		{ID: "card.suppress", Name: "Suppress", Kind: CardEvent, Faction: "syndicate", ManaCost: 2, Description: "A token cannot act for a while.", AbilityID: "ability.suppress"},
		{ID: "card.field_promotion", Name: "Field Promotion", Kind: CardEvent, Faction: "dominion", ManaCost: 3, Description: "Raise a token's level by one.", AbilityID: "ability.field_promotion"},
		{ID: "card.countermand", Name: "Countermand", Kind: CardEvent, Faction: "syndicate", ManaCost: 2, Description: "Negate the ability being played.", AbilityID: "ability.countermand"},
		{ID: "card.salvage", Name: "Salvage", Kind: CardEvent, Faction: "syndicate", ManaCost: 1, Description: "Shuffle 2 discarded cards back into your deck.", AbilityID: "ability.salvage"},
		{ID: "card.sabotage", Name: "Sabotage", Kind: CardEvent, Faction: "syndicate", ManaCost: 2, Description: "Opponent discards 2 cards.", AbilityID: "ability.sabotage"},
		{ID: "card.recon", Name: "Recon", Kind: CardEvent, Faction: "syndicate", ManaCost: 1, Description: "Peek at the top 3 cards of your deck.", AbilityID: "ability.recon"},
		{ID: "card.duplicate", Name: "Duplicate", Kind: CardEvent, Faction: "syndicate", ManaCost: 2, Description: "Copy a card in your hand.", AbilityID: "ability.duplicate"},
		{ID: "card.false_front", Name: "False Front", Kind: CardEvent, Faction: "syndicate", ManaCost: 1, Description: "Place a decoy token on an empty hex.", AbilityID: "ability.false_front"},
		{ID: "card.gamble", Name: "Gamble", Kind: CardEvent, Faction: "syndicate", ManaCost: 0, Description: "Roll 2 dice.", AbilityID: "ability.gamble"},
	} {
		r.AddCard(def)
	}

	for _, def := range []LeaderDef{
		{ID: "leader.vance", Name: "Commander Vance", Faction: "dominion", SkillID: "ability.shockwave", SkillCooldown: 120},
		{ID: "leader.mireille", Name: "Broker Mireille", Faction: "syndicate", SkillID: "ability.supply_drop", SkillCooldown: 90},
	} {
		r.AddLeader(def)
	}

	return r
}

// BaseDeck returns the default 20-card deck list used when a match is created
// without explicit deck lists. Order is pre-shuffle; setup shuffles it with
// the match rng.
func BaseDeck() []string {
	return []string{
		"card.scrapper", "card.scrapper", "card.scrapper",
		"card.raider", "card.raider",
		"card.warden", "card.warden",
		"card.alpha",
		"card.herald",
		"card.supply_drop", "card.supply_drop",
		"card.purge",
		"card.shockwave",
		"card.bulwark",
		"card.suppress",
		"card.field_promotion",
		"card.countermand",
		"card.sabotage",
		"card.recon",
		"card.false_front",
	}
}
