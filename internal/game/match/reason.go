package match

// Reason is a stable code explaining why an action was rejected or flagged.
// Rejected actions leave the match state untouched; reasons are part of the
// caller-facing contract and never carried as Go errors.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonNotYourTurn        Reason = "not_your_turn"
	ReasonWrongPhase         Reason = "wrong_phase"
	ReasonDeployAlreadyUsed  Reason = "deploy_already_used"
	ReasonUnknownCard        Reason = "unknown_card"
	ReasonWrongCardKind      Reason = "wrong_card_kind"
	ReasonNoTile             Reason = "no_tile"
	ReasonTileBlocked        Reason = "tile_blocked"
	ReasonTileOccupied       Reason = "tile_occupied"
	ReasonEmptyDeck          Reason = "empty_deck"
	ReasonHandFull           Reason = "hand_full"
	ReasonTargetImmune       Reason = "target_immune"
	ReasonTargetDenied       Reason = "target_denied"
	ReasonNoTarget           Reason = "no_target"
	ReasonBadTarget          Reason = "bad_target"
	ReasonLevelCapped        Reason = "level_capped"
	ReasonAlphaExists        Reason = "alpha_exists"
	ReasonNoReactionWindow   Reason = "no_reaction_window"
	ReasonNotResponder       Reason = "not_responder"
	ReasonResponderActed     Reason = "responder_already_acted"
	ReasonNotReactive        Reason = "not_reactive"
	ReasonSkillOnCooldown    Reason = "skill_on_cooldown"
	ReasonMatchOver          Reason = "match_over"
	ReasonNothingToDo        Reason = "nothing_to_do"
)
