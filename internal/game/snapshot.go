package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	hexgrid "github.com/hexturf/turf-server-go/internal/game/hex"
	"github.com/hexturf/turf-server-go/internal/game/match"
)

// Snapshot is a deep, serializable copy of a match state. It carries every
// field needed to reconstruct or audit a position; the rng is reproduced from
// the seed, not copied.
type Snapshot struct {
	MatchID string
	Seed    int64
	Radius  int
	Phase   match.Phase

	Order      []string
	Active     string
	DeployUsed bool

	TurnRemaining float64
	GameRemaining float64
	Clock         float64

	Players  map[string]PlayerSnapshot
	Tiles    []TileSnapshot
	Tokens   map[string]TokenSnapshot
	Reaction *ReactionSnapshot

	Timestamp time.Time
}

// PlayerSnapshot copies one side's zones by value.
type PlayerSnapshot struct {
	ID           string
	Name         string
	LeaderID     string
	Deck         []CardSnapshot
	Hand         []CardSnapshot
	Discard      []CardSnapshot
	Turfs        []hexgrid.Hex
	SkillReadyAt float64
}

// CardSnapshot is a card instance without back-references.
type CardSnapshot struct {
	ID    string
	DefID string
}

// TileSnapshot is one board cell.
type TileSnapshot struct {
	At          hexgrid.Hex
	Owner       string
	Occupant    string
	Turf        bool
	LayerOffset float64
}

// TokenSnapshot is one token with its statuses.
type TokenSnapshot struct {
	ID       string
	DefID    string
	Level    int
	Owner    string
	At       hexgrid.Hex
	Statuses []match.Status
}

// ReactionSnapshot copies the open window and its queue.
type ReactionSnapshot struct {
	WindowID       string
	Initiator      string
	Responder      string
	Remaining      float64
	PriorPhase     match.Phase
	Pending        match.PendingAbility
	Negated        bool
	ResponderActed bool
	HandoffFrom    string
	Queue          []match.PendingAbility
}

// CaptureSnapshot deep-copies the state. Tiles are emitted in coordinate
// order so two captures of equal states are structurally identical.
func CaptureSnapshot(st *match.State) *Snapshot {
	snap := &Snapshot{
		MatchID:       st.ID,
		Seed:          st.Seed,
		Radius:        st.Radius,
		Phase:         st.Phase,
		Order:         append([]string(nil), st.Order...),
		Active:        st.Active,
		DeployUsed:    st.DeployUsed,
		TurnRemaining: st.TurnRemaining,
		GameRemaining: st.GameRemaining,
		Clock:         st.Clock,
		Players:       make(map[string]PlayerSnapshot, len(st.Players)),
		Tokens:        make(map[string]TokenSnapshot, len(st.Tokens)),
		Timestamp:     time.Now(),
	}

	for id, player := range st.Players {
		snap.Players[id] = PlayerSnapshot{
			ID:           player.ID,
			Name:         player.Name,
			LeaderID:     player.LeaderID,
			Deck:         copyCards(player.Deck),
			Hand:         copyCards(player.Hand),
			Discard:      copyCards(player.Discard),
			Turfs:        append([]hexgrid.Hex(nil), player.Turfs...),
			SkillReadyAt: player.SkillReadyAt,
		}
	}

	snap.Tiles = make([]TileSnapshot, 0, len(st.Tiles))
	for _, tile := range st.Tiles {
		snap.Tiles = append(snap.Tiles, TileSnapshot{
			At:          tile.At,
			Owner:       tile.Owner,
			Occupant:    tile.Occupant,
			Turf:        tile.Turf,
			LayerOffset: tile.LayerOffset,
		})
	}
	sort.Slice(snap.Tiles, func(i, j int) bool {
		if snap.Tiles[i].At.Q != snap.Tiles[j].At.Q {
			return snap.Tiles[i].At.Q < snap.Tiles[j].At.Q
		}
		return snap.Tiles[i].At.R < snap.Tiles[j].At.R
	})

	for id, tok := range st.Tokens {
		snap.Tokens[id] = TokenSnapshot{
			ID:       tok.ID,
			DefID:    tok.DefID,
			Level:    tok.Level,
			Owner:    tok.Owner,
			At:       tok.At,
			Statuses: append([]match.Status(nil), tok.Statuses...),
		}
	}

	if st.Reaction != nil {
		snap.Reaction = &ReactionSnapshot{
			WindowID:       st.Reaction.WindowID,
			Initiator:      st.Reaction.Initiator,
			Responder:      st.Reaction.Responder,
			Remaining:      st.Reaction.Remaining,
			PriorPhase:     st.Reaction.PriorPhase,
			Pending:        st.Reaction.Pending,
			Negated:        st.Reaction.Negated,
			ResponderActed: st.Reaction.ResponderActed,
			HandoffFrom:    st.Reaction.HandoffFrom,
			Queue:          append([]match.PendingAbility(nil), st.ReactionQueue...),
		}
	}
	return snap
}

// Checksum is a deterministic digest of a snapshot's game-relevant content.
type Checksum struct {
	Hash    string
	Version int
}

// ComputeChecksum hashes a canonical string form of the snapshot. Two
// snapshots of equal game content always hash equal regardless of capture
// time or map iteration order.
func (s *Snapshot) ComputeChecksum() Checksum {
	sum := sha256.Sum256([]byte(s.canonicalString()))
	return Checksum{Hash: hex.EncodeToString(sum[:]), Version: 1}
}

// canonicalString renders the snapshot with sorted keys and without the
// timestamp.
func (s *Snapshot) canonicalString() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "MATCH:%s|%d|%d|%s|%s|%t|%g|%g|%g\n",
		s.MatchID, s.Seed, s.Radius, s.Phase, s.Active, s.DeployUsed,
		s.TurnRemaining, s.GameRemaining, s.Clock)
	buf.WriteString("ORDER:" + strings.Join(s.Order, ",") + "\n")

	playerIDs := make([]string, 0, len(s.Players))
	for id := range s.Players {
		playerIDs = append(playerIDs, id)
	}
	sort.Strings(playerIDs)
	for _, id := range playerIDs {
		p := s.Players[id]
		fmt.Fprintf(&buf, "PLAYER:%s|%s|%s|%g\n", p.ID, p.Name, p.LeaderID, p.SkillReadyAt)
		writeCardZone(&buf, "DECK", p.Deck)
		writeCardZone(&buf, "HAND", p.Hand)
		writeCardZone(&buf, "DISCARD", p.Discard)
		for _, at := range p.Turfs {
			fmt.Fprintf(&buf, "  TURF:%s\n", at)
		}
	}

	// Tiles are already in coordinate order from capture.
	for _, tile := range s.Tiles {
		fmt.Fprintf(&buf, "TILE:%s|%s|%s|%t\n", tile.At, tile.Owner, tile.Occupant, tile.Turf)
	}

	tokenIDs := make([]string, 0, len(s.Tokens))
	for id := range s.Tokens {
		tokenIDs = append(tokenIDs, id)
	}
	sort.Strings(tokenIDs)
	for _, id := range tokenIDs {
		tok := s.Tokens[id]
		fmt.Fprintf(&buf, "TOKEN:%s|%s|%d|%s|%s\n", tok.ID, tok.DefID, tok.Level, tok.Owner, tok.At)
		for _, status := range tok.Statuses {
			fmt.Fprintf(&buf, "  STATUS:%s|%g\n", status.Kind, status.ExpiresAt)
		}
	}

	if s.Reaction != nil {
		r := s.Reaction
		fmt.Fprintf(&buf, "REACTION:%s|%s|%s|%g|%s|%t|%t|%s\n",
			r.WindowID, r.Initiator, r.Responder, r.Remaining, r.PriorPhase,
			r.Negated, r.ResponderActed, r.HandoffFrom)
		fmt.Fprintf(&buf, "  PENDING:%s|%s|%s\n", r.Pending.CardID, r.Pending.AbilityID, r.Pending.Owner)
		for i, q := range r.Queue {
			fmt.Fprintf(&buf, "  QUEUED:%d|%s|%s|%s\n", i, q.CardID, q.AbilityID, q.Owner)
		}
	}
	return buf.String()
}

func writeCardZone(buf *bytes.Buffer, zone string, cards []CardSnapshot) {
	// Zone order matters (deck top, hand acquisition, discard history).
	for i, card := range cards {
		fmt.Fprintf(buf, "  %s:%d|%s|%s\n", zone, i, card.ID, card.DefID)
	}
}

// Encode serializes the snapshot with gob.
func (s *Snapshot) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot deserializes a gob-encoded snapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

func copyCards(cards []*match.Card) []CardSnapshot {
	out := make([]CardSnapshot, len(cards))
	for i, card := range cards {
		out[i] = CardSnapshot{ID: card.ID, DefID: card.DefID}
	}
	return out
}
