package match

import (
	"github.com/hexturf/turf-server-go/internal/game/defs"
	"github.com/hexturf/turf-server-go/internal/game/hex"
)

// StatusKind identifies a timed status carried by a token.
type StatusKind string

const (
	// StatusImmune suppresses Remove and Knockback while active.
	StatusImmune StatusKind = "IMMUNE"
	// StatusDenied marks the token unable to act while active.
	StatusDenied StatusKind = "DENIED"
)

// Status is a timed status effect. ExpiresAt is measured on the match clock;
// the status is active strictly before that instant and cleared exactly at
// expiry during Advance.
type Status struct {
	Kind      StatusKind
	ExpiresAt float64
}

// Token is a leveled piece on the board.
type Token struct {
	ID       string
	DefID    string
	Level    int
	Owner    string
	At       hex.Hex
	Statuses []Status
}

// IsAlpha reports whether the token is its owner's unique level-4 piece.
func (t *Token) IsAlpha() bool {
	return t.Level == defs.AlphaLevel
}

// HasStatus reports whether a status of the given kind is active at `now`.
func (t *Token) HasStatus(kind StatusKind, now float64) bool {
	for _, s := range t.Statuses {
		if s.Kind == kind && s.ExpiresAt > now {
			return true
		}
	}
	return false
}

// AddStatus grants a status expiring `duration` units after `now`. A second
// grant of the same kind extends rather than stacks: the later expiry wins.
func (t *Token) AddStatus(kind StatusKind, now, duration float64) {
	expires := now + duration
	for i, s := range t.Statuses {
		if s.Kind == kind {
			if expires > s.ExpiresAt {
				t.Statuses[i].ExpiresAt = expires
			}
			return
		}
	}
	t.Statuses = append(t.Statuses, Status{Kind: kind, ExpiresAt: expires})
}

// PurgeExpired drops every status whose expiry has been reached.
func (t *Token) PurgeExpired(now float64) {
	kept := t.Statuses[:0]
	for _, s := range t.Statuses {
		if s.ExpiresAt > now {
			kept = append(kept, s)
		}
	}
	t.Statuses = kept
}
