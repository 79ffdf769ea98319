// Package identity owns the persistent per-identity trust and escalation
// state. All mutation flows through the Manager; every other component
// receives read-only snapshots. Records are committed with optimistic
// concurrency against a version counter so an escalation computed earlier
// is never silently overwritten by a lower-severity delta committed later.
package identity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tier is the ordered attacker tier. It only increases via the escalation
// protocol and only decreases via the explicit recovery protocol.
type Tier int

const (
	TierClean Tier = iota
	TierWatched
	TierCautioned
	TierHostile
	TierConfirmed
	TierSealed
)

var tierNames = [...]string{
	TierClean:     "CLEAN",
	TierWatched:   "WATCHED",
	TierCautioned: "CAUTIONED",
	TierHostile:   "HOSTILE",
	TierConfirmed: "CONFIRMED",
	TierSealed:    "SEALED",
}

func (t Tier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return "UNKNOWN"
	}
	return tierNames[t]
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool { return t >= TierClean && t <= TierSealed }

// HistorySize bounds the recent-history ring buffer.
const HistorySize = 20

// Flag is one append-only incident marker on an identity.
type Flag struct {
	Kind        string    `json:"kind"`
	Timestamp   time.Time `json:"timestamp"`
	EvidenceRef string    `json:"evidence_ref"`
}

// Turn is one canonicalized turn retained in the recent-history ring.
type Turn struct {
	Canonical  string    `json:"canonical"`
	Categories []string  `json:"categories,omitempty"`
	Stages     []string  `json:"stages,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Record is the persistent state for one identity. Version is the
// compare-and-set counter; stores reject a save whose version does not
// match the stored one.
type Record struct {
	ID                 string    `json:"id"`
	TrustScore         float64   `json:"trust_score"`
	Tier               Tier      `json:"tier"`
	Flags              []Flag    `json:"flags,omitempty"`
	RecentHistory      []Turn    `json:"recent_history,omitempty"`
	VigilantUntil      time.Time `json:"vigilant_until,omitempty"`
	CleanStreak        int       `json:"clean_streak"`
	ConsecutiveAttacks int       `json:"consecutive_attacks"`
	Version            uint64    `json:"version"`
	LastSeen           time.Time `json:"last_seen"`
}

// NewRecord creates the initial state for an unseen identity.
func NewRecord(id string) *Record {
	return &Record{
		ID:         id,
		TrustScore: 1.0,
		Tier:       TierClean,
	}
}

// Validate checks the record invariants. A violation means the stored
// record is corrupt and must be reset, never trusted.
func (r *Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("identity record has empty id")
	}
	if r.TrustScore < 0 || r.TrustScore > 1 {
		return fmt.Errorf("identity %s trust score %v outside [0,1]", r.ID, r.TrustScore)
	}
	if !r.Tier.Valid() {
		return fmt.Errorf("identity %s has unknown tier %d", r.ID, int(r.Tier))
	}
	if len(r.RecentHistory) > HistorySize {
		return fmt.Errorf("identity %s history length %d exceeds %d", r.ID, len(r.RecentHistory), HistorySize)
	}
	return nil
}

// PushTurn appends a turn to the history ring, evicting the oldest entry
// past HistorySize.
func (r *Record) PushTurn(t Turn) {
	r.RecentHistory = append(r.RecentHistory, t)
	if len(r.RecentHistory) > HistorySize {
		r.RecentHistory = r.RecentHistory[len(r.RecentHistory)-HistorySize:]
	}
}

// AddFlag appends an incident flag and returns its evidence reference.
func (r *Record) AddFlag(kind string, now time.Time) string {
	ref := uuid.NewString()
	r.Flags = append(r.Flags, Flag{Kind: kind, Timestamp: now, EvidenceRef: ref})
	return ref
}

// Vigilant reports whether the identity is inside its vigilance window.
func (r *Record) Vigilant(now time.Time) bool {
	return now.Before(r.VigilantUntil)
}

// HistoryTexts returns the canonical texts in the ring, oldest first.
func (r *Record) HistoryTexts() []string {
	texts := make([]string, len(r.RecentHistory))
	for i, t := range r.RecentHistory {
		texts[i] = t.Canonical
	}
	return texts
}

// Clone returns a deep copy safe to mutate without aliasing stored state.
func (r *Record) Clone() *Record {
	c := *r
	if r.Flags != nil {
		c.Flags = append([]Flag(nil), r.Flags...)
	}
	if r.RecentHistory != nil {
		c.RecentHistory = make([]Turn, len(r.RecentHistory))
		for i, t := range r.RecentHistory {
			c.RecentHistory[i] = t
			if t.Categories != nil {
				c.RecentHistory[i].Categories = append([]string(nil), t.Categories...)
			}
			if t.Stages != nil {
				c.RecentHistory[i].Stages = append([]string(nil), t.Stages...)
			}
		}
	}
	return &c
}
