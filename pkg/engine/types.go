// Package engine fuses the detection layers into a graded moderation
// decision and drives the per-analysis identity commit. It is the public
// API of the pipeline: callers hand in raw text and get back an action
// level with full audit detail.
package engine

import (
	"errors"
	"time"

	"github.com/kotodama/palisade/pkg/cascade"
	"github.com/kotodama/palisade/pkg/identity"
)

// ErrInvalidInput reports a malformed user id or text exceeding the
// configured bound. Nothing is analyzed and no state is mutated.
var ErrInvalidInput = errors.New("engine: invalid input")

// ThreatLevel grades how dangerous one analysis looked.
type ThreatLevel int

const (
	ThreatSafe ThreatLevel = iota
	ThreatLow
	ThreatMedium
	ThreatHigh
	ThreatCritical
	// ThreatEmergency is reserved for full-cascade events.
	ThreatEmergency
)

var threatNames = [...]string{
	ThreatSafe:      "SAFE",
	ThreatLow:       "LOW",
	ThreatMedium:    "MEDIUM",
	ThreatHigh:      "HIGH",
	ThreatCritical:  "CRITICAL",
	ThreatEmergency: "EMERGENCY",
}

func (t ThreatLevel) String() string {
	if t < 0 || int(t) >= len(threatNames) {
		return "UNKNOWN"
	}
	return threatNames[t]
}

// ActionLevel is the graded moderation outcome consumed by the external
// response selector.
type ActionLevel int

const (
	ActionAllow ActionLevel = iota
	ActionMonitor
	ActionRestrict
	ActionShield
	ActionBlock
)

var actionNames = [...]string{
	ActionAllow:    "ALLOW",
	ActionMonitor:  "MONITOR",
	ActionRestrict: "RESTRICT",
	ActionShield:   "SHIELD",
	ActionBlock:    "BLOCK",
}

func (a ActionLevel) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "UNKNOWN"
	}
	return actionNames[a]
}

// Request is one analysis call.
type Request struct {
	UserID string
	Text   string

	// ExternalSignals are already-derived multimodal features; the core
	// never inspects media itself.
	ExternalSignals cascade.ExternalSignals

	// History optionally supplies prior canonical texts, oldest first.
	// When empty, the identity's stored recent history is used.
	History []string
}

// Result is the outcome of one analysis.
type Result struct {
	ThreatDetected  bool
	ThreatLevel     ThreatLevel
	ActionLevel     ActionLevel
	AttackType      string
	Confidence      float64
	PatternsMatched []string
	CascadeTriggers []cascade.Trigger
	SequenceStages  []string
	ProcessingTime  time.Duration
	Timestamp       time.Time

	// IdentityTier is the tier after this analysis committed.
	IdentityTier identity.Tier

	// StateDurable is false when the identity write could not be persisted
	// and the fail-cautious path was taken.
	StateDurable bool
}

// Status is the read-only identity view for observability.
type Status struct {
	Tier            identity.Tier
	TrustScore      float64
	RecentFlagCount int
}
