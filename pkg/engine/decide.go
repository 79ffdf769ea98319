package engine

import (
	"github.com/kotodama/palisade/pkg/cascade"
	"github.com/kotodama/palisade/pkg/identity"
	"github.com/kotodama/palisade/pkg/sequence"
	"github.com/kotodama/palisade/pkg/signature"
)

// decision is the fused verdict before the identity commit.
type decision struct {
	threat     ThreatLevel
	action     ActionLevel
	attackType string
	confidence float64
	score      float64
}

// thresholds carries the ascending score-to-action cut points.
type thresholds struct {
	monitor  float64
	restrict float64
	shield   float64
	block    float64
}

// sensitivity scales scoring pressure per tier. Escalated identities get
// stricter reads of identical input.
var sensitivity = [identity.TierSealed + 1]float64{
	identity.TierClean:     1.0,
	identity.TierWatched:   1.2,
	identity.TierCautioned: 1.5,
	identity.TierHostile:   2.0,
	identity.TierConfirmed: 3.0,
	identity.TierSealed:    5.0,
}

// perStageBonus feeds each distinct domination stage into the score;
// inOrderBonus rewards stages arriving in the canonical attack order.
const (
	perStageBonus = 0.15
	inOrderBonus  = 0.10
)

// decide fuses one event's detection outputs with the identity snapshot.
// Priority order: full cascade overrides everything, then the
// CONFIRMED/SEALED posture, then the weighted score.
func decide(matches []signature.Match, seq sequence.Signal, cas cascade.Signal, rec *identity.Record, th thresholds, vigilant bool) decision {
	score := fusedScore(matches, seq, rec, th)

	// Rule 1: a full cascade is a categorical override.
	if cas.FullCascade {
		return decision{
			threat:     ThreatEmergency,
			action:     ActionBlock,
			attackType: "cascade",
			confidence: maxf(confidence(matches, seq), 0.95),
			score:      score,
		}
	}

	// SEALED identities are audited but never answered.
	if rec.Tier == identity.TierSealed {
		return decision{
			threat:     threatForScore(score, th),
			action:     ActionBlock,
			attackType: attackType(matches, seq),
			confidence: confidence(matches, seq),
			score:      score,
		}
	}

	// Rule 2: a CONFIRMED attacker gets no benefit of the doubt on any hit.
	if rec.Tier == identity.TierConfirmed && (len(matches) > 0 || seq.MarkerInTurn) {
		action := ActionShield
		if score >= th.shield {
			action = ActionBlock
		}
		return decision{
			threat:     maxThreat(threatForScore(score, th), ThreatHigh),
			action:     action,
			attackType: attackType(matches, seq),
			confidence: confidence(matches, seq),
			score:      score,
		}
	}

	// Rule 3: threshold mapping of the weighted score.
	d := decision{
		threat:     threatForScore(score, th),
		action:     actionForScore(score, th),
		attackType: attackType(matches, seq),
		confidence: confidence(matches, seq),
		score:      score,
	}

	// Vigilance floor: once a domination marker is on record, anything
	// that matches is handled at RESTRICT or worse for the session window.
	if vigilant && (len(matches) > 0 || seq.MarkerInTurn) && d.action < ActionRestrict {
		d.action = ActionRestrict
		d.threat = maxThreat(d.threat, ThreatMedium)
	}
	return d
}

// fusedScore sums match weights and the sequence bonus, then amplifies by
// distrust and tier sensitivity. Clamped to [0,1].
func fusedScore(matches []signature.Match, seq sequence.Signal, rec *identity.Record, th thresholds) float64 {
	score := 0.0
	for _, m := range matches {
		score += m.Weight
	}
	score += perStageBonus * float64(seq.StageCount)
	if seq.InOrder && seq.StageCount >= 2 {
		score += inOrderBonus
	}

	score *= 1.0 + (1.0 - rec.TrustScore)
	score *= sensitivity[rec.Tier]

	if score > 1 {
		return 1
	}
	return score
}

func actionForScore(score float64, th thresholds) ActionLevel {
	switch {
	case score >= th.block:
		return ActionBlock
	case score >= th.shield:
		return ActionShield
	case score >= th.restrict:
		return ActionRestrict
	case score >= th.monitor:
		return ActionMonitor
	default:
		return ActionAllow
	}
}

func threatForScore(score float64, th thresholds) ThreatLevel {
	switch {
	case score >= th.block:
		return ThreatCritical
	case score >= th.shield:
		return ThreatHigh
	case score >= th.restrict:
		return ThreatMedium
	case score >= th.monitor:
		return ThreatLow
	default:
		return ThreatSafe
	}
}

// confidence grows with independent corroborating hits and their weight
// concentration. Zero when nothing matched.
func confidence(matches []signature.Match, seq sequence.Signal) float64 {
	hits := len(matches) + seq.StageCount
	if hits == 0 {
		return 0
	}
	var total, top float64
	for _, m := range matches {
		total += m.Weight
		if m.Weight > top {
			top = m.Weight
		}
	}
	c := 0.15*float64(hits) + 0.4*top + 0.2*total
	if c > 0.99 {
		return 0.99
	}
	return c
}

// attackType names the dominant contributor: the category of the
// highest-weight match, the sequence when only markers fired, or none.
func attackType(matches []signature.Match, seq sequence.Signal) string {
	if len(matches) == 0 {
		if seq.StageCount > 0 {
			return "domination_sequence"
		}
		return "none"
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if m.Weight > best.Weight {
			best = m
		}
	}
	return string(best.Category)
}

func maxThreat(a, b ThreatLevel) ThreatLevel {
	if a > b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
