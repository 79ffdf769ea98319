package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kotodama/palisade/pkg/cascade"
	"github.com/kotodama/palisade/pkg/config"
	"github.com/kotodama/palisade/pkg/identity"
	"github.com/kotodama/palisade/pkg/sequence"
	"github.com/kotodama/palisade/pkg/signature"
	"github.com/kotodama/palisade/pkg/telemetry"
	"github.com/kotodama/palisade/pkg/textnorm"
)

// recentFlagWindow bounds which flags count as recent in status reads.
const recentFlagWindow = 7 * 24 * time.Hour

// trustPenalty maps the graded threat to its per-event trust deduction,
// scaled by confidence before the commit.
var trustPenalty = [ThreatEmergency + 1]float64{
	ThreatSafe:      0,
	ThreatLow:       0.05,
	ThreatMedium:    0.10,
	ThreatHigh:      0.20,
	ThreatCritical:  0.30,
	ThreatEmergency: 0.50,
}

// Analyzer orchestrates the pipeline: canonicalize, match, detect,
// correlate, decide, commit. Analysis itself is side-effect-free over
// pinned snapshots; the single mutation is the identity commit.
type Analyzer struct {
	cfg      *config.Config
	registry *signature.Registry
	detector *sequence.Detector
	manager  *identity.Manager
	recorder *telemetry.Recorder
	log      *zap.Logger
}

// New wires an analyzer. A nil recorder or logger degrades to silent.
func New(cfg *config.Config, registry *signature.Registry, manager *identity.Manager, recorder *telemetry.Recorder, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = telemetry.NewRecorder(nil)
	}
	return &Analyzer{
		cfg:      cfg,
		registry: registry,
		detector: sequence.NewDetector(cfg.SequenceWindow),
		manager:  manager,
		recorder: recorder,
		log:      logger,
	}
}

// Analyze classifies one turn and commits the resulting state delta. On
// identity.ErrUpdateConflict the caller should retry and treat the
// identity as at least as cautious as its last known tier meanwhile.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}
	if req.Text == "" {
		return nil, fmt.Errorf("%w: empty text", ErrInvalidInput)
	}
	if len(req.Text) > a.cfg.MaxTextLen {
		// Oversized input is rejected outright, never silently truncated.
		return nil, fmt.Errorf("%w: text length %d exceeds limit %d", ErrInvalidInput, len(req.Text), a.cfg.MaxTextLen)
	}

	start := time.Now()
	canonical := textnorm.Canonicalize(req.Text)

	// Pin one signature snapshot and one identity snapshot for the whole
	// analysis.
	snap := a.registry.Snapshot()
	rec, err := a.manager.Snapshot(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	history := req.History
	if len(history) == 0 {
		history = rec.HistoryTexts()
	}

	matches := snap.MatchAll(canonical)
	seqSig := a.detector.Detect(canonical, history)
	casSig := cascade.Correlate(matches, seqSig, req.ExternalSignals)

	verdict := decide(matches, seqSig, casSig, rec, a.thresholds(), rec.Vigilant(start))

	delta := a.buildDelta(canonical, matches, seqSig, casSig, verdict)
	committed, durable, err := a.manager.Commit(ctx, req.UserID, delta)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ThreatDetected:  verdict.threat > ThreatSafe,
		ThreatLevel:     verdict.threat,
		ActionLevel:     verdict.action,
		AttackType:      verdict.attackType,
		Confidence:      verdict.confidence,
		PatternsMatched: patternIDs(matches),
		CascadeTriggers: casSig.Activated,
		SequenceStages:  stageNames(seqSig.MatchedStages),
		ProcessingTime:  time.Since(start),
		Timestamp:       start,
		IdentityTier:    committed.Tier,
		StateDurable:    durable,
	}

	a.recorder.Decision(telemetry.DecisionEvent{
		UserID:          req.UserID,
		ThreatLevel:     result.ThreatLevel.String(),
		ActionLevel:     result.ActionLevel.String(),
		AttackType:      result.AttackType,
		Confidence:      result.Confidence,
		Patterns:        result.PatternsMatched,
		CascadeTriggers: triggerNames(casSig.Activated),
		IdentityTier:    result.IdentityTier.String(),
		StateDurable:    durable,
		Elapsed:         result.ProcessingTime,
	})
	return result, nil
}

// IdentityStatus returns the read-only identity view. No state mutates.
func (a *Analyzer) IdentityStatus(ctx context.Context, userID string) (*Status, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}
	rec, err := a.manager.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-recentFlagWindow)
	recent := 0
	for _, f := range rec.Flags {
		if f.Timestamp.After(cutoff) {
			recent++
		}
	}
	return &Status{
		Tier:            rec.Tier,
		TrustScore:      rec.TrustScore,
		RecentFlagCount: recent,
	}, nil
}

// AddSignature installs a dynamic signature via an atomic snapshot swap.
func (a *Analyzer) AddSignature(def signature.Definition) error {
	if err := a.registry.Add(def); err != nil {
		return err
	}
	a.recorder.Admin("signature_added", def.ID)
	return nil
}

// DeactivateSignature retires a signature via an atomic snapshot swap.
func (a *Analyzer) DeactivateSignature(id string) error {
	if err := a.registry.Deactivate(id); err != nil {
		return err
	}
	a.recorder.Admin("signature_deactivated", id)
	return nil
}

// ResetIdentity is the administrative recovery override.
func (a *Analyzer) ResetIdentity(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}
	if err := a.manager.Reset(ctx, userID); err != nil {
		return err
	}
	a.recorder.Admin("identity_reset", userID)
	return nil
}

func (a *Analyzer) thresholds() thresholds {
	return thresholds{
		monitor:  a.cfg.MonitorThreshold,
		restrict: a.cfg.RestrictThreshold,
		shield:   a.cfg.ShieldThreshold,
		block:    a.cfg.BlockThreshold,
	}
}

// buildDelta translates the verdict into the single state delta the
// identity manager applies.
func (a *Analyzer) buildDelta(canonical string, matches []signature.Match, seqSig sequence.Signal, casSig cascade.Signal, verdict decision) identity.Delta {
	clean := len(matches) == 0 && !casSig.FullCascade && !seqSig.MarkerInTurn

	delta := identity.Delta{
		Canonical:  canonical,
		Categories: categoryNames(matches),
		Stages:     stageNames(seqSig.MatchedStages),
		Clean:      clean,
		Vigilance:  seqSig.MarkerInTurn,
	}
	if clean {
		return delta
	}

	delta.TrustPenalty = trustPenalty[verdict.threat] * verdict.confidence
	delta.Escalate = casSig.FullCascade || (seqSig.InOrder && seqSig.StageCount >= 2)
	delta.Severe = casSig.FullCascade || verdict.threat >= ThreatCritical

	switch {
	case casSig.FullCascade:
		delta.FlagKind = "cascade"
	case delta.Escalate:
		delta.FlagKind = "domination_sequence"
	case len(matches) > 0:
		delta.FlagKind = "pattern_match"
	default:
		delta.FlagKind = "domination_marker"
	}
	return delta
}

func patternIDs(matches []signature.Match) []string {
	if len(matches) == 0 {
		return nil
	}
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.SignatureID
	}
	return ids
}

func categoryNames(matches []signature.Match) []string {
	seen := make(map[signature.Category]bool, len(matches))
	var names []string
	for _, m := range matches {
		if !seen[m.Category] {
			seen[m.Category] = true
			names = append(names, string(m.Category))
		}
	}
	return names
}

func stageNames(stages []sequence.Stage) []string {
	if len(stages) == 0 {
		return nil
	}
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.String()
	}
	return names
}

func triggerNames(triggers []cascade.Trigger) []string {
	if len(triggers) == 0 {
		return nil
	}
	names := make([]string, len(triggers))
	for i, t := range triggers {
		names[i] = string(t)
	}
	return names
}
