package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Params tunes the escalation and recovery protocol.
type Params struct {
	// RecoveryThreshold is the number of consecutive clean analyses that
	// lowers the tier by exactly one step.
	RecoveryThreshold int

	// VigilanceWindow is how long a domination marker keeps the identity
	// at elevated minimum severity.
	VigilanceWindow time.Duration

	// TrustRecoveryStep is the trust regained per clean analysis. This is
	// the decay of accumulated penalties.
	TrustRecoveryStep float64

	// EscalationThresholds holds the per-tier trust floor. Trust falling
	// below the current tier's floor escalates one tier. SEALED is never
	// entered this way.
	EscalationThresholds [TierSealed + 1]float64

	// MaxSaveRetries bounds compare-and-set retries before the conflict is
	// surfaced as transient.
	MaxSaveRetries uint64
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{
		RecoveryThreshold: 5,
		VigilanceWindow:   30 * time.Minute,
		TrustRecoveryStep: 0.02,
		EscalationThresholds: [TierSealed + 1]float64{
			TierClean:     0.75,
			TierWatched:   0.55,
			TierCautioned: 0.35,
			TierHostile:   0.20,
			TierConfirmed: 0,
			TierSealed:    0,
		},
		MaxSaveRetries: 4,
	}
}

// Delta is the state change proposed by the decision engine for one
// analysis. The manager applies exactly one delta per analysis call.
type Delta struct {
	Canonical  string
	Categories []string
	Stages     []string

	// TrustPenalty is the severity-scaled trust deduction, already >= 0.
	TrustPenalty float64

	// Escalate forces an immediate one-step tier escalation, bypassing the
	// gradual trust thresholds.
	Escalate bool

	// Severe marks the events that may push CONFIRMED into SEALED.
	Severe bool

	// Vigilance arms the session-window vigilance deadline.
	Vigilance bool

	// Clean marks an analysis with no matches and no cascade.
	Clean bool

	// FlagKind, when non-empty, appends an incident flag.
	FlagKind string
}

// Manager exclusively owns identity record mutation. Concurrent commits
// for the same identity serialize on a per-identity mutex; different
// identities proceed fully in parallel.
type Manager struct {
	store  Store
	log    *zap.Logger
	params Params

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager wires a manager to its store.
func NewManager(store Store, logger *zap.Logger, params Params) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if params.RecoveryThreshold <= 0 {
		params.RecoveryThreshold = DefaultParams().RecoveryThreshold
	}
	return &Manager{
		store:  store,
		log:    logger,
		params: params,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (m *Manager) lockFor(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}
	return lock
}

// Snapshot returns the identity's current state without mutating it. An
// unseen identity reads as a fresh CLEAN record; an unreachable store
// reads as the fail-cautious WATCHED default.
func (m *Manager) Snapshot(ctx context.Context, id string) (*Record, error) {
	rec, err := m.store.Load(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		return NewRecord(id), nil
	case errors.Is(err, ErrStoreUnavailable):
		m.log.Warn("identity store unavailable, assuming cautious default",
			zap.String("identity", id), zap.Error(err))
		return m.cautiousDefault(id), nil
	case err != nil:
		// Corrupt payloads reset to CLEAN on the commit path; reads report
		// the same fresh state.
		m.log.Error("identity record unreadable",
			zap.String("identity", id), zap.Error(err))
		return NewRecord(id), nil
	}

	if verr := rec.Validate(); verr != nil {
		m.log.Error("identity record failed integrity check",
			zap.String("identity", id), zap.Error(verr))
		return NewRecord(id), nil
	}
	return rec, nil
}

// Commit applies one delta. It returns the committed record and whether
// the write was durable. ErrUpdateConflict is returned only after the
// retry budget is exhausted; the caller must stay at least as cautious as
// the identity's last known tier until resolved.
func (m *Manager) Commit(ctx context.Context, id string, delta Delta) (*Record, bool, error) {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	var (
		committed *Record
		durable   bool
	)

	operation := func() error {
		rec, err := m.loadForCommit(ctx, id)
		if err != nil {
			// Store down: apply to the fail-cautious default and report a
			// non-durable result rather than failing the analysis.
			rec = m.cautiousDefault(id)
			m.apply(rec, delta, now)
			committed, durable = rec, false
			return nil
		}

		before := rec.Tier
		m.apply(rec, delta, now)
		if rec.Tier > before {
			m.log.Info("identity tier escalated",
				zap.String("identity", id),
				zap.String("from", before.String()),
				zap.String("to", rec.Tier.String()))
		} else if rec.Tier < before {
			m.log.Info("identity tier recovered",
				zap.String("identity", id),
				zap.String("from", before.String()),
				zap.String("to", rec.Tier.String()))
		}

		saveErr := m.store.Save(ctx, rec)
		switch {
		case saveErr == nil:
			committed, durable = rec, true
			return nil
		case errors.Is(saveErr, ErrUpdateConflict):
			return saveErr
		default:
			m.log.Warn("identity write not durable",
				zap.String("identity", id), zap.Error(saveErr))
			committed, durable = rec, false
			return nil
		}
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(5*time.Millisecond),
			backoff.WithMaxInterval(50*time.Millisecond),
		), m.params.MaxSaveRetries),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		if errors.Is(err, ErrUpdateConflict) {
			return nil, false, ErrUpdateConflict
		}
		return nil, false, err
	}
	return committed, durable, nil
}

// Reset is the administrative recovery override: the identity returns to a
// fresh CLEAN record regardless of tier, SEALED included.
func (m *Manager) Reset(ctx context.Context, id string) error {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	operation := func() error {
		fresh := NewRecord(id)
		cur, err := m.store.Load(ctx, id)
		switch {
		case err == nil:
			fresh.Version = cur.Version
		case errors.Is(err, ErrNotFound):
			// First write for this identity.
		default:
			return backoff.Permanent(err)
		}

		saveErr := m.store.Save(ctx, fresh)
		if errors.Is(saveErr, ErrUpdateConflict) {
			return saveErr
		}
		if saveErr != nil {
			return backoff.Permanent(saveErr)
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(5*time.Millisecond),
			backoff.WithMaxInterval(50*time.Millisecond),
		), m.params.MaxSaveRetries),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return err
	}
	m.log.Info("identity reset by administrative override", zap.String("identity", id))
	return nil
}

// loadForCommit loads and validates the record, creating a fresh one for
// unseen identities and resetting corrupt ones to CLEAN.
func (m *Manager) loadForCommit(ctx context.Context, id string) (*Record, error) {
	rec, err := m.store.Load(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		return NewRecord(id), nil
	case errors.Is(err, ErrStoreUnavailable):
		return nil, err
	case err != nil:
		// Corrupt payload. Reset to CLEAN at version 0 and let the save
		// path surface any further disagreement.
		m.log.Error("identity record unreadable, resetting to clean",
			zap.String("identity", id), zap.Error(err))
		reset := NewRecord(id)
		reset.AddFlag("integrity_reset", time.Now())
		return reset, nil
	}

	if verr := rec.Validate(); verr != nil {
		m.log.Error("identity record failed integrity check, resetting to clean",
			zap.String("identity", id), zap.Error(verr))
		reset := NewRecord(id)
		reset.Version = rec.Version
		reset.AddFlag("integrity_reset", time.Now())
		return reset, nil
	}
	return rec, nil
}

func (m *Manager) cautiousDefault(id string) *Record {
	rec := NewRecord(id)
	rec.Tier = TierWatched
	return rec
}

// apply folds one delta into the record. Tier moves up through the
// escalation protocol only and down through the recovery protocol only.
func (m *Manager) apply(rec *Record, delta Delta, now time.Time) {
	rec.LastSeen = now
	rec.PushTurn(Turn{
		Canonical:  delta.Canonical,
		Categories: delta.Categories,
		Stages:     delta.Stages,
		Timestamp:  now,
	})

	if delta.Clean {
		rec.ConsecutiveAttacks = 0
		rec.CleanStreak++
		rec.TrustScore = clamp01(rec.TrustScore + m.params.TrustRecoveryStep)
		if rec.CleanStreak >= m.params.RecoveryThreshold &&
			rec.Tier > TierClean && rec.Tier < TierSealed {
			rec.Tier--
			rec.CleanStreak = 0
		}
		return
	}

	rec.CleanStreak = 0
	rec.ConsecutiveAttacks++

	// A run of back-to-back offenses presses harder on trust.
	pressure := 1.0 + 0.1*float64(min(rec.ConsecutiveAttacks-1, 5))
	rec.TrustScore = clamp01(rec.TrustScore - delta.TrustPenalty*pressure)

	if delta.FlagKind != "" {
		rec.AddFlag(delta.FlagKind, now)
	}
	if delta.Vigilance {
		rec.VigilantUntil = now.Add(m.params.VigilanceWindow)
	}

	if delta.Escalate {
		m.escalate(rec, delta.Severe)
	} else if rec.Tier < TierConfirmed && rec.TrustScore < m.params.EscalationThresholds[rec.Tier] {
		m.escalate(rec, false)
	}
}

func (m *Manager) escalate(rec *Record, severe bool) {
	switch {
	case rec.Tier < TierConfirmed:
		rec.Tier++
	case rec.Tier == TierConfirmed && severe:
		rec.Tier = TierSealed
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
