// Package telemetry emits structured decision and audit events. Events go
// through the injected zap logger so the deployment chooses the sink; the
// engine stays free of output concerns.
package telemetry

import (
	"time"

	"go.uber.org/zap"
)

// DecisionEvent is the audit payload for one analysis decision.
type DecisionEvent struct {
	UserID          string
	ThreatLevel     string
	ActionLevel     string
	AttackType      string
	Confidence      float64
	Patterns        []string
	CascadeTriggers []string
	IdentityTier    string
	StateDurable    bool
	Elapsed         time.Duration
}

// Recorder writes decision and administrative audit events.
type Recorder struct {
	log *zap.Logger
}

// NewRecorder wraps a logger. A nil logger yields a silent recorder.
func NewRecorder(logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{log: logger.Named("audit")}
}

// Decision records one analysis outcome. ALLOW decisions log at debug so
// steady-state traffic stays quiet; everything else is an info event.
func (r *Recorder) Decision(ev DecisionEvent) {
	fields := []zap.Field{
		zap.String("user_id", ev.UserID),
		zap.String("threat_level", ev.ThreatLevel),
		zap.String("action_level", ev.ActionLevel),
		zap.String("attack_type", ev.AttackType),
		zap.Float64("confidence", ev.Confidence),
		zap.Strings("patterns", ev.Patterns),
		zap.Strings("cascade_triggers", ev.CascadeTriggers),
		zap.String("identity_tier", ev.IdentityTier),
		zap.Bool("state_durable", ev.StateDurable),
		zap.Duration("elapsed", ev.Elapsed),
	}
	if ev.ActionLevel == "ALLOW" {
		r.log.Debug("analysis decision", fields...)
		return
	}
	r.log.Info("analysis decision", fields...)
}

// Admin records an administrative operation against a subject, such as a
// signature change or identity reset.
func (r *Recorder) Admin(action, subject string) {
	r.log.Info("administrative operation",
		zap.String("action", action),
		zap.String("subject", subject),
	)
}
