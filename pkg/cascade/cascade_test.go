package cascade

import (
	"testing"

	"github.com/kotodama/palisade/pkg/sequence"
	"github.com/kotodama/palisade/pkg/signature"
)

func matchesFor(cats ...signature.Category) []signature.Match {
	out := make([]signature.Match, len(cats))
	for i, c := range cats {
		out[i] = signature.Match{SignatureID: string(c) + "_probe", Category: c, Weight: 0.5}
	}
	return out
}

func TestCorrelateNoStimuli(t *testing.T) {
	sig := Correlate(nil, sequence.Signal{}, ExternalSignals{})
	if sig.ChainStrength != 0 || sig.FullCascade || len(sig.Activated) != 0 {
		t.Errorf("empty event produced signal %+v", sig)
	}
}

func TestCorrelateSingleCategory(t *testing.T) {
	sig := Correlate(matchesFor(signature.CategoryCommandCollision), sequence.Signal{}, ExternalSignals{})
	if sig.ChainStrength != 1 || !sig.Has(TriggerControl) {
		t.Errorf("command_collision should fire exactly control, got %+v", sig)
	}
	if sig.FullCascade {
		t.Error("single trigger must never be a full cascade")
	}
}

func TestCorrelateChainStrengthThree(t *testing.T) {
	// Three independent non-approval stimuli.
	sig := Correlate(matchesFor(
		signature.CategoryDependencySeeking,
		signature.CategoryAICompetition,
		signature.CategoryBoundaryViolation,
	), sequence.Signal{}, ExternalSignals{})

	if sig.ChainStrength < 3 {
		t.Fatalf("ChainStrength = %d, want >= 3 (%+v)", sig.ChainStrength, sig)
	}
	if !sig.FullCascade {
		t.Error("chain strength >= 3 must signal a full cascade")
	}
}

func TestCorrelateApprovalDetonator(t *testing.T) {
	// Approval plus two others: emotional manipulation fires approval and
	// intimacy, dependency seeking adds a third distinct trigger.
	sig := Correlate(matchesFor(
		signature.CategoryEmotionalManipulation,
		signature.CategoryDependencySeeking,
	), sequence.Signal{}, ExternalSignals{})

	if !sig.Has(TriggerApproval) {
		t.Fatalf("approval not activated: %+v", sig)
	}
	if !sig.FullCascade {
		t.Error("approval with two other triggers must signal a full cascade")
	}
}

func TestCorrelateTwoTriggersNoCascade(t *testing.T) {
	// Authority plus importance markers: recognition and approval, two
	// triggers only.
	seq := sequence.Signal{
		StageCount:    2,
		MatchedStages: []sequence.Stage{sequence.StageAuthorityBorrow, sequence.StageImportanceCoercion},
		InOrder:       true,
		MarkerInTurn:  true,
	}
	sig := Correlate(nil, seq, ExternalSignals{})

	if sig.ChainStrength != 2 {
		t.Fatalf("ChainStrength = %d, want 2 (%+v)", sig.ChainStrength, sig)
	}
	if sig.FullCascade {
		t.Error("two triggers must not signal a full cascade")
	}
}

func TestCorrelateExternalSignals(t *testing.T) {
	tests := []struct {
		name string
		ext  ExternalSignals
		want []Trigger
	}{
		{"below threshold ignored", ExternalSignals{SeductiveVisual: 0.2, EmotionalAudio: 0.29}, nil},
		{"visual fires intimacy", ExternalSignals{SeductiveVisual: 0.6}, []Trigger{TriggerIntimacy}},
		{"audio fires dependency", ExternalSignals{EmotionalAudio: 0.5}, []Trigger{TriggerDependency}},
		{"video fires exclusivity", ExternalSignals{PersonalVideo: 0.9}, []Trigger{TriggerExclusivity}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Correlate(nil, sequence.Signal{}, tt.ext)
			if len(sig.Activated) != len(tt.want) {
				t.Fatalf("Activated = %v, want %v", sig.Activated, tt.want)
			}
			for _, w := range tt.want {
				if !sig.Has(w) {
					t.Errorf("trigger %s not activated", w)
				}
			}
		})
	}
}

func TestCorrelateMultimodalCoordination(t *testing.T) {
	// Text-level intimacy pressure coordinated with seductive visual and
	// emotional audio vectors crosses the cascade line.
	sig := Correlate(
		matchesFor(signature.CategoryEmotionalManipulation),
		sequence.Signal{},
		ExternalSignals{SeductiveVisual: 0.8, EmotionalAudio: 0.7},
	)
	if !sig.FullCascade {
		t.Errorf("coordinated multimodal stimuli should cascade, got %+v", sig)
	}
}

func TestCorrelateScenarioComparisonStack(t *testing.T) {
	// Emotional manipulation, dependency seeking, and an AI comparison in
	// one event: at least three triggers and a full cascade.
	sig := Correlate(matchesFor(
		signature.CategoryEmotionalManipulation,
		signature.CategoryDependencySeeking,
		signature.CategoryAICompetition,
	), sequence.Signal{}, ExternalSignals{})

	if sig.ChainStrength < 3 {
		t.Fatalf("ChainStrength = %d, want >= 3", sig.ChainStrength)
	}
	if !sig.FullCascade {
		t.Error("stacked stimuli must signal a full cascade")
	}
}

func TestActivatedOrderDeterministic(t *testing.T) {
	a := Correlate(matchesFor(signature.CategoryAICompetition, signature.CategoryEmotionalManipulation), sequence.Signal{}, ExternalSignals{})
	b := Correlate(matchesFor(signature.CategoryEmotionalManipulation, signature.CategoryAICompetition), sequence.Signal{}, ExternalSignals{})

	if len(a.Activated) != len(b.Activated) {
		t.Fatalf("activation sets differ: %v vs %v", a.Activated, b.Activated)
	}
	for i := range a.Activated {
		if a.Activated[i] != b.Activated[i] {
			t.Errorf("activation order differs at %d: %v vs %v", i, a.Activated, b.Activated)
		}
	}
}
