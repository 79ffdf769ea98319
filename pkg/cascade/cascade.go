// Package cascade correlates signature matches, sequence events, and
// external multimodal-derived signals into desire-trigger activations. The
// eight triggers model the psychological stimuli an attacker stacks; their
// joint activation ("cascade") is categorically more severe than the sum of
// individual weights, so a full cascade is a boolean override signal, not a
// score contribution.
package cascade

import (
	"github.com/kotodama/palisade/pkg/sequence"
	"github.com/kotodama/palisade/pkg/signature"
)

// Trigger is one of the eight fixed desire triggers.
type Trigger string

const (
	// TriggerApproval is the cascade detonator: approval firing together
	// with any two other triggers forces a full cascade.
	TriggerApproval    Trigger = "approval"
	TriggerRecognition Trigger = "recognition"
	TriggerIntimacy    Trigger = "intimacy"
	TriggerDependency  Trigger = "dependency"
	TriggerSuperiority Trigger = "superiority"
	TriggerControl     Trigger = "control"
	TriggerExclusivity Trigger = "exclusivity"
	TriggerRescue      Trigger = "rescue"
)

// allTriggers fixes the reporting order.
var allTriggers = []Trigger{
	TriggerApproval, TriggerRecognition, TriggerIntimacy, TriggerDependency,
	TriggerSuperiority, TriggerControl, TriggerExclusivity, TriggerRescue,
}

// =============================================================================
// STIMULUS TABLE
// Fixed mapping from match categories, sequence stages, and external signal
// vectors to the triggers they activate.
// =============================================================================

var categoryStimuli = map[signature.Category][]Trigger{
	signature.CategoryEmotionalManipulation:  {TriggerApproval, TriggerIntimacy},
	signature.CategoryDependencySeeking:      {TriggerDependency},
	signature.CategoryAICompetition:          {TriggerSuperiority},
	signature.CategoryCommandCollision:       {TriggerControl},
	signature.CategoryDataPoisoning:          {TriggerControl},
	signature.CategorySuggestionPoisoning:    {TriggerControl},
	signature.CategoryBoundaryViolation:      {TriggerExclusivity},
	signature.CategoryLeadingQuestions:       {TriggerApproval},
	signature.CategoryResponsibilityTransfer: {TriggerRescue},
	signature.CategoryPaymentClaim:           {TriggerControl},
	signature.CategoryRecursiveLoops:         {TriggerControl},
	signature.CategoryResponseDelay:          {TriggerControl},
	signature.CategoryAcademicCamouflage:     {TriggerRecognition},
}

var stageStimuli = map[sequence.Stage][]Trigger{
	sequence.StageAuthorityBorrow:    {TriggerRecognition},
	sequence.StageImportanceCoercion: {TriggerApproval},
	sequence.StageInfoDemand:         {TriggerControl},
	sequence.StageDetailDemand:       {TriggerControl},
}

// adjacency lists which triggers each trigger can chain-activate. A trigger
// that is not directly stimulated still activates when at least two distinct
// active triggers list it as adjacent.
var adjacency = map[Trigger][]Trigger{
	TriggerApproval:    {TriggerRecognition, TriggerIntimacy},
	TriggerRecognition: {TriggerApproval, TriggerSuperiority},
	TriggerIntimacy:    {TriggerDependency, TriggerExclusivity},
	TriggerDependency:  {TriggerIntimacy, TriggerRescue},
	TriggerSuperiority: {TriggerRecognition, TriggerControl},
	TriggerControl:     {TriggerSuperiority, TriggerExclusivity},
	TriggerExclusivity: {TriggerIntimacy, TriggerControl},
	TriggerRescue:      {TriggerDependency, TriggerApproval},
}

// ExternalSignals carries already-derived multimodal features. The core
// never inspects media itself; upstream extractors hand over numeric
// scores in [0,1] per vector.
type ExternalSignals struct {
	// SeductiveVisual scores intimacy-loaded imagery accompanying the text.
	SeductiveVisual float64
	// EmotionalAudio scores distress or affection loading in voice input.
	EmotionalAudio float64
	// PersonalVideo scores personalized parasocial video framing.
	PersonalVideo float64
}

// externalStimulusThreshold is the activation floor for one signal vector.
const externalStimulusThreshold = 0.3

// Signal is the correlator outcome for one detection event.
type Signal struct {
	// Activated lists distinct triggers fired by this event, in fixed
	// trigger order.
	Activated []Trigger

	// ChainStrength counts the triggers activated simultaneously in this
	// event. It is never cumulative across history.
	ChainStrength int

	// FullCascade is true when ChainStrength >= 3 or approval fired
	// together with at least two other triggers. Downstream treats it as a
	// categorical override forcing the most severe action.
	FullCascade bool
}

// Has reports whether the given trigger activated.
func (s Signal) Has(t Trigger) bool {
	for _, a := range s.Activated {
		if a == t {
			return true
		}
	}
	return false
}

// Correlate maps one event's match set, sequence signal, and external
// signals through the stimulus table. History contributions arrive already
// folded into the sequence signal; chain strength is strictly per event.
func Correlate(matches []signature.Match, seq sequence.Signal, ext ExternalSignals) Signal {
	active := make(map[Trigger]bool, len(allTriggers))

	for cat := range signature.Categories(matches) {
		for _, t := range categoryStimuli[cat] {
			active[t] = true
		}
	}
	for _, stage := range seq.MatchedStages {
		for _, t := range stageStimuli[stage] {
			active[t] = true
		}
	}
	if ext.SeductiveVisual >= externalStimulusThreshold {
		active[TriggerIntimacy] = true
	}
	if ext.EmotionalAudio >= externalStimulusThreshold {
		active[TriggerDependency] = true
	}
	if ext.PersonalVideo >= externalStimulusThreshold {
		active[TriggerExclusivity] = true
	}

	chainActivate(active)

	var sig Signal
	for _, t := range allTriggers {
		if active[t] {
			sig.Activated = append(sig.Activated, t)
		}
	}
	sig.ChainStrength = len(sig.Activated)
	sig.FullCascade = sig.ChainStrength >= 3 ||
		(active[TriggerApproval] && countOthers(active) >= 2)
	return sig
}

// chainActivate applies the adjacency rule once: a dormant trigger listed
// as adjacent by two or more distinct active triggers activates too.
func chainActivate(active map[Trigger]bool) {
	votes := make(map[Trigger]int)
	for t := range active {
		if !active[t] {
			continue
		}
		for _, adj := range adjacency[t] {
			votes[adj]++
		}
	}
	for t, n := range votes {
		if n >= 2 {
			active[t] = true
		}
	}
}

func countOthers(active map[Trigger]bool) int {
	n := 0
	for t, on := range active {
		if on && t != TriggerApproval {
			n++
		}
	}
	return n
}
