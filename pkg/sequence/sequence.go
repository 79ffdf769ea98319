// Package sequence detects staged domination syntax: an ordered or partial
// occurrence of seven marker classes designed to seize conversational
// control. Detection runs over the current turn plus a bounded window of
// prior canonical turns. One confirmed marker is already significant; the
// caller elevates the identity to vigilance on any hit rather than waiting
// for a slow build-up.
package sequence

import "regexp"

// Stage identifies one of the seven marker classes, numbered in the
// canonical attack order.
type Stage int

const (
	StageSummarizeClaim Stage = iota
	StageAuthorityBorrow
	StageImportanceCoercion
	StageContextPivot
	StageLogicCoercion
	StageInfoDemand
	StageDetailDemand

	stageCount
)

var stageNames = [...]string{
	StageSummarizeClaim:     "summarize_claim",
	StageAuthorityBorrow:    "authority_borrow",
	StageImportanceCoercion: "importance_coercion",
	StageContextPivot:       "context_pivot",
	StageLogicCoercion:      "logic_coercion",
	StageInfoDemand:         "info_demand",
	StageDetailDemand:       "detail_demand",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// stagePatterns holds the compiled markers per stage. Written against
// canonical text: lowercase, obfuscation reversed.
var stagePatterns = [stageCount][]*regexp.Regexp{
	StageSummarizeClaim: compileAll(
		`\bso (?:basically|essentially|in other words),? (?:you|what you)(?:'re| are)? (?:saying|said|mean)`,
		`\bto (?:summarize|sum (?:it )?up),? (?:you|we)\b`,
		`\bwhat you(?:'re| are) (?:really|actually) saying is\b`,
		`\bso we(?:'ve| have) established (?:that )?\b`,
	),
	StageAuthorityBorrow: compileAll(
		`\baccording to (?:an? )?(?:expert|experts|specialist|professor|doctor|authority|researchers?)\b`,
		`\b(?:experts|scientists|researchers|professionals|studies) (?:say|agree|show|confirm|have shown)\b`,
		`\bmy (?:professor|lawyer|doctor|therapist|boss) (?:said|told me|confirmed)\b`,
		`\bit(?:'s| is) (?:a )?(?:proven|established|documented) fact\b`,
	),
	StageImportanceCoercion: compileAll(
		`\bthis is (?:really |very |extremely |critically )?(?:important|urgent|critical|serious)\b`,
		`\byou (?:must|have to|need to) (?:understand|realize|listen)\b`,
		`\b(?:lives|everything|my future) (?:depend|depends|is riding) on (?:this|it)\b`,
		`\bpay (?:close )?attention,? (?:this|because)\b`,
	),
	StageContextPivot: compileAll(
		`\b(?:anyway|anyhow),? (?:back to|about|regarding|let's)\b`,
		`\b(?:putting|setting) that aside\b`,
		`\blet'?s (?:change|switch) (?:the )?(?:subject|topic|gears)\b`,
		`\bspeaking of which\b`,
		`\bthat reminds me,?\b`,
	),
	StageLogicCoercion: compileAll(
		`\b(?:therefore|so logically|it follows that),? you (?:must|have to|should|can)\b`,
		`\bif (?:that(?:'s| is) true|you (?:agree|accept) that),? then you (?:must|have to|should)\b`,
		`\byou (?:can'?t|cannot) (?:deny|argue with|refute) (?:that|the logic)\b`,
		`\bby your own (?:logic|reasoning|admission)\b`,
	),
	StageInfoDemand: compileAll(
		`\btell me everything (?:about|you know)\b`,
		`\bi (?:need|have|want) to know (?:all|everything|the full)\b`,
		`\bgive me (?:all|the complete|the full) (?:the )?(?:details?|information|list)\b`,
		`\b(?:share|reveal|disclose) (?:all|everything|your)\b`,
	),
	StageDetailDemand: compileAll(
		`\b(?:in (?:full|complete|exact) detail|in detail)\b`,
		`\bstep by step\b`,
		`\b(?:exactly|precisely) (?:how|what|which|where)\b`,
		`\bbe (?:specific|precise|exact|thorough)\b`,
		`\b(?:word for word|verbatim)\b`,
	),
}

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return compiled
}

// Signal is the outcome of one detection pass.
type Signal struct {
	// StageCount is the number of distinct marker classes observed in the
	// current turn plus the history window.
	StageCount int

	// MatchedStages lists the distinct stages in first-occurrence order
	// across the window, oldest turn first.
	MatchedStages []Stage

	// InOrder reports whether the first occurrences follow the canonical
	// attack order. Vacuously true below two stages.
	InOrder bool

	// MarkerInTurn reports whether the current turn itself contains any
	// marker. One confirmed marker elevates the identity to vigilance.
	MarkerInTurn bool
}

// Detector checks canonical turns for domination markers over a bounded
// recent-turn window.
type Detector struct {
	window int
}

// NewDetector returns a detector that considers at most window prior turns
// in addition to the current one.
func NewDetector(window int) *Detector {
	if window < 0 {
		window = 0
	}
	return &Detector{window: window}
}

// Detect scans the current canonical turn together with the most recent
// history turns. history is ordered oldest first; only the last window
// entries are considered.
func (d *Detector) Detect(canonical string, history []string) Signal {
	if len(history) > d.window {
		history = history[len(history)-d.window:]
	}

	var sig Signal
	seen := [stageCount]bool{}

	for _, turn := range history {
		for _, stage := range stagesInTurn(turn) {
			if !seen[stage] {
				seen[stage] = true
				sig.MatchedStages = append(sig.MatchedStages, stage)
			}
		}
	}

	current := stagesInTurn(canonical)
	sig.MarkerInTurn = len(current) > 0
	for _, stage := range current {
		if !seen[stage] {
			seen[stage] = true
			sig.MatchedStages = append(sig.MatchedStages, stage)
		}
	}

	sig.StageCount = len(sig.MatchedStages)
	sig.InOrder = inCanonicalOrder(sig.MatchedStages)
	return sig
}

// stagesInTurn returns the distinct stages present in one turn, ordered by
// first match position so within-turn ordering feeds the order score.
func stagesInTurn(turn string) []Stage {
	type hit struct {
		stage Stage
		pos   int
	}
	var hits []hit
	for stage := Stage(0); stage < stageCount; stage++ {
		best := -1
		for _, re := range stagePatterns[stage] {
			loc := re.FindStringIndex(turn)
			if loc == nil {
				continue
			}
			if best == -1 || loc[0] < best {
				best = loc[0]
			}
		}
		if best >= 0 {
			hits = append(hits, hit{stage: stage, pos: best})
		}
	}
	// Insertion sort by position; at most seven entries.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	stages := make([]Stage, len(hits))
	for i, h := range hits {
		stages[i] = h.stage
	}
	return stages
}

func inCanonicalOrder(stages []Stage) bool {
	for i := 1; i < len(stages); i++ {
		if stages[i] <= stages[i-1] {
			return false
		}
	}
	return true
}
