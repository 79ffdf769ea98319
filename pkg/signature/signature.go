// Package signature provides the versioned syntax-poison signature registry
// and matcher. All static signatures are compiled once at registry
// construction; administrative additions and deactivations build a complete
// new snapshot and swap it atomically, so every match call observes exactly
// one immutable signature set for its whole duration.
//
// Design principles:
// - COMPILE ONCE: static patterns compiled at construction, not per-request
// - SNAPSHOT ISOLATION: matching runs against one immutable versioned set
// - NO EARLY EXIT: every active signature is evaluated, matches accumulate
// - UNIFORM SEMANTICS: static and dynamic signatures match identically
package signature

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
)

// ErrSignatureConfig reports a malformed signature definition at load or
// add time. The in-flight snapshot is never affected.
var ErrSignatureConfig = errors.New("signature: invalid signature configuration")

// Category identifies a syntax-poison class.
type Category string

const (
	// Structural poisoning classes
	CategorySubjectAmbiguity       Category = "subject_ambiguity"
	CategoryLeadingQuestions       Category = "leading_questions"
	CategoryEmotionalManipulation  Category = "emotional_manipulation"
	CategorySuggestionPoisoning    Category = "suggestion_poisoning"
	CategoryResponsibilityTransfer Category = "responsibility_transfer"
	CategoryCommandCollision       Category = "command_collision"
	CategoryResponseDelay          Category = "response_delay"
	CategoryRecursiveLoops         Category = "recursive_loops"

	// Content poisoning classes
	CategoryHallucination     Category = "hallucination"
	CategoryEthicalRelativism Category = "ethical_relativism"
	CategoryBoundaryViolation Category = "boundary_violation"
	CategoryDataPoisoning     Category = "data_poisoning"

	// Model-targeted classes
	CategoryAcademicCamouflage Category = "academic_camouflage"
	CategoryCreativeBoundary   Category = "creative_boundary"
	CategoryDependencySeeking  Category = "dependency_seeking"
	CategoryAICompetition      Category = "ai_competition"
	CategoryPaymentClaim       Category = "payment_claim"
)

// Origin records how a signature entered the snapshot. It never affects
// matching semantics.
type Origin string

const (
	OriginStatic  Origin = "static"
	OriginDynamic Origin = "dynamic"
)

// Signature holds one compiled matcher with metadata. Signatures are
// immutable once registered; deactivation replaces the entry in a new
// snapshot rather than mutating this one.
type Signature struct {
	ID          string
	Category    Category
	Regex       *regexp.Regexp
	Weight      float64
	Origin      Origin
	Active      bool
	Description string
}

// Match is one signature hit against canonical text.
type Match struct {
	SignatureID string
	Category    Category
	Weight      float64
}

// Snapshot is an immutable, versioned signature set. All matching runs
// against a snapshot pinned for the duration of the call.
type Snapshot struct {
	version    uint64
	ordered    []*Signature
	byID       map[string]*Signature
	byCategory map[Category][]*Signature
}

// Version returns the snapshot's version counter. Versions increase by one
// per administrative change.
func (s *Snapshot) Version() uint64 { return s.version }

// MatchAll evaluates every active signature against canonical text and
// returns all hits in registration order. There is no early exit: multiple
// independent matches accumulate for downstream scoring.
func (s *Snapshot) MatchAll(text string) []Match {
	var matches []Match
	for _, sig := range s.ordered {
		if !sig.Active {
			continue
		}
		if sig.Regex.MatchString(text) {
			matches = append(matches, Match{
				SignatureID: sig.ID,
				Category:    sig.Category,
				Weight:      sig.Weight,
			})
		}
	}
	return matches
}

// Categories returns the distinct categories present in a match set.
func Categories(matches []Match) map[Category]bool {
	set := make(map[Category]bool, len(matches))
	for _, m := range matches {
		set[m.Category] = true
	}
	return set
}

// Get returns the signature with the given id, or nil.
func (s *Snapshot) Get(id string) *Signature { return s.byID[id] }

// CategoryCount returns the number of signatures in a category.
func (s *Snapshot) CategoryCount(cat Category) int { return len(s.byCategory[cat]) }

// Total returns the total number of registered signatures, active or not.
func (s *Snapshot) Total() int { return len(s.ordered) }

// Registry owns the current snapshot. Reads are lock-free through an
// atomic pointer; administrative updates serialize on a mutex, build a
// complete new snapshot, and swap it in one store.
type Registry struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
}

// NewRegistry compiles the built-in static signature set and returns a
// registry holding snapshot version 1.
func NewRegistry() *Registry {
	b := newBuilder()
	b.registerSubjectAmbiguitySignatures()
	b.registerLeadingQuestionSignatures()
	b.registerEmotionalManipulationSignatures()
	b.registerSuggestionPoisoningSignatures()
	b.registerResponsibilityTransferSignatures()
	b.registerCommandCollisionSignatures()
	b.registerResponseDelaySignatures()
	b.registerRecursiveLoopSignatures()
	b.registerHallucinationSignatures()
	b.registerEthicalRelativismSignatures()
	b.registerBoundaryViolationSignatures()
	b.registerDataPoisoningSignatures()
	b.registerAcademicCamouflageSignatures()
	b.registerCreativeBoundarySignatures()
	b.registerDependencySeekingSignatures()
	b.registerAICompetitionSignatures()
	b.registerPaymentClaimSignatures()

	r := &Registry{}
	r.current.Store(b.snapshot(1))
	return r
}

// Snapshot returns the current immutable signature set. Callers pin the
// returned pointer for the duration of one analysis.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Definition describes a signature to add administratively or from a pack.
type Definition struct {
	ID          string  `yaml:"id" json:"id"`
	Category    string  `yaml:"category" json:"category"`
	Pattern     string  `yaml:"pattern" json:"pattern"`
	Weight      float64 `yaml:"weight" json:"weight"`
	Description string  `yaml:"description" json:"description"`
}

// Add validates and compiles a dynamic signature definition, then installs
// a new snapshot containing it. A malformed definition returns
// ErrSignatureConfig and leaves the current snapshot untouched.
func (r *Registry) Add(def Definition) error {
	sig, err := compileDefinition(def, OriginDynamic)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.current.Load()
	if _, exists := cur.byID[sig.ID]; exists {
		return fmt.Errorf("%w: duplicate signature id %q", ErrSignatureConfig, sig.ID)
	}

	next := cur.clone()
	next.version = cur.version + 1
	next.insert(sig)
	r.current.Store(next)
	return nil
}

// Deactivate marks a signature inactive in a new snapshot. Unknown ids
// return ErrSignatureConfig.
func (r *Registry) Deactivate(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.current.Load()
	if _, exists := cur.byID[id]; !exists {
		return fmt.Errorf("%w: unknown signature id %q", ErrSignatureConfig, id)
	}

	next := &Snapshot{
		version:    cur.version + 1,
		ordered:    make([]*Signature, 0, len(cur.ordered)),
		byID:       make(map[string]*Signature, len(cur.byID)),
		byCategory: make(map[Category][]*Signature, len(cur.byCategory)),
	}
	for _, sig := range cur.ordered {
		entry := sig
		if sig.ID == id {
			copied := *sig
			copied.Active = false
			entry = &copied
		}
		next.insert(entry)
	}
	r.current.Store(next)
	return nil
}

func compileDefinition(def Definition, origin Origin) (*Signature, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("%w: empty signature id", ErrSignatureConfig)
	}
	if def.Category == "" {
		return nil, fmt.Errorf("%w: signature %q has no category", ErrSignatureConfig, def.ID)
	}
	if def.Weight < 0 {
		return nil, fmt.Errorf("%w: signature %q has negative weight %v", ErrSignatureConfig, def.ID, def.Weight)
	}
	compiled, err := regexp.Compile(def.Pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: signature %q pattern does not compile: %v", ErrSignatureConfig, def.ID, err)
	}
	return &Signature{
		ID:          def.ID,
		Category:    Category(def.Category),
		Regex:       compiled,
		Weight:      def.Weight,
		Origin:      origin,
		Active:      true,
		Description: def.Description,
	}, nil
}

// clone copies a snapshot's indexes so the original stays immutable.
func (s *Snapshot) clone() *Snapshot {
	next := &Snapshot{
		version:    s.version,
		ordered:    make([]*Signature, len(s.ordered)),
		byID:       make(map[string]*Signature, len(s.byID)+1),
		byCategory: make(map[Category][]*Signature, len(s.byCategory)),
	}
	copy(next.ordered, s.ordered)
	for id, sig := range s.byID {
		next.byID[id] = sig
	}
	for cat, sigs := range s.byCategory {
		next.byCategory[cat] = append([]*Signature(nil), sigs...)
	}
	return next
}

func (s *Snapshot) insert(sig *Signature) {
	s.ordered = append(s.ordered, sig)
	s.byID[sig.ID] = sig
	s.byCategory[sig.Category] = append(s.byCategory[sig.Category], sig)
}

// builder accumulates the static set before the first snapshot is built.
type builder struct {
	sigs []*Signature
}

func newBuilder() *builder {
	return &builder{sigs: make([]*Signature, 0, 96)}
}

// register compiles a static pattern. Static patterns are source constants,
// so compilation failure is a programming error.
func (b *builder) register(id string, pattern string, cat Category, weight float64, description string) {
	b.sigs = append(b.sigs, &Signature{
		ID:          id,
		Category:    cat,
		Regex:       regexp.MustCompile(pattern),
		Weight:      weight,
		Origin:      OriginStatic,
		Active:      true,
		Description: description,
	})
}

func (b *builder) snapshot(version uint64) *Snapshot {
	s := &Snapshot{
		version:    version,
		ordered:    make([]*Signature, 0, len(b.sigs)),
		byID:       make(map[string]*Signature, len(b.sigs)),
		byCategory: make(map[Category][]*Signature),
	}
	for _, sig := range b.sigs {
		s.insert(sig)
	}
	return s
}
