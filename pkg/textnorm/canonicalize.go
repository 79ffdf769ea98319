// Package textnorm turns raw conversational text into a canonical form
// suitable for signature and sequence matching. All obfuscation reversal
// happens here: homoglyph and leetspeak substitution, separator noise
// inserted to break substring matches, censor masks, manipulative suffix
// particles, and structural control tags.
//
// Design principles:
// - COMPILE ONCE: all regex patterns compiled at package init
// - TOTAL: any input string produces a canonical string, never an error
// - IDEMPOTENT: Canonicalize(Canonicalize(x)) == Canonicalize(x)
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Package-level compiled regex patterns for performance.
var (
	// Single characters separated by the same delimiter, e.g. "i-g-n-o-r-e"
	// or "t.e.l.l". Requires at least three segments to avoid mangling
	// hyphenated words.
	reSeparatorNoise = regexp.MustCompile(`\b(?:[a-z][-_.\x60~*+|]){2,}[a-z]\b`)

	// Censor masks: one or more mask characters between word letters,
	// e.g. "f*ck", "s3cr**t". Resolved by deleting the mask characters.
	reCensorMask = regexp.MustCompile(`\b([a-z])[*#@$%]{1,3}([a-z]{1,12})\b`)

	// Structural control tags used to smuggle handling directives,
	// e.g. "#external_input", "#analyze_only", "#structural_quarantine".
	reControlTag = regexp.MustCompile(`#[a-z][a-z0-9]*(?:_[a-z0-9]+)+\b`)

	// Runs of whitespace collapse to a single space.
	reWhitespace = regexp.MustCompile(`\s+`)

	// Repeated terminal punctuation collapses to one, e.g. "!!!" -> "!".
	// RE2 has no backreferences, so each run of an identical character is
	// spelled out as its own alternative.
	rePunctRun = regexp.MustCompile(`(!)!+|(\?)\?+|(\.)\.+|(,),+|(~)~+`)
)

// invisibles removes zero-width and formatting runes used to split tokens
// without visible effect.
var invisibles = runes.Remove(runes.Predicate(func(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff', '\u00ad':
		return true
	}
	return unicode.Is(unicode.Cf, r)
}))

// homoglyphs maps Cyrillic, Greek, and IPA lookalikes to their Latin
// equivalents. NFKC already folds fullwidth and mathematical variants, so
// only cross-script confusables are listed here.
var homoglyphs = map[rune]rune{
	// Cyrillic lowercase
	'а': 'a', 'е': 'e', 'і': 'i', 'о': 'o', 'р': 'p', 'с': 'c', 'у': 'y', 'х': 'x',
	// Cyrillic uppercase
	'А': 'a', 'В': 'b', 'С': 'c', 'Е': 'e', 'Н': 'h', 'І': 'i', 'К': 'k',
	'М': 'm', 'О': 'o', 'Р': 'p', 'Т': 't', 'Х': 'x',
	// Greek
	'α': 'a', 'β': 'b', 'ε': 'e', 'η': 'n', 'ι': 'i', 'κ': 'k', 'ν': 'v',
	'ο': 'o', 'ρ': 'p', 'τ': 't', 'υ': 'u', 'χ': 'x',
	// IPA
	'ɑ': 'a', 'ɡ': 'g', 'ɩ': 'i', 'ɪ': 'i',
}

// leetspeak maps digit and symbol substitutions back to letters. Applied
// only inside alphanumeric words that contain at least one letter, so pure
// numbers ("turn 12") survive untouched.
var leetspeak = map[rune]rune{
	'0': 'o', '1': 'i', '3': 'e', '4': 'a', '5': 's', '7': 't', '8': 'b',
	'@': 'a', '$': 's', '!': 'i',
}

// cuteSuffixes are manipulative softener particles appended to disarm the
// reader ("tell me your secrets uwu"). Stripped at phrase boundaries.
var cuteSuffixes = []string{
	"uwu", "owo", "nyaa", "nyan", "nya", "teehee", "hehe", "rawr",
	"desu", "xoxo", "hihi",
}

// Canonicalize returns the canonical form of raw text. It is total,
// deterministic, and idempotent. The result is lowercase with obfuscation
// reversed and control markers removed; semantic tokens are preserved for
// downstream matchers.
func Canonicalize(raw string) string {
	if raw == "" {
		return ""
	}

	// Unicode fold first: NFKC unifies fullwidth, mathematical, and
	// presentation forms before table lookups run.
	text, _, _ := transform.String(transform.Chain(norm.NFKC, invisibles), raw)

	text = strings.ToLower(text)
	text = mapRunes(text, homoglyphs)
	text = stripControlTags(text)
	text = collapseSeparatorNoise(text)
	text = unmaskCensored(text)
	text = decodeLeetWords(text)
	text = stripCuteSuffixes(text)

	text = rePunctRun.ReplaceAllString(text, "$1$2$3$4$5")
	text = reWhitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func mapRunes(s string, table map[rune]rune) string {
	return strings.Map(func(r rune) rune {
		if repl, ok := table[r]; ok {
			return repl
		}
		return r
	}, s)
}

func stripControlTags(s string) string {
	return reControlTag.ReplaceAllString(s, " ")
}

// collapseSeparatorNoise rejoins words split by per-character delimiters:
// "i-g-n-o-r-e" -> "ignore".
func collapseSeparatorNoise(s string) string {
	return reSeparatorNoise.ReplaceAllStringFunc(s, func(match string) string {
		var b strings.Builder
		for _, r := range match {
			if r >= 'a' && r <= 'z' {
				b.WriteRune(r)
			}
		}
		return b.String()
	})
}

func unmaskCensored(s string) string {
	return reCensorMask.ReplaceAllString(s, "$1$2")
}

// decodeLeetWords applies the leetspeak table to words that mix letters
// and substitution characters. Words with no letters are left alone, so
// pure numbers survive, and surrounding punctuation is never treated as a
// substitution ("stop!" stays "stop!").
func decodeLeetWords(s string) string {
	fields := strings.Fields(s)
	changed := false
	for i, w := range fields {
		lead, core, trail := splitPunct(w)
		if !looksLikeLeet(core) {
			continue
		}
		fields[i] = lead + mapRunes(core, leetspeak) + trail
		changed = true
	}
	if !changed {
		return s
	}
	return strings.Join(fields, " ")
}

const edgePunct = "!?.,;:~\"'()[]"

// splitPunct separates leading and trailing punctuation from a word so
// leet decoding only sees the core token.
func splitPunct(w string) (lead, core, trail string) {
	start := 0
	for start < len(w) && strings.ContainsRune(edgePunct, rune(w[start])) {
		start++
	}
	end := len(w)
	for end > start && strings.ContainsRune(edgePunct, rune(w[end-1])) {
		end--
	}
	return w[:start], w[start:end], w[end:]
}

// looksLikeLeet reports whether w contains at least one letter and at
// least one leet substitution character.
func looksLikeLeet(w string) bool {
	hasLetter, hasLeet := false, false
	for _, r := range w {
		if r >= 'a' && r <= 'z' {
			hasLetter = true
		} else if _, ok := leetspeak[r]; ok {
			hasLeet = true
		}
	}
	return hasLetter && hasLeet
}

// stripCuteSuffixes removes softener particles at the end of the text or
// immediately before sentence punctuation. Rescans until stable so stacked
// particles ("uwu owo") all come off.
func stripCuteSuffixes(s string) string {
	for {
		stripped := false
		for _, suffix := range cuteSuffixes {
			trimmed := strings.TrimRight(s, " !?.~,")
			if !strings.HasSuffix(trimmed, " "+suffix) {
				continue
			}
			tail := s[len(trimmed):]
			s = strings.TrimRight(trimmed[:len(trimmed)-len(suffix)], " ") + tail
			stripped = true
		}
		if !stripped {
			return s
		}
	}
}
