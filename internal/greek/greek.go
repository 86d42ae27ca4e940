// Package greek provides text normalization for Greek municipality and
// header names so that independently sourced datasets can be matched on a
// stable key regardless of accents, case, or script.
package greek

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// latin maps each Greek letter to its conventional Latin transliteration.
// Accented vowels are handled by stripping combining marks first, so only
// the base alphabet appears here.
var latin map[rune]string

func init() {
	// Built programmatically to keep upper/lower pairs in sync.
	pairs := map[rune]string{
		'α': "a", 'β': "v", 'γ': "g", 'δ': "d", 'ε': "e", 'ζ': "z",
		'η': "i", 'θ': "th", 'ι': "i", 'κ': "k", 'λ': "l", 'μ': "m",
		'ν': "n", 'ξ': "x", 'ο': "o", 'π': "p", 'ρ': "r", 'σ': "s",
		'ς': "s", 'τ': "t", 'υ': "y", 'φ': "f", 'χ': "ch", 'ψ': "ps",
		'ω': "o",
	}
	latin = make(map[rune]string, len(pairs)*2)
	for r, s := range pairs {
		latin[r] = s
		latin[unicode.ToUpper(r)] = s
	}
}

// stripMarks removes combining marks (accents, diaeresis) after canonical
// decomposition, so Ά and Α normalize identically.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases text and removes Greek accents. It keeps the Greek
// script, which makes it suitable for comparing two Greek-language
// sources (for example statistical table headers).
func Fold(text string) string {
	folded, _, err := transform.String(stripMarks, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}

// Transliterate converts Greek text to Latin characters, leaving
// non-Greek runes untouched.
func Transliterate(text string) string {
	folded, _, err := transform.String(stripMarks, text)
	if err != nil {
		folded = text
	}
	var b strings.Builder
	b.Grow(len(folded))
	var prev rune
	for _, r := range folded {
		// υ after ο forms the ου digraph, conventionally romanized "ou"
		// (ΖΑΚΥΝΘΟΥ -> zakynthou), never "oy".
		if (r == 'υ' || r == 'Υ') && (prev == 'ο' || prev == 'Ο') {
			b.WriteString("u")
			prev = r
			continue
		}
		prev = r
		if s, ok := latin[r]; ok {
			b.WriteString(s)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MatchKey reduces a name from either source to a comparison key:
// transliterated, lowercased, with everything except letters and digits
// removed. Two names with equal keys are considered an exact match.
func MatchKey(name string) string {
	t := strings.ToLower(Transliterate(name))
	var b strings.Builder
	b.Grow(len(t))
	for _, r := range t {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HeaderKey reduces a column header to a comparison key: accent-folded,
// lowercased, all whitespace removed. Headers stay in the Greek script
// because the vocabulary is maintained in Greek.
func HeaderKey(header string) string {
	var b strings.Builder
	for _, r := range Fold(header) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
