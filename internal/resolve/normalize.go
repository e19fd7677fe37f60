// Package resolve implements entity resolution primitives: free-text name
// normalization, Levenshtein-based fuzzy matching against candidate sets,
// and identity linking by email address and domain. Everything here is a
// pure function over in-memory inputs; persistence and workspace scoping
// are the caller's concern.
package resolve

import (
	"regexp"
	"strings"
)

// Correction is one ordered (pattern, replacement) entry in the typo
// correction table. Patterns match case-insensitively as substrings.
// Replacements must not re-introduce their own pattern or normalization
// loses idempotence.
type Correction struct {
	Pattern     string `yaml:"pattern" mapstructure:"pattern"`
	Replacement string `yaml:"replacement" mapstructure:"replacement"`
}

// DefaultCorrections returns the shipped typo table. Callers extend it
// through NewNormalizer; the engine never mutates it.
func DefaultCorrections() []Correction {
	return []Correction{
		{Pattern: "electic", Replacement: "electric"},
		{Pattern: "virgina", Replacement: "virginia"},
		{Pattern: "sacremento", Replacement: "sacramento"},
		{Pattern: "pittsburg ", Replacement: "pittsburgh "},
		{Pattern: "cincinatti", Replacement: "cincinnati"},
		{Pattern: "managment", Replacement: "management"},
		{Pattern: "assocation", Replacement: "association"},
	}
}

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

var punctReplacer = strings.NewReplacer(
	",", "",
	".", "",
	"&", "and",
	"+", "and",
	"-", " ",
	"/", " ",
)

// Normalizer canonicalizes free-text names for comparison. The zero value
// is not usable; construct with NewNormalizer.
type Normalizer struct {
	corrections []Correction
}

// NewNormalizer builds a Normalizer with the default correction table
// followed by any caller-supplied extensions, applied in order.
func NewNormalizer(extra ...Correction) *Normalizer {
	return &Normalizer{corrections: append(DefaultCorrections(), extra...)}
}

// Normalize canonicalizes a raw name:
//  1. Trim and lowercase
//  2. Strip commas and periods
//  3. Replace "&" and "+" with "and", "-" and "/" with a space
//  4. Collapse runs of whitespace to single spaces
//  5. Apply the correction table as substring replacements
//
// Normalization is total and idempotent: empty or whitespace-only input
// yields "", and normalize(normalize(s)) == normalize(s).
func (n *Normalizer) Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	s = punctReplacer.Replace(s)
	s = multiSpaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	for _, c := range n.corrections {
		s = strings.ReplaceAll(s, strings.ToLower(c.Pattern), strings.ToLower(c.Replacement))
	}

	return s
}

// Normalize canonicalizes a raw name using the default correction table.
func Normalize(raw string) string {
	return defaultNormalizer.Normalize(raw)
}

var defaultNormalizer = NewNormalizer()
