package resolve

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the minimum similarity for FindBestMatch to report
// a match when the caller does not override it.
const DefaultThreshold = 0.7

// Candidate is one known entity in the set a query is resolved against.
type Candidate struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Match is a resolved candidate with its normalized similarity score.
// Score 1.0 means the names are equal after normalization.
type Match struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Matcher resolves free-text names against candidate sets using
// normalized Levenshtein similarity. Safe for concurrent use.
type Matcher struct {
	norm      *Normalizer
	threshold float64
}

// NewMatcher creates a Matcher. A threshold <= 0 falls back to
// DefaultThreshold.
func NewMatcher(norm *Normalizer, threshold float64) *Matcher {
	if norm == nil {
		norm = defaultNormalizer
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{norm: norm, threshold: threshold}
}

// FindBestMatch resolves query against candidates. An exact match after
// normalization short-circuits with score 1.0 and always wins, even at
// threshold 1.0. Otherwise the highest-similarity candidate is returned
// when it clears the threshold; ties keep the first candidate seen, so
// results are deterministic for a given candidate order.
//
// The second return value is the best-scoring candidate regardless of
// threshold, so callers can log near-misses when match is nil. Both are
// nil only for an empty candidate set.
func (m *Matcher) FindBestMatch(query string, candidates []Candidate) (match, best *Match) {
	nq := m.norm.Normalize(query)

	for _, c := range candidates {
		nc := m.norm.Normalize(c.Name)
		if nc == nq {
			exact := &Match{ID: c.ID, Name: c.Name, Score: 1.0}
			return exact, exact
		}

		score := Similarity(nq, nc)
		if best == nil || score > best.Score {
			best = &Match{ID: c.ID, Name: c.Name, Score: score}
		}
	}

	if best != nil && best.Score >= m.threshold {
		return best, best
	}
	return nil, best
}

// Similarity returns the normalized Levenshtein similarity of two
// already-normalized strings: (maxLen - distance) / maxLen over rune
// counts. Two empty strings are defined as identical (1.0). The measure
// is symmetric.
func Similarity(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if lb := utf8.RuneCountInString(b); lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return float64(maxLen-dist) / float64(maxLen)
}
