package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilarity_Identical(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("acme corp", "acme corp"))
}

func TestSimilarity_BothEmpty(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
}

func TestSimilarity_OneEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("acme", ""))
	assert.Equal(t, 0.0, Similarity("", "acme"))
}

func TestSimilarity_KnownDistance(t *testing.T) {
	// kitten -> sitting: distance 3 over max length 7.
	assert.InDelta(t, 4.0/7.0, Similarity("kitten", "sitting"), 1e-9)
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"acme corp", "acme co"},
		{"northern virginia", "northern virgina"},
		{"a", "abcdef"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "pair %v", p)
	}
}

func TestFindBestMatch_ExactAfterNormalization(t *testing.T) {
	m := NewMatcher(nil, 0)
	match, best := m.FindBestMatch("ACME CORP.", []Candidate{
		{ID: 7, Name: "Acme Corp"},
	})
	require.NotNil(t, match)
	assert.Equal(t, int64(7), match.ID)
	assert.Equal(t, 1.0, match.Score)
	assert.Equal(t, match, best)
}

func TestFindBestMatch_ExactWinsAtThresholdOne(t *testing.T) {
	// An exact normalized match short-circuits even when the threshold
	// would reject everything else.
	m := NewMatcher(nil, 1.0)
	match, _ := m.FindBestMatch("Smith & Jones", []Candidate{
		{ID: 1, Name: "Smith and Jones"},
	})
	require.NotNil(t, match)
	assert.Equal(t, 1.0, match.Score)
}

func TestFindBestMatch_CorrectionsBridgeTypos(t *testing.T) {
	m := NewMatcher(nil, 0)
	match, _ := m.FindBestMatch("Northern Virgina Electic", []Candidate{
		{ID: 3, Name: "Northern Virginia Electric"},
	})
	require.NotNil(t, match)
	assert.GreaterOrEqual(t, match.Score, 0.9)
}

func TestFindBestMatch_AboveThreshold(t *testing.T) {
	m := NewMatcher(nil, 0.7)
	match, _ := m.FindBestMatch("acme co", []Candidate{
		{ID: 1, Name: "acme corp"},
	})
	require.NotNil(t, match)
	assert.InDelta(t, 7.0/9.0, match.Score, 1e-9)
}

func TestFindBestMatch_BelowThresholdReturnsBest(t *testing.T) {
	m := NewMatcher(nil, 0.9)
	match, best := m.FindBestMatch("acme co", []Candidate{
		{ID: 1, Name: "acme corp"},
		{ID: 2, Name: "globex industries"},
	})
	assert.Nil(t, match)
	require.NotNil(t, best)
	assert.Equal(t, int64(1), best.ID)
	assert.InDelta(t, 7.0/9.0, best.Score, 1e-9)
}

func TestFindBestMatch_FirstSeenWinsTies(t *testing.T) {
	m := NewMatcher(nil, 0.7)
	// Both candidates are distance 1 from the query.
	match, _ := m.FindBestMatch("abcd", []Candidate{
		{ID: 1, Name: "abcx"},
		{ID: 2, Name: "abcy"},
	})
	require.NotNil(t, match)
	assert.Equal(t, int64(1), match.ID)
}

func TestFindBestMatch_PicksHighestScore(t *testing.T) {
	m := NewMatcher(nil, 0.5)
	match, _ := m.FindBestMatch("acme corp", []Candidate{
		{ID: 1, Name: "acne corp"},
		{ID: 2, Name: "acme corps"},
		{ID: 3, Name: "zzzzz"},
	})
	require.NotNil(t, match)
	// Both edits are distance 1, but "acme corps" compares over a longer
	// max length, so one edit costs it less: 9/10 beats 8/9.
	assert.Equal(t, int64(2), match.ID)
	assert.InDelta(t, 0.9, match.Score, 1e-9)
}

func TestFindBestMatch_DedupScenario(t *testing.T) {
	m := NewMatcher(nil, 0.7)
	match, _ := m.FindBestMatch("ACME CORP.", []Candidate{
		{ID: 1, Name: "Acme Corp"},
		{ID: 2, Name: "Acme Corporation"},
		{ID: 3, Name: "Beta Inc"},
	})
	require.NotNil(t, match)
	assert.Equal(t, int64(1), match.ID)
	assert.Equal(t, 1.0, match.Score)
}

func TestFindBestMatch_TypoCorrectedNearMiss(t *testing.T) {
	m := NewMatcher(nil, 0.7)
	match, _ := m.FindBestMatch("Northern Virgina Electic Cooperative", []Candidate{
		{ID: 1, Name: "Northern Virginia Electric Cooperative"},
	})
	require.NotNil(t, match)
	assert.GreaterOrEqual(t, match.Score, 0.9)
}

func TestFindBestMatch_NoMatchAgainstUnrelatedSet(t *testing.T) {
	m := NewMatcher(nil, 0.7)
	match, best := m.FindBestMatch("Zylar Quantum Dynamics", []Candidate{
		{ID: 1, Name: "Acme Corp"},
		{ID: 2, Name: "Beta Inc"},
		{ID: 3, Name: "Northern Virginia Electric"},
	})
	assert.Nil(t, match)
	require.NotNil(t, best)
	assert.Less(t, best.Score, 0.7)
}

func TestFindBestMatch_ThresholdMonotonic(t *testing.T) {
	// Raising the threshold can only turn a match into a non-match,
	// never produce a different match.
	candidates := []Candidate{
		{ID: 1, Name: "acme corp"},
		{ID: 2, Name: "acme company"},
	}
	low := NewMatcher(nil, 0.6)
	high := NewMatcher(nil, 0.95)

	lowMatch, _ := low.FindBestMatch("acme co", candidates)
	highMatch, _ := high.FindBestMatch("acme co", candidates)
	require.NotNil(t, lowMatch)
	if highMatch != nil {
		assert.Equal(t, lowMatch.ID, highMatch.ID)
	}
}

func TestFindBestMatch_EmptyCandidates(t *testing.T) {
	m := NewMatcher(nil, 0)
	match, best := m.FindBestMatch("acme", nil)
	assert.Nil(t, match)
	assert.Nil(t, best)
}

func TestNewMatcher_Defaults(t *testing.T) {
	m := NewMatcher(nil, 0)
	assert.Equal(t, DefaultThreshold, m.threshold)
	assert.NotNil(t, m.norm)
}
