package scorer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/advisor/internal/models"
	"github.com/xhad/advisor/pkg/scorer"
)

func doc(id, title, sourceID, text string) models.Document {
	return models.Document{ID: id, Title: title, SourceID: sourceID, Text: text}
}

func TestTokenize(t *testing.T) {
	tokens := scorer.Tokenize("What's a Bull-Put credit spread, by the way?")
	assert.Equal(t, []string{"whats", "bullput", "credit", "spread", "the", "way"}, tokens)

	assert.Empty(t, scorer.Tokenize("a an of"))
	assert.Empty(t, scorer.Tokenize(""))
}

func TestScoreEmptyQueryGivesBaseScore(t *testing.T) {
	docs := []models.Document{
		doc("d1", "Title One", "kb", "Some body text."),
		doc("d2", "Title Two", "kb", "Other body text."),
	}

	scored := scorer.Score("", docs)
	require.Len(t, scored, 2)
	for _, s := range scored {
		assert.Equal(t, scorer.BaseScore, s.Relevancy)
	}
}

func TestScoreBounds(t *testing.T) {
	d := doc("d1", "risk risk risk risk", "risk", "risk risk risk risk risk risk risk risk")

	scored := scorer.Score("risk assets income portfolio", []models.Document{d})
	require.Len(t, scored, 1)
	assert.LessOrEqual(t, scored[0].Relevancy, scorer.MaxScore)
	assert.GreaterOrEqual(t, scored[0].Relevancy, 0.0)
}

func TestScoreTitleOutweighsBody(t *testing.T) {
	titleHit := doc("d1", "Covered Calls", "kb", "An income strategy.")
	bodyHit := doc("d2", "Income Strategies", "kb", "Covered positions explained once.")

	scored := scorer.Score("covered", []models.Document{titleHit, bodyHit})
	assert.Greater(t, scored[0].Relevancy, scored[1].Relevancy)
}

func TestScoreBodyOccurrencesAreCapped(t *testing.T) {
	twice := doc("d1", "", "", "margin margin")
	many := doc("d2", "", "", "margin margin margin margin margin margin")

	scored := scorer.Score("margin", []models.Document{twice, many})
	// Two occurrences already reach the per-token body cap.
	assert.Equal(t, scored[0].Relevancy, scored[1].Relevancy)
}

func TestScoreMultiTokenBonus(t *testing.T) {
	d := doc("d1", "", "", "dividend growth")

	single := scorer.Score("dividend", []models.Document{d})[0].Relevancy
	double := scorer.Score("dividend growth", []models.Document{d})[0].Relevancy

	// Both tokens land, so the bonus applies on top of the two body hits.
	assert.InDelta(t, single+0.15+0.1, double, 1e-9)
}

func TestRankFiltersBeforeLimiting(t *testing.T) {
	docs := []models.Document{
		doc("hit-1", "Dividend Investing", "kb", "dividend dividend"),
		doc("miss-1", "Unrelated", "kb", "nothing here"),
		doc("hit-2", "Dividend Basics", "kb", "dividend"),
		doc("miss-2", "Also Unrelated", "kb", "still nothing"),
		doc("hit-3", "More Dividends", "kb", "dividend"),
	}

	ranked := scorer.Rank("dividend", docs, 2, 0.65)
	require.Len(t, ranked, 2)
	for _, d := range ranked {
		assert.GreaterOrEqual(t, d.Relevancy, 0.65)
		assert.Contains(t, d.ID, "hit")
	}
}

func TestRankStableOrderOnTies(t *testing.T) {
	docs := []models.Document{
		doc("first", "Bonds", "kb", "bond ladder"),
		doc("second", "Bonds", "kb", "bond ladder"),
	}

	ranked := scorer.Rank("bond ladder", docs, 5, 0.5)
	require.Len(t, ranked, 2)
	assert.Equal(t, "first", ranked[0].ID)
	assert.Equal(t, "second", ranked[1].ID)
}

func TestRankDefaultLimit(t *testing.T) {
	var docs []models.Document
	for i := 0; i < 10; i++ {
		docs = append(docs, doc("d", "gold", "kb", "gold"))
	}

	ranked := scorer.Rank("gold", docs, 0, 0.5)
	assert.Len(t, ranked, scorer.DefaultLimit)
}

func TestRankEmptyQueryBelowThreshold(t *testing.T) {
	docs := []models.Document{doc("d1", "Anything", "kb", "anything")}

	assert.Empty(t, scorer.Rank("", docs, 5, 0.65))
}
