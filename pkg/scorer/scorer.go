// Package scorer ranks knowledge-base documents against a free-text query
// using token-overlap heuristics. It is the local fallback when no remote
// retrieval backend is reachable.
package scorer

import (
	"math"
	"sort"
	"strings"

	"github.com/xhad/advisor/internal/models"
)

const (
	// BaseScore is what every document starts from, matched or not.
	BaseScore = 0.5
	// MaxScore caps results below a perfect 1.0; the scorer never claims
	// exact certainty.
	MaxScore = 0.99

	titleWeight     = 0.2
	bodyWeight      = 0.15
	bodyWeightCap   = 0.3
	sourceWeight    = 0.1
	multiTokenBonus = 0.1

	minTokenLength = 3
)

// DefaultLimit is the number of documents Rank returns when the caller
// passes a non-positive limit.
const DefaultLimit = 5

// Tokenize lowercases the query, splits on whitespace, strips
// non-alphanumeric runes and drops tokens shorter than three characters.
func Tokenize(query string) []string {
	var tokens []string
	for _, field := range strings.Fields(strings.ToLower(query)) {
		token := stripNonAlnum(field)
		if len(token) >= minTokenLength {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func stripNonAlnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Score computes a relevance score in [0, 0.99] for every document. A nil
// or empty query yields the base score for all documents.
func Score(query string, docs []models.Document) []models.ScoredDocument {
	tokens := Tokenize(query)

	scored := make([]models.ScoredDocument, 0, len(docs))
	for _, doc := range docs {
		s := scoreDocument(tokens, doc)
		scored = append(scored, models.ScoredDocument{
			Document:   doc,
			Relevancy:  s,
			Similarity: s,
		})
	}
	return scored
}

func scoreDocument(tokens []string, doc models.Document) float64 {
	score := BaseScore

	title := strings.ToLower(doc.Title)
	text := strings.ToLower(doc.Text)
	source := strings.ToLower(doc.SourceID)

	matched := 0
	for _, token := range tokens {
		hit := false

		// Title matches are most valuable
		if strings.Contains(title, token) {
			score += titleWeight
			hit = true
		}

		// Body matches scale with occurrence count up to a cap
		if count := strings.Count(text, token); count > 0 {
			score += math.Min(bodyWeight*float64(count), bodyWeightCap)
			hit = true
		}

		if strings.Contains(source, token) {
			score += sourceWeight
		}

		if hit {
			matched++
		}
	}

	// Multi-token queries get a bonus when more than one token lands
	if len(tokens) > 1 && matched > 1 {
		score += multiTokenBonus * float64(matched) / float64(len(tokens))
	}

	if score > MaxScore {
		score = MaxScore
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Rank scores all documents, drops those below threshold, sorts the rest by
// descending relevance and truncates to limit. Filtering happens before
// limiting so the caller always gets up to limit documents that all clear
// the threshold. The sort is stable: equally-scored documents keep catalog
// order.
func Rank(query string, docs []models.Document, limit int, threshold float64) []models.ScoredDocument {
	if limit <= 0 {
		limit = DefaultLimit
	}

	scored := Score(query, docs)

	filtered := scored[:0]
	for _, doc := range scored {
		if doc.Relevancy >= threshold {
			filtered = append(filtered, doc)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Relevancy > filtered[j].Relevancy
	})

	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}
