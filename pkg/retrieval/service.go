// Package retrieval ranks knowledge-base documents against a user query.
// It chains up to three backends: a hosted retrieval pipeline, a local
// pgvector store, and a keyword scorer over the in-memory catalog. A
// backend failure falls through to the next; retrieval never returns an
// error to callers, only an empty result set.
package retrieval

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/xhad/advisor/internal/models"
	"github.com/xhad/advisor/internal/types"
	"github.com/xhad/advisor/pkg/scorer"
)

const (
	// DefaultThreshold is the minimum relevance a document needs to be
	// included in results.
	DefaultThreshold = 0.65

	snippetLength = 200

	// NoDocumentsMessage is returned by FormatAsContext when nothing
	// passed the threshold. Callers hand it to the LLM verbatim.
	NoDocumentsMessage = "No relevant documents found."
)

type ServiceConfig struct {
	// Remote and Vector are optional. When nil (or failing) the service
	// falls back to keyword scoring over Source.
	Remote types.Retriever
	Vector types.Retriever
	Source types.DocumentSource

	Limit     int
	Threshold float64
}

type Service struct {
	config ServiceConfig
}

func NewService(config ServiceConfig) *Service {
	if config.Limit <= 0 {
		config.Limit = scorer.DefaultLimit
	}
	if config.Threshold == 0 {
		config.Threshold = DefaultThreshold
	}
	return &Service{config: config}
}

// RetrieveDocuments returns the top documents for query, ranked by
// relevance and filtered by the configured threshold. It never fails:
// backend errors are logged and the next backend is tried, and an empty
// slice means nothing relevant was found.
func (s *Service) RetrieveDocuments(ctx context.Context, query string, limit int) []models.ScoredDocument {
	if limit <= 0 {
		limit = s.config.Limit
	}

	if s.config.Remote != nil {
		docs, err := s.config.Remote.Retrieve(ctx, query, limit)
		if err == nil {
			return s.rank(docs, limit)
		}
		log.Printf("remote retrieval failed, falling back: %v", err)
	}

	if s.config.Vector != nil {
		docs, err := s.config.Vector.Retrieve(ctx, query, limit)
		if err == nil && len(docs) > 0 {
			return s.rank(docs, limit)
		}
		if err != nil {
			log.Printf("vector retrieval failed, falling back: %v", err)
		}
	}

	if s.config.Source != nil {
		return scorer.Rank(query, s.config.Source.Documents(), limit, s.config.Threshold)
	}
	return []models.ScoredDocument{}
}

// rank applies the threshold filter first, then orders by relevance and
// truncates. Backends may return results in arbitrary order.
func (s *Service) rank(docs []models.ScoredDocument, limit int) []models.ScoredDocument {
	filtered := make([]models.ScoredDocument, 0, len(docs))
	for _, d := range docs {
		if d.Relevancy >= s.config.Threshold {
			filtered = append(filtered, d)
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

// RetrieveForProfile augments the query with what is known about the
// client before retrieving. Known scalar facts become key:value tokens so
// they participate in scoring.
func (s *Service) RetrieveForProfile(ctx context.Context, query string, p *models.ClientProfile, limit int) []models.ScoredDocument {
	return s.RetrieveDocuments(ctx, AugmentQuery(query, p), limit)
}

// AugmentQuery appends bracketed key:value tokens for the client facts
// most likely to steer retrieval toward suitable material.
func AugmentQuery(query string, p *models.ClientProfile) string {
	if p == nil {
		return query
	}

	var tokens []string
	if p.Risk.Tolerance != nil {
		tokens = append(tokens, "risk_tolerance:"+strings.ToLower(*p.Risk.Tolerance))
	}
	if p.Risk.History != nil {
		tokens = append(tokens, "experience:"+strings.ToLower(*p.Risk.History))
	}
	if len(p.Preferences) > 0 {
		tokens = append(tokens, "strategy:"+strings.ToLower(p.Preferences[0]))
	}
	if len(tokens) == 0 {
		return query
	}
	return query + " [" + strings.Join(tokens, " ") + "]"
}

// FormatAsContext renders retrieved documents as a context block for the
// LLM prompt.
func FormatAsContext(docs []models.ScoredDocument) string {
	if len(docs) == 0 {
		return NoDocumentsMessage
	}

	sections := make([]string, len(docs))
	for i, d := range docs {
		sections[i] = fmt.Sprintf("Document %d:\n%s", i+1, d.Text)
	}
	return strings.Join(sections, "\n\n---\n\n")
}

// FormatAsContextWithProfile appends a readable summary of the client
// profile after the document context so the model can tailor its answer.
func FormatAsContextWithProfile(docs []models.ScoredDocument, p *models.ClientProfile) string {
	context := FormatAsContext(docs)
	block := ProfileBlock(p)
	if block == "" {
		return context
	}
	return context + "\n\n" + block
}

// ProfileBlock renders the known profile fields as labelled lines.
// Returns "" when nothing is known yet.
func ProfileBlock(p *models.ClientProfile) string {
	if p == nil {
		return ""
	}

	var lines []string
	add := func(label string, v *string) {
		if v != nil && *v != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", label, *v))
		}
	}
	add("Short-term goal", p.Goals.ShortTerm)
	add("Medium-term goal", p.Goals.MediumTerm)
	add("Long-term goal", p.Goals.LongTerm)
	add("Risk tolerance", p.Risk.Tolerance)
	add("Investment experience", p.Risk.History)
	add("Income", p.Financials.Income)
	add("Assets", p.Financials.Assets)
	add("Expenses", p.Financials.Expenses)
	add("Time horizon", p.TimeHorizon)
	if len(p.Preferences) > 0 {
		lines = append(lines, "- Preferences: "+strings.Join(p.Preferences, "; "))
	}
	if len(p.Expectations) > 0 {
		lines = append(lines, "- Expectations: "+strings.Join(p.Expectations, "; "))
	}
	if len(lines) == 0 {
		return ""
	}
	return "Client profile:\n" + strings.Join(lines, "\n")
}

// ToChatSources converts ranked documents into the citation payload sent
// to clients alongside a chat response.
func ToChatSources(docs []models.ScoredDocument) []models.ChatSource {
	sources := make([]models.ChatSource, len(docs))
	for i, d := range docs {
		title := d.Title
		if title == "" {
			title = d.SourceID
		}
		if title == "" {
			title = d.URL
		}
		sources[i] = models.ChatSource{
			ID:         d.ID,
			Title:      title,
			URL:        d.URL,
			Snippet:    snippet(d.Text),
			Relevancy:  d.Relevancy,
			Similarity: d.Similarity,
		}
	}
	return sources
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}
	return string(runes[:snippetLength]) + "..."
}
