package retrieval_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/advisor/internal/models"
	"github.com/xhad/advisor/pkg/catalog"
	"github.com/xhad/advisor/pkg/profile"
	"github.com/xhad/advisor/pkg/retrieval"
)

type stubRetriever struct {
	docs      []models.ScoredDocument
	err       error
	lastQuery string
	calls     int
}

func (s *stubRetriever) Retrieve(_ context.Context, query string, _ int) ([]models.ScoredDocument, error) {
	s.calls++
	s.lastQuery = query
	return s.docs, s.err
}

func scoredDoc(id string, relevancy float64) models.ScoredDocument {
	return models.ScoredDocument{
		Document:   models.Document{ID: id, Title: "Doc " + id, Text: "text for " + id},
		Relevancy:  relevancy,
		Similarity: relevancy,
	}
}

func TestRemoteBackendPreferred(t *testing.T) {
	remote := &stubRetriever{docs: []models.ScoredDocument{scoredDoc("r1", 0.9)}}
	vector := &stubRetriever{docs: []models.ScoredDocument{scoredDoc("v1", 0.9)}}

	svc := retrieval.NewService(retrieval.ServiceConfig{
		Remote: remote,
		Vector: vector,
		Source: catalog.New(),
	})

	docs := svc.RetrieveDocuments(context.Background(), "credit spread", 5)
	require.Len(t, docs, 1)
	assert.Equal(t, "r1", docs[0].ID)
	assert.Zero(t, vector.calls)
}

func TestRemoteFailureFallsBackToVector(t *testing.T) {
	remote := &stubRetriever{err: errors.New("connection refused")}
	vector := &stubRetriever{docs: []models.ScoredDocument{scoredDoc("v1", 0.8)}}

	svc := retrieval.NewService(retrieval.ServiceConfig{
		Remote: remote,
		Vector: vector,
		Source: catalog.New(),
	})

	docs := svc.RetrieveDocuments(context.Background(), "credit spread", 5)
	require.Len(t, docs, 1)
	assert.Equal(t, "v1", docs[0].ID)
}

func TestAllBackendsFailingFallsBackToLocalScoring(t *testing.T) {
	remote := &stubRetriever{err: errors.New("timeout")}
	vector := &stubRetriever{err: errors.New("no database")}

	svc := retrieval.NewService(retrieval.ServiceConfig{
		Remote: remote,
		Vector: vector,
		Source: catalog.New(),
	})

	docs := svc.RetrieveDocuments(context.Background(), "bull put credit spread", 5)
	require.NotEmpty(t, docs)
	assert.Equal(t, "doc-11", docs[0].ID)
}

func TestRetrieveNeverErrorsWithNoBackends(t *testing.T) {
	svc := retrieval.NewService(retrieval.ServiceConfig{})

	docs := svc.RetrieveDocuments(context.Background(), "anything at all", 5)
	assert.Empty(t, docs)
}

func TestUnreachableThresholdYieldsSentinel(t *testing.T) {
	svc := retrieval.NewService(retrieval.ServiceConfig{
		Source:    catalog.New(),
		Threshold: 0.95,
	})

	docs := svc.RetrieveDocuments(context.Background(), "gardening tips", 5)
	assert.Empty(t, docs)
	assert.Equal(t, "No relevant documents found.", retrieval.FormatAsContext(docs))
}

func TestBackendResultsAreThresholdedAndLimited(t *testing.T) {
	remote := &stubRetriever{docs: []models.ScoredDocument{
		scoredDoc("low", 0.4),
		scoredDoc("mid", 0.7),
		scoredDoc("high", 0.95),
		scoredDoc("mid2", 0.7),
		scoredDoc("high2", 0.9),
	}}

	svc := retrieval.NewService(retrieval.ServiceConfig{
		Remote: remote,
		Source: catalog.New(),
	})

	docs := svc.RetrieveDocuments(context.Background(), "q", 3)
	require.Len(t, docs, 3)
	assert.Equal(t, "high", docs[0].ID)
	assert.Equal(t, "high2", docs[1].ID)
	assert.Equal(t, "mid", docs[2].ID)
}

func TestAugmentQuery(t *testing.T) {
	assert.Equal(t, "q", retrieval.AugmentQuery("q", nil))

	p := profile.Empty()
	assert.Equal(t, "q", retrieval.AugmentQuery("q", &p))

	tolerance := "Moderate"
	history := "Beginner"
	p.Risk.Tolerance = &tolerance
	p.Risk.History = &history
	p.Preferences = []string{"Covered Calls"}

	augmented := retrieval.AugmentQuery("what should I trade", &p)
	assert.Equal(t, "what should I trade [risk_tolerance:moderate experience:beginner strategy:covered calls]", augmented)
}

func TestRetrieveForProfilePassesAugmentedQuery(t *testing.T) {
	remote := &stubRetriever{docs: []models.ScoredDocument{scoredDoc("r1", 0.9)}}
	svc := retrieval.NewService(retrieval.ServiceConfig{Remote: remote})

	p := profile.Empty()
	tolerance := "moderate"
	p.Risk.Tolerance = &tolerance

	svc.RetrieveForProfile(context.Background(), "income ideas", &p, 5)
	assert.Equal(t, "income ideas [risk_tolerance:moderate]", remote.lastQuery)
}

func TestFormatAsContext(t *testing.T) {
	assert.Equal(t, "No relevant documents found.", retrieval.FormatAsContext(nil))

	docs := []models.ScoredDocument{scoredDoc("a", 0.9), scoredDoc("b", 0.8)}
	out := retrieval.FormatAsContext(docs)
	assert.True(t, strings.HasPrefix(out, "Document 1:\ntext for a"))
	assert.Contains(t, out, "\n\n---\n\n")
	assert.Contains(t, out, "Document 2:\ntext for b")
}

func TestFormatAsContextWithProfile(t *testing.T) {
	p := profile.Empty()
	tolerance := "moderate"
	p.Risk.Tolerance = &tolerance

	out := retrieval.FormatAsContextWithProfile(nil, &p)
	assert.Contains(t, out, "No relevant documents found.")
	assert.Contains(t, out, "Client profile:")
	assert.Contains(t, out, "- Risk tolerance: moderate")

	empty := profile.Empty()
	out = retrieval.FormatAsContextWithProfile(nil, &empty)
	assert.Equal(t, "No relevant documents found.", out)
}

func TestToChatSources(t *testing.T) {
	long := strings.Repeat("x", 250)
	docs := []models.ScoredDocument{
		{
			Document:   models.Document{ID: "a", Title: "Title A", URL: "https://example.com/a", Text: long},
			Relevancy:  0.9,
			Similarity: 0.85,
		},
		{
			Document:  models.Document{ID: "b", SourceID: "kb", Text: "short"},
			Relevancy: 0.7,
		},
	}

	sources := retrieval.ToChatSources(docs)
	require.Len(t, sources, 2)

	assert.Equal(t, "Title A", sources[0].Title)
	assert.Equal(t, strings.Repeat("x", 200)+"...", sources[0].Snippet)
	assert.Equal(t, 0.9, sources[0].Relevancy)
	assert.Equal(t, 0.85, sources[0].Similarity)

	// Title falls back to the source ID, short text is untouched
	assert.Equal(t, "kb", sources[1].Title)
	assert.Equal(t, "short", sources[1].Snippet)
}
