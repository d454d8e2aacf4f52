package market_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/advisor/pkg/market"
)

func TestNews(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/reference/news", r.URL.Path)
		assert.Equal(t, "SPY", r.URL.Query().Get("ticker"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"results": [
				{
					"title": "Markets rally on rate cut hopes",
					"description": "Stocks climbed broadly.",
					"article_url": "https://example.com/rally",
					"published_utc": "2024-06-01T12:00:00Z",
					"publisher": {"name": "Example Wire"},
					"tickers": ["SPY"]
				},
				{
					"title": "Volatility index drops",
					"publisher": {"name": "Example Wire"}
				}
			]
		}`))
	}))
	defer server.Close()

	client := market.NewClient(market.ClientConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
	})

	articles, err := client.News(context.Background(), "spy", 2)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "Markets rally on rate cut hopes", articles[0].Title)
	assert.Equal(t, "Example Wire", articles[0].Publisher)
	assert.Equal(t, []string{"SPY"}, articles[0].Tickers)
}

func TestNewsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := market.NewClient(market.ClientConfig{BaseURL: server.URL})

	_, err := client.News(context.Background(), "SPY", 5)
	assert.Error(t, err)
}

func TestFormatNews(t *testing.T) {
	out := market.FormatNews(nil)
	assert.Equal(t, "No recent market news available.", out)

	out = market.FormatNews([]market.NewsArticle{
		{Title: "Headline", Publisher: "Wire", Description: "Body."},
	})
	assert.Contains(t, out, "1. Headline (Wire)")
	assert.Contains(t, out, "Body.")
}
