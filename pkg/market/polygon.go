// Package market fetches market news headlines used to seed
// strategy discussions. News is optional context: callers treat any
// failure as an empty result.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type NewsArticle struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	ArticleURL   string   `json:"article_url"`
	PublishedUTC string   `json:"published_utc"`
	Publisher    string   `json:"publisher"`
	Tickers      []string `json:"tickers"`
}

type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the Polygon REST API.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
}

func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.polygon.io"
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type newsResponse struct {
	Results []struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		ArticleURL   string `json:"article_url"`
		PublishedUTC string `json:"published_utc"`
		Publisher    struct {
			Name string `json:"name"`
		} `json:"publisher"`
		Tickers []string `json:"tickers"`
	} `json:"results"`
}

// News returns recent headlines for ticker, newest first. Pass an empty
// ticker for market-wide news.
func (c *Client) News(ctx context.Context, ticker string, limit int) ([]NewsArticle, error) {
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	if ticker != "" {
		params.Set("ticker", strings.ToUpper(ticker))
	}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("order", "desc")
	params.Set("apiKey", c.config.APIKey)

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/v2/reference/news?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("polygon: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polygon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("polygon returned %d", resp.StatusCode)
	}

	var result newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("polygon: decode: %w", err)
	}

	articles := make([]NewsArticle, 0, len(result.Results))
	for _, r := range result.Results {
		articles = append(articles, NewsArticle{
			Title:        r.Title,
			Description:  r.Description,
			ArticleURL:   r.ArticleURL,
			PublishedUTC: r.PublishedUTC,
			Publisher:    r.Publisher.Name,
			Tickers:      r.Tickers,
		})
	}
	return articles, nil
}

// FormatNews renders articles as a text block suitable for inclusion in
// an LLM prompt.
func FormatNews(articles []NewsArticle) string {
	if len(articles) == 0 {
		return "No recent market news available."
	}

	var b strings.Builder
	b.WriteString("Recent market news:\n")
	for i, a := range articles {
		fmt.Fprintf(&b, "%d. %s", i+1, a.Title)
		if a.Publisher != "" {
			fmt.Fprintf(&b, " (%s)", a.Publisher)
		}
		b.WriteString("\n")
		if a.Description != "" {
			fmt.Fprintf(&b, "   %s\n", a.Description)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
