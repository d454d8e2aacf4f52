package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xhad/advisor/internal/models"
)

// VectorizeConfig identifies a retrieval pipeline on the remote backend.
// Token and IDs are opaque strings issued by the provider.
type VectorizeConfig struct {
	BaseURL        string
	AccessToken    string
	OrganizationID string
	PipelineID     string
	Timeout        time.Duration
}

// VectorizeClient calls the remote retrieval backend over HTTP. Every
// failure mode (connect error, timeout, non-2xx, malformed body) surfaces
// as an error so the service can fall back to local scoring.
type VectorizeClient struct {
	config     VectorizeConfig
	httpClient *http.Client
}

func NewVectorizeClient(config VectorizeConfig) *VectorizeClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.vectorize.io/v1"
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}

	return &VectorizeClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type retrieveRequest struct {
	Question   string `json:"question"`
	NumResults int    `json:"numResults"`
}

type remoteDocument struct {
	ID                string  `json:"id"`
	Text              string  `json:"text"`
	Source            string  `json:"source"`
	SourceDisplayName string  `json:"source_display_name"`
	Origin            string  `json:"origin"`
	Similarity        float64 `json:"similarity"`
	Relevancy         float64 `json:"relevancy"`
}

type retrieveResponse struct {
	Documents []remoteDocument `json:"documents"`
}

// Retrieve implements types.Retriever against the remote backend.
func (c *VectorizeClient) Retrieve(ctx context.Context, query string, limit int) ([]models.ScoredDocument, error) {
	body, err := json.Marshal(retrieveRequest{
		Question:   query,
		NumResults: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("vectorize: encode request: %w", err)
	}

	url := fmt.Sprintf("%s/org/%s/pipelines/%s/retrieval",
		strings.TrimRight(c.config.BaseURL, "/"),
		c.config.OrganizationID,
		c.config.PipelineID,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("vectorize: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vectorize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		upstream, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vectorize returned %d: %s", resp.StatusCode, string(upstream))
	}

	var result retrieveResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("vectorize: decode: %w", err)
	}

	docs := make([]models.ScoredDocument, 0, len(result.Documents))
	for _, rd := range result.Documents {
		title := rd.SourceDisplayName
		if title == "" {
			title = rd.Source
		}
		sourceID := rd.Origin
		if sourceID == "" {
			sourceID = rd.Source
		}
		relevancy := rd.Relevancy
		if relevancy == 0 {
			relevancy = rd.Similarity
		}

		docs = append(docs, models.ScoredDocument{
			Document: models.Document{
				ID:       rd.ID,
				Title:    title,
				SourceID: sourceID,
				URL:      rd.Source,
				Text:     rd.Text,
			},
			Relevancy:  relevancy,
			Similarity: rd.Similarity,
		})
	}
	return docs, nil
}
