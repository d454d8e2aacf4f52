package types

import (
	"context"

	"github.com/xhad/advisor/internal/models"
)

// Core interfaces

// Retriever returns ranked, thresholded documents for a free-text query.
// Implementations never fail for degraded conditions; an empty slice is a
// valid result.
type Retriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]models.ScoredDocument, error)
}

// DocumentSource provides the catalog of knowledge-base documents.
type DocumentSource interface {
	Documents() []models.Document
}

// ProfileStore is the per-user profile keyed store. Get returns (nil, nil)
// when no profile exists for the user. Merge deep-merges incoming on top of
// the stored-or-empty profile in a single critical section and returns the
// result.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*models.ClientProfile, error)
	Set(ctx context.Context, userID string, profile models.ClientProfile) error
	Merge(ctx context.Context, userID string, incoming *models.ClientProfile) (models.ClientProfile, error)
}

// Embedder turns text into vectors for the pgvector retrieval path.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
	FlattenEmbeddings(embeddings [][]float32) []float32
}

// Processor splits documents into chunks before embedding.
type Processor interface {
	Process(docs []models.Document) ([]models.ProcessedDocument, error)
}
