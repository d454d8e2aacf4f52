package store

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/xhad/advisor/internal/models"
	"github.com/xhad/advisor/internal/types"
)

type VectorStoreConfig struct {
	ConnString  string
	TableName   string
	VectorDim   int
	BatchSize   int
	SearchLimit int
	Embedder    types.Embedder
}

// VectorStore indexes knowledge-base documents in Postgres with pgvector so
// retrieval can run on embeddings instead of keyword overlap when a
// database is available.
type VectorStore struct {
	config VectorStoreConfig
	pool   *pgxpool.Pool
}

func NewVectorStore(config VectorStoreConfig) (*VectorStore, error) {
	if config.TableName == "" {
		config.TableName = "documents"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 5
	}
	if config.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	vs := &VectorStore{
		config: config,
		pool:   pool,
	}

	if err := vs.initialize(); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

func (vs *VectorStore) initialize() error {
	ctx := context.Background()

	// Enable pgvector extension
	_, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			doc_id TEXT NOT NULL,
			title TEXT,
			source_id TEXT,
			url TEXT,
			chunk TEXT,
			chunk_index INTEGER,
			embedding vector(%d)
		)`, vs.config.TableName, vs.config.VectorDim)

	_, err = vs.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		vs.config.TableName, vs.config.TableName)

	_, err = vs.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	return nil
}

// Index embeds every chunk of the processed documents and upserts them.
func (vs *VectorStore) Index(ctx context.Context, docs []models.ProcessedDocument) error {
	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, doc_id, title, source_id, url, chunk, chunk_index, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			chunk = EXCLUDED.chunk,
			embedding = EXCLUDED.embedding`,
		vs.config.TableName)

	for _, doc := range docs {
		cleanTitle := sanitizeUTF8(doc.Title)

		for i, chunk := range doc.Chunks {
			cleanChunk := sanitizeUTF8(chunk)
			id := fmt.Sprintf("%s_%d", doc.ID, i)

			embedding, err := vs.config.Embedder.CreateEmbedding(ctx, []string{cleanChunk})
			if err != nil {
				return fmt.Errorf("failed to create embeddings: %v", err)
			}
			vector := pgvector.NewVector(vs.config.Embedder.FlattenEmbeddings(embedding))

			_, err = tx.Exec(ctx, stmt,
				id,
				doc.ID,
				cleanTitle,
				doc.SourceID,
				doc.URL,
				cleanChunk,
				i,
				vector,
			)
			if err != nil {
				return fmt.Errorf("failed to insert document: %v", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

// Query embeds the query text and returns the closest chunks by cosine
// similarity, capped at 0.99 to match the scorer's score bound.
func (vs *VectorStore) Query(ctx context.Context, queryText string, limit int) ([]models.ScoredDocument, error) {
	if limit <= 0 {
		limit = vs.config.SearchLimit
	}

	embedding, err := vs.config.Embedder.CreateEmbedding(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %v", err)
	}
	vector := pgvector.NewVector(vs.config.Embedder.FlattenEmbeddings(embedding))

	query := fmt.Sprintf(`
		SELECT doc_id, title, source_id, url, chunk, 1 - (embedding <=> $1) AS similarity
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`,
		vs.config.TableName)

	rows, err := vs.pool.Query(ctx, query, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %v", err)
	}
	defer rows.Close()

	var docs []models.ScoredDocument
	for rows.Next() {
		var doc models.ScoredDocument
		var similarity float64
		err := rows.Scan(
			&doc.ID,
			&doc.Title,
			&doc.SourceID,
			&doc.URL,
			&doc.Text,
			&similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		if similarity > 0.99 {
			similarity = 0.99
		}
		if similarity < 0 {
			similarity = 0
		}
		doc.Similarity = similarity
		doc.Relevancy = similarity
		docs = append(docs, doc)
	}

	return docs, nil
}

// Retrieve implements types.Retriever.
func (vs *VectorStore) Retrieve(ctx context.Context, query string, limit int) ([]models.ScoredDocument, error) {
	return vs.Query(ctx, query, limit)
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}

func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
