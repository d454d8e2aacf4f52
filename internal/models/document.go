package models

// Document is a knowledge-base entry. The catalog is loaded once at startup
// and documents are never mutated afterwards.
type Document struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	SourceID string `json:"source_id"`
	URL      string `json:"url"`
	Text     string `json:"text"`
}

// ScoredDocument is a Document plus the relevance computed for one query.
// The local scorer assigns the same value to Relevancy and Similarity;
// remote backends may report them separately.
type ScoredDocument struct {
	Document
	Relevancy  float64 `json:"relevancy"`
	Similarity float64 `json:"similarity"`
}

// ChatSource is the citation-facing projection of a ScoredDocument,
// rendered alongside an answer as "sources used".
type ChatSource struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Snippet    string  `json:"snippet"`
	Relevancy  float64 `json:"relevancy"`
	Similarity float64 `json:"similarity"`
}

// ProcessedDocument is a Document split into chunks for embedding and
// storage in the vector index.
type ProcessedDocument struct {
	Document
	Chunks    []string
	Embedding [][]float32
}
