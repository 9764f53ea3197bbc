package types

import (
	"context"

	"github.com/convosol/docchat/internal/models"
)

// Embedder maps text into a fixed-dimension vector space. Document and
// query encodings must live in the same space: a store built with one
// embedder is only searchable with the same embedder configuration.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore holds chunk records and answers top-k similarity queries.
// Writes happen during ingestion only; reads are safe concurrently once
// ingestion has finished.
type VectorStore interface {
	// Add appends one record. It does not deduplicate by ID and rejects
	// embeddings whose length disagrees with the store's dimension.
	Add(record models.ChunkRecord) error

	// Persist durably writes the current state. A crash mid-write must not
	// corrupt a previously persisted store.
	Persist() error

	// Search returns up to topK records ranked by descending cosine
	// similarity, ties resolved by insertion order.
	Search(query []float32, topK int) ([]models.SearchResult, error)

	Len() int
	Close()
}

// DocumentSource supplies documents to the ingestion pipeline, in order.
type DocumentSource interface {
	Documents(ctx context.Context) ([]models.Document, error)
}
