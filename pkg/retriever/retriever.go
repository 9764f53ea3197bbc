// Package retriever answers "which stored passages are closest to this
// question" by embedding the question and searching the vector store.
package retriever

import (
	"context"
	"fmt"

	"github.com/convosol/docchat/internal/models"
	"github.com/convosol/docchat/internal/types"
)

// Retriever embeds a question in query mode and returns the store's ranked
// results unmodified. Input validation, retries, and caching belong to the
// caller; presentation belongs to the prompt builder.
type Retriever struct {
	embedder types.Embedder
	store    types.VectorStore
}

func New(embedder types.Embedder, store types.VectorStore) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]models.SearchResult, error) {
	embedding, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	return r.store.Search(embedding, topK)
}
