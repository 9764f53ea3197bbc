// Package ingest turns raw documents into persisted chunk records.
package ingest

import (
	"context"
	"fmt"

	"github.com/convosol/docchat/internal/models"
	"github.com/convosol/docchat/internal/types"
	"github.com/convosol/docchat/pkg/chunker"
)

type PipelineConfig struct {
	ChunkSize    int
	ChunkOverlap int
	// OnChunk is called after each chunk is embedded and added, for
	// progress reporting.
	OnChunk func(filename string, chunkIndex int)
}

// Summary reports what an ingestion run wrote.
type Summary struct {
	Documents     int
	ChunksWritten int
}

// Pipeline reads documents from a source, chunks them, embeds every chunk
// in document mode, and persists the records once at the end. A single
// embedding failure aborts the run: a partially embedded store is worse
// than no store.
type Pipeline struct {
	config   PipelineConfig
	source   types.DocumentSource
	embedder types.Embedder
	store    types.VectorStore
}

func NewPipeline(config PipelineConfig, source types.DocumentSource, embedder types.Embedder, store types.VectorStore) (*Pipeline, error) {
	if config.ChunkSize == 0 {
		config.ChunkSize = 800
	}
	// validate the window up front rather than on the first document
	if _, err := chunker.Chunk("", config.ChunkSize, config.ChunkOverlap); err != nil {
		return nil, err
	}
	return &Pipeline{
		config:   config,
		source:   source,
		embedder: embedder,
		store:    store,
	}, nil
}

func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	docs, err := p.source.Documents(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to read documents: %w", err)
	}

	for _, doc := range docs {
		pieces, err := chunker.Chunk(doc.Text, p.config.ChunkSize, p.config.ChunkOverlap)
		if err != nil {
			return summary, err
		}

		for idx, piece := range pieces {
			embedding, err := p.embedder.EmbedDocument(ctx, piece.Text)
			if err != nil {
				return summary, fmt.Errorf("failed to embed %s chunk %d: %w", doc.Filename, idx, err)
			}

			rec := models.ChunkRecord{
				ID:         fmt.Sprintf("%s::%d", doc.Filename, idx),
				Filename:   doc.Filename,
				ChunkIndex: idx,
				Text:       piece.Text,
				Start:      piece.Start,
				End:        piece.End,
				Embedding:  embedding,
			}
			if err := p.store.Add(rec); err != nil {
				return summary, fmt.Errorf("failed to add %s: %w", rec.ID, err)
			}

			summary.ChunksWritten++
			if p.config.OnChunk != nil {
				p.config.OnChunk(doc.Filename, idx)
			}
		}
		summary.Documents++
	}

	if err := p.store.Persist(); err != nil {
		return summary, fmt.Errorf("failed to persist store: %w", err)
	}
	return summary, nil
}
