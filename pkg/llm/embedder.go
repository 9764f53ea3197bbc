package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms/ollama"
)

// EmbeddingError reports a failed or malformed embedding call. Attempts is
// the number of calls made before giving up (1 unless a retry wrapper is in
// front of the provider).
type EmbeddingError struct {
	TextLen  int
	Attempts int
	Err      error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed after %d attempt(s) (text length %d): %v", e.Attempts, e.TextLen, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

type EmbedderConfig struct {
	Model   string
	BaseURL string // Ollama server URL
	Timeout time.Duration
}

// OllamaEmbedder produces embeddings through a local Ollama server. The
// model encodes documents and queries into the same vector space, so both
// modes go through the same call; what matters is that ingestion and
// retrieval use one OllamaEmbedder configuration.
type OllamaEmbedder struct {
	config EmbedderConfig
	llm    *ollama.LLM
}

func NewEmbedder(config EmbedderConfig) (*OllamaEmbedder, error) {
	if config.Model == "" {
		config.Model = "nomic-embed-text:latest"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	emb, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return &OllamaEmbedder{
		config: config,
		llm:    emb,
	}, nil
}

func (e *OllamaEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text)
}

func (e *OllamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, text)
}

func (e *OllamaEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	embeddings, err := e.llm.CreateEmbedding(ctx, []string{text})
	if err != nil {
		return nil, &EmbeddingError{TextLen: len(text), Attempts: 1, Err: err}
	}
	if len(embeddings) != 1 || len(embeddings[0]) == 0 {
		return nil, &EmbeddingError{
			TextLen:  len(text),
			Attempts: 1,
			Err:      fmt.Errorf("provider returned %d vectors", len(embeddings)),
		}
	}
	return embeddings[0], nil
}
