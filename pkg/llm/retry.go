package llm

import (
	"context"
	"errors"
	"time"

	"github.com/convosol/docchat/internal/types"
)

// RetryEmbedder wraps an Embedder with bounded retries and exponential
// backoff. Retry policy lives here, not in the pipeline or retriever.
type RetryEmbedder struct {
	inner    types.Embedder
	attempts int
	base     time.Duration
}

func NewRetryEmbedder(inner types.Embedder, attempts int, base time.Duration) *RetryEmbedder {
	if attempts <= 0 {
		attempts = 3
	}
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	return &RetryEmbedder{inner: inner, attempts: attempts, base: base}
}

func (r *RetryEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return r.retry(ctx, text, r.inner.EmbedDocument)
}

func (r *RetryEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return r.retry(ctx, text, r.inner.EmbedQuery)
}

func (r *RetryEmbedder) retry(ctx context.Context, text string, embed func(context.Context, string) ([]float32, error)) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay(r.base, attempt-1)):
			case <-ctx.Done():
				return nil, &EmbeddingError{TextLen: len(text), Attempts: attempt, Err: ctx.Err()}
			}
		}

		vec, err := embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	var embErr *EmbeddingError
	if errors.As(lastErr, &embErr) {
		return nil, &EmbeddingError{TextLen: embErr.TextLen, Attempts: r.attempts, Err: embErr.Err}
	}
	return nil, &EmbeddingError{TextLen: len(text), Attempts: r.attempts, Err: lastErr}
}

func retryDelay(base time.Duration, attempt int) time.Duration {
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
