package retriever_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convosol/docchat/internal/models"
	"github.com/convosol/docchat/pkg/llm"
	"github.com/convosol/docchat/pkg/retriever"
	"github.com/convosol/docchat/pkg/store"
)

// queryEmbedder returns a fixed vector for any question.
type queryEmbedder struct {
	vec []float32
	err error
}

func (q *queryEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return q.vec, q.err
}

func (q *queryEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return q.vec, q.err
}

func TestRetrieve(t *testing.T) {
	s, err := store.NewMemoryStore(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)

	add := func(id string, vec []float32) {
		require.NoError(t, s.Add(models.ChunkRecord{ID: id, Filename: "doc.txt", Embedding: vec}))
	}
	add("doc.txt::0", []float32{1, 0})
	add("doc.txt::1", []float32{0, 1})
	add("doc.txt::2", []float32{0.9, 0.1})

	r := retriever.New(&queryEmbedder{vec: []float32{1, 0}}, s)

	results, err := r.Retrieve(context.Background(), "what is in the first chunk?", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "doc.txt::0", results[0].Record.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, "doc.txt::2", results[1].Record.ID)
	assert.InDelta(t, 0.994, results[1].Score, 1e-3)
}

func TestRetrieve_EmbeddingErrorPropagates(t *testing.T) {
	s, err := store.NewMemoryStore(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)

	embErr := &llm.EmbeddingError{TextLen: 5, Attempts: 3, Err: errors.New("provider down")}
	r := retriever.New(&queryEmbedder{err: embErr}, s)

	_, err = r.Retrieve(context.Background(), "hello", 4)
	require.Error(t, err)

	var got *llm.EmbeddingError
	assert.ErrorAs(t, err, &got)
}
