package llm_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convosol/docchat/pkg/llm"
)

func TestNewEmbedder(t *testing.T) {
	emb, err := llm.NewEmbedder(llm.EmbedderConfig{
		Model:   "nomic-embed-text:latest",
		BaseURL: "http://localhost:11434",
	})
	require.NoError(t, err)
	assert.NotNil(t, emb)
}

func TestNewEmbedder_Defaults(t *testing.T) {
	emb, err := llm.NewEmbedder(llm.EmbedderConfig{})
	require.NoError(t, err)
	assert.NotNil(t, emb)
}

func TestEmbeddingError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &llm.EmbeddingError{TextLen: 42, Attempts: 2, Err: cause}

	assert.Contains(t, err.Error(), "42")
	assert.Contains(t, err.Error(), "2 attempt")
	assert.ErrorIs(t, err, cause)
}
