package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  base_url: "http://localhost:11434"
  model: "llama3"
  max_tokens: 1000
  temperature: 0.5

embedding:
  model: "nomic-embed-text:latest"
  timeout_secs: 15
  max_retries: 5

store:
  type: "pgvector"
  url: "postgres://localhost:5432/docchat"
  table_name: "test_chunks"
  vector_dim: 768
  lists: 50

chunker:
  chunk_size: 500
  chunk_overlap: 100

retrieval:
  top_k: 6

ui:
  streaming: false
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, "llama3", config.LLM.Model)
	assert.Equal(t, 1000, config.LLM.MaxTokens)
	assert.Equal(t, 0.5, config.LLM.Temperature)
	assert.Equal(t, "nomic-embed-text:latest", config.Embedding.Model)
	assert.Equal(t, 5, config.Embedding.MaxRetries)
	assert.Equal(t, "pgvector", config.Store.Type)
	assert.Equal(t, "postgres://localhost:5432/docchat", config.Store.URL)
	assert.Equal(t, 500, config.Chunker.ChunkSize)
	assert.Equal(t, 100, config.Chunker.ChunkOverlap)
	assert.Equal(t, 6, config.Retrieval.TopK)
	assert.False(t, config.UI.Streaming)
}

func TestLoadConfig_Defaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	require.NoError(t, os.WriteFile(configPath, []byte("llm:\n  model: mistral\n"), 0644))

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "memory", config.Store.Type)
	assert.Equal(t, "db/db.json", config.Store.Path)
	assert.Equal(t, 800, config.Chunker.ChunkSize)
	assert.Equal(t, 200, config.Chunker.ChunkOverlap)
	assert.Equal(t, 4, config.Retrieval.TopK)
	assert.Equal(t, "nomic-embed-text:latest", config.Embedding.Model)
}

func TestConfigValidation(t *testing.T) {
	valid := func() *Config {
		config := &Config{}
		applyDefaults(config)
		return config
	}

	t.Run("valid config", func(t *testing.T) {
		assert.Empty(t, valid().Validate())
	})

	t.Run("bad chunk window", func(t *testing.T) {
		config := valid()
		config.Chunker.ChunkSize = 100
		config.Chunker.ChunkOverlap = 100

		errors := config.Validate()
		require.Len(t, errors, 1)
		assert.Contains(t, errors[0].Error(), "chunk_overlap")
	})

	t.Run("unknown store type", func(t *testing.T) {
		config := valid()
		config.Store.Type = "redis"

		errors := config.Validate()
		require.Len(t, errors, 1)
		assert.Contains(t, errors[0].Error(), "unknown store type")
	})

	t.Run("pgvector without url", func(t *testing.T) {
		config := valid()
		config.Store.Type = "pgvector"

		errors := config.Validate()
		require.Len(t, errors, 1)
		assert.Equal(t, "store.url", errors[0].Field)
	})

	t.Run("bad llm settings", func(t *testing.T) {
		config := valid()
		config.LLM.BaseURL = ""
		config.LLM.MaxTokens = 5000
		config.LLM.Temperature = 3.0
		config.Retrieval.TopK = 0

		errors := config.Validate()
		assert.Len(t, errors, 4)
	})
}

func TestEnvironmentOverrides(t *testing.T) {
	os.Setenv("OLLAMA_BASE_URL", "http://env-ollama:11434")
	os.Setenv("DATABASE_URL", "postgres://env-db:5432/docchat")
	os.Setenv("CHAT_MODEL", "llama3:8b")
	defer func() {
		os.Unsetenv("OLLAMA_BASE_URL")
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("CHAT_MODEL")
	}()

	config := &Config{}
	mergeWithEnv(config)

	assert.Equal(t, "http://env-ollama:11434", config.LLM.BaseURL)
	assert.Equal(t, "postgres://env-db:5432/docchat", config.Store.URL)
	assert.Equal(t, "llama3:8b", config.LLM.Model)
}
