package loader_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convosol/docchat/pkg/loader"
)

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("b.txt", "plain text content")
	write("a.md", "# Heading\nmarkdown body")
	write("page.html", "<html><head><style>p{}</style></head><body><main><p>visible  text</p></main></body></html>")
	write("skip.pdf", "binary")

	docs, err := loader.NewDirSource(dir).Documents(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)

	// name order, for reproducible ingestion
	assert.Equal(t, "a.md", docs[0].Filename)
	assert.Equal(t, "b.txt", docs[1].Filename)
	assert.Equal(t, "page.html", docs[2].Filename)

	assert.Equal(t, "# Heading\nmarkdown body", docs[0].Text)
	assert.Equal(t, "plain text content", docs[1].Text)
	assert.Equal(t, "visible text", docs[2].Text)
}

func TestDirSource_MissingDir(t *testing.T) {
	_, err := loader.NewDirSource(filepath.Join(t.TempDir(), "nope")).Documents(context.Background())
	assert.Error(t, err)
}

func TestWebSource(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Welcome page <a href="/docs">docs</a></body></html>`))
	})
	mux.HandleFunc("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Documentation page</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src, err := loader.NewWebSource(loader.WebSourceConfig{
		BaseURL:   srv.URL,
		MaxDepth:  2,
		RateLimit: 100,
	})
	require.NoError(t, err)

	docs, err := src.Documents(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Contains(t, docs[0].Text, "Welcome page")
	assert.Equal(t, "docs", docs[1].Filename)
	assert.Contains(t, docs[1].Text, "Documentation page")
}
