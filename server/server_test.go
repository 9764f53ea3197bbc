package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convosol/docchat/internal/models"
	"github.com/convosol/docchat/pkg/config"
)

type fakeRetriever struct {
	results []models.SearchResult
	err     error
	lastQ   string
}

func (f *fakeRetriever) Retrieve(ctx context.Context, question string, topK int) ([]models.SearchResult, error) {
	f.lastQ = question
	return f.results, f.err
}

type fakeAnswerer struct {
	answer string
	err    error
}

func (f *fakeAnswerer) Chat(ctx context.Context, question string, results []models.SearchResult) (string, error) {
	return f.answer, f.err
}

func (f *fakeAnswerer) ChatStream(ctx context.Context, question string, results []models.SearchResult) (<-chan string, error) {
	ch := make(chan string, 1)
	ch <- f.answer
	close(ch)
	return ch, f.err
}

func testServer(retr Retriever, chat Answerer) *Server {
	cfg := &config.Config{}
	cfg.Retrieval.TopK = 4
	return &Server{config: cfg, retriever: retr, chat: chat}
}

func postChat(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleChat(t *testing.T) {
	retr := &fakeRetriever{results: []models.SearchResult{
		{Score: 0.9, Record: models.ChunkRecord{Filename: "doc.txt", ChunkIndex: 1, Text: "answer material"}},
	}}
	s := testServer(retr, &fakeAnswerer{answer: "Here is the answer."})

	rec := postChat(t, s, `{"question": "what is this?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Here is the answer.", resp.Answer)
	assert.Equal(t, "Sources: doc.txt#1", resp.Sources)
	assert.Equal(t, "what is this?", retr.lastQ)
}

func TestHandleChat_EmptyQuestion(t *testing.T) {
	s := testServer(&fakeRetriever{}, &fakeAnswerer{})

	for _, body := range []string{`{"question": ""}`, `{"question": "   "}`, `{}`} {
		rec := postChat(t, s, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestHandleChat_RetrievalError(t *testing.T) {
	s := testServer(&fakeRetriever{err: errors.New("store offline")}, &fakeAnswerer{})

	rec := postChat(t, s, `{"question": "anything"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "store offline")
}

func TestHandleChat_MethodNotAllowed(t *testing.T) {
	s := testServer(&fakeRetriever{}, &fakeAnswerer{})

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	s := testServer(&fakeRetriever{}, &fakeAnswerer{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
