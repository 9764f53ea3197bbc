// Package server exposes the question-answering flow over HTTP: a JSON
// /api/chat endpoint and a WebSocket endpoint with streamed answers.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/convosol/docchat/internal/models"
	"github.com/convosol/docchat/internal/types"
	"github.com/convosol/docchat/pkg/config"
	"github.com/convosol/docchat/pkg/llm"
	"github.com/convosol/docchat/pkg/retriever"
	"github.com/convosol/docchat/pkg/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Retriever and Answerer are the two collaborators the handlers need;
// narrowed to interfaces so tests can substitute fakes.
type Retriever interface {
	Retrieve(ctx context.Context, question string, topK int) ([]models.SearchResult, error)
}

type Answerer interface {
	Chat(ctx context.Context, question string, results []models.SearchResult) (string, error)
	ChatStream(ctx context.Context, question string, results []models.SearchResult) (<-chan string, error)
}

type Server struct {
	config    *config.Config
	retriever Retriever
	chat      Answerer
	store     types.VectorStore
}

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Answer  string `json:"answer"`
	Sources string `json:"sources,omitempty"`
}

type wsMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

func New(cfg *config.Config) (*Server, error) {
	var vs types.VectorStore
	var err error
	switch cfg.Store.Type {
	case "pgvector":
		vs, err = store.NewPGVectorStore(store.PGVectorConfig{
			ConnString: cfg.Store.URL,
			TableName:  cfg.Store.TableName,
			VectorDim:  cfg.Store.VectorDim,
			Lists:      cfg.Store.Lists,
		})
	default:
		vs, err = store.NewMemoryStore(cfg.Store.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	embedder, err := llm.NewEmbedder(llm.EmbedderConfig{
		Model:   cfg.Embedding.Model,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: time.Duration(cfg.Embedding.TimeoutSecs) * time.Second,
	})
	if err != nil {
		vs.Close()
		return nil, err
	}

	chatEngine, err := llm.NewChatEngine(llm.ChatConfig{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		BaseURL:     cfg.LLM.BaseURL,
	})
	if err != nil {
		vs.Close()
		return nil, err
	}

	return &Server{
		config:    cfg,
		retriever: retriever.New(llm.NewRetryEmbedder(embedder, cfg.Embedding.MaxRetries, 0), vs),
		chat:      chatEngine,
		store:     vs,
	}, nil
}

func (s *Server) Close() {
	if s.store != nil {
		s.store.Close()
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

func (s *Server) Start(port string) error {
	log.Printf("Starting server on port %s (%d chunks loaded)", port, s.store.Len())
	return http.ListenAndServe(":"+port, s.Handler())
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, "No question provided.")
		return
	}

	results, err := s.retriever.Retrieve(r.Context(), question, s.config.Retrieval.TopK)
	if err != nil {
		log.Printf("retrieval failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve documents.")
		return
	}

	answer, err := s.chat.Chat(r.Context(), question, results)
	if err != nil {
		log.Printf("generation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate response.")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chatResponse{
		Answer:  answer,
		Sources: llm.FormatSources(results),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}
		s.handleMessage(r.Context(), conn, msg)
	}
}

func (s *Server) handleMessage(ctx context.Context, conn *websocket.Conn, msg wsMessage) {
	question := strings.TrimSpace(msg.Content)
	if question == "" {
		s.sendMessage(conn, "error", "No question provided.")
		return
	}

	results, err := s.retriever.Retrieve(ctx, question, s.config.Retrieval.TopK)
	if err != nil {
		s.sendMessage(conn, "error", fmt.Sprintf("Error retrieving documents: %v", err))
		return
	}

	if s.config.UI.Streaming {
		stream, err := s.chat.ChatStream(ctx, question, results)
		if err != nil {
			s.sendMessage(conn, "error", fmt.Sprintf("Error: %v", err))
			return
		}
		for chunk := range stream {
			if strings.HasPrefix(chunk, "Error:") {
				s.sendMessage(conn, "error", chunk)
				return
			}
			s.sendMessage(conn, "stream", chunk)
		}
	} else {
		answer, err := s.chat.Chat(ctx, question, results)
		if err != nil {
			s.sendMessage(conn, "error", fmt.Sprintf("Error: %v", err))
			return
		}
		s.sendMessage(conn, "response", answer)
	}

	if sources := llm.FormatSources(results); sources != "" {
		s.sendMessage(conn, "sources", sources)
	}
}

func (s *Server) sendMessage(conn *websocket.Conn, msgType, content string) {
	if err := conn.WriteJSON(wsMessage{Type: msgType, Content: content}); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
