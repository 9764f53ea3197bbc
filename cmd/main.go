package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/convosol/docchat/internal/types"
	"github.com/convosol/docchat/pkg/config"
	"github.com/convosol/docchat/pkg/llm"
	"github.com/convosol/docchat/pkg/store"
	"github.com/convosol/docchat/server"
)

type flags struct {
	configPath string
	ingest     bool
	serve      bool
	docsDir    string
	docsURL    string
	port       string
}

func main() {
	godotenv.Load()

	f := parseFlags()

	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		log.Fatal(err)
	}
	if f.docsDir != "" {
		cfg.Ingest.DocsDir = f.docsDir
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		os.Exit(1)
	}

	if err := run(cfg, f); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "Path to config file")
	flag.BoolVar(&f.ingest, "ingest", false, "Rebuild the vector store from the document set")
	flag.BoolVar(&f.serve, "serve", false, "Start the HTTP/WebSocket server")
	flag.StringVar(&f.docsDir, "docs", "", "Directory of documents to ingest")
	flag.StringVar(&f.docsURL, "docs-url", "", "Documentation URL to crawl and ingest")
	flag.StringVar(&f.port, "port", envOr("PORT", "8080"), "Server port")
	flag.Parse()
	return f
}

func run(cfg *config.Config, f flags) error {
	if f.ingest {
		return runIngest(cfg, f.docsURL)
	}

	if f.serve {
		srv, err := server.New(cfg)
		if err != nil {
			return err
		}
		defer srv.Close()
		return srv.Start(f.port)
	}

	return runChat(cfg)
}

// openStore picks the vector store implementation from config: the JSON
// brute-force store by default, pgvector for corpora that outgrow it.
func openStore(cfg *config.Config) (types.VectorStore, error) {
	switch cfg.Store.Type {
	case "pgvector":
		return store.NewPGVectorStore(store.PGVectorConfig{
			ConnString: cfg.Store.URL,
			TableName:  cfg.Store.TableName,
			VectorDim:  cfg.Store.VectorDim,
			Lists:      cfg.Store.Lists,
		})
	default:
		return store.NewMemoryStore(cfg.Store.Path)
	}
}

func newEmbedder(cfg *config.Config) (types.Embedder, error) {
	embedder, err := llm.NewEmbedder(llm.EmbedderConfig{
		Model:   cfg.Embedding.Model,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: time.Duration(cfg.Embedding.TimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	return llm.NewRetryEmbedder(embedder, cfg.Embedding.MaxRetries, 0), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
