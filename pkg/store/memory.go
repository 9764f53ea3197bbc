package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/convosol/docchat/internal/models"
)

// MemoryStore keeps every chunk record in memory and scans all of them on
// each search. Persistence is a single JSON file, written atomically.
// Suitable for corpora small enough that a full scan stays interactive.
type MemoryStore struct {
	mu        sync.RWMutex
	path      string
	dimension int
	records   []models.ChunkRecord
}

// NewMemoryStore loads the store persisted at path. An absent file yields
// an empty store; an unreadable one yields a *CorruptError.
func NewMemoryStore(path string) (*MemoryStore, error) {
	s := &MemoryStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read vector store: %w", err)
	}

	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}
	if len(s.records) > 0 {
		s.dimension = len(s.records[0].Embedding)
	}
	return s, nil
}

func (s *MemoryStore) Add(record models.ChunkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dimension == 0 {
		s.dimension = len(record.Embedding)
	} else if len(record.Embedding) != s.dimension {
		return &DimensionMismatchError{RecordID: record.ID, Got: len(record.Embedding), Want: s.dimension}
	}
	s.records = append(s.records, record)
	return nil
}

// Persist writes the full state to a temp file and renames it into place,
// so a crash mid-write leaves the previous file intact.
func (s *MemoryStore) Persist() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	records := s.records
	if records == nil {
		records = []models.ChunkRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode vector store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write vector store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace vector store: %w", err)
	}
	return nil
}

func (s *MemoryStore) Search(query []float32, topK int) ([]models.SearchResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]models.SearchResult, 0, len(s.records))
	for _, rec := range s.records {
		results = append(results, models.SearchResult{
			Score:  CosineSimilarity(query, rec.Embedding),
			Record: rec,
		})
	}

	// stable sort keeps insertion order for equal scores
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) Close() {}
