package models

// Document is the transient ingestion input: a source file and its full text.
// It is never persisted; only the chunk records derived from it are.
type Document struct {
	Filename string
	Text     string
}

// ChunkRecord is the atomic retrievable unit stored in the vector store.
// Start and End are rune offsets into the source document, end exclusive.
// All records in one store carry embeddings of the same dimension.
type ChunkRecord struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	Start      int       `json:"start"`
	End        int       `json:"end"`
	Embedding  []float32 `json:"embedding"`
}

// SearchResult pairs a stored record with its similarity to a query vector.
type SearchResult struct {
	Score  float64
	Record ChunkRecord
}
