// Package store provides the vector store implementations: an in-memory
// brute-force scan persisted as JSON, and a pgvector-backed ivfflat index
// for larger corpora. Both rank by cosine similarity with identical
// ordering semantics.
package store

import (
	"fmt"
	"math"
)

// DimensionMismatchError reports a record whose embedding length disagrees
// with the dimension already established by the store. Caught at Add time
// so a bad vector cannot silently skew search results later.
type DimensionMismatchError struct {
	RecordID string
	Got      int
	Want     int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("record %s: embedding dimension %d, store dimension %d", e.RecordID, e.Got, e.Want)
}

// CorruptError reports persisted state that failed to parse. The store is
// not silently reset; the caller decides whether to rebuild.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt vector store at %s: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// CosineSimilarity computes dot(a,b) / (|a| * |b|). It returns 0 when
// either vector has zero norm rather than dividing by zero.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// normalize returns a unit-length copy of v, or v unchanged if its norm is
// zero. The pgvector index scores inner products, which equal cosine
// similarity only over unit vectors, so vectors are normalized both at
// insertion and at query time.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1.0 / math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}
