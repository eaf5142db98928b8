package database

import (
	"context"
	"math"

	"github.com/daivikpurani/AI-Tutor/types"
)

// ScoredChunk pairs a retrieved chunk with its similarity score.
type ScoredChunk struct {
	Chunk types.Chunk `json:"chunk"`
	Score float32     `json:"score"`
}

// VectorIndex stores chunk embeddings and supports similarity search.
// A document's chunks are inserted as one atomic batch: a concurrent query
// never observes a partially-inserted document. Insertion is idempotent per
// chunk ID (re-insertion overwrites).
type VectorIndex interface {
	// Insert adds all chunks. Fails with types.ErrDimensionMismatch if any
	// embedding's length differs from the index dimensionality; nothing is
	// inserted in that case.
	Insert(ctx context.Context, chunks []types.Chunk) error

	// Query returns up to k chunks with similarity >= minScore, in strictly
	// descending score order; ties break by ascending (documentID, ordinal).
	// An empty index yields an empty result, not an error.
	Query(ctx context.Context, vector []float32, k int, minScore float32) ([]ScoredChunk, error)

	// DeleteByDocument removes every chunk of the given document; no-op if unknown.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Reset removes everything from the index.
	Reset(ctx context.Context) error

	Dimension() int
}

// CosineScore computes cosine similarity between two vectors rescaled from
// [-1,1] to [0,1], so 1 means identical direction and 0.5 means orthogonal.
// minScore thresholds everywhere in this package use this scale. Weaviate's
// "certainty" is defined the same way, so both backends score identically.
func CosineScore(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return float32((cos + 1) / 2)
}
