package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/daivikpurani/AI-Tutor/types"
)

// MemoryIndex is a brute-force in-memory vector index. Inserts take the write
// lock for the whole batch, so readers see either none or all of a document's
// chunks.
type MemoryIndex struct {
	mu        sync.RWMutex
	dimension int
	chunks    map[string]types.Chunk // keyed by chunk ID
}

func NewMemoryIndex(dimension int) (*MemoryIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid index dimension %d", dimension)
	}
	return &MemoryIndex{
		dimension: dimension,
		chunks:    make(map[string]types.Chunk),
	}, nil
}

func (idx *MemoryIndex) Dimension() int { return idx.dimension }

func (idx *MemoryIndex) Insert(ctx context.Context, chunks []types.Chunk) error {
	for _, c := range chunks {
		if len(c.Embedding) != idx.dimension {
			return fmt.Errorf("chunk %s has %d dimensions, index has %d: %w",
				c.ID, len(c.Embedding), idx.dimension, types.ErrDimensionMismatch)
		}
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, c := range chunks {
		idx.chunks[c.ID] = c
	}
	return nil
}

func (idx *MemoryIndex) Query(ctx context.Context, vector []float32, k int, minScore float32) ([]ScoredChunk, error) {
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("query vector has %d dimensions, index has %d: %w",
			len(vector), idx.dimension, types.ErrDimensionMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	results := make([]ScoredChunk, 0, len(idx.chunks))
	for _, c := range idx.chunks {
		score := CosineScore(vector, c.Embedding)
		if score >= minScore {
			results = append(results, ScoredChunk{Chunk: c, Score: score})
		}
	}
	idx.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Chunk.DocumentID != results[j].Chunk.DocumentID {
			return results[i].Chunk.DocumentID < results[j].Chunk.DocumentID
		}
		return results[i].Chunk.Ordinal < results[j].Chunk.Ordinal
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (idx *MemoryIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for id, c := range idx.chunks {
		if c.DocumentID == documentID {
			delete(idx.chunks, id)
		}
	}
	return nil
}

func (idx *MemoryIndex) Reset(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.chunks = make(map[string]types.Chunk)
	return nil
}

// Len reports how many chunks are indexed.
func (idx *MemoryIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.chunks)
}
