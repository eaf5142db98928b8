package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daivikpurani/AI-Tutor/types"
)

func newTestIndex(t *testing.T) *MemoryIndex {
	t.Helper()
	idx, err := NewMemoryIndex(3)
	require.NoError(t, err)
	return idx
}

func testChunk(id, docID string, ordinal int, embedding []float32) types.Chunk {
	return types.Chunk{
		ID:         id,
		DocumentID: docID,
		Ordinal:    ordinal,
		Text:       "text for " + id,
		Embedding:  embedding,
	}
}

func TestNewMemoryIndex_InvalidDimension(t *testing.T) {
	_, err := NewMemoryIndex(0)
	assert.Error(t, err)
	_, err = NewMemoryIndex(-5)
	assert.Error(t, err)
}

func TestCosineScore(t *testing.T) {
	assert.InDelta(t, 1.0, CosineScore([]float32{1, 0, 0}, []float32{1, 0, 0}), 1e-6)
	assert.InDelta(t, 0.5, CosineScore([]float32{1, 0, 0}, []float32{0, 1, 0}), 1e-6)
	assert.InDelta(t, 0.0, CosineScore([]float32{1, 0, 0}, []float32{-1, 0, 0}), 1e-6)
	// magnitude does not matter
	assert.InDelta(t, 1.0, CosineScore([]float32{2, 0, 0}, []float32{7, 0, 0}), 1e-6)
	// degenerate inputs
	assert.Equal(t, float32(0), CosineScore([]float32{1, 0}, []float32{1, 0, 0}))
	assert.Equal(t, float32(0), CosineScore([]float32{0, 0, 0}, []float32{1, 0, 0}))
}

func TestQuery_OrderAndThreshold(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, []types.Chunk{
		testChunk("a:0", "a", 0, []float32{1, 0, 0}),
		testChunk("a:1", "a", 1, []float32{1, 1, 0}),
		testChunk("b:0", "b", 0, []float32{0, 1, 0}),
		testChunk("b:1", "b", 1, []float32{-1, 0, 0}),
	}))

	results, err := idx.Query(ctx, []float32{1, 0, 0}, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a:0", results[0].Chunk.ID)
	assert.Equal(t, "a:1", results[1].Chunk.ID)
	assert.Equal(t, "b:0", results[2].Chunk.ID)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}

	// tighter threshold drops the orthogonal chunk
	results, err = idx.Query(ctx, []float32{1, 0, 0}, 10, 0.8)
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestQuery_TruncatesToK(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, []types.Chunk{
		testChunk("a:0", "a", 0, []float32{1, 0, 0}),
		testChunk("a:1", "a", 1, []float32{1, 0.1, 0}),
		testChunk("a:2", "a", 2, []float32{1, 0.2, 0}),
	}))

	results, err := idx.Query(ctx, []float32{1, 0, 0}, 2, 0)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "a:0", results[0].Chunk.ID)
}

func TestQuery_TieBreakDeterministic(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	same := []float32{0, 0, 1}
	require.NoError(t, idx.Insert(ctx, []types.Chunk{
		testChunk("b:1", "b", 1, same),
		testChunk("a:2", "a", 2, same),
		testChunk("b:0", "b", 0, same),
		testChunk("a:5", "a", 5, same),
	}))

	// identical scores: order falls back to (documentID, ordinal)
	for i := 0; i < 5; i++ {
		results, err := idx.Query(ctx, []float32{0, 0, 1}, 10, 0.9)
		require.NoError(t, err)
		require.Len(t, results, 4)
		assert.Equal(t, "a:2", results[0].Chunk.ID)
		assert.Equal(t, "a:5", results[1].Chunk.ID)
		assert.Equal(t, "b:0", results[2].Chunk.ID)
		assert.Equal(t, "b:1", results[3].Chunk.ID)
	}
}

func TestQuery_EmptyIndex(t *testing.T) {
	idx := newTestIndex(t)

	results, err := idx.Query(context.Background(), []float32{1, 0, 0}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQuery_DimensionMismatch(t *testing.T) {
	idx := newTestIndex(t)

	_, err := idx.Query(context.Background(), []float32{1, 0}, 5, 0)
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)
}

func TestInsert_DimensionMismatchIsAtomic(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	err := idx.Insert(ctx, []types.Chunk{
		testChunk("a:0", "a", 0, []float32{1, 0, 0}),
		testChunk("a:1", "a", 1, []float32{1, 0}),
	})
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)
	assert.Equal(t, 0, idx.Len())
}

func TestInsert_SameIDOverwrites(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, []types.Chunk{testChunk("a:0", "a", 0, []float32{1, 0, 0})}))
	require.NoError(t, idx.Insert(ctx, []types.Chunk{testChunk("a:0", "a", 0, []float32{0, 1, 0})}))
	assert.Equal(t, 1, idx.Len())

	results, err := idx.Query(ctx, []float32{0, 1, 0}, 1, 0.9)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-6)
}

func TestDeleteByDocument(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, []types.Chunk{
		testChunk("a:0", "a", 0, []float32{1, 0, 0}),
		testChunk("a:1", "a", 1, []float32{0, 1, 0}),
		testChunk("b:0", "b", 0, []float32{0, 0, 1}),
	}))

	require.NoError(t, idx.DeleteByDocument(ctx, "a"))
	assert.Equal(t, 1, idx.Len())

	results, err := idx.Query(ctx, []float32{1, 0, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b:0", results[0].Chunk.ID)

	// unknown document is a no-op
	require.NoError(t, idx.DeleteByDocument(ctx, "missing"))
	assert.Equal(t, 1, idx.Len())
}

func TestReset(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Insert(ctx, []types.Chunk{testChunk("a:0", "a", 0, []float32{1, 0, 0})}))
	require.NoError(t, idx.Reset(ctx))
	assert.Equal(t, 0, idx.Len())
}
