package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daivikpurani/AI-Tutor/database"
	"github.com/daivikpurani/AI-Tutor/types"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		v, err := f.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (f *fakeEmbedder) Dimension() int { return len(f.vector) }

type fakeAI struct {
	fragments []string
	err       error
	messages  []types.ConversationTurn
}

func (f *fakeAI) ChatStream(ctx context.Context, messages []types.ConversationTurn, handler types.StreamHandler) error {
	f.messages = messages
	if f.err != nil {
		return f.err
	}
	for _, fragment := range f.fragments {
		handler(fragment)
	}
	return nil
}

type eventRecorder struct {
	events  []types.StreamEvent
	failAt  string // event type that triggers a write failure
	failErr error
}

func (r *eventRecorder) emit(event types.StreamEvent) error {
	if r.failAt != "" && event.Type == r.failAt {
		return r.failErr
	}
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) eventTypes() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func newTestHandler(t *testing.T, embedder Embedder, ai AIService, sessions SessionStore) (*QueryHandler, *database.MemoryIndex) {
	t.Helper()
	index, err := database.NewMemoryIndex(3)
	require.NoError(t, err)
	if sessions == nil {
		sessions = NewMemorySessionStore(20)
	}
	handler := NewQueryHandler(embedder, index, ai, sessions, QueryHandlerConfig{
		MaxContextChunks:    5,
		SimilarityThreshold: 0.75,
	})
	return handler, index
}

func indexChunk(t *testing.T, index *database.MemoryIndex, id, text string, embedding []float32) {
	t.Helper()
	require.NoError(t, index.Insert(context.Background(), []types.Chunk{{
		ID:         id,
		DocumentID: strings.Split(id, ":")[0],
		Text:       text,
		Embedding:  embedding,
		Metadata:   types.ChunkMetadata{DocumentFilename: "notes.pdf"},
	}}))
}

func TestProcessQueryStreaming_EventOrder(t *testing.T) {
	ai := &fakeAI{fragments: []string{"Photosynthesis ", "converts light ", "into energy."}}
	handler, index := newTestHandler(t, &fakeEmbedder{vector: []float32{1, 0, 0}}, ai, nil)
	indexChunk(t, index, "doc1:0", "Photosynthesis basics.", []float32{1, 0, 0})

	rec := &eventRecorder{}
	err := handler.ProcessQueryStreaming(context.Background(), types.QueryRequest{
		Question:  "What is photosynthesis?",
		SessionID: "s1",
	}, rec.emit)
	require.NoError(t, err)

	assert.Equal(t, []string{
		types.TypeStreamProcessing,
		types.TypeStreamContext,
		types.TypeStreamContextFound,
		types.TypeStreamGenerating,
		types.TypeStreamChunk,
		types.TypeStreamChunk,
		types.TypeStreamChunk,
		types.TypeStreamComplete,
	}, rec.eventTypes())

	found := rec.events[2].Payload.(types.ContextFoundPayload)
	assert.Equal(t, 1, found.Count)

	complete := rec.events[len(rec.events)-1].Payload.(types.CompletePayload)
	assert.Equal(t, "Photosynthesis converts light into energy.", complete.Answer)
	assert.False(t, complete.Fallback)
	assert.Equal(t, 1, complete.ContextChunks)

	// chunk fragments reassemble into the final answer
	var streamed strings.Builder
	for _, e := range rec.events {
		if e.Type == types.TypeStreamChunk {
			streamed.WriteString(e.Payload.(types.ChunkPayload).Content)
		}
	}
	assert.Equal(t, complete.Answer, streamed.String())
}

func TestProcessQueryStreaming_PromptCarriesRetrievedContext(t *testing.T) {
	ai := &fakeAI{fragments: []string{"answer"}}
	handler, index := newTestHandler(t, &fakeEmbedder{vector: []float32{1, 0, 0}}, ai, nil)
	indexChunk(t, index, "doc1:0", "Mitochondria produce ATP.", []float32{1, 0, 0})

	rec := &eventRecorder{}
	err := handler.ProcessQueryStreaming(context.Background(), types.QueryRequest{
		Question:  "What do mitochondria do?",
		SessionID: "s1",
	}, rec.emit)
	require.NoError(t, err)

	require.NotEmpty(t, ai.messages)
	assert.Equal(t, types.RoleSystem, ai.messages[0].Role)

	last := ai.messages[len(ai.messages)-1]
	assert.Equal(t, types.RoleUser, last.Role)
	assert.Contains(t, last.Content, "Mitochondria produce ATP.")
	assert.Contains(t, last.Content, "notes.pdf")
	assert.Contains(t, last.Content, "What do mitochondria do?")
}

func TestProcessQueryStreaming_EmptyIndexStillCompletes(t *testing.T) {
	ai := &fakeAI{fragments: []string{"general guidance"}}
	handler, _ := newTestHandler(t, &fakeEmbedder{vector: []float32{1, 0, 0}}, ai, nil)

	rec := &eventRecorder{}
	err := handler.ProcessQueryStreaming(context.Background(), types.QueryRequest{
		Question:  "Unknown topic?",
		SessionID: "s1",
	}, rec.emit)
	require.NoError(t, err)

	found := rec.events[2].Payload.(types.ContextFoundPayload)
	assert.Equal(t, 0, found.Count)

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, types.TypeStreamComplete, last.Type)
	assert.Equal(t, 0, last.Payload.(types.CompletePayload).ContextChunks)

	// the model is told the answer is ungrounded
	assert.Contains(t, ai.messages[len(ai.messages)-1].Content, "No relevant excerpts were found")
}

func TestProcessQueryStreaming_EmptyQuestion(t *testing.T) {
	handler, _ := newTestHandler(t, &fakeEmbedder{vector: []float32{1, 0, 0}}, &fakeAI{}, nil)

	rec := &eventRecorder{}
	err := handler.ProcessQueryStreaming(context.Background(), types.QueryRequest{
		Question:  "   ",
		SessionID: "s1",
	}, rec.emit)
	assert.ErrorIs(t, err, types.ErrInvalidQuery)

	require.Len(t, rec.events, 1)
	assert.Equal(t, types.TypeStreamError, rec.events[0].Type)
}

func TestProcessQueryStreaming_EmbeddingFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("connection refused")}
	handler, _ := newTestHandler(t, embedder, &fakeAI{}, nil)

	rec := &eventRecorder{}
	err := handler.ProcessQueryStreaming(context.Background(), types.QueryRequest{
		Question:  "anything",
		SessionID: "s1",
	}, rec.emit)
	assert.ErrorIs(t, err, types.ErrEmbeddingUnavailable)

	assert.Equal(t, []string{types.TypeStreamProcessing, types.TypeStreamError}, rec.eventTypes())
}

func TestProcessQueryStreaming_EmbeddingTimeout(t *testing.T) {
	embedder := &fakeEmbedder{err: types.ErrUpstreamTimeout}
	handler, _ := newTestHandler(t, embedder, &fakeAI{}, nil)

	rec := &eventRecorder{}
	err := handler.ProcessQueryStreaming(context.Background(), types.QueryRequest{
		Question:  "anything",
		SessionID: "s1",
	}, rec.emit)
	assert.ErrorIs(t, err, types.ErrUpstreamTimeout)

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, types.TypeStreamError, last.Type)
	assert.Equal(t, types.ErrUpstreamTimeout.Error(), last.Payload.(types.ErrorPayload).Message)
}

func TestProcessQueryStreaming_GenerationFailureFallsBack(t *testing.T) {
	ai := &fakeAI{err: errors.New("model down")}
	handler, index := newTestHandler(t, &fakeEmbedder{vector: []float32{1, 0, 0}}, ai, nil)
	indexChunk(t, index, "doc1:0", "Some context.", []float32{1, 0, 0})

	question := "What is recursion?"
	rec := &eventRecorder{}
	err := handler.ProcessQueryStreaming(context.Background(), types.QueryRequest{
		Question:  question,
		SessionID: "s1",
	}, rec.emit)
	require.NoError(t, err)

	last := rec.events[len(rec.events)-1]
	require.Equal(t, types.TypeStreamComplete, last.Type)
	complete := last.Payload.(types.CompletePayload)
	assert.True(t, complete.Fallback)
	assert.Equal(t, fallbackAnswer(question, 1), complete.Answer)

	// fallback answers stream as chunks like real generations
	var streamed strings.Builder
	for _, e := range rec.events {
		if e.Type == types.TypeStreamChunk {
			streamed.WriteString(e.Payload.(types.ChunkPayload).Content)
		}
	}
	assert.Equal(t, complete.Answer, streamed.String())
}

func TestProcessQueryStreaming_GenerationTimeout(t *testing.T) {
	ai := &fakeAI{err: context.DeadlineExceeded}
	handler, _ := newTestHandler(t, &fakeEmbedder{vector: []float32{1, 0, 0}}, ai, nil)

	rec := &eventRecorder{}
	err := handler.ProcessQueryStreaming(context.Background(), types.QueryRequest{
		Question:  "slow question",
		SessionID: "s1",
	}, rec.emit)
	assert.ErrorIs(t, err, types.ErrUpstreamTimeout)

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, types.TypeStreamError, last.Type)
}

func TestProcessQueryStreaming_ClientGoneDiscardsPartialAnswer(t *testing.T) {
	ai := &fakeAI{fragments: []string{"partial ", "answer"}}
	sessions := NewMemorySessionStore(20)
	handler, _ := newTestHandler(t, &fakeEmbedder{vector: []float32{1, 0, 0}}, ai, sessions)

	writeErr := errors.New("broken pipe")
	rec := &eventRecorder{failAt: types.TypeStreamChunk, failErr: writeErr}
	err := handler.ProcessQueryStreaming(context.Background(), types.QueryRequest{
		Question:  "anything",
		SessionID: "s1",
	}, rec.emit)
	assert.ErrorIs(t, err, writeErr)

	for _, e := range rec.events {
		assert.NotEqual(t, types.TypeStreamComplete, e.Type)
	}

	// the abandoned answer never reaches history
	history := sessions.History("s1")
	require.Len(t, history, 1)
	assert.Equal(t, types.RoleUser, history[0].Role)
}

func TestProcessQueryStreaming_HistoryAccumulatesAndIsBounded(t *testing.T) {
	ai := &fakeAI{fragments: []string{"reply"}}
	sessions := NewMemorySessionStore(4)
	handler, _ := newTestHandler(t, &fakeEmbedder{vector: []float32{1, 0, 0}}, ai, sessions)

	for i := 0; i < 5; i++ {
		rec := &eventRecorder{}
		err := handler.ProcessQueryStreaming(context.Background(), types.QueryRequest{
			Question:  "question",
			SessionID: "s1",
		}, rec.emit)
		require.NoError(t, err)
	}

	history := sessions.History("s1")
	assert.Len(t, history, 4)
}

func TestProcessQueryStreaming_HistoryVisibleToFollowupQuery(t *testing.T) {
	ai := &fakeAI{fragments: []string{"first answer"}}
	sessions := NewMemorySessionStore(20)
	handler, _ := newTestHandler(t, &fakeEmbedder{vector: []float32{1, 0, 0}}, ai, sessions)

	rec := &eventRecorder{}
	require.NoError(t, handler.ProcessQueryStreaming(context.Background(), types.QueryRequest{
		Question:  "first question",
		SessionID: "s1",
	}, rec.emit))

	rec = &eventRecorder{}
	require.NoError(t, handler.ProcessQueryStreaming(context.Background(), types.QueryRequest{
		Question:  "follow up",
		SessionID: "s1",
	}, rec.emit))

	// system prompt + two prior turns + the new user turn
	require.Len(t, ai.messages, 4)
	assert.Equal(t, "first question", ai.messages[1].Content)
	assert.Equal(t, "first answer", ai.messages[2].Content)
}

func TestProcessQuery_NonStreaming(t *testing.T) {
	ai := &fakeAI{fragments: []string{"plain ", "answer"}}
	handler, index := newTestHandler(t, &fakeEmbedder{vector: []float32{1, 0, 0}}, ai, nil)
	indexChunk(t, index, "doc1:0", "context text", []float32{1, 0, 0})

	resp, err := handler.ProcessQuery(context.Background(), types.QueryRequest{
		Question:  "a question",
		SessionID: "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, "plain answer", resp.Answer)
	assert.False(t, resp.Fallback)
	assert.Equal(t, 1, resp.ContextChunks)
}

func TestSplitIntoFragments_Reassembles(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog, twice."
	fragments := splitIntoFragments(text)
	require.Greater(t, len(fragments), 1)
	assert.Equal(t, text, strings.Join(fragments, ""))
}
