package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/daivikpurani/AI-Tutor/database"
	"github.com/daivikpurani/AI-Tutor/types"
)

// EmitFunc delivers one stream event to the client. A non-nil error means the
// client is gone; the query is abandoned.
type EmitFunc func(event types.StreamEvent) error

type QueryHandlerConfig struct {
	MaxContextChunks    int
	SimilarityThreshold float32
	EmbeddingTimeout    time.Duration
	GenerationTimeout   time.Duration
}

var DefaultQueryHandlerConfig = QueryHandlerConfig{
	MaxContextChunks:    5,
	SimilarityThreshold: 0.75,
	EmbeddingTimeout:    15 * time.Second,
	GenerationTimeout:   90 * time.Second,
}

// QueryHandler answers learner questions: embed the question, retrieve
// similar chunks, assemble a grounded prompt, stream the generated answer.
type QueryHandler struct {
	embedder Embedder
	index    database.VectorIndex
	ai       AIService
	sessions SessionStore
	cfg      QueryHandlerConfig
}

func NewQueryHandler(embedder Embedder, index database.VectorIndex, ai AIService, sessions SessionStore, cfg QueryHandlerConfig) *QueryHandler {
	if cfg.MaxContextChunks <= 0 {
		cfg.MaxContextChunks = DefaultQueryHandlerConfig.MaxContextChunks
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultQueryHandlerConfig.SimilarityThreshold
	}
	if cfg.EmbeddingTimeout <= 0 {
		cfg.EmbeddingTimeout = DefaultQueryHandlerConfig.EmbeddingTimeout
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = DefaultQueryHandlerConfig.GenerationTimeout
	}
	return &QueryHandler{
		embedder: embedder,
		index:    index,
		ai:       ai,
		sessions: sessions,
		cfg:      cfg,
	}
}

// ProcessQueryStreaming runs one query through the full pipeline, emitting the
// protocol events in order: processing, context, context_found, generating,
// chunk..., then complete or error. Queries on the same session run strictly
// one at a time. If ctx is cancelled mid-stream the query is abandoned: no
// further events, and the partial answer is not appended to history.
func (h *QueryHandler) ProcessQueryStreaming(ctx context.Context, req types.QueryRequest, emit EmitFunc) error {
	progress := newQueryProgress()
	advance := func(to QueryState) {
		if err := progress.advance(to); err != nil {
			log.Printf("query handler: %v", err)
		}
	}

	if strings.TrimSpace(req.Question) == "" {
		advance(StateFailed)
		if err := emit(types.NewStreamEvent(types.TypeStreamError, types.ErrorPayload{Message: types.ErrInvalidQuery.Error()})); err != nil {
			return err
		}
		return types.ErrInvalidQuery
	}

	done := h.sessions.Begin(req.SessionID)
	defer done()

	if err := emit(types.NewStreamEvent(types.TypeStreamProcessing, nil)); err != nil {
		return err
	}

	advance(StateEmbeddingQuery)
	embedCtx, cancelEmbed := context.WithTimeout(ctx, h.cfg.EmbeddingTimeout)
	vector, err := h.embedder.Embed(embedCtx, req.Question)
	cancelEmbed()
	if err != nil {
		if errors.Is(err, types.ErrUpstreamTimeout) {
			return h.fail(advance, emit, types.ErrUpstreamTimeout.Error(), err)
		}
		return h.fail(advance, emit, types.ErrEmbeddingUnavailable.Error(),
			fmt.Errorf("%w: %v", types.ErrEmbeddingUnavailable, err))
	}

	if err := emit(types.NewStreamEvent(types.TypeStreamContext, nil)); err != nil {
		return err
	}
	advance(StateRetrieving)
	results, err := h.index.Query(ctx, vector, h.cfg.MaxContextChunks, h.cfg.SimilarityThreshold)
	if err != nil {
		return h.fail(advance, emit, "retrieval failed", fmt.Errorf("vector query: %w", err))
	}
	if len(results) > 0 {
		advance(StateContextFound)
	} else {
		advance(StateContextEmpty)
	}
	if err := emit(types.NewStreamEvent(types.TypeStreamContextFound, types.ContextFoundPayload{Count: len(results)})); err != nil {
		return err
	}

	history := h.sessions.History(req.SessionID)
	h.sessions.Append(req.SessionID, types.ConversationTurn{
		Role:      types.RoleUser,
		Content:   req.Question,
		Timestamp: time.Now(),
	})

	messages := make([]types.ConversationTurn, 0, len(history)+2)
	messages = append(messages, types.ConversationTurn{Role: types.RoleSystem, Content: tutorSystemPrompt})
	messages = append(messages, history...)
	messages = append(messages, types.ConversationTurn{Role: types.RoleUser, Content: buildTutorPrompt(req.Question, results)})

	advance(StateGenerating)
	if err := emit(types.NewStreamEvent(types.TypeStreamGenerating, nil)); err != nil {
		return err
	}

	advance(StateStreaming)
	genCtx, cancelGen := context.WithTimeout(ctx, h.cfg.GenerationTimeout)
	defer cancelGen()

	var answer strings.Builder
	var emitErr error
	streamErr := h.ai.ChatStream(genCtx, messages, func(fragment string) {
		if emitErr != nil || fragment == "" {
			return
		}
		answer.WriteString(fragment)
		if err := emit(types.NewStreamEvent(types.TypeStreamChunk, types.ChunkPayload{Content: fragment})); err != nil {
			emitErr = err
			cancelGen()
		}
	})
	if emitErr != nil {
		return emitErr
	}
	if ctx.Err() != nil {
		// client disconnected; discard the partial answer silently
		return ctx.Err()
	}

	fallback := false
	finalAnswer := answer.String()
	if streamErr != nil {
		if errors.Is(streamErr, context.DeadlineExceeded) {
			return h.fail(advance, emit, types.ErrUpstreamTimeout.Error(),
				fmt.Errorf("generation: %w", types.ErrUpstreamTimeout))
		}
		// generation unavailable: stream the deterministic templated answer
		// instead so the client still reaches complete
		log.Printf("generation unavailable, using fallback: %v", streamErr)
		fallback = true
		finalAnswer = fallbackAnswer(req.Question, len(results))
		for _, fragment := range splitIntoFragments(finalAnswer) {
			if err := emit(types.NewStreamEvent(types.TypeStreamChunk, types.ChunkPayload{Content: fragment})); err != nil {
				return err
			}
		}
	}

	advance(StateCompleted)
	h.sessions.Append(req.SessionID, types.ConversationTurn{
		Role:      types.RoleAssistant,
		Content:   finalAnswer,
		Timestamp: time.Now(),
	})
	return emit(types.NewStreamEvent(types.TypeStreamComplete, types.CompletePayload{
		Answer:        finalAnswer,
		Fallback:      fallback,
		ContextChunks: len(results),
	}))
}

// ProcessQuery is the non-streaming path: same pipeline, answer collected from
// the terminal event.
func (h *QueryHandler) ProcessQuery(ctx context.Context, req types.QueryRequest) (*types.QueryResponse, error) {
	var resp *types.QueryResponse
	err := h.ProcessQueryStreaming(ctx, req, func(event types.StreamEvent) error {
		if event.Type == types.TypeStreamComplete {
			if payload, ok := event.Payload.(types.CompletePayload); ok {
				resp = &types.QueryResponse{
					Answer:        payload.Answer,
					Fallback:      payload.Fallback,
					ContextChunks: payload.ContextChunks,
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("query ended without a result")
	}
	return resp, nil
}

func (h *QueryHandler) fail(advance func(QueryState), emit EmitFunc, message string, err error) error {
	advance(StateFailed)
	if emitErr := emit(types.NewStreamEvent(types.TypeStreamError, types.ErrorPayload{Message: message})); emitErr != nil {
		return emitErr
	}
	return err
}

// splitIntoFragments cuts text into small rune windows so fallback answers
// arrive with the same incremental shape as real generation streams.
// Concatenating the fragments reproduces the text exactly.
func splitIntoFragments(text string) []string {
	const window = 16
	runes := []rune(text)
	var fragments []string
	for i := 0; i < len(runes); i += window {
		end := i + window
		if end > len(runes) {
			end = len(runes)
		}
		fragments = append(fragments, string(runes[i:end]))
	}
	return fragments
}
