package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/daivikpurani/AI-Tutor/types"
)

// Embedder maps text to a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// OpenAIEmbedder computes embeddings through an OpenAI-compatible endpoint.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
	timeout   time.Duration
}

func NewOpenAIEmbedder(baseURL, apiKey, model string, dimension int, timeout time.Duration) *OpenAIEmbedder {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(config),
		model:     model,
		dimension: dimension,
		timeout:   timeout,
	}
}

func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dimension,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding request: %w", types.ErrUpstreamTimeout)
		}
		return nil, fmt.Errorf("%w: %v", types.ErrEmbeddingUnavailable, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs",
			types.ErrEmbeddingUnavailable, len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", types.ErrEmbeddingUnavailable, d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
