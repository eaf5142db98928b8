package types

import "errors"

// Error taxonomy for ingestion and query processing. Messages are stable and
// safe to surface to clients.
var (
	ErrEmptyDocument         = errors.New("document contains no text after normalization")
	ErrUnsupportedFormat     = errors.New("unsupported document format")
	ErrDimensionMismatch     = errors.New("embedding dimension mismatch")
	ErrEmbeddingUnavailable  = errors.New("embedding service unavailable")
	ErrUpstreamTimeout       = errors.New("upstream service timed out")
	ErrGenerationUnavailable = errors.New("generation service unavailable")
	ErrInvalidQuery          = errors.New("question must not be empty")
)
