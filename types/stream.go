package types

import "time"

// Stream event types, emitted in this order for a successful query:
// processing, context, context_found, generating, chunk..., complete.
// A failed query ends with error instead of complete.
const (
	TypeStreamProcessing   = "processing"
	TypeStreamContext      = "context"
	TypeStreamContextFound = "context_found"
	TypeStreamGenerating   = "generating"
	TypeStreamChunk        = "chunk"
	TypeStreamComplete     = "complete"
	TypeStreamError        = "error"
)

// StreamEvent is the envelope for every message on the streaming channel.
type StreamEvent struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type ContextFoundPayload struct {
	Count int `json:"count"`
}

type ChunkPayload struct {
	Content string `json:"content"`
}

type CompletePayload struct {
	Answer        string `json:"answer"`
	Fallback      bool   `json:"fallback"`
	ContextChunks int    `json:"context_chunks_used"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// NewStreamEvent stamps an event with the current time.
func NewStreamEvent(eventType string, payload interface{}) StreamEvent {
	return StreamEvent{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}
