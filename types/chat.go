package types

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ConversationTurn is a single message in a session's history.
type ConversationTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// QueryRequest is the request shape the core consumes, regardless of transport.
type QueryRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

// QueryResponse is the non-streaming answer shape (REST chat endpoint).
type QueryResponse struct {
	Answer        string `json:"answer"`
	Fallback      bool   `json:"fallback"`
	ContextChunks int    `json:"context_chunks_used"`
}
