package types

const (
	TypeWebsocketPing = "ping"
	TypeWebsocketPong = "pong"
	TypeWebsocketChat = "chat"
)

// WebsocketRequest is the envelope for messages received on the chat socket.
type WebsocketRequest struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// StreamHandler receives each incremental text fragment from a generation stream.
type StreamHandler func(fragment string)
