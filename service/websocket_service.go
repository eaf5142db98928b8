package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/daivikpurani/AI-Tutor/types"
)

// WebSocketService is the streaming chat transport. Each connection processes
// one query at a time; stream events go out as JSON messages.
type WebSocketService struct {
	queryHandler *QueryHandler
	upgrader     websocket.Upgrader
}

func NewWebSocketService(queryHandler *QueryHandler) *WebSocketService {
	return &WebSocketService{
		queryHandler: queryHandler,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // CORS is enforced at the HTTP layer
			},
		},
	}
}

func (s *WebSocketService) HandleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(512 * 1024)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// fallback session for clients that never send a session id
	connSession := uuid.NewString()

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
		var req types.WebsocketRequest
		if err := json.Unmarshal(p, &req); err != nil {
			s.writeError(conn, "invalid message")
			continue
		}

		switch req.Type {
		case types.TypeWebsocketPing:
			if err := conn.WriteJSON(types.WebsocketRequest{Type: types.TypeWebsocketPong}); err != nil {
				return
			}
		case types.TypeWebsocketChat:
			payloadBytes, err := json.Marshal(req.Payload)
			if err != nil {
				s.writeError(conn, "invalid message")
				continue
			}
			var query types.QueryRequest
			if err := json.Unmarshal(payloadBytes, &query); err != nil {
				s.writeError(conn, "invalid message")
				continue
			}
			if query.SessionID == "" {
				query.SessionID = connSession
			}

			err = s.queryHandler.ProcessQueryStreaming(ctx, query, func(event types.StreamEvent) error {
				if err := conn.WriteJSON(event); err != nil {
					cancel()
					return err
				}
				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("query error: %v", err)
			}
			if ctx.Err() != nil {
				return
			}
		default:
			log.Println("Invalid message type:", req.Type)
		}
	}
}

func (s *WebSocketService) writeError(conn *websocket.Conn, message string) {
	event := types.NewStreamEvent(types.TypeStreamError, types.ErrorPayload{Message: message})
	if err := conn.WriteJSON(event); err != nil {
		log.Println("Write error:", err)
	}
}
