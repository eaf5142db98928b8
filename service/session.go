package service

import (
	"sync"

	"github.com/daivikpurani/AI-Tutor/types"
)

// SessionStore holds per-session conversation history, bounded to the most
// recent turns. Begin serializes queries for one session: no two queries on
// the same session interleave their history writes.
type SessionStore interface {
	// Begin acquires the session's query slot; the returned func releases it.
	Begin(sessionID string) (done func())
	Append(sessionID string, turn types.ConversationTurn)
	History(sessionID string) []types.ConversationTurn
	Clear(sessionID string)
}

type session struct {
	queryMu sync.Mutex // held for a query's full lifecycle
	mu      sync.Mutex
	turns   []types.ConversationTurn
}

// MemorySessionStore is the in-process SessionStore implementation.
type MemorySessionStore struct {
	mu       sync.Mutex
	maxTurns int
	sessions map[string]*session
}

func NewMemorySessionStore(maxTurns int) *MemorySessionStore {
	if maxTurns <= 0 {
		maxTurns = 20
	}
	return &MemorySessionStore{
		maxTurns: maxTurns,
		sessions: make(map[string]*session),
	}
}

func (s *MemorySessionStore) get(sessionID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	return sess
}

func (s *MemorySessionStore) Begin(sessionID string) func() {
	sess := s.get(sessionID)
	sess.queryMu.Lock()
	return sess.queryMu.Unlock
}

func (s *MemorySessionStore) Append(sessionID string, turn types.ConversationTurn) {
	sess := s.get(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.turns = append(sess.turns, turn)
	if len(sess.turns) > s.maxTurns {
		// evict oldest; copy so the evicted turn can be collected
		trimmed := make([]types.ConversationTurn, s.maxTurns)
		copy(trimmed, sess.turns[len(sess.turns)-s.maxTurns:])
		sess.turns = trimmed
	}
}

func (s *MemorySessionStore) History(sessionID string) []types.ConversationTurn {
	sess := s.get(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	history := make([]types.ConversationTurn, len(sess.turns))
	copy(history, sess.turns)
	return history
}

func (s *MemorySessionStore) Clear(sessionID string) {
	sess := s.get(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.turns = nil
}
