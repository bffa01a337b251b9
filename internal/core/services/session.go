package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/tread-cli/internal/core/domain"
)

// Session owns one conversation's history. Appends are serialized per
// session; different sessions never share state.
type Session struct {
	id       string
	maxTurns int

	mu    sync.Mutex
	turns []domain.ConversationTurn
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Append records a turn, evicting the oldest once the retained count
// would exceed the session bound.
func (s *Session) Append(role domain.Role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, domain.ConversationTurn{
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC(),
	})
	if len(s.turns) > s.maxTurns {
		s.turns = s.turns[len(s.turns)-s.maxTurns:]
	}
}

// History returns a copy of the retained turns, oldest first.
func (s *Session) History() []domain.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]domain.ConversationTurn, len(s.turns))
	copy(history, s.turns)
	return history
}

// Len returns the number of retained turns.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// SessionManager creates and tracks chat sessions.
type SessionManager struct {
	maxTurns int

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates a session manager. maxTurns bounds retained
// history per session.
func NewSessionManager(maxTurns int) *SessionManager {
	return &SessionManager{
		maxTurns: maxTurns,
		sessions: make(map[string]*Session),
	}
}

// Open creates a new session with a unique ID.
func (m *SessionManager) Open() *Session {
	session := &Session{
		id:       uuid.New().String(),
		maxTurns: m.maxTurns,
	}

	m.mu.Lock()
	m.sessions[session.id] = session
	m.mu.Unlock()

	return session
}

// Get returns the session with the given ID, or nil if absent.
func (m *SessionManager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Close forgets the session with the given ID.
func (m *SessionManager) Close(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count returns the number of open sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
