package service

import (
	"errors"
	"sync"
	"time"

	"tracer-store/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for unknown or evicted session ids
var ErrSessionNotFound = errors.New("session not found")

// SessionManager owns every live session
type SessionManager struct {
	deps        SessionDeps
	idleTimeout time.Duration
	now         func() time.Time
	logger      *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates a manager. A zero idleTimeout disables eviction.
func NewSessionManager(deps SessionDeps, idleTimeout time.Duration) *SessionManager {
	return &SessionManager{
		deps:        deps,
		idleTimeout: idleTimeout,
		now:         time.Now,
		logger:      util.GetLogger(),
		sessions:    make(map[string]*Session),
	}
}

// Create starts a new session
func (m *SessionManager) Create() *Session {
	s := NewSession(uuid.New().String(), m.deps)
	s.Touch(m.now())

	m.mu.Lock()
	m.sessions[s.ID()] = s
	n := len(m.sessions)
	m.mu.Unlock()

	util.ActiveSessions.Set(float64(n))
	m.logger.Info("Session created", zap.String("session_id", s.ID()))
	return s
}

// Get looks a session up and records activity on it
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	s.Touch(m.now())
	return s, nil
}

// Close removes and tears down a session
func (m *SessionManager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	util.ActiveSessions.Set(float64(n))
	m.logger.Info("Session closed", zap.String("session_id", id))
	return nil
}

// Len returns the number of live sessions
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// EvictIdle closes sessions with no activity for longer than the idle timeout
func (m *SessionManager) EvictIdle() int {
	if m.idleTimeout <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idleTimeout)

	var idle []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	if len(idle) > 0 {
		util.ActiveSessions.Set(float64(n))
		m.logger.Info("Evicted idle sessions", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Shutdown closes every session
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	util.ActiveSessions.Set(0)
	m.logger.Info("All sessions closed", zap.Int("count", len(sessions)))
}
