package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager tracks the active batch sessions, one per roster upload
type Manager struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	resetDelay time.Duration
}

// NewManager creates a session manager
func NewManager(resetDelay time.Duration) *Manager {
	return &Manager{
		sessions:   make(map[string]*Session),
		resetDelay: resetDelay,
	}
}

// Create starts a fresh session and returns it
func (m *Manager) Create() *Session {
	session := NewSession(uuid.New().String(), m.resetDelay)
	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	return session
}

// Get returns the session with the given id, or nil
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Remove drops a session once its batch is finished with
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
