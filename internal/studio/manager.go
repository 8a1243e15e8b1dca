package studio

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrSessionNotFound is returned for an unknown session ID.
var ErrSessionNotFound = errors.New("studio session not found")

// Manager keeps the open sessions of a server process. Sessions share no
// mutable state; the manager only indexes them.
type Manager struct {
	opts Options

	mu       sync.RWMutex
	sessions map[string]*Session
	latest   string
}

// NewManager creates a manager whose sessions use opts.
func NewManager(opts Options) *Manager {
	return &Manager{opts: opts, sessions: make(map[string]*Session)}
}

// Open loads ref into a new session.
func (m *Manager) Open(ctx context.Context, itemID, ref string) (*Session, error) {
	s, err := NewSession(ctx, m.opts, itemID, ref)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.latest = s.ID()
	m.mu.Unlock()
	return s, nil
}

// Get returns the session with id, or the most recently opened one when id
// is empty.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id == "" {
		id = m.latest
	}
	s, ok := m.sessions[id]
	if !ok {
		if id == "" {
			return nil, fmt.Errorf("%w: no session is open", ErrSessionNotFound)
		}
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Close drops a session after its background exports finish.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	if m.latest == id {
		m.latest = ""
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.Close()
	return nil
}

// Len reports the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll closes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.latest = ""
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
