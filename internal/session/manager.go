package session

import (
	"fmt"
	"sort"
	"sync"
)

// RemoveHook is called after a session is removed.
type RemoveHook func(s *Session)

// Manager is the registry of sessions keyed by operator.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	world    World
	config   Config
	onRemove []RemoveHook
}

// NewManager creates a manager whose sessions edit w.
func NewManager(w World, cfg Config) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		world:    w,
		config:   cfg,
	}
}

// OnRemove registers a hook run after each removal.
func (m *Manager) OnRemove(h RemoveHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRemove = append(m.onRemove, h)
}

// Get returns the operator's session, creating it on first use.
func (m *Manager) Get(operator string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[operator]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[operator]; ok {
		return s
	}
	s = newSession(operator, m.world, m.config)
	m.sessions[operator] = s
	return s
}

// Lookup returns the operator's session without creating one.
func (m *Manager) Lookup(operator string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[operator]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, operator)
	}
	return s, nil
}

// Has reports whether the operator has a session.
func (m *Manager) Has(operator string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[operator]
	return ok
}

// Remove deletes the operator's session and releases its state. It reports
// whether a session existed.
func (m *Manager) Remove(operator string) bool {
	m.mu.Lock()
	s, ok := m.sessions[operator]
	delete(m.sessions, operator)
	hooks := append([]RemoveHook(nil), m.onRemove...)
	m.mu.Unlock()
	if !ok {
		return false
	}

	s.close()
	for _, h := range hooks {
		h(s)
	}
	return true
}

// Operators returns the operators with sessions, sorted.
func (m *Manager) Operators() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.sessions))
	for op := range m.sessions {
		out = append(out, op)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SetMaxHistory applies a new undo depth to new and existing sessions.
func (m *Manager) SetMaxHistory(n int) {
	m.mu.Lock()
	m.config.MaxHistory = n
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()
	for _, s := range sessions {
		s.history.SetMaxEntries(n)
	}
}
