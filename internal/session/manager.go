// Package session implements SessionManager (§4.13): a bounded,
// LRU-evicting, idle-timeout-evicting map from session id to Session, plus
// ConversationStore, the persistent JSON-shard conversation log (§6).
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sovereign-agent/core/internal/agent"
	"github.com/sovereign-agent/core/internal/core"
)

// Session is one active, in-memory conversational context. Its Agent owns
// the LLM client and tool-execution path for every turn run against it.
type Session struct {
	ID           string
	Agent        *agent.Loop
	WorkingDir   string
	History      []core.Message
	CreatedAt    time.Time
	LastAccessed time.Time
}

// Manager bounds the set of live sessions and evicts by idle timeout or, on
// overflow, by least-recent access. All operations are serialized by a
// single mutex; turn execution itself happens outside the lock (callers pull
// a *Session out, run RunTurn against it, then don't need the manager again
// until the next lookup).
type Manager struct {
	mu             sync.Mutex
	sessions       map[string]*Session
	maxSessions    int
	sessionTimeout time.Duration
	newAgent       func(workingDir string) *agent.Loop
}

// Config tunes a Manager's bounds.
type Config struct {
	MaxSessions    int           `yaml:"max_sessions"`
	SessionTimeout time.Duration `yaml:"session_timeout"`
}

// DefaultConfig mirrors the reference's defaults: 10 concurrent sessions,
// a 1 hour idle timeout.
func DefaultConfig() Config {
	return Config{MaxSessions: 10, SessionTimeout: time.Hour}
}

// NewManager constructs a Manager. newAgent builds a fresh per-session
// *agent.Loop scoped to the given working directory; it is called once per
// created session.
func NewManager(cfg Config, newAgent func(workingDir string) *agent.Loop) *Manager {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultConfig().MaxSessions
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = DefaultConfig().SessionTimeout
	}
	return &Manager{
		sessions:       make(map[string]*Session),
		maxSessions:    cfg.MaxSessions,
		sessionTimeout: cfg.SessionTimeout,
		newAgent:       newAgent,
	}
}

// cleanupExpiredLocked evicts sessions idle longer than sessionTimeout.
// Callers must hold mu.
func (m *Manager) cleanupExpiredLocked() {
	now := time.Now()
	for id, s := range m.sessions {
		if now.Sub(s.LastAccessed) > m.sessionTimeout {
			delete(m.sessions, id)
		}
	}
}

// evictLRULocked removes the least-recently-accessed session. Callers must
// hold mu and know len(m.sessions) > 0.
func (m *Manager) evictLRULocked() {
	var oldestID string
	var oldest time.Time
	for id, s := range m.sessions {
		if oldestID == "" || s.LastAccessed.Before(oldest) {
			oldestID = id
			oldest = s.LastAccessed
		}
	}
	delete(m.sessions, oldestID)
}

// Create starts a new session with a freshly built Agent, evicting an
// expired or (on overflow) least-recently-used session to make room.
func (m *Manager) Create(workingDir string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cleanupExpiredLocked()
	if len(m.sessions) >= m.maxSessions {
		m.evictLRULocked()
	}

	now := time.Now()
	s := &Session{
		ID:           uuid.NewString(),
		Agent:        m.newAgent(workingDir),
		WorkingDir:   workingDir,
		CreatedAt:    now,
		LastAccessed: now,
	}
	m.sessions[s.ID] = s
	return s
}

// Get returns the session for id, touching its last-access time, or
// (nil, false) if it doesn't exist or has expired.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	if time.Since(s.LastAccessed) > m.sessionTimeout {
		delete(m.sessions, id)
		return nil, false
	}
	s.LastAccessed = time.Now()
	return s, true
}

// GetOrCreate returns the session named by id if it exists and hasn't
// expired, otherwise creates a new one under workingDir.
func (m *Manager) GetOrCreate(id, workingDir string) *Session {
	if id != "" {
		if s, ok := m.Get(id); ok {
			return s
		}
	}
	return m.Create(workingDir)
}

// Reset clears a session's conversation history in place, leaving its Agent
// and working directory untouched.
func (m *Manager) Reset(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	s.History = nil
	return true
}

// Delete removes a session.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// CloseAll removes every live session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*Session)
}

// ActiveCount returns the number of live, non-expired sessions.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupExpiredLocked()
	return len(m.sessions)
}
