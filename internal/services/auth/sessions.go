package auth

import (
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tillerstead/admin/internal/models"
)

// DefaultIdleTimeout is how long a session may sit unused
const DefaultIdleTimeout = 24 * time.Hour

// SessionManager tracks login sessions in memory. Sessions do not survive
// a restart.
type SessionManager struct {
	idle     time.Duration
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*models.Session

	done chan struct{}
	once sync.Once
}

// NewSessionManager creates a manager and starts the hourly sweeper
func NewSessionManager(idle time.Duration, log *zap.Logger) *SessionManager {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}

	m := &SessionManager{
		idle:     idle,
		interval: time.Hour,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*models.Session),
		done:     make(chan struct{}),
	}

	// Start cleanup goroutine
	go m.cleanupLoop()

	return m
}

// CreateSession opens a session and returns its 32-byte hex id
func (m *SessionManager) CreateSession(username string, meta models.SessionMetadata) string {
	b := make([]byte, 32)
	rand.Read(b)
	id := hex.EncodeToString(b)

	now := m.now().UTC()
	m.mu.Lock()
	m.sessions[id] = &models.Session{
		ID:           id,
		Username:     username,
		Created:      now,
		LastActivity: now,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
	}
	m.mu.Unlock()

	return id
}

// GetSession returns a copy of the session, or nil when absent or idle too long
func (m *SessionManager) GetSession(id string) *models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok || s.IsExpired(m.now(), m.idle) {
		return nil
	}
	cp := *s
	return &cp
}

// UpdateActivity marks the session as used now
func (m *SessionManager) UpdateActivity(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		s.LastActivity = m.now().UTC()
	}
}

// SetTwoFactorPending flags a session that still needs a second factor
func (m *SessionManager) SetTwoFactorPending(id string, pending bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if ok {
		s.TwoFactorPending = pending
	}
	return ok
}

// MarkTwoFactorVerified clears the pending flag and records that this
// session passed a second factor
func (m *SessionManager) MarkTwoFactorVerified(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if ok {
		s.TwoFactorPending = false
		s.TwoFactorVerified = true
	}
	return ok
}

// DestroySession ends a session
func (m *SessionManager) DestroySession(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// DestroyUserSessions ends every session of username, optionally keeping one
func (m *SessionManager) DestroyUserSessions(username, keep string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.sessions {
		if s.Username == username && id != keep {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// UserSessions lists sessions of username, newest first
func (m *SessionManager) UserSessions(username string) []models.Session {
	return m.list(func(s *models.Session) bool { return s.Username == username })
}

// ActiveSessions lists every live session, newest first
func (m *SessionManager) ActiveSessions() []models.Session {
	return m.list(func(*models.Session) bool { return true })
}

// Close stops the sweeper
func (m *SessionManager) Close() {
	m.once.Do(func() { close(m.done) })
}

func (m *SessionManager) list(keep func(*models.Session) bool) []models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	out := make([]models.Session, 0)
	for _, s := range m.sessions {
		if s.IsExpired(now, m.idle) || !keep(s) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.After(out[j].Created) })
	return out
}

// cleanupLoop periodically removes idle sessions
func (m *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.done:
			return
		}
	}
}

// cleanup removes idle sessions and returns how many were dropped
func (m *SessionManager) cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		if s.IsExpired(now, m.idle) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.log.Debug("swept idle sessions", zap.Int("removed", removed))
	}
	return removed
}
