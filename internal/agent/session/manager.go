package session

import (
	"context"
	"sync"
	"time"

	"github.com/aatumaykin/mailbot/internal/logger"
	"github.com/aatumaykin/mailbot/internal/metrics"
)

const (
	// DefaultIdleTTL is how long an untouched session survives.
	DefaultIdleTTL = 24 * time.Hour
	// DefaultJanitorInterval is how often idle sessions are swept.
	DefaultJanitorInterval = 10 * time.Minute
)

// Config holds session manager settings.
type Config struct {
	MaxHistory      int
	IdleTTL         time.Duration // 0 disables idle eviction
	JanitorInterval time.Duration
	DefaultEmail    string
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithMetrics reports the number of live sessions.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// Manager owns every Session, keyed by user id.
type Manager struct {
	cfg     Config
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu       sync.Mutex
	sessions map[int64]*Session

	janitorMu sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewManager creates an empty manager.
func NewManager(cfg Config, log *logger.Logger, opts ...Option) *Manager {
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = DefaultMaxHistory
	}
	if cfg.JanitorInterval <= 0 {
		cfg.JanitorInterval = DefaultJanitorInterval
	}
	m := &Manager{
		cfg:      cfg,
		logger:   log,
		now:      time.Now,
		sessions: make(map[int64]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the user's session, creating it on first contact.
func (m *Manager) Get(userID int64) *Session {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if !ok {
		s = newSession(userID, m.cfg.MaxHistory, m.cfg.DefaultEmail, m.now)
		m.sessions[userID] = s
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if ok {
		s.touch()
	} else {
		m.logger.Debug("session created", logger.Field{Key: "user_id", Value: userID})
		m.metrics.SetSessionsActive(n)
	}
	return s
}

// Peek returns the session without creating or touching it.
func (m *Manager) Peek(userID int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// TargetEmail returns the user's recipient, or the default when the user has
// no session.
func (m *Manager) TargetEmail(userID int64) string {
	if s, ok := m.Peek(userID); ok {
		return s.TargetEmail()
	}
	return m.cfg.DefaultEmail
}

// Evict drops the user's session. It reports whether one existed.
func (m *Manager) Evict(userID int64) bool {
	m.mu.Lock()
	_, ok := m.sessions[userID]
	delete(m.sessions, userID)
	n := len(m.sessions)
	m.mu.Unlock()

	if ok {
		m.logger.Debug("session evicted", logger.Field{Key: "user_id", Value: userID})
		m.metrics.SetSessionsActive(n)
	}
	return ok
}

// EvictIdle drops sessions untouched for longer than the idle TTL.
func (m *Manager) EvictIdle() int {
	if m.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.cfg.IdleTTL)

	m.mu.Lock()
	evicted := 0
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if evicted > 0 {
		m.metrics.SetSessionsActive(n)
	}
	return evicted
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
