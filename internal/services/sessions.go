package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/foxxcyber/smart-pantry/internal/cache"
	"github.com/foxxcyber/smart-pantry/internal/shopping"
)

// TokenBackend is a backend acting on behalf of one user's token
type TokenBackend interface {
	shopping.Backend
	SetToken(token string)
}

// SessionManager keeps one reconciler per signed-in user and evicts idle ones
type SessionManager struct {
	newBackend func(token string) TokenBackend
	cache      shopping.Cache
	opts       shopping.Options
	ttl        time.Duration
	log        *zap.Logger
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	reconciler *shopping.Reconciler
	backend    TokenBackend
	lastSeen   time.Time

	loadOnce sync.Once
	loadErr  error
}

// NewSessionManager creates a session manager. Every user's cache keys are
// stored in c under "user:<id>:".
func NewSessionManager(newBackend func(token string) TokenBackend, c shopping.Cache, opts shopping.Options, ttl time.Duration, log *zap.Logger) *SessionManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionManager{
		newBackend: newBackend,
		cache:      c,
		opts:       opts,
		ttl:        ttl,
		log:        log,
		now:        time.Now,
		sessions:   make(map[string]*session),
	}
}

// Get returns the user's reconciler, creating and loading it on first use.
// Concurrent first calls wait for the same load. loaded is true only for the
// call that ran it, and err is that load's error.
func (m *SessionManager) Get(ctx context.Context, userID, token string) (r *shopping.Reconciler, loaded bool, err error) {
	s := m.session(userID, token)
	s.loadOnce.Do(func() {
		loaded = true
		s.loadErr = s.reconciler.Load(ctx)
		if s.loadErr != nil {
			m.log.Warn("Initial load failed", zap.String("user_id", userID), zap.Error(s.loadErr))
		}
	})
	if loaded {
		return s.reconciler, true, s.loadErr
	}
	return s.reconciler, false, nil
}

func (m *SessionManager) session(userID, token string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		s.backend.SetToken(token)
		s.lastSeen = m.now()
		return s
	}

	opts := m.opts
	opts.Logger = m.log.With(zap.String("user_id", userID))
	backend := m.newBackend(token)
	s := &session{
		reconciler: shopping.New(backend, cache.WithPrefix(m.cache, "user:"+userID+":"), opts),
		backend:    backend,
		lastSeen:   m.now(),
	}
	m.sessions[userID] = s
	m.log.Debug("Session created", zap.String("user_id", userID))
	return s
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
func (m *SessionManager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.ttl)
	n := 0
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	if n > 0 {
		m.log.Info("Evicted idle sessions", zap.Int("count", n))
	}
	return n
}

// Len returns the number of live sessions
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Run sweeps periodically until ctx is done
func (m *SessionManager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
