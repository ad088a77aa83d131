package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultTimeout is how long a session may sit idle before eviction.
	DefaultTimeout = 30 * time.Minute
	// DefaultSweepInterval is how often the evictor scans for idle sessions.
	DefaultSweepInterval = 5 * time.Minute
)

// Store is a concurrency-safe in-memory session registry keyed by token.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	timeout  time.Duration
}

// NewStore creates a session store. A zero timeout selects DefaultTimeout.
func NewStore(timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Store{
		sessions: make(map[string]*Session),
		timeout:  timeout,
	}
}

// GetOrCreate returns the session for token, creating it when absent.
// The session's last-activity time is refreshed either way.
func (s *Store) GetOrCreate(token string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		sess = &Session{Token: token}
		s.sessions[token] = sess
		slog.Debug("SessionStore.GetOrCreate: created session", "token", token)
	}
	sess.LastActive = time.Now().UTC()
	return sess
}

// Get returns the session for token, or nil when absent. Does not refresh
// last activity.
func (s *Store) Get(token string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[token]
}

// Touch refreshes the last-activity time for token if the session exists.
func (s *Store) Touch(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[token]; ok {
		sess.LastActive = time.Now().UTC()
	}
}

// Delete removes the session for token.
func (s *Store) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SweepOnce removes every session idle for at least the store timeout as of
// now. Each delete is atomic with respect to GetOrCreate/Touch; a session
// touched after the cutoff survives. Returns the number of evictions.
func (s *Store) SweepOnce(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for token, sess := range s.sessions {
		if now.Sub(sess.LastActive) >= s.timeout {
			delete(s.sessions, token)
			evicted++
			slog.Debug("SessionStore.SweepOnce: evicted idle session", "token", token, "idle", now.Sub(sess.LastActive))
		}
	}
	if evicted > 0 {
		slog.Info("SessionStore.SweepOnce: eviction pass complete", "evicted", evicted, "remaining", len(s.sessions))
	}
	return evicted
}

// StartEvictor launches a background goroutine that sweeps idle sessions on
// the given interval until ctx is cancelled. A non-positive interval selects
// DefaultSweepInterval.
func (s *Store) StartEvictor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("SessionStore.StartEvictor: starting", "interval", interval, "timeout", s.timeout)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Debug("SessionStore.StartEvictor: stopping", "reason", ctx.Err())
				return
			case now := <-ticker.C:
				s.SweepOnce(now.UTC())
			}
		}
	}()
}
