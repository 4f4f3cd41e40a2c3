// Package session holds the client's view of the authenticated session. It is
// an explicit injected collaborator, not ambient global state: caches consult
// it before issuing requests and register reset hooks that run when the
// session is torn down (logout, or a 401 observed at the API boundary).
package session

import (
	"log/slog"
	"sync"
)

// Session tracks whether the client currently holds an authenticated session.
// A new Session starts unauthenticated with no listeners.
type Session struct {
	mu        sync.Mutex
	userID    string
	authed    bool
	listeners []func()
	logger    *slog.Logger
}

// New creates an unauthenticated session.
func New(logger *slog.Logger) *Session {
	return &Session{logger: logger}
}

// Authenticated reports whether the session is currently authenticated.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authed
}

// UserID returns the id of the authenticated user, or "" when unauthenticated.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Authenticate marks the session as authenticated for the given user.
func (s *Session) Authenticate(userID string) {
	s.mu.Lock()
	s.userID = userID
	s.authed = true
	s.mu.Unlock()

	s.logger.Info("session authenticated", slog.String("user_id", userID))
}

// OnInvalidate registers a hook that runs whenever the session is torn down.
// Caches register their reset here so logout clears them.
func (s *Session) OnInvalidate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Invalidate tears the session down and runs all registered hooks. Calling it
// on an already-unauthenticated session is a no-op; the API boundary may fire
// it once per 401 response and overlapping calls must not double-clear.
func (s *Session) Invalidate() {
	s.mu.Lock()
	if !s.authed {
		s.mu.Unlock()
		return
	}
	s.userID = ""
	s.authed = false
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	s.logger.Info("session invalidated")
	for _, fn := range listeners {
		fn()
	}
}
