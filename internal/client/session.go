package client

import "sync"

// Session holds the bearer token presented by a Gateway. One Session is created
// per client process and shared by every Gateway that acts for the same user.
type Session struct {
	mu    sync.RWMutex
	token string
}

// NewSession returns a session preloaded with token, which may be empty.
func NewSession(token string) *Session {
	return &Session{token: token}
}

// Token returns the current token or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Set replaces the stored token.
func (s *Session) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Clear forgets the stored token.
func (s *Session) Clear() {
	s.Set("")
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}
