// Package session keeps admin login sessions in process memory.
//
// Sessions are lost on restart. Expired entries are evicted lazily when they
// are looked up; Sweep can be scheduled to reclaim entries nobody asks for.
package session

import (
	"sync"
	"time"

	"github.com/mohanatextiles/storefront/internal/crypto"
	"github.com/mohanatextiles/storefront/internal/model"
)

// DefaultTTL is the lifetime of a session.
const DefaultTTL = 24 * time.Hour

// Registry maps opaque tokens to sessions. It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]model.Session
	ttl      time.Duration
	now      func() time.Time
	newToken func() (string, error)
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithTokenSource replaces the random token generator.
func WithTokenSource(gen func() (string, error)) Option {
	return func(r *Registry) { r.newToken = gen }
}

// NewRegistry constructs an empty registry. A non-positive ttl means DefaultTTL.
func NewRegistry(ttl time.Duration, opts ...Option) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	r := &Registry{
		sessions: make(map[string]model.Session),
		ttl:      ttl,
		now:      time.Now,
		newToken: crypto.NewToken,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Issue creates a session for the admin and returns its token.
func (r *Registry) Issue(adminID, email string) (string, error) {
	token, err := r.newToken()
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sessions[token] = model.Session{
		Token:     token,
		AdminID:   adminID,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}
	return token, nil
}

// Validate returns the session for token. An expired session is removed and
// reported as absent.
func (r *Registry) Validate(token string) (model.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[token]
	if !ok {
		return model.Session{}, false
	}
	if r.now().After(s.ExpiresAt) {
		delete(r.sessions, token)
		return model.Session{}, false
	}
	return s, true
}

// Revoke removes the session and reports whether one existed.
func (r *Registry) Revoke(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[token]; !ok {
		return false
	}
	delete(r.sessions, token)
	return true
}

// Sweep evicts every expired session and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for tok, s := range r.sessions {
		if now.After(s.ExpiresAt) {
			delete(r.sessions, tok)
			n++
		}
	}
	return n
}

// Len returns the number of stored sessions, expired ones included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
