package session

import (
	"sync"
	"time"
)

// Registry holds sessions by ID. All sessions share one set of Deps, and so
// one record store.
type Registry struct {
	deps    Deps
	maxIdle time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry. Sessions unused for maxIdle are
// dropped on the next lookup; zero keeps them forever.
func NewRegistry(deps Deps, maxIdle time.Duration) *Registry {
	return &Registry{deps: deps, maxIdle: maxIdle, sessions: map[string]*Session{}}
}

// Get returns the session with id, if any.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	s, ok := r.sessions[id]
	return s, ok
}

// GetOrCreate returns the session with id, or a new session when id is empty
// or unknown. created reports whether a new session was made.
func (r *Registry) GetOrCreate(id string) (s *Session, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	if s, ok := r.sessions[id]; ok && id != "" {
		return s, false
	}
	s = New(r.deps)
	r.sessions[s.ID()] = s
	return s, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) pruneLocked() {
	if r.maxIdle <= 0 {
		return
	}
	cutoff := time.Now().Add(-r.maxIdle)
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}
