package voice

import "sync"

// Registry is the process-wide mapping from guild ID to its active voice
// session. It is the single source of truth for "is this guild playing
// audio"; at most one session exists per guild at any instant.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Take removes and returns the guild's current session, if any. Used at
// the supersession step before a new session is built.
func (r *Registry) Take(guildID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.sessions[guildID]
	delete(r.sessions, guildID)
	return prev
}

// Swap registers s for the guild and returns whatever session was
// registered before, so the caller can tear it down. The replace is
// atomic with respect to concurrent invocations for the same guild.
func (r *Registry) Swap(guildID string, s *Session) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.sessions[guildID]
	r.sessions[guildID] = s
	return prev
}

// Remove deletes the guild's entry only if it still belongs to s. A
// session torn down after being superseded must not evict its successor.
func (r *Registry) Remove(guildID string, s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[guildID] != s {
		return false
	}
	delete(r.sessions, guildID)
	return true
}

// Get returns the guild's current session.
func (r *Registry) Get(guildID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[guildID]
	return s, ok
}

// Len returns the number of live sessions across all guilds.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
