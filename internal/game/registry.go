// internal/game/registry.go
package game

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// janitorInterval is how often the registry sweeps for dead sessions.
	janitorInterval = 15 * time.Second
	// finishedTTL is how long a finished session stays resolvable so late
	// frames get a clean game-over view instead of a not-found error.
	finishedTTL = 2 * time.Minute
	// emptyTTL is how long a fully-disconnected session survives before it
	// is abandoned.
	emptyTTL = 2 * time.Minute
)

// Registry tracks every live session, indexed by id and by room key. A room
// key resolves to at most one session at a time.
type Registry struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*Session
	byRoomKey map[string]uuid.UUID
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:  make(map[uuid.UUID]*Session),
		byRoomKey: make(map[string]uuid.UUID),
	}
}

// Add registers a session under both indexes.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	r.byRoomKey[s.RoomKey] = s.ID
}

func (r *Registry) Get(id uuid.UUID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) GetByRoomKey(roomKey string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byRoomKey[roomKey]
	if !ok {
		return nil, false
	}
	s, ok := r.sessions[id]
	return s, ok
}

// HasRoomKey reports whether a session currently owns the key. The lobby
// layer uses this to refuse joins into rooms mid-game.
func (r *Registry) HasRoomKey(roomKey string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byRoomKey[roomKey]
	return ok
}

// Remove drops the session from both indexes. Callers still holding a
// pointer can finish in-flight work; later lookups fail with not-found.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return
	}
	delete(r.sessions, id)
	if cur, ok := r.byRoomKey[s.RoomKey]; ok && cur == id {
		delete(r.byRoomKey, s.RoomKey)
	}
}

// List returns every registered session, for the admin surface.
func (r *Registry) List() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// RunJanitor sweeps until ctx is done. Exported so main can own the
// goroutine's lifetime.
func (r *Registry) RunJanitor(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(time.Now())
		}
	}
}

func (r *Registry) sweep(now time.Time) {
	// Reapable takes the session lock, so collect candidates without
	// holding the registry lock.
	for _, s := range r.List() {
		if !s.Reapable(now, finishedTTL, emptyTTL) {
			continue
		}
		s.Abandon()
		r.Remove(s.ID)
		log.Printf("registry: reaped session %s (room %s)", s.ID, s.RoomKey)
	}
}
