// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Holds live game sessions and the per-player tallies that outlive them.
//
// Characteristics:
//   - Sessions keyed by Session.ID, tallies keyed by player (anon cookie) id.
//   - Map access guarded by an RWMutex; each session also has its own mutex so
//     Update serialises mutations of one session without blocking others.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/robalobadob/beauquote/internal/game"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("store: session not found")

// Store defines the persistence interface for game sessions.
type Store interface {
	// Save persists or replaces a session.
	Save(ctx context.Context, s *game.Session) error

	// Update runs fn with exclusive access to the session.
	Update(ctx context.Context, id string, fn func(*game.Session) error) error

	// Delete drops a session; unknown ids are ignored.
	Delete(ctx context.Context, id string) error

	// Tally returns the player's cross-round counters, creating them on first use.
	Tally(ctx context.Context, playerID string) *game.Tally
}

type entry struct {
	mu      sync.Mutex
	session *game.Session
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	tallies  map[string]*game.Tally
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		sessions: make(map[string]*entry),
		tallies:  make(map[string]*game.Tally),
	}
}

func (m *memory) Save(ctx context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = &entry{session: s}
	return nil
}

func (m *memory) Update(ctx context.Context, id string, fn func(*game.Session) error) error {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memory) Tally(ctx context.Context, playerID string) *game.Tally {
	m.mu.RLock()
	t, ok := m.tallies[playerID]
	m.mu.RUnlock()
	if ok {
		return t
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tallies[playerID]; ok {
		return t
	}
	t = &game.Tally{}
	m.tallies[playerID] = t
	return t
}
