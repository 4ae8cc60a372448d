package room

import (
	"sync"

	"github.com/sapdemon/chess-test/game/rules"
)

// Registry owns the process-wide id -> room mapping. It is an injected
// service object rather than package state so it can be replaced in tests
// and sharded later if needed.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// GetOrCreate returns the room for id, creating it atomically on first
// reference with a fresh game from the engine.
func (reg *Registry) GetOrCreate(id string, engine rules.Engine) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if r, ok := reg.rooms[id]; ok {
		return r
	}
	r := New(id, engine)
	reg.rooms[id] = r
	return r
}

// Get returns the room for id if it exists.
func (reg *Registry) Get(id string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[id]
	return r, ok
}

// Remove deletes the room for id. Removing an absent id is a no-op.
func (reg *Registry) Remove(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, id)
}

// List returns all rooms. Order is unspecified.
func (reg *Registry) List() []*Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	result := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		result = append(result, r)
	}
	return result
}

// Count returns the number of live rooms.
func (reg *Registry) Count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}
