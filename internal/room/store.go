// internal/room/store.go
package room

import (
	"sync"

	"github.com/google/uuid"
)

// Store is the set of live rooms, keyed by room id. Each orchestrator owns one.
type Store struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*Room
}

func NewStore() *Store {
	return &Store{
		rooms: make(map[uuid.UUID]*Room),
	}
}

func (s *Store) Add(r *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID] = r
}

func (s *Store) Get(id uuid.UUID) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, exists := s.rooms[id]
	return r, exists
}

func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
}

// List returns the live rooms in no particular order.
func (s *Store) List() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out
}

// GetBySession returns the room a session holds a seat in.
func (s *Store) GetBySession(session uuid.UUID) (*Room, bool) {
	for _, r := range s.List() {
		if _, ok := r.SeatFor(session); ok {
			return r, true
		}
	}
	return nil, false
}
