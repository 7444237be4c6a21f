// Package favorites persists the rider's pinned stops. The in-memory list
// is authoritative; the key-value store is written behind it on every
// mutation and failures only cost durability, never the session state.
package favorites

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/tartu-transit/buscore/cache"
	"github.com/tartu-transit/buscore/kvstore"
	"github.com/tartu-transit/buscore/transit"
)

// Store holds pinned stops in insertion order, keyed by gtfsId.
type Store struct {
	kv kvstore.Store

	mu    sync.Mutex
	items []transit.Favorite
}

// NewStore loads any persisted favorites from kv. A corrupt payload is
// discarded and the store starts empty.
func NewStore(kv kvstore.Store) *Store {
	s := &Store{kv: kv}
	if raw, ok := kv.Get(cache.KeyFavorites); ok {
		if err := json.Unmarshal(raw, &s.items); err != nil {
			log.Printf("favorites: discarding corrupt persisted list: %v", err)
			s.items = nil
		}
	}
	return s
}

// List returns the favorites in the order they were added.
func (s *Store) List() []transit.Favorite {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]transit.Favorite, len(s.items))
	copy(out, s.items)
	return out
}

// IsFavorite reports whether the stop id is pinned.
func (s *Store) IsFavorite(gtfsID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(gtfsID) >= 0
}

// Add pins a stop. Adding an already-pinned stop is a no-op.
func (s *Store) Add(f transit.Favorite) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(f.GtfsID) >= 0 {
		return
	}
	s.items = append(s.items, f)
	s.persistLocked()
}

// Remove unpins a stop by id. Unknown ids are ignored.
func (s *Store) Remove(gtfsID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(gtfsID)
	if i < 0 {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.persistLocked()
}

// Toggle flips the pinned state and reports the new one.
func (s *Store) Toggle(f transit.Favorite) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(f.GtfsID); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
		s.persistLocked()
		return false
	}
	s.items = append(s.items, f)
	s.persistLocked()
	return true
}

// ClearAll removes every favorite.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.persistLocked()
}

// Count returns the number of pinned stops.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) indexOf(gtfsID string) int {
	for i, f := range s.items {
		if f.GtfsID == gtfsID {
			return i
		}
	}
	return -1
}

// persistLocked writes the current list through to the store. The write is
// fire-and-forget: the in-memory list already reflects the mutation.
func (s *Store) persistLocked() {
	raw, err := json.Marshal(s.items)
	if err != nil {
		log.Printf("favorites: marshal failed: %v", err)
		return
	}
	if err := s.kv.Set(cache.KeyFavorites, raw); err != nil {
		log.Printf("favorites: persist failed: %v", err)
	}
}
