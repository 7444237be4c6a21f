// Package settings persists user preferences as a flat key-value document.
// Reads always merge the persisted document over built-in defaults, so a
// key that was never saved still has a value.
package settings

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/tartu-transit/buscore/cache"
	"github.com/tartu-transit/buscore/kvstore"
)

// Preference keys with built-in defaults.
const (
	KeyNearbyRadius  = "nearbyRadius"  // meters
	KeyMaxStopsOnMap = "maxStopsOnMap" // marker cap
	KeyCityRadius    = "cityRadius"    // meters, bounds the route overview
)

// Defaults returns the built-in preference document.
func Defaults() map[string]any {
	return map[string]any{
		KeyNearbyRadius:  float64(500),
		KeyMaxStopsOnMap: float64(100),
		KeyCityRadius:    float64(8000),
	}
}

// Store is the settings document. Safe for concurrent use.
type Store struct {
	kv kvstore.Store

	mu     sync.Mutex
	values map[string]any
}

// NewStore loads the persisted document from kv. Corrupt payloads are
// discarded.
func NewStore(kv kvstore.Store) *Store {
	s := &Store{kv: kv, values: map[string]any{}}
	if raw, ok := kv.Get(cache.KeySettings); ok {
		if err := json.Unmarshal(raw, &s.values); err != nil {
			log.Printf("settings: discarding corrupt document: %v", err)
			s.values = map[string]any{}
		}
	}
	return s
}

// Get returns the value for key, falling back to the built-in default. The
// second return is false only for keys with neither a stored value nor a
// default.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key]; ok {
		return v, true
	}
	v, ok := Defaults()[key]
	return v, ok
}

// GetAll returns the merged document: defaults overlaid with every
// persisted value.
func (s *Store) GetAll() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Defaults()
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Update sets one key and persists the document.
func (s *Store) Update(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.persistLocked()
}

// Save replaces the whole persisted document.
func (s *Store) Save(all map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = map[string]any{}
	for k, v := range all {
		s.values[k] = v
	}
	s.persistLocked()
}

// Int reads a numeric preference as int, falling back to def when the key
// is absent or not numeric. JSON numbers decode as float64.
func (s *Store) Int(key string, def int) int {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}

func (s *Store) persistLocked() {
	raw, err := json.Marshal(s.values)
	if err != nil {
		log.Printf("settings: marshal failed: %v", err)
		return
	}
	if err := s.kv.Set(cache.KeySettings, raw); err != nil {
		log.Printf("settings: persist failed: %v", err)
	}
}
