package kvstore

import (
	"sort"
	"sync"
)

// MemStore is an in-memory Store used by tests and as a session-only
// fallback when the disk store cannot be opened. A non-zero MaxBytes makes
// it quota-bounded like the disk store.
type MemStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	MaxBytes int64
}

func NewMemStore() *MemStore {
	return &MemStore{data: map[string][]byte{}}
}

func (s *MemStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true
}

func (s *MemStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.MaxBytes > 0 {
		var used int64
		for k, v := range s.data {
			if k == key {
				continue
			}
			used += int64(len(v))
		}
		if used+int64(len(value)) > s.MaxBytes {
			return ErrQuotaExceeded
		}
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	s.data[key] = cp
	return nil
}

func (s *MemStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

func (s *MemStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
