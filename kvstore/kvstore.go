// Package kvstore is the persistent key–value layer under the cache, the
// favorites store and the settings store. It mirrors a browser localStorage:
// flat string keys, opaque byte values, a bounded quota.
package kvstore

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrQuotaExceeded is returned by Set when the write would push the store
// past its byte quota. Callers are expected to evict and retry.
var ErrQuotaExceeded = errors.New("kvstore: quota exceeded")

// Store is the shared persistence surface. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
	Delete(key string)
	Keys() []string
}

// DiskStore keeps one file per key under a directory. Keys are sanitized to
// file names; the reverse mapping is kept in an index file-name encoding so
// Keys() can recover the original strings.
type DiskStore struct {
	mu       sync.Mutex
	dir      string
	maxBytes int64
}

// NewDiskStore opens (creating if needed) a store rooted at dir. maxBytes of
// 0 means no quota.
func NewDiskStore(dir string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir, maxBytes: maxBytes}, nil
}

func (s *DiskStore) path(key string) string {
	return filepath.Join(s.dir, encodeKey(key))
}

func (s *DiskStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (s *DiskStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxBytes > 0 {
		used := s.usedBytesLocked(key)
		if used+int64(len(value)) > s.maxBytes {
			return ErrQuotaExceeded
		}
	}
	return os.WriteFile(s.path(key), value, 0o644)
}

func (s *DiskStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = os.Remove(s.path(key))
}

func (s *DiskStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if k, ok := decodeKey(e.Name()); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// usedBytesLocked sums stored value sizes, excluding the key about to be
// overwritten.
func (s *DiskStore) usedBytesLocked(excludeKey string) int64 {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}
	exclude := encodeKey(excludeKey)
	var total int64
	for _, e := range entries {
		if e.IsDir() || e.Name() == exclude {
			continue
		}
		if info, err := e.Info(); err == nil {
			total += info.Size()
		}
	}
	return total
}

// encodeKey maps an arbitrary key to a safe file name. Keys in this system
// are ASCII identifiers plus the "_"/"-"/"." separators and the float cache
// buckets; only the path separators and "%" need escaping.
func encodeKey(key string) string {
	r := strings.NewReplacer("%", "%25", "/", "%2F", "\\", "%5C", ":", "%3A")
	return r.Replace(key) + ".kv"
}

func decodeKey(name string) (string, bool) {
	if !strings.HasSuffix(name, ".kv") {
		return "", false
	}
	name = strings.TrimSuffix(name, ".kv")
	r := strings.NewReplacer("%2F", "/", "%5C", "\\", "%3A", ":", "%25", "%")
	return r.Replace(name), true
}
