package cache

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/tartu-transit/buscore/kvstore"
)

func newTestCache(t *testing.T) (*Cache, *kvstore.MemStore, *time.Time) {
	t.Helper()
	store := kvstore.NewMemStore()
	c := New(store, nil)
	now := time.Date(2025, 5, 12, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return now })
	return c, store, &now
}

func TestBucketKey(t *testing.T) {
	tests := []struct {
		lat, lon float64
		radius   int
		want     string
	}{
		{58.3776, 26.7290, 500, "stops_58.38_26.73_500"},
		{58.3801, 26.7312, 500, "stops_58.38_26.73_500"},
		{58.39, 26.80, 1000, "stops_58.39_26.80_1000"},
	}
	for _, tt := range tests {
		if got := BucketKey(tt.lat, tt.lon, tt.radius); got != tt.want {
			t.Errorf("BucketKey(%v, %v, %d) = %s, want %s", tt.lat, tt.lon, tt.radius, got, tt.want)
		}
	}
}

func TestGetFreshness(t *testing.T) {
	c, _, now := newTestCache(t)

	c.Set("stops_58.38_26.73_500", map[string]string{"hello": "world"})

	if _, ok := c.Get("stops_58.38_26.73_500", StopsTTL); !ok {
		t.Fatal("expected fresh hit immediately after Set")
	}

	*now = now.Add(StopsTTL - time.Second)
	if _, ok := c.Get("stops_58.38_26.73_500", StopsTTL); !ok {
		t.Fatal("expected hit just inside the TTL")
	}

	*now = now.Add(2 * time.Second)
	if _, ok := c.Get("stops_58.38_26.73_500", StopsTTL); ok {
		t.Fatal("expected miss past the TTL")
	}
}

func TestGetStaleBypassesTTL(t *testing.T) {
	c, _, now := newTestCache(t)

	c.Set("stops_58.38_26.73_500", []int{1, 2, 3})
	*now = now.Add(10 * time.Minute)

	if _, ok := c.Get("stops_58.38_26.73_500", StopsTTL); ok {
		t.Fatal("entry should be expired")
	}
	raw, ok := c.GetStale("stops_58.38_26.73_500")
	if !ok {
		t.Fatal("GetStale should return the expired entry")
	}
	var got []int
	if err := json.Unmarshal(raw, &got); err != nil || len(got) != 3 {
		t.Fatalf("unexpected stale payload %s (%v)", raw, err)
	}
}

func TestParseErrorIsMiss(t *testing.T) {
	c, store, _ := newTestCache(t)
	_ = store.Set("stops_58.38_26.73_500", []byte("{not json"))
	if _, ok := c.Get("stops_58.38_26.73_500", StopsTTL); ok {
		t.Fatal("corrupt entry must read as a miss")
	}
	if _, ok := c.GetStale("stops_58.38_26.73_500"); ok {
		t.Fatal("corrupt entry must read as a stale miss too")
	}
}

func TestEvictExpiredDropsOldAndCaps(t *testing.T) {
	c, store, now := newTestCache(t)

	// Three entries that will be expired, then move the clock and add
	// twelve fresh ones.
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("stops_58.3%d_26.70_500", i), i)
	}
	*now = now.Add(StopsTTL + time.Minute)
	for i := 0; i < 12; i++ {
		c.Set(fmt.Sprintf("stops_58.4%d_26.71_500", i), i)
		*now = now.Add(time.Second)
	}

	c.EvictExpired()

	var kept []string
	for _, k := range store.Keys() {
		if strings.HasPrefix(k, StopsKeyPrefix) {
			kept = append(kept, k)
		}
	}
	if len(kept) > stopsLRUCap {
		t.Fatalf("stops entries after eviction: %d, cap is %d", len(kept), stopsLRUCap)
	}
	// The oldest fresh entries are the ones dropped.
	for _, k := range kept {
		if strings.HasPrefix(k, "stops_58.3") {
			t.Errorf("expired entry %s survived eviction", k)
		}
	}
	if containsKey(kept, "stops_58.40_26.71_500") || containsKey(kept, "stops_58.41_26.71_500") {
		t.Error("entries removed by the cap must be strictly older than those kept")
	}
	if !containsKey(kept, "stops_58.411_26.71_500") && !containsKey(kept, "stops_58.42_26.71_500") {
		// sanity: at least one of the newest entries stays
		t.Error("newest entries should survive the cap")
	}
}

func containsKey(keys []string, k string) bool {
	for _, key := range keys {
		if key == k {
			return true
		}
	}
	return false
}

func TestQuotaEvictAndRetry(t *testing.T) {
	c, store, now := newTestCache(t)
	payload := strings.Repeat("x", 100)

	c.Set("stops_58.38_26.73_500", payload)
	used, _ := store.Get("stops_58.38_26.73_500")
	// Quota fits one entry but not two.
	store.MaxBytes = int64(len(used)) + 40

	// Expire the first entry so the retry path can reclaim its space.
	*now = now.Add(StopsTTL + time.Minute)
	c.Set("stops_58.39_26.74_500", payload)

	if _, ok := store.Get("stops_58.39_26.74_500"); !ok {
		t.Fatal("write should succeed after evicting the expired entry")
	}
	if _, ok := store.Get("stops_58.38_26.73_500"); ok {
		t.Fatal("expired entry should have been evicted to make room")
	}
}

func TestQuotaSwallowedWhenEvictionInsufficient(t *testing.T) {
	c, store, _ := newTestCache(t)
	store.MaxBytes = 10

	// Both the write and the post-eviction retry fail; Set must not panic
	// or surface an error.
	c.Set("stops_58.38_26.73_500", strings.Repeat("x", 100))
	// The memory tier still serves the value for the session.
	if _, ok := c.GetStale("stops_58.38_26.73_500"); !ok {
		t.Fatal("memory tier should hold the value despite the disk quota failure")
	}
}

func TestMaintainSoftClearPreserves(t *testing.T) {
	c, store, _ := newTestCache(t)

	seed := map[string]string{
		KeyFavorites:         `[{"gtfsId":"Tartu:1"}]`,
		KeySettings:          `{"nearbyRadius":700}`,
		KeyLanguage:          "et",
		KeyDarkMode:          "true",
		KeyBuildHash:         "abc123",
		KeySoftClearVersion:  "1",
		KeyFullClearVersion:  "1",
		KeyLocationModalSeen: "true",
	}
	for k, v := range seed {
		_ = store.Set(k, []byte(v))
	}
	c.Set("stops_58.38_26.73_500", "transient")
	c.Set("route_3", "transient")

	c.Maintain("2", "1")

	for _, k := range []string{KeyFavorites, KeySettings, KeyLanguage, KeyDarkMode, KeyBuildHash} {
		v, ok := store.Get(k)
		if !ok || string(v) != seed[k] {
			t.Errorf("preserve-set key %s lost or changed: %q", k, v)
		}
	}
	if v, _ := store.Get(KeySoftClearVersion); string(v) != "2" {
		t.Errorf("soft clear marker not updated: %q", v)
	}
	for _, k := range store.Keys() {
		if strings.HasPrefix(k, StopsKeyPrefix) || strings.HasPrefix(k, RouteKeyPrefix) {
			t.Errorf("transient key %s survived soft clear", k)
		}
	}
	if _, ok := store.Get(KeyLocationModalSeen); ok {
		t.Error("location_modal_seen is not in the preserve set")
	}
}

func TestMaintainFullClearWipes(t *testing.T) {
	c, store, _ := newTestCache(t)

	_ = store.Set(KeyFavorites, []byte("[]"))
	_ = store.Set(KeyBuildHash, []byte("abc123"))
	_ = store.Set(KeyFullClearVersion, []byte("1"))
	c.Set("stops_58.38_26.73_500", "transient")

	c.Maintain("5", "2")

	keys := store.Keys()
	if len(keys) != 3 {
		t.Fatalf("expected exactly markers + build hash after full clear, got %v", keys)
	}
	if v, _ := store.Get(KeyFullClearVersion); string(v) != "2" {
		t.Errorf("full clear marker: %q", v)
	}
	if v, _ := store.Get(KeySoftClearVersion); string(v) != "5" {
		t.Errorf("soft clear marker: %q", v)
	}
	if v, _ := store.Get(KeyBuildHash); string(v) != "abc123" {
		t.Errorf("build hash: %q", v)
	}
}

func TestMaintainFullClearNever(t *testing.T) {
	c, store, _ := newTestCache(t)

	_ = store.Set(KeyFavorites, []byte("[]"))
	_ = store.Set(KeySoftClearVersion, []byte("1"))
	_ = store.Set(KeyFullClearVersion, []byte("old"))

	c.Maintain("1", FullClearNever)

	if _, ok := store.Get(KeyFavorites); !ok {
		t.Error("full clear must not run when the compiled version is never")
	}
}

func TestMaintainNoBumpKeepsTransientDropped(t *testing.T) {
	c, store, _ := newTestCache(t)

	_ = store.Set(KeySoftClearVersion, []byte("1"))
	_ = store.Set(KeyFullClearVersion, []byte("1"))
	_ = store.Set(KeyFavorites, []byte("[]"))
	c.Set("stops_58.38_26.73_500", "x")
	c.Set("route_21", "x")

	c.Maintain("1", "1")

	if _, ok := store.Get(KeyFavorites); !ok {
		t.Error("favorites must survive a no-op start")
	}
	for _, k := range store.Keys() {
		if strings.HasPrefix(k, StopsKeyPrefix) || strings.HasPrefix(k, RouteKeyPrefix) {
			t.Errorf("transient key %s must be dropped on every start", k)
		}
	}
}
