package favorites

import (
	"testing"

	"github.com/tartu-transit/buscore/cache"
	"github.com/tartu-transit/buscore/kvstore"
	"github.com/tartu-transit/buscore/transit"
)

func fav(id, name string) transit.Favorite {
	return transit.Favorite{GtfsID: id, Name: name, AddedAt: 1747000000000}
}

func TestAddRemoveOrder(t *testing.T) {
	s := NewStore(kvstore.NewMemStore())

	s.Add(fav("Tartu:1", "Kesklinn"))
	s.Add(fav("Tartu:2", "Raatuse"))
	s.Add(fav("Tartu:1", "Kesklinn")) // duplicate, ignored
	s.Add(fav("Tartu:3", "Annelinn"))
	s.Remove("Tartu:2")

	got := s.List()
	if len(got) != 2 {
		t.Fatalf("expected 2 favorites, got %d", len(got))
	}
	if got[0].GtfsID != "Tartu:1" || got[1].GtfsID != "Tartu:3" {
		t.Errorf("insertion order lost: %v, %v", got[0].GtfsID, got[1].GtfsID)
	}
	if !s.IsFavorite("Tartu:1") || s.IsFavorite("Tartu:2") {
		t.Error("membership wrong after remove")
	}
}

func TestToggle(t *testing.T) {
	s := NewStore(kvstore.NewMemStore())

	if on := s.Toggle(fav("Tartu:1", "Kesklinn")); !on {
		t.Error("first toggle pins")
	}
	if on := s.Toggle(fav("Tartu:1", "Kesklinn")); on {
		t.Error("second toggle unpins")
	}
	if s.Count() != 0 {
		t.Errorf("count = %d", s.Count())
	}
}

func TestPersistAndReload(t *testing.T) {
	kv := kvstore.NewMemStore()

	s := NewStore(kv)
	s.Add(fav("Tartu:1", "Kesklinn"))
	s.Add(fav("Tartu:2", "Raatuse"))

	reloaded := NewStore(kv)
	got := reloaded.List()
	if len(got) != 2 || got[1].Name != "Raatuse" {
		t.Errorf("reload lost data: %+v", got)
	}

	reloaded.ClearAll()
	if raw, ok := kv.Get(cache.KeyFavorites); !ok || string(raw) != "null" {
		t.Errorf("clear should persist an empty list, got %q", raw)
	}
	if len(NewStore(kv).List()) != 0 {
		t.Error("cleared store should reload empty")
	}
}

func TestCorruptPayloadStartsEmpty(t *testing.T) {
	kv := kvstore.NewMemStore()
	kv.Set(cache.KeyFavorites, []byte(`{broken`))

	if got := NewStore(kv).List(); len(got) != 0 {
		t.Errorf("corrupt payload should be discarded, got %v", got)
	}
}

func TestWriteFailureKeepsSession(t *testing.T) {
	kv := kvstore.NewMemStore()
	kv.MaxBytes = 8 // far too small for any payload
	s := NewStore(kv)

	s.Add(fav("Tartu:1", "Kesklinn"))
	if !s.IsFavorite("Tartu:1") {
		t.Error("in-memory list stays authoritative when the write fails")
	}
}

func TestListReturnsCopy(t *testing.T) {
	s := NewStore(kvstore.NewMemStore())
	s.Add(fav("Tartu:1", "Kesklinn"))

	got := s.List()
	got[0].Name = "mutated"
	if s.List()[0].Name != "Kesklinn" {
		t.Error("List must not expose internal state")
	}
}
