package dataset

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

const routesJSON = `[
  {
    "gtfsId": "Tartu:3",
    "shortName": "3",
    "longName": "Nõlvaku - Lõunakeskus",
    "mode": "BUS",
    "patterns": [
      {
        "code": "Tartu:3:0:01",
        "directionId": 0,
        "headsign": "Lõunakeskus",
        "stops": [
          {"gtfsId": "Tartu:1", "name": "Nõlvaku", "lat": 58.34, "lon": 26.68},
          {"gtfsId": "Tartu:2", "name": "Kesklinn", "lat": 58.38, "lon": 26.72}
        ],
        "geometry": [{"lat": 58.34, "lon": 26.68}, {"lat": 58.38, "lon": 26.72}]
      },
      {
        "code": "Tartu:3:1:01",
        "directionId": null,
        "headsign": "Nõlvaku",
        "stops": [
          {"gtfsId": "Tartu:2", "name": "Kesklinn", "lat": 58.38, "lon": 26.72},
          {"gtfsId": "Tartu:1", "name": "Nõlvaku", "lat": 58.34, "lon": 26.68}
        ],
        "geometry": []
      }
    ]
  }
]`

const stopsJSON = `[
  {"gtfsId": "Tartu:1", "name": "Nõlvaku", "code": "7801", "lat": 58.34, "lon": 26.68},
  {"gtfsId": "Tartu:2", "name": "Kesklinn", "code": "7802", "lat": 58.38, "lon": 26.72}
]`

func writeAssets(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	routesPath := filepath.Join(dir, "routes.json")
	stopsPath := filepath.Join(dir, "stops.json")
	if err := os.WriteFile(routesPath, []byte(routesJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stopsPath, []byte(stopsJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return routesPath, stopsPath
}

func TestLoadAll(t *testing.T) {
	routesPath, stopsPath := writeAssets(t)
	d := New(routesPath, stopsPath)

	routes, err := d.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(routes) != 1 || routes[0].ShortName != "3" {
		t.Fatalf("unexpected catalog: %+v", routes)
	}
	if routes[0].Patterns[0].DirectionID != 0 {
		t.Errorf("explicit directionId should survive: %d", routes[0].Patterns[0].DirectionID)
	}
	if routes[0].Patterns[1].DirectionID != -1 {
		t.Errorf("null directionId should map to -1: %d", routes[0].Patterns[1].DirectionID)
	}
}

func TestLoadAllConcurrent(t *testing.T) {
	routesPath, stopsPath := writeAssets(t)
	d := New(routesPath, stopsPath)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := d.LoadAll(context.Background()); err != nil {
				t.Errorf("concurrent LoadAll: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestLoadAllRetryAfterFailure(t *testing.T) {
	dir := t.TempDir()
	routesPath := filepath.Join(dir, "routes.json")
	d := New(routesPath, filepath.Join(dir, "stops.json"))

	if _, err := d.LoadAll(context.Background()); err == nil {
		t.Fatal("expected failure for a missing asset")
	}

	// The failed flight must not be latched: create the asset and retry.
	if err := os.WriteFile(routesPath, []byte(routesJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	routes, err := d.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if len(routes) != 1 {
		t.Fatalf("unexpected catalog on retry: %+v", routes)
	}
}

func TestAllStops(t *testing.T) {
	routesPath, stopsPath := writeAssets(t)
	d := New(routesPath, stopsPath)

	stops, err := d.AllStops(context.Background())
	if err != nil {
		t.Fatalf("AllStops: %v", err)
	}
	if len(stops) != 2 || stops[1].Code != "7802" {
		t.Fatalf("unexpected stop list: %+v", stops)
	}
}

func TestHasShortName(t *testing.T) {
	routesPath, stopsPath := writeAssets(t)
	d := New(routesPath, stopsPath)

	ok, err := d.HasShortName(context.Background(), "3")
	if err != nil || !ok {
		t.Fatalf("expected catalog to contain route 3 (%v)", err)
	}
	ok, err = d.HasShortName(context.Background(), "99")
	if err != nil || ok {
		t.Fatalf("route 99 should be absent (%v)", err)
	}
}
