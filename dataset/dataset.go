// Package dataset serves the bundled transit catalog: a pre-exported
// snapshot of every route with its patterns, stop sequences and road
// geometries, plus the full stop list of the operating region. The snapshot
// ships as application assets and removes a large catalog query from
// startup; the online endpoint is only consulted for short names the
// snapshot lacks.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/tartu-transit/buscore/transit"
)

// routeAsset mirrors the exported JSON: directionId is absent or null for
// patterns the feed never classified.
type routeAsset struct {
	GtfsID    string `json:"gtfsId"`
	ShortName string `json:"shortName"`
	LongName  string `json:"longName"`
	Mode      string `json:"mode"`
	Patterns  []struct {
		Code        string           `json:"code"`
		DirectionID *int             `json:"directionId"`
		Headsign    string           `json:"headsign"`
		Stops       []transit.Stop   `json:"stops"`
		Geometry    []transit.LatLon `json:"geometry"`
	} `json:"patterns"`
}

type Dataset struct {
	routesPath string
	stopsPath  string

	group singleflight.Group

	mu     sync.Mutex
	routes []transit.Route
	stops  []transit.Stop
}

func New(routesPath, stopsPath string) *Dataset {
	return &Dataset{routesPath: routesPath, stopsPath: stopsPath}
}

// LoadAll returns the full route catalog. Concurrent callers during an
// in-flight load share one read; after the first success the parsed list is
// returned without touching the filesystem again. A failed load clears the
// flight slot so a later call can retry.
func (d *Dataset) LoadAll(ctx context.Context) ([]transit.Route, error) {
	d.mu.Lock()
	if d.routes != nil {
		routes := d.routes
		d.mu.Unlock()
		return routes, nil
	}
	d.mu.Unlock()

	v, err, _ := d.group.Do("routes", func() (any, error) {
		routes, err := loadRoutes(d.routesPath)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.routes = routes
		d.mu.Unlock()
		return routes, nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.([]transit.Route), nil
}

// AllStops returns the region's stop list, loaded with the same single-flight
// guarantees as LoadAll.
func (d *Dataset) AllStops(ctx context.Context) ([]transit.Stop, error) {
	d.mu.Lock()
	if d.stops != nil {
		stops := d.stops
		d.mu.Unlock()
		return stops, nil
	}
	d.mu.Unlock()

	v, err, _ := d.group.Do("stops", func() (any, error) {
		var stops []transit.Stop
		if err := readJSON(d.stopsPath, &stops); err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.stops = stops
		d.mu.Unlock()
		return stops, nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.([]transit.Stop), nil
}

// HasShortName reports whether the catalog carries a route with the given
// short name, without forcing callers to refilter.
func (d *Dataset) HasShortName(ctx context.Context, shortName string) (bool, error) {
	routes, err := d.LoadAll(ctx)
	if err != nil {
		return false, err
	}
	for _, r := range routes {
		if r.ShortName == shortName {
			return true, nil
		}
	}
	return false, nil
}

func loadRoutes(path string) ([]transit.Route, error) {
	var assets []routeAsset
	if err := readJSON(path, &assets); err != nil {
		return nil, err
	}
	routes := make([]transit.Route, 0, len(assets))
	for _, a := range assets {
		r := transit.Route{
			GtfsID:    a.GtfsID,
			ShortName: a.ShortName,
			LongName:  a.LongName,
			Mode:      a.Mode,
		}
		for _, p := range a.Patterns {
			dir := -1
			if p.DirectionID != nil {
				dir = *p.DirectionID
			}
			r.Patterns = append(r.Patterns, transit.Pattern{
				Code:        p.Code,
				DirectionID: dir,
				Headsign:    p.Headsign,
				Stops:       p.Stops,
				Geometry:    p.Geometry,
			})
		}
		routes = append(routes, r)
	}
	return routes, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("dataset: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("dataset: parse %s: %w", path, err)
	}
	return nil
}
