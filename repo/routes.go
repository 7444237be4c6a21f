package repo

import (
	"context"
	"sort"

	"github.com/tartu-transit/buscore/derive"
	"github.com/tartu-transit/buscore/transit"
)

// CityBounds restricts a route overview to routes touching a circle around
// a center point. Radius is meters.
type CityBounds struct {
	Lat    float64
	Lon    float64
	Radius float64
}

// RouteShapes is what the map draws for a set of selected routes: the union
// of their stops and one pattern per route direction.
type RouteShapes struct {
	Stops    []transit.Stop
	Patterns []transit.Pattern
}

// RoutesByShortNames resolves the selected short names against the bundled
// dataset. Patterns are grouped by inferred direction and only the longest
// variant per direction survives; its geometry falls back to the straight
// line through its stops when the asset carries none. Never touches the
// network; deterministic for a fixed dataset.
func (r *Repository) RoutesByShortNames(ctx context.Context, names []string, bounds *CityBounds) (RouteShapes, error) {
	routes, err := r.dataset.LoadAll(ctx)
	if err != nil {
		return RouteShapes{}, err
	}

	selected := make(map[string]bool, len(names))
	for _, n := range names {
		selected[n] = true
	}

	var shapes RouteShapes
	var allStops []transit.Stop
	for _, route := range routes {
		if !selected[route.ShortName] {
			continue
		}
		if bounds != nil && !touchesBounds(route, *bounds) {
			continue
		}

		dirs := derive.InferDirections(route.Patterns)
		best := derive.LongestPerDirection(route.Patterns, dirs)
		keptDirs := make([]int, 0, len(best))
		for dir := range best {
			keptDirs = append(keptDirs, dir)
		}
		sort.Ints(keptDirs)
		for _, dir := range keptDirs {
			p := route.Patterns[best[dir]]
			if len(p.Geometry) == 0 {
				p.Geometry = straightLine(p.Stops)
			}
			shapes.Patterns = append(shapes.Patterns, p)
			allStops = append(allStops, p.Stops...)
		}
	}

	shapes.Stops = derive.DedupeStops(allStops)
	return shapes, nil
}

func touchesBounds(route transit.Route, b CityBounds) bool {
	for _, p := range route.Patterns {
		for _, s := range p.Stops {
			if derive.Haversine(b.Lat, b.Lon, s.Lat, s.Lon) <= b.Radius {
				return true
			}
		}
	}
	return false
}

func straightLine(stops []transit.Stop) []transit.LatLon {
	line := make([]transit.LatLon, 0, len(stops))
	for _, s := range stops {
		line = append(line, transit.LatLon{Lat: s.Lat, Lon: s.Lon})
	}
	return line
}
