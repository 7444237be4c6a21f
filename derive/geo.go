package derive

import (
	"math"
	"sort"

	"github.com/tartu-transit/buscore/transit"
)

const earthRadiusM = 6371000.0

// Haversine returns the great-circle distance between two coordinates in
// meters.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Bounds is a latitude/longitude rectangle, min inclusive of the south-west
// corner.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Widen grows the rectangle by the given fraction per axis, split evenly
// between both sides.
func (b Bounds) Widen(fraction float64) Bounds {
	latMargin := (b.MaxLat - b.MinLat) * fraction / 2
	lonMargin := (b.MaxLon - b.MinLon) * fraction / 2
	return Bounds{
		MinLat: b.MinLat - latMargin,
		MaxLat: b.MaxLat + latMargin,
		MinLon: b.MinLon - lonMargin,
		MaxLon: b.MaxLon + lonMargin,
	}
}

func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// ViewportFilter returns the stops inside the visible bounds widened by 50%
// on each axis, so panning a little does not pop markers at the edges.
func ViewportFilter(stops []transit.Stop, visible Bounds) []transit.Stop {
	widened := visible.Widen(0.5)
	out := make([]transit.Stop, 0, len(stops))
	for _, s := range stops {
		if widened.Contains(s.Lat, s.Lon) {
			out = append(out, s)
		}
	}
	return out
}

// DedupeStops keeps the first occurrence of each stop id, preserving order.
func DedupeStops(stops []transit.Stop) []transit.Stop {
	seen := make(map[string]bool, len(stops))
	out := make([]transit.Stop, 0, len(stops))
	for _, s := range stops {
		if seen[s.GtfsID] {
			continue
		}
		seen[s.GtfsID] = true
		out = append(out, s)
	}
	return out
}

// AdjustStopPositions spreads markers that would render on top of each
// other. Stops closer than the jitter distance are pushed apart along the
// vector between them; coincident stops get a direction derived from their
// rank so the result is stable. Iteration follows sorted stop ids, making
// the output deterministic in (stops, zoom) and byte-identical across
// renders. The input slice is not modified.
func AdjustStopPositions(stops []transit.Stop, zoom int) []transit.Stop {
	out := make([]transit.Stop, len(stops))
	copy(out, stops)
	sort.Slice(out, func(i, j int) bool { return out[i].GtfsID < out[j].GtfsID })

	offset := jitterMeters(zoom)
	for j := 1; j < len(out); j++ {
		for i := 0; i < j; i++ {
			d := Haversine(out[i].Lat, out[i].Lon, out[j].Lat, out[j].Lon)
			if d >= offset {
				continue
			}
			dLat := out[j].Lat - out[i].Lat
			dLon := out[j].Lon - out[i].Lon
			norm := math.Hypot(dLat, dLon)
			if norm == 0 {
				// Coincident markers: fan out clockwise by rank.
				angle := float64(j%8) * math.Pi / 4
				dLat, dLon = math.Cos(angle), math.Sin(angle)
				norm = 1
			}
			scale := metersToLatDegrees(offset) / norm
			out[j].Lat = out[i].Lat + dLat*scale
			out[j].Lon = out[i].Lon + dLon*scale
		}
	}
	return out
}

// jitterMeters maps zoom to an offset between roughly 11 and 17 meters:
// further out, markers need more separation to stay distinguishable.
func jitterMeters(zoom int) float64 {
	m := 11 + float64(17-zoom)
	if m < 11 {
		return 11
	}
	if m > 17 {
		return 17
	}
	return m
}

func metersToLatDegrees(m float64) float64 {
	return m / 111320
}
