// Package polyline implements the encoded-polyline format used by OTP leg
// geometries and route shapes: delta-encoded coordinates as variable-length
// base-32 values with the sign bit in the low position, precision 1e-5.
package polyline

import "github.com/tartu-transit/buscore/transit"

const precision = 1e5

// Decode converts an encoded polyline into a coordinate sequence. An empty
// string yields an empty slice. Decode never fails: a truncated trailing
// value is dropped.
func Decode(encoded string) []transit.LatLon {
	coords := []transit.LatLon{}
	var lat, lon int64
	i := 0
	for i < len(encoded) {
		dLat, next, ok := decodeValue(encoded, i)
		if !ok {
			break
		}
		dLon, after, ok := decodeValue(encoded, next)
		if !ok {
			break
		}
		lat += dLat
		lon += dLon
		coords = append(coords, transit.LatLon{
			Lat: float64(lat) / precision,
			Lon: float64(lon) / precision,
		})
		i = after
	}
	return coords
}

// decodeValue reads one varint starting at index i and returns the signed
// delta and the index after it. ok is false when the input ends mid-value.
func decodeValue(encoded string, i int) (int64, int, bool) {
	var result int64
	var shift uint
	for {
		if i >= len(encoded) {
			return 0, i, false
		}
		b := int64(encoded[i]) - 63
		i++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), i, true
	}
	return result >> 1, i, true
}

// Encode is the inverse of Decode. The repository never encodes on the wire;
// this exists for fixtures and round-trip checks.
func Encode(coords []transit.LatLon) string {
	var out []byte
	var prevLat, prevLon int64
	for _, c := range coords {
		lat := int64(round(c.Lat * precision))
		lon := int64(round(c.Lon * precision))
		out = encodeValue(out, lat-prevLat)
		out = encodeValue(out, lon-prevLon)
		prevLat, prevLon = lat, lon
	}
	return string(out)
}

func encodeValue(dst []byte, v int64) []byte {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		dst = append(dst, byte((0x20|(u&0x1f))+63))
		u >>= 5
	}
	return append(dst, byte(u+63))
}

func round(f float64) float64 {
	if f < 0 {
		return float64(int64(f - 0.5))
	}
	return float64(int64(f + 0.5))
}
