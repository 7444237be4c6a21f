package polyline

import (
	"math"
	"testing"

	"github.com/tartu-transit/buscore/transit"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		want    []transit.LatLon
	}{
		{
			name:    "empty input",
			encoded: "",
			want:    []transit.LatLon{},
		},
		{
			name:    "single point",
			encoded: "_p~iF~ps|U",
			want:    []transit.LatLon{{Lat: 38.5, Lon: -120.2}},
		},
		{
			name:    "reference sequence",
			encoded: "_p~iF~ps|U_ulLnnqC_mqNvxq`@",
			want: []transit.LatLon{
				{Lat: 38.5, Lon: -120.2},
				{Lat: 40.7, Lon: -120.95},
				{Lat: 43.252, Lon: -126.453},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.encoded)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d coords, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if math.Abs(got[i].Lat-tt.want[i].Lat) > 1e-9 || math.Abs(got[i].Lon-tt.want[i].Lon) > 1e-9 {
					t.Errorf("coord %d: expected %v, got %v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestDecodeTruncated(t *testing.T) {
	full := Encode([]transit.LatLon{{Lat: 58.38, Lon: 26.72}, {Lat: 58.381, Lon: 26.721}})
	// Cut the string mid-value; the partial trailing coordinate must be dropped
	// and the decoder must not panic.
	got := Decode(full[:len(full)-1])
	if len(got) != 1 {
		t.Fatalf("expected 1 coord from truncated input, got %d", len(got))
	}
}

func TestRoundTrip(t *testing.T) {
	coords := []transit.LatLon{
		{Lat: 58.3776, Lon: 26.7290},
		{Lat: 58.3801, Lon: 26.7312},
		{Lat: 58.3779, Lon: 26.7401},
		{Lat: -1.00005, Lon: 0},
	}
	got := Decode(Encode(coords))
	if len(got) != len(coords) {
		t.Fatalf("expected %d coords, got %d", len(coords), len(got))
	}
	for i := range got {
		if math.Abs(got[i].Lat-coords[i].Lat) > 1e-5 || math.Abs(got[i].Lon-coords[i].Lon) > 1e-5 {
			t.Errorf("coord %d: expected %v, got %v", i, coords[i], got[i])
		}
	}
}
