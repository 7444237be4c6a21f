package derive

import (
	"reflect"
	"testing"

	"github.com/tartu-transit/buscore/transit"
)

func pattern(dir int, ids ...string) transit.Pattern {
	p := transit.Pattern{DirectionID: dir}
	for _, id := range ids {
		p.Stops = append(p.Stops, transit.Stop{GtfsID: id})
	}
	return p
}

func TestInferDirections(t *testing.T) {
	tests := []struct {
		name     string
		patterns []transit.Pattern
		want     []int
	}{
		{
			name: "explicit ids pass through",
			patterns: []transit.Pattern{
				pattern(1, "A", "B"),
				pattern(0, "B", "A"),
			},
			want: []int{1, 0},
		},
		{
			name: "reversed pair gets opposite slots",
			patterns: []transit.Pattern{
				pattern(-1, "A", "B", "C", "D", "E"),
				pattern(-1, "E", "D", "C", "B", "A"),
			},
			want: []int{0, 1},
		},
		{
			name: "forward match joins its twin",
			patterns: []transit.Pattern{
				pattern(-1, "A", "B", "C", "D", "E"),
				pattern(-1, "E", "D", "C", "B", "A"),
				pattern(-1, "A", "B", "C", "D", "E"),
			},
			want: []int{0, 1, 0},
		},
		{
			name: "short variant still reverse-matches",
			patterns: []transit.Pattern{
				pattern(-1, "A", "B", "C", "D", "E"),
				pattern(-1, "E", "D", "C"),
			},
			// Overlap length 3; E,D,C against the tail of the first
			// reversed is a full match.
			want: []int{0, 1},
		},
		{
			name: "unrelated patterns take free slots",
			patterns: []transit.Pattern{
				pattern(-1, "A", "B", "C"),
				pattern(-1, "X", "Y", "Z"),
			},
			want: []int{0, 1},
		},
		{
			name: "inference anchors on an explicit id",
			patterns: []transit.Pattern{
				pattern(1, "A", "B", "C", "D", "E"),
				pattern(-1, "E", "D", "C", "B", "A"),
			},
			want: []int{1, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferDirections(tt.patterns)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchRulesMutuallyExclusive(t *testing.T) {
	// For any pair with at least 3 overlapping distinct stops, a sequence
	// cannot clear the 60% bar both forwards and in reverse.
	a := []string{"A", "B", "C", "D", "E"}
	b := []string{"E", "D", "C", "B", "A"}
	if forwardMatchRatio(a, b) >= matchThreshold && reverseMatchRatio(a, b) >= matchThreshold {
		t.Fatal("forward and reverse match must not both hold")
	}
	if reverseMatchRatio(a, b) < matchThreshold {
		t.Error("full reversal should clear the reverse threshold")
	}
	if forwardMatchRatio(a, a) < matchThreshold {
		t.Error("identity should clear the forward threshold")
	}
}

func TestLongestPerDirection(t *testing.T) {
	patterns := []transit.Pattern{
		pattern(0, "A", "B", "C"),
		pattern(0, "A", "B", "C", "D", "E"),
		pattern(1, "E", "D", "C", "B", "A"),
	}
	dirs := []int{0, 0, 1}

	best := LongestPerDirection(patterns, dirs)
	if best[0] != 1 {
		t.Errorf("direction 0 should keep the five-stop variant, got index %d", best[0])
	}
	if best[1] != 2 {
		t.Errorf("direction 1 should keep its only pattern, got index %d", best[1])
	}
}
