package derive

import "github.com/tartu-transit/buscore/transit"

// matchThreshold is the fraction of overlapping-length stop ids that must
// agree for two patterns to count as same- or opposite-direction. The exact
// value is calibration, not an invariant.
const matchThreshold = 0.6

// InferDirections assigns a direction slot (0 or 1) to every pattern of one
// route. Patterns carrying a directionId keep it. For the rest, each is
// compared against the patterns already placed: a reverse stop-sequence
// match puts it opposite, a forward match puts it alongside, and with no
// match it takes the first free slot (0, then 1). The returned slice is
// aligned with the input.
func InferDirections(patterns []transit.Pattern) []int {
	dirs := make([]int, len(patterns))
	for i := range dirs {
		dirs[i] = -1
	}

	for i, p := range patterns {
		if p.DirectionID >= 0 {
			dirs[i] = p.DirectionID
			continue
		}

		assigned := false
		for j := 0; j < i && !assigned; j++ {
			if dirs[j] < 0 {
				continue
			}
			switch {
			case reverseMatchRatio(stopIDs(p), stopIDs(patterns[j])) >= matchThreshold:
				dirs[i] = 1 - dirs[j]
				assigned = true
			case forwardMatchRatio(stopIDs(p), stopIDs(patterns[j])) >= matchThreshold:
				dirs[i] = dirs[j]
				assigned = true
			}
		}
		if !assigned {
			dirs[i] = freeSlot(dirs[:i])
		}
	}
	return dirs
}

// LongestPerDirection keeps, for each direction slot, the pattern with the
// most stops (the longest variant) and drops the rest. Returned map is
// direction -> index into patterns.
func LongestPerDirection(patterns []transit.Pattern, dirs []int) map[int]int {
	best := map[int]int{}
	for i := range patterns {
		d := dirs[i]
		cur, ok := best[d]
		if !ok || len(patterns[i].Stops) > len(patterns[cur].Stops) {
			best[d] = i
		}
	}
	return best
}

func stopIDs(p transit.Pattern) []string {
	ids := make([]string, len(p.Stops))
	for i, s := range p.Stops {
		ids[i] = s.GtfsID
	}
	return ids
}

// forwardMatchRatio compares the first k ids of both sequences position by
// position, k being the overlapping length.
func forwardMatchRatio(a, b []string) float64 {
	k := min(len(a), len(b))
	if k == 0 {
		return 0
	}
	matches := 0
	for i := 0; i < k; i++ {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(k)
}

// reverseMatchRatio compares a against b walked backwards.
func reverseMatchRatio(a, b []string) float64 {
	k := min(len(a), len(b))
	if k == 0 {
		return 0
	}
	matches := 0
	for i := 0; i < k; i++ {
		if a[i] == b[len(b)-1-i] {
			matches++
		}
	}
	return float64(matches) / float64(k)
}

func freeSlot(used []int) int {
	for _, d := range used {
		if d == 0 {
			return 1
		}
	}
	return 0
}
