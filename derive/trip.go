package derive

import "github.com/tartu-transit/buscore/transit"

// InferNextStop returns the name of the stop one position after the
// boarding point within the departure's trip, or "" when the trip ends
// there or carries no stop-time sequence. Stop positions are 1-based and
// monotonic along a trip.
func InferNextStop(d transit.Departure) string {
	if d.Trip == nil {
		return ""
	}
	for _, st := range d.Trip.StopTimes {
		if st.StopPosition == d.StopPosition+1 && st.Stop != nil {
			return st.Stop.Name
		}
	}
	return ""
}

// UpcomingStops returns up to limit stop-times strictly after the boarding
// position, in trip order. Backs the "next stops on this bus" display.
func UpcomingStops(d transit.Departure, limit int) []transit.StopTime {
	if d.Trip == nil || limit <= 0 {
		return nil
	}
	var out []transit.StopTime
	for _, st := range d.Trip.StopTimes {
		if st.StopPosition > d.StopPosition {
			out = append(out, st)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// FindConnection locates the first stop of the departure's trip that is in
// destinationIDs and lies after the boarding position. Used by "how to get
// here" to tell the rider where to leave the bus.
func FindConnection(d transit.Departure, destinationIDs map[string]bool) (transit.StopTime, bool) {
	if d.Trip == nil || len(destinationIDs) == 0 {
		return transit.StopTime{}, false
	}
	for _, st := range d.Trip.StopTimes {
		if st.StopPosition <= d.StopPosition || st.Stop == nil {
			continue
		}
		if destinationIDs[st.Stop.GtfsID] {
			return st, true
		}
	}
	return transit.StopTime{}, false
}
