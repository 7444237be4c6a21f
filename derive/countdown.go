package derive

import (
	"fmt"
	"math"
	"time"

	"github.com/tartu-transit/buscore/transit"
)

// graceBand is how long past its due time a departure keeps showing as
// "Arriving" before it flips to a plain clock time (and is hidden from
// upcoming lists).
const graceBand = 10 * time.Minute

// EffectiveArrivalSeconds resolves the realtime overlay: a realtime-flagged
// departure's observed arrival replaces the scheduled one for display.
func EffectiveArrivalSeconds(d transit.Departure) int {
	if d.Realtime && d.RealtimeArrival != nil {
		return *d.RealtimeArrival
	}
	return d.ScheduledArrival
}

// ArrivalTime converts seconds-since-local-midnight to a wall-clock moment.
// Values past 86400 land on the next calendar day naturally; a moment more
// than 12 hours in the past is shifted one day forward, which keeps
// late-night rows correct when queried just after midnight. The shift is
// undefined across DST transitions and deliberately left that way.
func ArrivalTime(secs int, now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	t := midnight.Add(time.Duration(secs) * time.Second)
	if now.Sub(t) > 12*time.Hour {
		t = t.Add(24 * time.Hour)
	}
	return t
}

// FormatCountdown renders the user-facing countdown label:
//
//	"Arriving"  within the 10-minute band past the due time
//	"< 1 min"   less than a full minute remains
//	"N min"     2..59 whole minutes (rounded up)
//	"HH:MM"     an hour or more away, or long past due
func FormatCountdown(d transit.Departure, now time.Time) string {
	arrival := ArrivalTime(EffectiveArrivalSeconds(d), now)
	remaining := arrival.Sub(now)

	minutes := int(math.Ceil(remaining.Minutes()))
	switch {
	case minutes <= 0:
		if now.Sub(arrival) < graceBand {
			return "Arriving"
		}
		return clockLabel(arrival)
	case minutes == 1:
		return "< 1 min"
	case minutes < 60:
		return fmt.Sprintf("%d min", minutes)
	default:
		return clockLabel(arrival)
	}
}

// ShouldShowDeparture hides rows more than 10 minutes past due, after
// realtime normalization.
func ShouldShowDeparture(d transit.Departure, now time.Time) bool {
	arrival := ArrivalTime(EffectiveArrivalSeconds(d), now)
	return now.Sub(arrival) < graceBand
}

// IsLate is true for displayed-but-past departures: due already, still
// inside the grace band.
func IsLate(d transit.Departure, now time.Time) bool {
	arrival := ArrivalTime(EffectiveArrivalSeconds(d), now)
	past := now.Sub(arrival)
	return past > 0 && past < graceBand
}

// Delay is a whole-minute deviation from schedule.
type Delay struct {
	IsLate  bool
	Minutes int
}

// DelayInfo reports how far a tracked vehicle runs from its schedule.
// Returns nil when there is no realtime overlay to compare against.
func DelayInfo(d transit.Departure) *Delay {
	if !d.Realtime || d.RealtimeArrival == nil {
		return nil
	}
	diff := *d.RealtimeArrival - d.ScheduledArrival
	minutes := int(math.Round(float64(diff) / 60))
	return &Delay{IsLate: minutes > 0, Minutes: minutes}
}

func clockLabel(t time.Time) string {
	return t.Format("15:04")
}
