package repo

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/tartu-transit/buscore/client"
	"github.com/tartu-transit/buscore/transit"
)

// DailyTimetable returns a stop's departures over a full service day,
// sorted by scheduled departure.
func (r *Repository) DailyTimetable(ctx context.Context, stopID string) ([]transit.Departure, error) {
	raw, err := r.do(ctx, "dailyTimetable", client.QueryDailyTimetable, map[string]any{"id": stopID})
	if err != nil {
		return nil, err
	}
	var data client.StopData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	if data.Stop == nil {
		return nil, nil
	}

	departures := data.Stop.ToStop().Departures
	sort.SliceStable(departures, func(i, j int) bool {
		return departures[i].ScheduledDeparture < departures[j].ScheduledDeparture
	})
	return departures, nil
}

// TimetableByRoute groups a day's departures by route short name for the
// timetable display. Departures without a route group under "".
func TimetableByRoute(departures []transit.Departure) map[string][]transit.Departure {
	grouped := map[string][]transit.Departure{}
	for _, d := range departures {
		name := ""
		if d.Trip != nil && d.Trip.Route != nil {
			name = d.Trip.Route.ShortName
		}
		grouped[name] = append(grouped[name], d)
	}
	return grouped
}
