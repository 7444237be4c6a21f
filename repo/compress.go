package repo

import (
	"encoding/json"

	"github.com/tartu-transit/buscore/transit"
)

// The cached form of a nearby-stops response is a projection, not the full
// payload: per departure only the schedule fields, a slim route and at most
// the next three stops after the boarding position survive. Full trips are
// large and two minutes stale anyway.

const cachedNextStops = 3

type compactRoute struct {
	GtfsID    string `json:"id"`
	ShortName string `json:"shortName"`
	LongName  string `json:"longName,omitempty"`
}

type compactStopRef struct {
	GtfsID       string `json:"gtfsId"`
	Name         string `json:"name"`
	StopPosition int    `json:"stopPosition"`
}

type compactDeparture struct {
	ScheduledArrival   int              `json:"scheduledArrival"`
	ScheduledDeparture int              `json:"scheduledDeparture"`
	Headsign           string           `json:"headsign,omitempty"`
	StopPosition       int              `json:"stopPosition"`
	Route              *compactRoute    `json:"route,omitempty"`
	NextStops          []compactStopRef `json:"nextStops,omitempty"`
}

type compactStop struct {
	GtfsID     string             `json:"gtfsId"`
	Name       string             `json:"name"`
	Code       string             `json:"code,omitempty"`
	Lat        float64            `json:"lat"`
	Lon        float64            `json:"lon"`
	Distance   *float64           `json:"distance,omitempty"`
	Departures []compactDeparture `json:"departures,omitempty"`
}

func compressStops(stops []transit.Stop) []compactStop {
	out := make([]compactStop, 0, len(stops))
	for _, s := range stops {
		cs := compactStop{
			GtfsID:   s.GtfsID,
			Name:     s.Name,
			Code:     s.Code,
			Lat:      s.Lat,
			Lon:      s.Lon,
			Distance: s.Distance,
		}
		for _, d := range s.Departures {
			cd := compactDeparture{
				ScheduledArrival:   d.ScheduledArrival,
				ScheduledDeparture: d.ScheduledDeparture,
				Headsign:           d.Headsign,
				StopPosition:       d.StopPosition,
			}
			if d.Trip != nil {
				if d.Trip.Route != nil {
					cd.Route = &compactRoute{
						GtfsID:    d.Trip.Route.GtfsID,
						ShortName: d.Trip.Route.ShortName,
						LongName:  d.Trip.Route.LongName,
					}
				}
				for _, st := range d.Trip.StopTimes {
					if st.StopPosition <= d.StopPosition || st.Stop == nil {
						continue
					}
					cd.NextStops = append(cd.NextStops, compactStopRef{
						GtfsID:       st.Stop.GtfsID,
						Name:         st.Stop.Name,
						StopPosition: st.StopPosition,
					})
					if len(cd.NextStops) == cachedNextStops {
						break
					}
				}
			}
			cs.Departures = append(cs.Departures, cd)
		}
		out = append(out, cs)
	}
	return out
}

// rehydrateStops reconstructs domain stops from the cached projection. The
// rebuilt trip carries only the cached next stops, which is enough for the
// "upcoming stops" display between refreshes.
func rehydrateStops(raw json.RawMessage) ([]transit.Stop, error) {
	var compact []compactStop
	if err := json.Unmarshal(raw, &compact); err != nil {
		return nil, err
	}
	stops := make([]transit.Stop, 0, len(compact))
	for _, cs := range compact {
		s := transit.Stop{
			GtfsID:   cs.GtfsID,
			Name:     cs.Name,
			Code:     cs.Code,
			Lat:      cs.Lat,
			Lon:      cs.Lon,
			Distance: cs.Distance,
		}
		for _, cd := range cs.Departures {
			d := transit.Departure{
				ScheduledArrival:   cd.ScheduledArrival,
				ScheduledDeparture: cd.ScheduledDeparture,
				Headsign:           cd.Headsign,
				StopPosition:       cd.StopPosition,
			}
			if cd.Route != nil || len(cd.NextStops) > 0 {
				trip := &transit.Trip{}
				if cd.Route != nil {
					trip.Route = &transit.Route{
						GtfsID:    cd.Route.GtfsID,
						ShortName: cd.Route.ShortName,
						LongName:  cd.Route.LongName,
					}
				}
				for _, ref := range cd.NextStops {
					trip.StopTimes = append(trip.StopTimes, transit.StopTime{
						Stop:         &transit.Stop{GtfsID: ref.GtfsID, Name: ref.Name},
						StopPosition: ref.StopPosition,
					})
				}
				d.Trip = trip
			}
			s.Departures = append(s.Departures, d)
		}
		stops = append(stops, s)
	}
	return stops, nil
}
