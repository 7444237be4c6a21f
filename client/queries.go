package client

import "github.com/tartu-transit/buscore/transit"

// The query shapes issued against the transit endpoint. Variables are typed
// by the endpoint's schema; the feed prefix filter is applied client-side.

const QueryStopsByRadius = `
query StopsByRadius($lat: Float!, $lon: Float!, $radius: Int!) {
  stopsByRadius(lat: $lat, lon: $lon, radius: $radius) {
    edges {
      node {
        stop {
          gtfsId
          name
          code
          lat
          lon
          stoptimesWithoutPatterns(numberOfDepartures: 20, omitCanceled: false) {
            scheduledArrival
            scheduledDeparture
            realtimeArrival
            arrivalDelay
            realtime
            stopPosition
            headsign
            trip {
              route { shortName longName gtfsId }
              stoptimes {
                stop { gtfsId name }
                stopPosition
              }
            }
          }
        }
        distance
      }
    }
  }
}`

const QueryStopByID = `
query StopByID($id: String!) {
  stop(id: $id) {
    gtfsId
    name
    code
    lat
    lon
    stoptimesWithoutPatterns(numberOfDepartures: 20, omitCanceled: false) {
      scheduledArrival
      scheduledDeparture
      realtimeArrival
      arrivalDelay
      realtime
      stopPosition
      headsign
      trip {
        route { shortName longName gtfsId }
        stoptimes {
          stop { gtfsId name }
          stopPosition
        }
      }
    }
  }
}`

const QueryDailyTimetable = `
query DailyTimetable($id: String!) {
  stop(id: $id) {
    gtfsId
    name
    code
    lat
    lon
    stoptimesWithoutPatterns(timeRange: 86400, numberOfDepartures: 200, omitCanceled: false) {
      scheduledArrival
      scheduledDeparture
      realtimeArrival
      arrivalDelay
      realtime
      stopPosition
      headsign
      trip {
        route { shortName longName gtfsId }
      }
    }
  }
}`

const QueryRoutes = `
query Routes($feeds: [String!]) {
  routes(feeds: $feeds) {
    gtfsId
    shortName
    longName
    mode
    patterns {
      code
      directionId
      headsign
      stops { gtfsId name code lat lon }
      geometry { lat lon }
    }
  }
}`

const QueryPlan = `
query Plan($fromLat: Float!, $fromLon: Float!, $toLat: Float!, $toLon: Float!, $numItineraries: Int!, $date: String, $time: String, $modes: [TransportMode!]) {
  plan(
    from: {lat: $fromLat, lon: $fromLon}
    to: {lat: $toLat, lon: $toLon}
    numItineraries: $numItineraries
    date: $date
    time: $time
    transportModes: $modes
  ) {
    itineraries {
      startTime
      endTime
      duration
      walkDistance
      legs {
        mode
        distance
        duration
        startTime
        endTime
        realTime
        from { name lat lon stop { gtfsId name code lat lon } }
        to { name lat lon stop { gtfsId name code lat lon } }
        route { gtfsId shortName longName }
        intermediateStops { name lat lon }
        legGeometry { points }
      }
    }
  }
}`

// Wire shapes. These mirror the endpoint's JSON exactly; mapping to the
// domain model happens in ToStop / ToPlan so nothing outside this package
// sees GraphQL field names.

type WireStopTime struct {
	ScheduledArrival   int    `json:"scheduledArrival"`
	ScheduledDeparture int    `json:"scheduledDeparture"`
	RealtimeArrival    *int   `json:"realtimeArrival"`
	ArrivalDelay       *int   `json:"arrivalDelay"`
	Realtime           bool   `json:"realtime"`
	StopPosition       int    `json:"stopPosition"`
	Headsign           string `json:"headsign"`
	Trip               *struct {
		Route *struct {
			ShortName string `json:"shortName"`
			LongName  string `json:"longName"`
			GtfsID    string `json:"gtfsId"`
		} `json:"route"`
		StopTimes []struct {
			Stop *struct {
				GtfsID string `json:"gtfsId"`
				Name   string `json:"name"`
			} `json:"stop"`
			StopPosition int `json:"stopPosition"`
		} `json:"stoptimes"`
	} `json:"trip"`
}

type WireStop struct {
	GtfsID    string         `json:"gtfsId"`
	Name      string         `json:"name"`
	Code      string         `json:"code"`
	Lat       float64        `json:"lat"`
	Lon       float64        `json:"lon"`
	StopTimes []WireStopTime `json:"stoptimesWithoutPatterns"`
}

type StopsByRadiusData struct {
	StopsByRadius struct {
		Edges []struct {
			Node struct {
				Stop     *WireStop `json:"stop"`
				Distance float64   `json:"distance"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"stopsByRadius"`
}

type StopData struct {
	Stop *WireStop `json:"stop"`
}

type PlanData struct {
	Plan struct {
		Itineraries []WireItinerary `json:"itineraries"`
	} `json:"plan"`
}

type WireItinerary struct {
	StartTime    int64     `json:"startTime"`
	EndTime      int64     `json:"endTime"`
	Duration     float64   `json:"duration"`
	WalkDistance float64   `json:"walkDistance"`
	Legs         []WireLeg `json:"legs"`
}

type WireLeg struct {
	Mode              string    `json:"mode"`
	Distance          float64   `json:"distance"`
	Duration          float64   `json:"duration"`
	StartTime         int64     `json:"startTime"`
	EndTime           int64     `json:"endTime"`
	RealTime          bool      `json:"realTime"`
	From              WirePlace `json:"from"`
	To                WirePlace `json:"to"`
	Route             *struct {
		GtfsID    string `json:"gtfsId"`
		ShortName string `json:"shortName"`
		LongName  string `json:"longName"`
	} `json:"route"`
	IntermediateStops []WirePlace `json:"intermediateStops"`
	LegGeometry       *struct {
		Points string `json:"points"`
	} `json:"legGeometry"`
}

type WirePlace struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Stop *struct {
		GtfsID string  `json:"gtfsId"`
		Name   string  `json:"name"`
		Code   string  `json:"code"`
		Lat    float64 `json:"lat"`
		Lon    float64 `json:"lon"`
	} `json:"stop"`
}

type RoutesData struct {
	Routes []struct {
		GtfsID    string `json:"gtfsId"`
		ShortName string `json:"shortName"`
		LongName  string `json:"longName"`
		Mode      string `json:"mode"`
		Patterns  []struct {
			Code        string           `json:"code"`
			DirectionID *int             `json:"directionId"`
			Headsign    string           `json:"headsign"`
			Stops       []transit.Stop   `json:"stops"`
			Geometry    []transit.LatLon `json:"geometry"`
		} `json:"patterns"`
	} `json:"routes"`
}

// ToStop maps a wire stop onto the domain model.
func (w *WireStop) ToStop() transit.Stop {
	s := transit.Stop{
		GtfsID: w.GtfsID,
		Name:   w.Name,
		Code:   w.Code,
		Lat:    w.Lat,
		Lon:    w.Lon,
	}
	for _, st := range w.StopTimes {
		s.Departures = append(s.Departures, st.ToDeparture())
	}
	return s
}

func (w WireStopTime) ToDeparture() transit.Departure {
	d := transit.Departure{
		ScheduledArrival:   w.ScheduledArrival,
		ScheduledDeparture: w.ScheduledDeparture,
		RealtimeArrival:    w.RealtimeArrival,
		Delay:              w.ArrivalDelay,
		Realtime:           w.Realtime,
		StopPosition:       w.StopPosition,
		Headsign:           w.Headsign,
	}
	if w.Trip == nil {
		return d
	}
	trip := &transit.Trip{}
	if w.Trip.Route != nil {
		trip.Route = &transit.Route{
			GtfsID:    w.Trip.Route.GtfsID,
			ShortName: w.Trip.Route.ShortName,
			LongName:  w.Trip.Route.LongName,
		}
	}
	for _, st := range w.Trip.StopTimes {
		entry := transit.StopTime{StopPosition: st.StopPosition}
		if st.Stop != nil {
			entry.Stop = &transit.Stop{GtfsID: st.Stop.GtfsID, Name: st.Stop.Name}
		}
		trip.StopTimes = append(trip.StopTimes, entry)
	}
	d.Trip = trip
	return d
}

// ToPlan maps a wire itinerary onto the domain model, decoding each leg's
// geometry with the supplied decoder so this package stays free of the
// polyline dependency direction.
func (w WireItinerary) ToPlan(decode func(string) []transit.LatLon) transit.JourneyPlan {
	plan := transit.JourneyPlan{
		StartTime:    w.StartTime,
		EndTime:      w.EndTime,
		Duration:     w.Duration,
		WalkDistance: w.WalkDistance,
	}
	for _, wl := range w.Legs {
		leg := transit.Leg{
			Mode:      wl.Mode,
			StartTime: wl.StartTime,
			EndTime:   wl.EndTime,
			Duration:  wl.Duration,
			Distance:  wl.Distance,
			Realtime:  wl.RealTime,
			From:      wl.From.ToPlace(),
			To:        wl.To.ToPlace(),
		}
		if wl.Route != nil {
			leg.Route = &transit.Route{
				GtfsID:    wl.Route.GtfsID,
				ShortName: wl.Route.ShortName,
				LongName:  wl.Route.LongName,
			}
		}
		for _, p := range wl.IntermediateStops {
			leg.IntermediateStops = append(leg.IntermediateStops, p.ToPlace())
		}
		if wl.LegGeometry != nil && decode != nil {
			leg.Geometry = decode(wl.LegGeometry.Points)
		}
		plan.Legs = append(plan.Legs, leg)
	}
	return plan
}

func (w WirePlace) ToPlace() transit.Place {
	p := transit.Place{Name: w.Name, Lat: w.Lat, Lon: w.Lon}
	if w.Stop != nil {
		p.Stop = &transit.Stop{
			GtfsID: w.Stop.GtfsID,
			Name:   w.Stop.Name,
			Code:   w.Stop.Code,
			Lat:    w.Stop.Lat,
			Lon:    w.Stop.Lon,
		}
	}
	return p
}
