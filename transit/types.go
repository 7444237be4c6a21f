package transit

// LatLon is a WGS84 coordinate pair.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Stop is an immutable geographic fact identified by a feed-namespaced id
// (e.g. "Tartu:7820304-1"). The Departures overlay and the Distance scalar
// are refreshed out-of-band and carry no independent lifecycle.
type Stop struct {
	GtfsID string  `json:"gtfsId"`
	Name   string  `json:"name"`
	Code   string  `json:"code,omitempty"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`

	// Distance to a reference point in meters, set on demand.
	Distance *float64 `json:"distance,omitempty"`

	// Upcoming departures, re-derived on every refresh.
	Departures []Departure `json:"departures,omitempty"`
}

// Departure is a single upcoming service at a stop. Times are seconds since
// local midnight and may exceed 86400 for late-night trips.
type Departure struct {
	ScheduledArrival   int    `json:"scheduledArrival"`
	ScheduledDeparture int    `json:"scheduledDeparture"`
	RealtimeArrival    *int   `json:"realtimeArrival,omitempty"`
	Delay              *int   `json:"arrivalDelay,omitempty"`
	Realtime           bool   `json:"realtime"`
	StopPosition       int    `json:"stopPosition"`
	Headsign           string `json:"headsign"`
	Trip               *Trip  `json:"trip,omitempty"`
}

// Trip links a departure to its route and the ordered stop-time sequence,
// which is enough to answer "which stops come after this boarding" without a
// second query.
type Trip struct {
	Route     *Route     `json:"route,omitempty"`
	StopTimes []StopTime `json:"stoptimes,omitempty"`
}

// StopTime is one entry of a trip's stop sequence. StopPosition is 1-based
// and monotonic along the trip.
type StopTime struct {
	Stop         *Stop `json:"stop,omitempty"`
	StopPosition int   `json:"stopPosition"`
}

// Route is a bus line. ShortName is the user-facing label ("3", "21A").
type Route struct {
	GtfsID    string    `json:"gtfsId"`
	ShortName string    `json:"shortName"`
	LongName  string    `json:"longName,omitempty"`
	Mode      string    `json:"mode,omitempty"`
	Patterns  []Pattern `json:"patterns,omitempty"`
}

// Pattern is a single directional variant of a route. DirectionID is 0 or 1;
// -1 means the feed did not assign one and a direction must be inferred from
// the stop sequence.
type Pattern struct {
	Code        string   `json:"code,omitempty"`
	DirectionID int      `json:"directionId"`
	Headsign    string   `json:"headsign,omitempty"`
	Stops       []Stop   `json:"stops,omitempty"`
	Geometry    []LatLon `json:"geometry,omitempty"`
}

// Place is a named coordinate, optionally anchored to a stop. Used for
// journey-plan endpoints and geocoder results.
type Place struct {
	Name string  `json:"name,omitempty"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Stop *Stop   `json:"stop,omitempty"`
}

// Leg is one continuous part of a journey: a walk or a single bus ride.
// Start and end times are unix milliseconds as delivered by the planner.
type Leg struct {
	Mode              string   `json:"mode"`
	StartTime         int64    `json:"startTime"`
	EndTime           int64    `json:"endTime"`
	Duration          float64  `json:"duration"`
	Distance          float64  `json:"distance"`
	From              Place    `json:"from"`
	To                Place    `json:"to"`
	Route             *Route   `json:"route,omitempty"`
	Realtime          bool     `json:"realTime,omitempty"`
	Geometry          []LatLon `json:"geometry,omitempty"`
	IntermediateStops []Place  `json:"intermediateStops,omitempty"`
}

// JourneyPlan is one itinerary returned by the planner.
type JourneyPlan struct {
	StartTime    int64   `json:"startTime"`
	EndTime      int64   `json:"endTime"`
	Duration     float64 `json:"duration"`
	WalkDistance float64 `json:"walkDistance"`
	Legs         []Leg   `json:"legs"`
}

// Favorite is a pinned stop. AddedAt is unix milliseconds at insertion.
type Favorite struct {
	GtfsID  string  `json:"gtfsId"`
	Name    string  `json:"name"`
	Code    string  `json:"code,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	AddedAt int64   `json:"addedAt"`
}

// Modes used by the journey planner.
const (
	ModeBus  = "BUS"
	ModeWalk = "WALK"
)

// BusRouteSignature joins the short names of a plan's bus legs, in order,
// with "->". Two plans with the same signature ride the same buses and are
// considered duplicates when merging "how to get here" results.
func (p JourneyPlan) BusRouteSignature() string {
	sig := ""
	for _, leg := range p.Legs {
		if leg.Mode != ModeBus || leg.Route == nil {
			continue
		}
		if sig != "" {
			sig += "->"
		}
		sig += leg.Route.ShortName
	}
	return sig
}
